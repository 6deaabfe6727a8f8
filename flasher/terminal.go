package flasher

import (
	"github.com/dresden-elektronik/deconz-flasher/device"
	"github.com/dresden-elektronik/deconz-flasher/platform"
	"github.com/dresden-elektronik/deconz-flasher/sstream"
)

// padCol appends str to s, then pads with spaces up to width columns (no
// padding when str is already width or longer), the way handleList lines up
// its fields without fmt's "%-20s".
func padCol(s *sstream.Scanner, str string, width int) {
	s.PutStr(str)
	for n := len(str); n < width; n++ {
		s.PutStr(" ")
	}
}

// handleList implements the -l task: enumerate up to 4 candidate
// coordinator devices and print them (spec §3's "core consumes up to 4
// entries", §6's -l flag).
func handleList(g *Gcf, ev Event) {
	if ev.Kind != PlStarted {
		return
	}

	const maxDevices = 4
	devices, err := g.plat.Enumerate(maxDevices)
	if err != nil {
		g.finish(true, errMsg("enumerate", "", err))
		return
	}

	if len(devices) == 0 {
		g.plat.Print("no devices found")
	}
	for _, d := range devices {
		line := withMsg(func(s *sstream.Scanner) {
			padCol(s, d.Path, 20)
			s.PutStr(" ")
			padCol(s, d.Name, 20)
			s.PutStr(" vid=")
			s.PutStr(d.VID)
			s.PutStr(" pid=")
			s.PutStr(d.PID)
			if d.VID == "" && d.PID == "" {
				if variant, _, ok := device.USBHint(); ok {
					s.PutStr(" (")
					s.PutStr(device.USBHintDescription(variant))
					s.PutStr(", guessed ")
					s.PutStr(variant.String())
					s.PutStr(")")
				}
			}
		})
		g.plat.Print(line)
	}
	g.finish(false, withMsg(func(s *sstream.Scanner) {
		s.PutLong(int64(len(devices)))
		s.PutStr(" device(s)")
	}))
}

// beginConnect opens the port for -c ("connect + debug-print received
// packets") and issues the two read-only diagnostic application-mode
// commands spec.md's distillation documents but doesn't wire up itself
// (see SPEC_FULL.md's supplemented-features section).
func beginConnect(g *Gcf) {
	g.variant, g.baud = classifyWithUSBHint(g, g.cfg.DevicePath, 0, 0, 0)
	if g.cfg.BaudOverride != 0 {
		g.baud = device.Baudrate(g.cfg.BaudOverride)
	}
	if err := g.plat.Connect(g.cfg.DevicePath, int(g.baud)); err != nil {
		g.finish(true, errMsg("connect", g.cfg.DevicePath, err))
		return
	}
	g.plat.Print(withMsg(func(s *sstream.Scanner) {
		s.PutStr("connected ")
		s.PutStr(g.cfg.DevicePath)
		s.PutStr(" @ ")
		s.PutLong(int64(g.baud))
		s.PutStr(" baud")
	}))
	g.sendFramed(queryFirmwareVersionCmd())
	g.sendFramed(queryStatusCmd(g.nextSeq()))
}

// handleConnect prints everything received until the device disconnects
// or the user's process is interrupted; -c never programs anything.
func handleConnect(g *Gcf, ev Event) {
	switch ev.Kind {
	case AsciiReceived:
		g.debugf(platform.LevelDebug, "ascii: %q", ev.Ascii)
	case BootloaderPacketReceived:
		g.plat.Print(withMsg(func(s *sstream.Scanner) {
			s.PutStr("packet: ")
			for _, b := range ev.Packet {
				s.PutHex(uint64(b), 2)
				s.PutStr(" ")
				if s.Status() != sstream.Ok {
					break
				}
			}
		}))
		g.debugHex("rx", ev.Packet)
	case Disconnected:
		g.finish(true, "device disconnected")
	}
}

// beginSniff opens the port for passive sniffing of channel
// g.cfg.SnifferChannel; setting the radio channel itself is a hardware
// collaborator out of this core's scope (spec §1), so this only frames and
// relays whatever the device is already emitting.
func beginSniff(g *Gcf) {
	g.variant, g.baud = classifyWithUSBHint(g, g.cfg.DevicePath, 0, 0, 0)
	if g.cfg.BaudOverride != 0 {
		g.baud = device.Baudrate(g.cfg.BaudOverride)
	}
	if err := g.plat.Connect(g.cfg.DevicePath, int(g.baud)); err != nil {
		g.finish(true, errMsg("connect", g.cfg.DevicePath, err))
		return
	}
	g.plat.Print(withMsg(func(s *sstream.Scanner) {
		s.PutStr("sniffing channel ")
		s.PutLong(int64(g.cfg.SnifferChannel))
		s.PutStr(" -> ")
		s.PutStr(g.cfg.SnifferHost)
		s.PutStr(":")
		s.PutLong(int64(g.cfg.SnifferPort))
	}))
}

// handleSniff relays every decoded frame to the platform's sniffer
// collaborator (spec's out-of-scope UDP relay, injected through
// Platform.RelaySniffedPacket per SPEC_FULL.md's supplemented-features
// section).
func handleSniff(g *Gcf, ev Event) {
	switch ev.Kind {
	case BootloaderPacketReceived:
		if err := g.plat.RelaySniffedPacket(g.cfg.SnifferChannel, ev.Packet); err != nil {
			g.debugf(platform.LevelWarn, "relay failed: %v", err)
		}
	case Disconnected:
		g.finish(true, "device disconnected")
	case PlLoop:
		// idle tick; nothing to drive in the sniffer path itself.
	}
}
