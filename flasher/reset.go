package flasher

import (
	"github.com/dresden-elektronik/deconz-flasher/device"
	gcffile "github.com/dresden-elektronik/deconz-flasher/gcf"
	"github.com/dresden-elektronik/deconz-flasher/platform"
	"github.com/dresden-elektronik/deconz-flasher/sstream"
)

const (
	resetUartTimeoutMs = 3000
	ftdiResetIndex     = 0
)

// handleInit parses the already-validated Config, classifies the target
// device and either starts the reset/program flow or jumps straight to a
// terminal mode (list/connect/sniff). Re-entered on Timeout by retry()
// (spec §4.6's "reset to Init" on non-fatal failure).
func handleInit(g *Gcf, ev Event) {
	switch g.cfg.Mode {
	case ModeList:
		g.state = List
		handleList(g, Event{Kind: PlStarted})
		return
	case ModeConnect:
		g.state = Connect
		beginConnect(g)
		return
	case ModeSniff:
		g.state = Sniff
		beginSniff(g)
		return
	}

	if g.cfg.FilePath != "" && g.file == nil {
		buf := make([]byte, gcfMaxReadSize)
		n, err := g.plat.ReadFile(g.cfg.FilePath, buf)
		if err != nil {
			g.finish(true, errMsg("cannot read", g.cfg.FilePath, err))
			return
		}
		f, err := gcffile.Parse(g.cfg.FilePath, buf[:n])
		if err != nil {
			g.finish(true, errMsg("cannot parse", g.cfg.FilePath, err))
			return
		}
		g.file = f
	}

	fileType, target, fwVersion := byte(0), uint32(0), uint32(0)
	if g.file != nil {
		fileType, target, fwVersion = g.file.FileType, g.file.TargetAddress, g.file.FwVersion
	}
	g.variant, g.baud = classifyWithUSBHint(g, g.cfg.DevicePath, fileType, target, fwVersion)
	if g.cfg.BaudOverride != 0 {
		g.baud = device.Baudrate(g.cfg.BaudOverride)
	}

	if err := g.plat.Connect(g.cfg.DevicePath, int(g.baud)); err != nil {
		g.finish(true, errMsg("connect", g.cfg.DevicePath, err))
		return
	}

	// The deadline is fixed on the first entry only; re-entries through
	// retry() must not push it further out.
	if g.deadlineMs == 0 {
		now := g.plat.TimeMs()
		g.deadlineMs = now + uint64(g.cfg.MaxTimeSeconds)*1000
	}

	g.state = ResetUart
	g.attempts = 0
	g.sendFramed(watchdogResetCmd())
	g.plat.SetTimeout(resetUartTimeoutMs)
}

// gcfMaxReadSize is the firmware read buffer size, equal to gcf.MaxFileSize.
const gcfMaxReadSize = 800 * 1024

// classifyWithUSBHint runs the path-based classifier (spec §4.5) and, only
// when it comes back Unknown, falls back to device.USBHint's VID/PID
// enumeration — the "USB enumeration hints" spec §4.5 lists alongside the
// device path as classifier input, for paths (some BSD/old-Linux tty names)
// that carry no recognisable substring of their own.
func classifyWithUSBHint(g *Gcf, path string, fileType uint8, target, fwVersion uint32) (device.Variant, device.Baudrate) {
	variant, baud := device.Classify(path, fileType, target, fwVersion)
	if variant != device.Unknown {
		return variant, baud
	}
	if hv, hb, ok := device.USBHint(); ok {
		g.debugf(platform.LevelInfo, "classified %s via usb enumeration hint", path)
		return hv, hb
	}
	return variant, baud
}

func handleResetUart(g *Gcf, ev Event) {
	switch ev.Kind {
	case UartResetPackage, BootloaderPacketReceived:
		onResetSuccess(g)
	case Disconnected:
		// USB-CDC devices drop the endpoint as the MCU resets; treat as
		// success (spec §4.6 failure semantics).
		onResetSuccess(g)
	case Timeout:
		switch g.variant {
		case device.ConBeeV1:
			g.state = ResetFtdi
			g.plat.Disconnect()
			if err := g.plat.ResetFTDI(ftdiResetIndex, ""); err != nil {
				g.retry()
				return
			}
			if err := g.plat.Connect(g.cfg.DevicePath, int(g.baud)); err != nil {
				g.retry()
				return
			}
			onResetSuccess(g)
		case device.RaspBeeV1, device.RaspBeeV2:
			g.state = ResetRaspBee
			g.plat.Disconnect()
			if err := g.plat.ResetRaspBee(); err != nil {
				g.retry()
				return
			}
			if err := g.plat.Connect(g.cfg.DevicePath, int(g.baud)); err != nil {
				g.retry()
				return
			}
			onResetSuccess(g)
		default:
			// No response pending is plausible if the device was already
			// sitting in its bootloader; proceed optimistically.
			onResetSuccess(g)
		}
	}
}

func handleResetFtdi(g *Gcf, ev Event) {
	switch ev.Kind {
	case FtdiResetSuccess:
		onResetSuccess(g)
	case FtdiResetFailed, Timeout:
		g.retry()
	}
}

func handleResetRaspBee(g *Gcf, ev Event) {
	switch ev.Kind {
	case RaspBeeResetSuccess:
		onResetSuccess(g)
	case RaspBeeResetFailed, Timeout:
		g.retry()
	}
}

func onResetSuccess(g *Gcf) {
	g.plat.ClearTimeout()
	if g.cfg.Mode == ModeResetOnly {
		g.finish(false, "reset ok")
		return
	}

	g.ascii.reset()
	g.attempts = 0
	g.state = BootloaderQuery
	g.plat.SetTimeout(200)
}

// retry is the shared non-fatal-failure helper (spec §4.6): reset to Init
// with a short re-entry timer if the overall deadline hasn't passed,
// otherwise shut down.
func (g *Gcf) retry() {
	g.plat.ClearTimeout()
	now := g.plat.TimeMs()
	if now >= g.deadlineMs {
		g.finish(true, "timed out")
		return
	}
	g.attempts++
	g.plat.Print(withMsg(func(s *sstream.Scanner) {
		s.PutStr("retry ")
		s.PutLong(int64(g.attempts))
	}))
	g.plat.Disconnect()
	g.state = Init
	g.plat.SetTimeout(250)
}
