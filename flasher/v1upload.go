package flasher

import "github.com/dresden-elektronik/deconz-flasher/sstream"

// v1SyncCookie is the 4-byte sequence that requests the V1 bootloader
// start a programming session (spec §4.6 step 2, §6).
var v1SyncCookie = []byte{0x1A, 0x1C, 0xA9, 0xAE}

// v1PageSize is the fixed page size the V1 bootloader requests (spec §4.6
// step 4: "raw 256-byte page").
const v1PageSize = 256

// beginV1Sync sends the sync cookie and arms the 500ms wait for "READY"
// (spec §4.6 step 2).
func beginV1Sync(g *Gcf) {
	g.state = V1ProgramSync
	g.ascii.reset()
	if err := g.plat.Write(v1SyncCookie); err != nil {
		g.retry()
		return
	}
	if err := g.plat.Flush(); err != nil {
		g.retry()
		return
	}
	g.plat.SetTimeout(500)
}

func handleV1ProgramSync(g *Gcf, ev Event) {
	switch ev.Kind {
	case AsciiReceived:
		if g.ascii.contains("READY") {
			g.plat.ClearTimeout()
			beginV1WriteHeader(g)
		}
	case Timeout:
		g.retry()
	}
}

// beginV1WriteHeader sends the 10-byte raw header and starts the 1s
// watchdog for the bootloader's first page request (spec §4.6 step 3).
func beginV1WriteHeader(g *Gcf) {
	f := g.file
	header := make([]byte, 10)
	header[0] = byte(f.PayloadSize)
	header[1] = byte(f.PayloadSize >> 8)
	header[2] = byte(f.PayloadSize >> 16)
	header[3] = byte(f.PayloadSize >> 24)
	header[4] = byte(f.TargetAddress)
	header[5] = byte(f.TargetAddress >> 8)
	header[6] = byte(f.TargetAddress >> 16)
	header[7] = byte(f.TargetAddress >> 24)
	header[8] = f.FileType
	header[9] = f.Crc8

	g.ascii.reset()
	if err := g.plat.Write(header); err != nil {
		g.retry()
		return
	}
	if err := g.plat.Flush(); err != nil {
		g.retry()
		return
	}

	g.state = V1ProgramWriteHeader
	g.beginProgress(int64(f.PayloadSize))
	g.plat.SetTimeout(1000)
}

// handleV1Upload answers each "GET <page>;" request from the bootloader
// with the corresponding raw 256-byte page, tracking the shared handler
// for both V1ProgramWriteHeader (waiting for the first request) and
// V1ProgramUpload (spec §4.6 step 4).
func handleV1Upload(g *Gcf, ev Event) {
	switch ev.Kind {
	case AsciiReceived:
		page, end, ok := scanGetRequest(g.ascii.bytes())
		if !ok {
			return
		}
		g.ascii.consume(end)
		g.plat.ClearTimeout()
		sendV1Page(g, page)
	case Timeout:
		g.retry()
	}
}

func sendV1Page(g *Gcf, page uint16) {
	payload := g.file.Payload()
	offset := int(page) * v1PageSize
	if offset >= len(payload) {
		g.retry()
		return
	}

	end := offset + v1PageSize
	last := end >= len(payload)
	if last {
		end = len(payload)
	}
	chunk := payload[offset:end]

	if err := g.plat.Write(chunk); err != nil {
		g.retry()
		return
	}
	if err := g.plat.Flush(); err != nil {
		g.retry()
		return
	}
	g.setProgress(int64(end))

	if last {
		g.state = V1ProgramValidate
		g.plat.SetTimeout(25600)
		return
	}
	g.state = V1ProgramUpload
	g.plat.SetTimeout(2000)
}

// handleV1ProgramValidate awaits the bootloader's "#VALID CRC" confirmation
// (spec §4.6 step 5) and shuts down on success.
func handleV1ProgramValidate(g *Gcf, ev Event) {
	switch ev.Kind {
	case AsciiReceived:
		if g.ascii.contains("#VALID CRC") {
			g.plat.ClearTimeout()
			g.finish(false, withMsg(func(s *sstream.Scanner) {
				s.PutStr("flashed ")
				s.PutStr(g.file.Name)
				s.PutStr(" ok")
			}))
		}
	case Timeout:
		g.retry()
	}
}
