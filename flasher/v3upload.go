package flasher

import "github.com/dresden-elektronik/deconz-flasher/sstream"

// v3SyncTimeoutMs bounds the wait for the bootloader's update-request
// acknowledgement; spec §4.6 names no explicit figure for this step, so
// this mirrors the per-chunk watchdog used for the rest of the V3 upload
// (see DESIGN.md).
const v3SyncTimeoutMs = 2000

// v3ChunkTimeoutMs bounds the wait for each DATA_REQUEST, same rationale.
const v3ChunkTimeoutMs = 2000

// v3WaitIDTimeoutMs is the wait for the post-upload ID_RESPONSE that
// carries the flashed application's CRC (spec §4.6 step 4: "20s deadline").
const v3WaitIDTimeoutMs = 20000

// beginV3Sync sends the UpdateRequest built from the parsed file (spec
// §4.6 step 2).
func beginV3Sync(g *Gcf) {
	g.state = V3ProgramSync
	f := g.file
	g.sendFramed(v3UpdateRequest(f.PayloadSize, f.TargetAddress, f.FileType, f.Crc32))
	g.plat.SetTimeout(v3SyncTimeoutMs)
}

func handleV3ProgramSync(g *Gcf, ev Event) {
	switch ev.Kind {
	case BootloaderPacketReceived:
		accepted, ok := v3ParseUpdateResponse(ev.Packet)
		if !ok {
			return
		}
		g.plat.ClearTimeout()
		if !accepted {
			g.finish(true, "update request rejected by bootloader")
			return
		}
		beginV3Upload(g)
	case Timeout:
		g.retry()
	}
}

func beginV3Upload(g *Gcf) {
	g.state = V3ProgramUpload
	g.v3PayloadSize = g.file.PayloadSize
	g.beginProgress(int64(g.v3PayloadSize))
	g.plat.SetTimeout(v3ChunkTimeoutMs)
}

// handleV3ProgramUpload answers each DATA_REQUEST with the requested slice
// of the payload, applying the validation rules of spec §4.6's
// V3ProgramUpload paragraph, and moves to V3ProgramWaitID once the final
// chunk has been sent.
func handleV3ProgramUpload(g *Gcf, ev Event) {
	switch ev.Kind {
	case BootloaderPacketReceived:
		offset, length, ok := v3ParseDataRequest(ev.Packet)
		if !ok {
			return
		}
		g.plat.ClearTimeout()
		respondV3Data(g, offset, length)
	case Timeout:
		g.retry()
	}
}

func respondV3Data(g *Gcf, offset uint32, length uint16) {
	payloadSize := g.file.PayloadSize

	var status byte
	var data []byte
	switch {
	case uint64(offset)+uint64(length) > uint64(payloadSize):
		status = dataStatusOutOfRange
	case int(length) > asciiMax-32:
		status = dataStatusTooLong
	case length == 0:
		status = dataStatusZeroLength
	default:
		status = dataStatusOK
		remaining := payloadSize - offset
		n := uint32(length)
		if n > remaining {
			n = remaining
		}
		payload := g.file.Payload()
		data = payload[offset : offset+n]
	}

	g.sendFramed(v3DataResponse(status, offset, data))

	if status != dataStatusOK {
		g.plat.SetTimeout(v3ChunkTimeoutMs)
		return
	}

	sent := offset + uint32(len(data))
	g.setProgress(int64(sent))

	if sent >= payloadSize {
		beginV3WaitID(g)
		return
	}
	g.plat.SetTimeout(v3ChunkTimeoutMs)
}

// beginV3WaitID arms the wait for the bootloader's unsolicited
// ID_RESPONSE once its own post-upload CRC verification finishes; it must
// not request one, since a request sent before that verification completes
// could race it and return a stale app_crc (spec §4.6 step 4).
func beginV3WaitID(g *Gcf) {
	g.state = V3ProgramWaitID
	g.plat.SetTimeout(v3WaitIDTimeoutMs)
}

// handleV3ProgramWaitID awaits the bootloader's post-upload ID_RESPONSE and
// reports a CRC match/mismatch (spec §4.6 step 4).
func handleV3ProgramWaitID(g *Gcf, ev Event) {
	switch ev.Kind {
	case BootloaderPacketReceived:
		_, appCRC, ok := v3ParseIDResponse(ev.Packet)
		if !ok {
			return
		}
		g.plat.ClearTimeout()
		if g.file.HasCrc32 && appCRC != g.file.Crc32 {
			g.finish(true, withMsg(func(s *sstream.Scanner) {
				s.PutStr("crc mismatch: device reports 0x")
				s.PutHex(uint64(appCRC), 8)
				s.PutStr(", file expects 0x")
				s.PutHex(uint64(g.file.Crc32), 8)
			}))
			return
		}
		g.finish(false, withMsg(func(s *sstream.Scanner) {
			s.PutStr("flashed ")
			s.PutStr(g.file.Name)
			s.PutStr(" ok")
		}))
	case Timeout:
		g.retry()
	}
}
