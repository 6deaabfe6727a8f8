package flasher

import (
	"bytes"
	"testing"

	"github.com/dresden-elektronik/deconz-flasher/platform"
	"github.com/dresden-elektronik/deconz-flasher/protocol"
)

// buildGCF assembles a minimal 14-byte-header GCF file around payload.
func buildGCF(t *testing.T, fileType uint8, target uint32, payload []byte) []byte {
	t.Helper()
	buf := make([]byte, 14+len(payload))
	buf[0], buf[1], buf[2], buf[3] = 0xED, 0xFE, 0xFE, 0xCA
	buf[4] = fileType
	buf[5] = byte(target)
	buf[6] = byte(target >> 8)
	buf[7] = byte(target >> 16)
	buf[8] = byte(target >> 24)
	sz := uint32(len(payload))
	buf[9] = byte(sz)
	buf[10] = byte(sz >> 8)
	buf[11] = byte(sz >> 16)
	buf[12] = byte(sz >> 24)
	buf[13] = 0 // crc8, opaque
	copy(buf[14:], payload)
	return buf
}

func newTestGcf(t *testing.T, mock *platform.Mock, cfg Config) *Gcf {
	t.Helper()
	g := New(cfg, mock)
	g.Dispatch(Event{Kind: PlStarted})
	return g
}

// TestV1UploadScenario exercises spec §8 scenario 6: a 700-byte payload
// delivered over the V1 bootloader's GET-page protocol after a
// "Bootloader ready" banner.
func TestV1UploadScenario(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 700)
	content := buildGCF(t, 7, 0, payload)

	mock := platform.NewMock()
	mock.Files["fw.gcf"] = content

	cfg := Config{Mode: ModeProgram, DevicePath: "/dev/ttyUSB0", FilePath: "fw.gcf", MaxTimeSeconds: 10}
	g := newTestGcf(t, mock, cfg)

	if g.state != ResetUart {
		t.Fatalf("state after PlStarted = %v, want ResetUart", g.state)
	}

	// Device drops the endpoint as it resets into the bootloader.
	g.Dispatch(Event{Kind: Disconnected})
	if g.state != BootloaderQuery {
		t.Fatalf("state after reset = %v, want BootloaderQuery", g.state)
	}

	mock.Deliver(g, []byte("Bootloader ready\n"))
	if g.state != V1ProgramSync {
		t.Fatalf("state after banner = %v, want V1ProgramSync", g.state)
	}
	if !bytes.Equal(lastN(mock.Written, 4), v1SyncCookie) {
		t.Fatalf("sync cookie not transmitted, wrote % X", mock.Written)
	}

	mock.Deliver(g, []byte("READY\n"))
	if g.state != V1ProgramWriteHeader {
		t.Fatalf("state after READY = %v, want V1ProgramWriteHeader", g.state)
	}
	header := lastN(mock.Written, 10)
	wantHeader := []byte{0xBC, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 7, 0}
	if !bytes.Equal(header, wantHeader) {
		t.Fatalf("header = % X, want % X", header, wantHeader)
	}

	for page := uint16(0); page < 3; page++ {
		before := len(mock.Written)
		req := []byte("GET")
		req = append(req, byte(page), byte(page>>8), ';')
		mock.Deliver(g, req)

		sent := mock.Written[before:]
		wantLen := 256
		if page == 2 {
			wantLen = 700 - 512
		}
		if len(sent) != wantLen {
			t.Fatalf("page %d: sent %d bytes, want %d", page, len(sent), wantLen)
		}
		if !bytes.Equal(sent, payload[int(page)*256:int(page)*256+wantLen]) {
			t.Fatalf("page %d: wrong content", page)
		}
	}

	if g.state != V1ProgramValidate {
		t.Fatalf("state after last page = %v, want V1ProgramValidate", g.state)
	}

	mock.Deliver(g, []byte("#VALID CRC\n"))
	if !mock.ShutdownRequested {
		t.Fatalf("shutdown not requested after #VALID CRC")
	}
	done, failed, _ := g.Done()
	if !done || failed {
		t.Fatalf("Done() = (%v,%v), want (true,false)", done, failed)
	}
}

// TestV3UploadScenario drives a small payload through the V3 bootloader's
// UpdateRequest/DataRequest/ID_RESPONSE handshake (spec §4.6's V3 table).
func TestV3UploadScenario(t *testing.T) {
	payload := bytes.Repeat([]byte{0x5A}, 10)
	content := buildGCF(t, 30, 0x5000, payload)

	mock := platform.NewMock()
	mock.Files["fw.gcf"] = content

	cfg := Config{Mode: ModeProgram, DevicePath: "/dev/ttyACM0", FilePath: "fw.gcf", MaxTimeSeconds: 10}
	g := newTestGcf(t, mock, cfg)

	g.Dispatch(Event{Kind: Disconnected})
	if g.state != BootloaderQuery {
		t.Fatalf("state = %v, want BootloaderQuery", g.state)
	}

	idResp := []byte{0x81, 0x82, 1, 0, 0, 0, 0, 0, 0, 0}
	deliverFramed(mock, g, idResp)
	if g.state != V3ProgramSync {
		t.Fatalf("state after ID_RESPONSE = %v, want V3ProgramSync", g.state)
	}

	updateResp := []byte{0x81, 0x83, 0x00}
	deliverFramed(mock, g, updateResp)
	if g.state != V3ProgramUpload {
		t.Fatalf("state after accepted update = %v, want V3ProgramUpload", g.state)
	}

	dataReq := func(offset uint32, length uint16) []byte {
		return []byte{0x81, 0x04,
			byte(offset), byte(offset >> 8), byte(offset >> 16), byte(offset >> 24),
			byte(length), byte(length >> 8),
		}
	}

	before := len(mock.Written)
	deliverFramed(mock, g, dataReq(0, 10))
	if len(mock.Written) == before {
		t.Fatalf("no data response sent")
	}
	if g.state != V3ProgramWaitID {
		t.Fatalf("state after final chunk = %v, want V3ProgramWaitID", g.state)
	}

	finalID := []byte{0x81, 0x82, 1, 0, 0, 0, 0xAA, 0xBB, 0xCC, 0xDD}
	deliverFramed(mock, g, finalID)
	if !mock.ShutdownRequested {
		t.Fatalf("shutdown not requested after ID_RESPONSE")
	}
}

func deliverFramed(mock *platform.Mock, g *Gcf, payload []byte) {
	var buf bytes.Buffer
	_ = protocol.SendFlagged(flushWriter{&buf}, payload)
	mock.Deliver(g, buf.Bytes())
}

type flushWriter struct{ buf *bytes.Buffer }

func (w flushWriter) WriteByte(c byte) error { return w.buf.WriteByte(c) }
func (w flushWriter) Flush() error           { return nil }

func lastN(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[len(data)-n:]
}

// TestListMode exercises the -l task against a Mock with staged devices.
func TestListMode(t *testing.T) {
	mock := platform.NewMock()
	mock.Devices = []platform.Device{{Path: "/dev/ttyACM0", Name: "ConBee II"}}

	g := newTestGcf(t, mock, Config{Mode: ModeList})
	done, failed, _ := g.Done()
	if !done || failed {
		t.Fatalf("Done() = (%v,%v), want (true,false)", done, failed)
	}
	if len(mock.Log) == 0 {
		t.Fatalf("expected at least one printed line")
	}
}

// TestResetOnlyFinishesOnSuccess exercises -r with a watchdog-reset ack.
func TestResetOnlyFinishesOnSuccess(t *testing.T) {
	mock := platform.NewMock()
	cfg := Config{Mode: ModeResetOnly, DevicePath: "/dev/ttyUSB0", MaxTimeSeconds: 5}
	g := newTestGcf(t, mock, cfg)

	ack := []byte{0x0B, 1, 0, 0, 0, 0, 0, 0x26}
	deliverFramed(mock, g, ack)

	done, failed, _ := g.Done()
	if !done || failed {
		t.Fatalf("Done() = (%v,%v), want (true,false)", done, failed)
	}
}

// TestRetryHelper exercises the shared retry() helper directly: it should
// loop back to Init while wall time remains under max_time, and shut down
// failed once the deadline passes (spec §4.6's Retry paragraph).
func TestRetryHelper(t *testing.T) {
	mock := platform.NewMock()
	g := New(Config{Mode: ModeResetOnly, DevicePath: "/dev/ttyUSB0", MaxTimeSeconds: 1}, mock)
	g.deadlineMs = 1000

	mock.Advance(500)
	g.retry()
	if done, _, _ := g.Done(); done {
		t.Fatalf("retry finished early at t=500 < deadline 1000")
	}
	if g.state != Init {
		t.Fatalf("retry() should reset state to Init, got %v", g.state)
	}

	mock.Advance(600) // now = 1100 >= deadline 1000
	g.retry()
	done, failed, _ := g.Done()
	if !done || !failed {
		t.Fatalf("Done() = (%v,%v), want (true,true) once the deadline has passed", done, failed)
	}
}
