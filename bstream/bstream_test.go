package bstream

import "testing"

func TestPutGetRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	pos := 0
	pos = PutU8(buf, pos, 0x42)
	pos = PutU16LE(buf, pos, 0xBEEF)
	pos = PutU32LE(buf, pos, 0xCAFEFEED)
	_ = PutU64LE(buf, pos, 0x0102030405060708)

	pos = 0
	var v8 uint8
	var v16 uint16
	var v32 uint32
	v8, pos = GetU8(buf, pos)
	v16, pos = GetU16LE(buf, pos)
	v32, pos = GetU32LE(buf, pos)
	v64, _ := GetU64LE(buf, pos)

	if v8 != 0x42 {
		t.Fatalf("u8 = %#x, want 0x42", v8)
	}
	if v16 != 0xBEEF {
		t.Fatalf("u16 = %#x, want 0xBEEF", v16)
	}
	if v32 != 0xCAFEFEED {
		t.Fatalf("u32 = %#x, want 0xCAFEFEED", v32)
	}
	if v64 != 0x0102030405060708 {
		t.Fatalf("u64 = %#x, want 0x0102030405060708", v64)
	}
}

func TestBStreamStickyStatus(t *testing.T) {
	var bs BStream
	Init(&bs, make([]byte, 4))

	bs.PutU32LE(1)
	if bs.Status() != Ok {
		t.Fatalf("status = %v, want Ok", bs.Status())
	}

	bs.PutU8(1) // one byte past the 4-byte buffer
	if bs.Status() != WritePastEnd {
		t.Fatalf("status = %v, want WritePastEnd", bs.Status())
	}

	// Once tripped, further operations are no-ops and the status sticks.
	bs.PutU8(2)
	if bs.Status() != WritePastEnd {
		t.Fatalf("status changed after second write: %v", bs.Status())
	}
}

func TestBStreamNotInitialised(t *testing.T) {
	var bs BStream
	Init(&bs, nil)
	if bs.Status() != NotInitialised {
		t.Fatalf("status = %v, want NotInitialised", bs.Status())
	}
	bs.GetU8()
	if bs.Status() != NotInitialised {
		t.Fatalf("status changed: %v", bs.Status())
	}
}

func TestBStreamReadPastEnd(t *testing.T) {
	var bs BStream
	Init(&bs, []byte{1, 2})
	bs.GetU16LE()
	if bs.Status() != Ok {
		t.Fatalf("status = %v, want Ok", bs.Status())
	}
	bs.GetU8()
	if bs.Status() != ReadPastEnd {
		t.Fatalf("status = %v, want ReadPastEnd", bs.Status())
	}
}
