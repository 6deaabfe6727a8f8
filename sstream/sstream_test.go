package sstream

import "testing"

func TestStartsWithAndFind(t *testing.T) {
	var s Scanner
	InitFromString(&s, "/dev/ttyACM0")

	if !s.StartsWith("/dev/") {
		t.Fatal("expected StartsWith to match")
	}
	if !s.Find("ttyACM") {
		t.Fatal("expected Find to match")
	}
	if s.Pos() != 5 {
		t.Fatalf("pos = %d, want 5", s.Pos())
	}
	if s.Find("nope") {
		t.Fatal("expected Find to fail on absent needle")
	}
}

func TestGetLong(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"123", 123},
		{"-45", -45},
		{"+7", 7},
	}
	for _, c := range cases {
		var s Scanner
		InitFromString(&s, c.in)
		got := s.GetLong()
		if got != c.want || s.Status() != Ok {
			t.Errorf("GetLong(%q) = %d status %v, want %d", c.in, got, s.Status(), c.want)
		}
	}

	var s Scanner
	InitFromString(&s, "abc")
	s.GetLong()
	if s.Status() != Invalid {
		t.Fatalf("status = %v, want Invalid", s.Status())
	}
}

func TestGetDouble(t *testing.T) {
	var s Scanner
	InitFromString(&s, "3.25")
	got := s.GetDouble()
	if got != 3.25 {
		t.Fatalf("GetDouble = %v, want 3.25", got)
	}
}

func TestPutStrNoSpace(t *testing.T) {
	var s Scanner
	buf := make([]byte, 4)
	Init(&s, buf)
	s.PutStr("abc")
	if s.Status() != Ok {
		t.Fatalf("status = %v, want Ok", s.Status())
	}
	s.PutStr("d")
	if s.Status() != NoSpace {
		t.Fatalf("status = %v, want NoSpace", s.Status())
	}
}

func TestPutLong(t *testing.T) {
	var s Scanner
	Init(&s, make([]byte, 32))
	s.PutLong(-42)
	if s.String()[:s.Pos()] != "-42" {
		t.Fatalf("got %q, want -42", s.String()[:s.Pos()])
	}
}

func TestPutDoubleSpecials(t *testing.T) {
	var s Scanner
	Init(&s, make([]byte, 32))
	s.PutDouble(nanValue())
	if s.String()[:s.Pos()] != "null" {
		t.Fatalf("NaN -> %q, want null", s.String()[:s.Pos()])
	}
}

func nanValue() float64 {
	var z float64
	return z / z
}

func TestPutHex(t *testing.T) {
	var s Scanner
	Init(&s, make([]byte, 32))
	s.PutHex(0xCAFE, 4)
	if s.String()[:s.Pos()] != "CAFE" {
		t.Fatalf("got %q, want CAFE", s.String()[:s.Pos()])
	}
}
