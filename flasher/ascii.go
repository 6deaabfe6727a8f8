package flasher

import (
	"bytes"

	"github.com/dresden-elektronik/deconz-flasher/sstream"
)

// asciiMax is the fixed accumulator size (spec §9: "ascii[512]"), split
// here from the framing decoder's own 256-byte scratch buffer (protocol.RxState)
// to avoid the original's aliasing between ASCII and v3-framing uses of a
// single shared buffer.
const asciiMax = 512

// asciiBuf is a bounded, non-allocating accumulator for every raw received
// byte, framed or not, scanned for the v1 ASCII traffic (banners, "READY",
// "GET" page requests, "#VALID CRC"). Overflow bytes are silently dropped, matching
// the fixed embedded buffer's saturating behavior in the original source.
type asciiBuf struct {
	buf [asciiMax]byte
	n   int
}

func (a *asciiBuf) append(data []byte) {
	for _, c := range data {
		if a.n >= len(a.buf) {
			return
		}
		a.buf[a.n] = c
		a.n++
	}
}

func (a *asciiBuf) bytes() []byte {
	return a.buf[:a.n]
}

func (a *asciiBuf) reset() {
	a.n = 0
}

// consume removes the first n bytes, shifting the remainder down.
func (a *asciiBuf) consume(n int) {
	copy(a.buf[:a.n-n], a.buf[n:a.n])
	a.n -= n
}

// contains reports whether sub appears in the accumulated bytes.
func (a *asciiBuf) contains(sub string) bool {
	var s sstream.Scanner
	sstream.Init(&s, a.bytes())
	return s.Find(sub)
}

// scanGetRequest looks for a v1 bootloader page request: ASCII "GET",
// followed by a raw little-endian U16 page number, followed by ';'
// (spec §4.6 step 4, §6). Returns the requested page and the byte offset
// just past the match; ok is false if no complete request is present yet.
func scanGetRequest(buf []byte) (page uint16, end int, ok bool) {
	i := bytes.Index(buf, []byte("GET"))
	if i < 0 || i+6 > len(buf) {
		return 0, 0, false
	}
	if buf[i+5] != ';' {
		return 0, 0, false
	}
	page = uint16(buf[i+3]) | uint16(buf[i+4])<<8
	return page, i + 6, true
}
