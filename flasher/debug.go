package flasher

import (
	"github.com/dresden-elektronik/deconz-flasher/platform"
	"github.com/dresden-elektronik/deconz-flasher/sstream"
)

// debugHexMax bounds the rendered line length, reserving room for the
// "<label>: " prefix ahead of the hex digits.
const debugHexMax = 256

// debugHex renders data as a fixed-width uppercase hex dump prefixed by
// label and prints it at debug verbosity (spec §4.6/-x 2,3; the original's
// gcfDebugHex). Uses sstream.PutHex rather than fmt's "%x" so the output
// is bounded the same way every other user-visible line in this core is
// (spec §7).
func (g *Gcf) debugHex(label string, data []byte) {
	if g.cfg.DebugLevel < 2 {
		return
	}

	var out [debugHexMax]byte
	var s sstream.Scanner
	sstream.Init(&s, out[:])
	s.PutStr(label)
	s.PutStr(": ")
	for _, b := range data {
		s.PutHex(uint64(b), 2)
		if s.Status() != sstream.Ok {
			break
		}
	}
	g.plat.Printf(platform.LevelDebug, "%s", s.String()[:s.Pos()])
}
