package flasher

import "github.com/schollz/progressbar/v3"

// beginProgress starts a new byte-count progress bar for an upload of
// total bytes (spec §4.6 step 4/V3ProgramUpload: "update progress
// indicator"), grounded on the teacher pack's progressbar.Default/Add
// idiom (bigbag-papyrix-flasher, tinyrange-cc/internal/cmd/benchmark).
func (g *Gcf) beginProgress(total int64) {
	g.progress = progressbar.DefaultBytes(total, "flashing "+g.cfg.FilePath)
}

// setProgress moves the bar to an absolute byte offset.
func (g *Gcf) setProgress(done int64) {
	if g.progress == nil {
		return
	}
	_ = g.progress.Set64(done)
	if done >= g.progress.GetMax64() {
		_ = g.progress.Close()
	}
}
