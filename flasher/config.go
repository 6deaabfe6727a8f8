package flasher

// Mode selects which top-level task Init dispatches into (spec §6's CLI
// surface: -r, -f, -c, -l, -s).
type Mode int

const (
	ModeProgram Mode = iota
	ModeResetOnly
	ModeConnect
	ModeList
	ModeSniff
)

// Config is the parsed command-line/config-file input Init consumes.
// Built by the cmd package's flag parsing, not by flasher itself.
type Config struct {
	Mode Mode

	DevicePath string
	FilePath   string

	// MaxTimeSeconds bounds the retry helper's overall deadline (-t).
	MaxTimeSeconds int
	// DebugLevel gates debugHex and diagnostic Printf calls (-x).
	DebugLevel int

	// BaudOverride, when nonzero, replaces the classifier's baud guess.
	BaudOverride int

	SnifferChannel int
	SnifferHost    string
	SnifferPort    int
}
