// Package cmd implements the flag-driven CLI surface of spec §6: unlike
// the teacher's subcommand-per-verb tree (cmd/write.go, cmd/read.go, ...),
// this tool's surface is a single root command whose flags select a task
// (reset, program, list, connect, sniff), since the underlying operations
// share one device and one flashing run rather than being independent
// verbs over a mounted disk.
//
// Grounded on the teacher's cmd/root.go (cobra.Command construction,
// SilenceUsage/SilenceErrors) and config/config.go's Load-before-run
// ordering. Execute maps the returned error to the process exit code.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dresden-elektronik/deconz-flasher/config"
	"github.com/dresden-elektronik/deconz-flasher/flasher"
	"github.com/dresden-elektronik/deconz-flasher/platform"
	"github.com/spf13/cobra"
)

// Exit codes per spec §6: 0 success, 2 init/configuration failure,
// non-zero otherwise on a run failure.
const (
	ExitOK     = 0
	ExitInit   = 2
	ExitFailed = 1
)

// initError marks a failure that should exit with ExitInit rather than
// ExitFailed: a bad flag combination, an out-of-range value, or anything
// else wrong before a device was ever touched.
type initError struct{ err error }

func (e initError) Error() string { return e.err.Error() }
func (e initError) Unwrap() error { return e.err }

func wrapInit(err error) error {
	if err == nil {
		return nil
	}
	return initError{err}
}

var opts struct {
	resetOnly bool
	file      string
	device    string
	connect   bool
	list      bool
	maxTime   int
	debug     int
	sniffCh   int
	sniffHost string
	sniffPort int
	tui       bool
	help2     bool
}

var rootCmd = &cobra.Command{
	Use:   "gcfflasher",
	Short: "Flash firmware onto dresden elektronik Zigbee coordinators",
	Long: `gcfflasher programs GCF firmware images onto RaspBee/ConBee/Hive
Zigbee coordinators over a serial UART, auto-detecting which of the two
bootloader protocols the device speaks.`,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	SilenceUsage:      true,
	SilenceErrors:     true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if opts.help2 {
			return cmd.Help()
		}
		return run(cmd)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.resetOnly, "reset", "r", false, "reset only")
	flags.StringVarP(&opts.file, "file", "f", "", "program the given GCF file")
	flags.StringVarP(&opts.device, "device", "d", "", "serial device path (or COM port on Windows)")
	flags.BoolVarP(&opts.connect, "connect", "c", false, "connect and debug-print received packets")
	flags.BoolVarP(&opts.list, "list", "l", false, "list detected devices")
	flags.IntVarP(&opts.maxTime, "time", "t", 0, "overall retry deadline in seconds [0..3600] (default 10 for -f)")
	flags.IntVarP(&opts.debug, "debug", "x", 0, "debug verbosity [0..3]")
	flags.IntVarP(&opts.sniffCh, "sniff", "s", 0, "sniffer mode: 802.15.4 channel [11..26]")
	flags.StringVarP(&opts.sniffHost, "host", "H", "", "sniffer destination host")
	flags.IntVarP(&opts.sniffPort, "port", "p", 0, "network server port [0..65535]")
	flags.BoolVarP(&opts.tui, "interactive", "i", false, "interactive TUI (not built in this distribution)")
	flags.BoolVarP(&opts.help2, "help2", "?", false, "print usage")
	flags.MarkHidden("help2")
}

// buildConfig validates the parsed flags into a flasher.Config, applying
// config-file defaults and device baud overrides (spec §6).
func buildConfig() (flasher.Config, error) {
	var cfg flasher.Config

	set := 0
	if opts.resetOnly {
		set++
	}
	if opts.file != "" {
		set++
	}
	if opts.connect {
		set++
	}
	if opts.list {
		set++
	}
	if opts.sniffCh != 0 {
		set++
	}
	if set == 0 {
		return cfg, fmt.Errorf("one of -r, -f, -c, -l, -s is required")
	}
	if set > 1 {
		return cfg, fmt.Errorf("only one of -r, -f, -c, -l, -s may be given")
	}

	switch {
	case opts.list:
		cfg.Mode = flasher.ModeList
	case opts.connect:
		cfg.Mode = flasher.ModeConnect
		if opts.device == "" {
			return cfg, fmt.Errorf("-c requires -d")
		}
	case opts.sniffCh != 0:
		cfg.Mode = flasher.ModeSniff
		if opts.sniffCh < 11 || opts.sniffCh > 26 {
			return cfg, fmt.Errorf("-s channel %d out of range [11..26]", opts.sniffCh)
		}
		if opts.device == "" {
			return cfg, fmt.Errorf("-s requires -d")
		}
		cfg.SnifferChannel = opts.sniffCh
	case opts.resetOnly:
		cfg.Mode = flasher.ModeResetOnly
		if opts.device == "" {
			return cfg, fmt.Errorf("-r requires -d")
		}
	default:
		cfg.Mode = flasher.ModeProgram
		if opts.device == "" {
			return cfg, fmt.Errorf("-f requires -d")
		}
	}

	cfg.DevicePath = opts.device
	cfg.FilePath = opts.file

	if opts.debug < 0 || opts.debug > 3 {
		return cfg, fmt.Errorf("-x %d out of range [0..3]", opts.debug)
	}
	cfg.DebugLevel = opts.debug

	maxTime := opts.maxTime
	if maxTime == 0 {
		maxTime = config.Loaded.MaxTimeSeconds
		if cfg.Mode == flasher.ModeProgram && maxTime == 0 {
			maxTime = config.DefaultMaxTimeSeconds
		}
	}
	if maxTime < 0 || maxTime > 3600 {
		return cfg, fmt.Errorf("-t %d out of range [0..3600]", maxTime)
	}
	cfg.MaxTimeSeconds = maxTime

	cfg.SnifferHost = opts.sniffHost
	if cfg.SnifferHost == "" {
		cfg.SnifferHost = config.Loaded.Sniffer.Host
	}
	cfg.SnifferPort = opts.sniffPort
	if opts.sniffPort < 0 || opts.sniffPort > 65535 {
		return cfg, fmt.Errorf("-p %d out of range [0..65535]", opts.sniffPort)
	}
	if cfg.SnifferPort == 0 {
		cfg.SnifferPort = config.Loaded.Sniffer.Port
	}

	if baud, ok := config.BaudOverride(cfg.DevicePath); ok {
		cfg.BaudOverride = baud
	}

	return cfg, nil
}

func run(cmd *cobra.Command) error {
	if err := config.Load(); err != nil {
		return wrapInit(err)
	}

	cfg, err := buildConfig()
	if err != nil {
		return wrapInit(err)
	}

	if opts.tui {
		fmt.Fprintln(os.Stderr, "gcfflasher: -i not built with interactive support in this distribution")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: debugSlogLevel(cfg.DebugLevel),
	}))
	plat := platform.NewNative(logger)
	if cfg.Mode == flasher.ModeSniff {
		plat.SetSnifferTarget(fmt.Sprintf("%s:%d", cfg.SnifferHost, cfg.SnifferPort))
	}

	g := flasher.New(cfg, plat)
	g.Dispatch(flasher.Event{Kind: flasher.PlStarted})
	if err := plat.Run(g); err != nil {
		return err
	}

	if _, failed, result := g.Done(); failed {
		return fmt.Errorf("%s", result)
	}
	return nil
}

func debugSlogLevel(x int) slog.Level {
	switch {
	case x >= 2:
		return slog.LevelDebug
	case x >= 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Execute runs the root command and returns the process exit code, per
// spec §6 (0 success, 2 init failure, non-zero otherwise).
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintln(os.Stderr, "gcfflasher:", err)
	var ie initError
	if errors.As(err, &ie) {
		return ExitInit
	}
	return ExitFailed
}
