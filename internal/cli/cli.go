package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/graphbridge/internal/bridge"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Mode selects what the binary does once the bridge is built.
type Mode int

const (
	// ModeTree prints the category tree.
	ModeTree Mode = iota
	// ModeSearch prints the descriptors matching Options.Query.
	ModeSearch
	// ModeDump prints every descriptor as HCL.
	ModeDump
	// ModeServe runs the HTTP server until interrupted.
	ModeServe
)

// Options is the parsed command line.
type Options struct {
	Config    *bridge.Config
	Mode      Mode
	Query     string
	Substring bool
	// Strict turns any build error into a non-zero exit.
	Strict bool
}

// Parse processes command-line arguments. It returns populated Options,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("graphbridge", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
GraphBridge - Exposes Go functions as nodes of a visual graph editor.

Usage:
  graphbridge [options] [MANIFEST_PATH...]

Arguments:
  MANIFEST_PATH
    Path to a single .hcl manifest or a directory containing .hcl manifests.

Options:
`)
		flagSet.PrintDefaults()
	}

	var manifests []string
	flagSet.Func("manifest", "Path to a manifest file or directory. May be repeated.", func(s string) error {
		manifests = append(manifests, s)
		return nil
	})
	httpPortFlag := flagSet.Int("http-port", 8080, "Port for the HTTP server in -serve mode.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent build workers. 0 is unlimited.")
	searchFlag := flagSet.String("search", "", "Print the nodes matching a search query.")
	substringFlag := flagSet.Bool("substring", false, "Match -search terms anywhere in a keyword instead of as a prefix.")
	dumpFlag := flagSet.Bool("dump", false, "Print every node descriptor as HCL.")
	serveFlag := flagSet.Bool("serve", false, "Serve the catalogue over HTTP until interrupted.")
	strictFlag := flagSet.Bool("strict", false, "Exit with a non-zero code if any member fails to build.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	manifests = append(manifests, flagSet.Args()...)
	slog.Debug("Manifest paths determined.", "paths", manifests)

	opts := &Options{Query: *searchFlag, Substring: *substringFlag, Strict: *strictFlag}
	selected := 0
	if *searchFlag != "" {
		opts.Mode = ModeSearch
		selected++
	}
	if *dumpFlag {
		opts.Mode = ModeDump
		selected++
	}
	if *serveFlag {
		opts.Mode = ModeServe
		selected++
	}
	if selected > 1 {
		return nil, false, &ExitError{Code: 2, Message: "only one of -search, -dump and -serve may be given"}
	}

	httpPort := 0
	if opts.Mode == ModeServe {
		httpPort = *httpPortFlag
	}

	config, err := bridge.NewConfig(bridge.Config{
		ManifestPaths: manifests,
		LogFormat:     strings.ToLower(*logFormatFlag),
		LogLevel:      strings.ToLower(*logLevelFlag),
		HTTPPort:      httpPort,
		WorkerCount:   *workersFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	opts.Config = config

	slog.Debug("CLI parser finished successfully.", "mode", opts.Mode)
	return opts, false, nil
}
