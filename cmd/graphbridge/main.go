package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/graphbridge/internal/bridge"
	"github.com/vk/graphbridge/internal/cli"
	"github.com/vk/graphbridge/internal/manifest"
)

// main is the entrypoint for the graphbridge application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Results go to outW, logs and the build report to errW.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	b := bridge.New(errW, opts.Config)
	report, err := b.Rebuild(ctx)
	if err != nil {
		return err
	}
	if !report.OK() {
		cli.WriteReport(errW, report)
		if opts.Strict {
			return &cli.ExitError{Code: 1, Message: "build finished with errors"}
		}
	}

	switch opts.Mode {
	case cli.ModeSearch:
		idx, err := b.Index()
		if err != nil {
			return err
		}
		if opts.Substring {
			cli.WriteDescriptors(outW, idx.SearchSubstring(opts.Query))
		} else {
			cli.WriteDescriptors(outW, idx.Search(opts.Query))
		}
	case cli.ModeDump:
		_, err = outW.Write(manifest.Render(b.Descriptors()))
		return err
	case cli.ModeServe:
		b.StartServer()
		<-ctx.Done()
		return b.Shutdown(context.Background())
	default:
		idx, err := b.Index()
		if err != nil {
			return err
		}
		cli.WriteTree(outW, idx)
	}
	return nil
}
