package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/rdlink/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: rdlink [flags] <magnet>\n\n")
		flag.PrintDefaults()
	}
	configPath := flag.String("config", "", "override config path (optional)")
	plain := flag.Bool("plain", false, "print progress lines instead of the TUI")
	verbose := flag.Bool("v", false, "enable debug logging")
	showUser := flag.Bool("user", false, "print the Real-Debrid account and exit")
	flag.Parse()

	opts := app.Options{
		ConfigPath: *configPath,
		Plain:      *plain,
		Verbose:    *verbose,
		ShowUser:   *showUser,
	}
	if !opts.ShowUser {
		if flag.NArg() != 1 {
			flag.Usage()
			return 2
		}
		opts.Magnet = flag.Arg(0)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "rdlink: %v\n", err)
		if errors.Is(err, app.ErrMissingToken) || errors.Is(err, app.ErrInvalidMagnet) {
			return 2
		}
		return 1
	}
	return 0
}
