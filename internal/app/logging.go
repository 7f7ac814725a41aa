package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/five82/rdlink/internal/config"
)

const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
)

// newLogger builds the process logger. Logs go to the configured file when
// there is one; otherwise to stderr, except while the TUI owns the screen.
func newLogger(cfg config.Config, verbose, interactive bool, stderr io.Writer) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.WarnLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return zerolog.Nop(), func() {}, fmt.Errorf("create log dir: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			Compress:   true,
		}
		logger := zerolog.New(rotating).Level(level).With().Timestamp().Logger()
		return logger, func() { _ = rotating.Close() }, nil
	}

	if interactive {
		return zerolog.Nop(), func() {}, nil
	}

	out := zerolog.ConsoleWriter{
		Out:        stderr,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(stderr),
	}
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, func() {}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
