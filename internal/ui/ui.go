package ui

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rdlink/internal/state"
)

// Options configure the UI runtime.
type Options struct {
	Store        *state.Store
	Magnet       string
	ThemeName    string
	RefreshEvery time.Duration

	// Cancel is called when the user aborts from the keyboard.
	Cancel func()

	// OnThemeChange receives the theme selected with the t key.
	OnThemeChange func(string)

	// Output defaults to os.Stderr so stdout stays free for the link.
	Output io.Writer
}

// Run starts the Bubble Tea program and blocks until the conversion
// finishes, the user quits, or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	p := tea.NewProgram(New(opts),
		tea.WithContext(ctx),
		tea.WithOutput(out),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
