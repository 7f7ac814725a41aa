package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rdlink/internal/debrid"
	"github.com/five82/rdlink/internal/state"
)

const (
	defaultRefresh = 200 * time.Millisecond
	maxBarWidth    = 60
	minBarWidth    = 10
)

// Model renders the progress of a single magnet conversion.
type Model struct {
	store    *state.Store
	cancel   func()
	onTheme  func(string)
	pollTick time.Duration
	magnet   string

	theme   Theme
	styles  Styles
	spinner spinner.Model
	bar     progress.Model
	width   int

	snapshot state.Snapshot
	quitting bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	pollTick := opts.RefreshEvery
	if pollTick <= 0 {
		pollTick = defaultRefresh
	}
	theme := GetTheme(opts.ThemeName)
	styles := theme.Styles()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(styles.AccentText),
	)
	bar := progress.New(
		progress.WithSolidFill(theme.Accent),
		progress.WithoutPercentage(),
		progress.WithWidth(maxBarWidth/2),
	)

	return Model{
		store:    opts.Store,
		cancel:   opts.Cancel,
		onTheme:  opts.OnThemeChange,
		pollTick: pollTick,
		magnet:   opts.Magnet,
		theme:    theme,
		styles:   styles,
		spinner:  sp,
		bar:      bar,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		tickCmd(m.pollTick),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = barWidth(msg.Width)
		return m, nil

	case tickMsg:
		if m.quitting {
			return m, nil
		}
		cmds := []tea.Cmd{tickCmd(m.pollTick)}
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		if m.snapshot.Done {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		if m.cancel != nil {
			m.cancel()
		}
		m.quitting = true
		return m, tea.Quit
	case "t":
		m.setTheme(NextTheme(m.theme.Name))
		if m.onTheme != nil {
			m.onTheme(m.theme.Name)
		}
	}
	return m, nil
}

func (m *Model) setTheme(name string) {
	m.theme = GetTheme(name)
	m.styles = m.theme.Styles()
	m.spinner.Style = m.styles.AccentText
	m.bar.FullColor = m.theme.Accent
}

// View implements tea.Model.
func (m Model) View() string {
	snap := m.snapshot
	if snap.Done {
		return m.renderResult() + "\n"
	}
	if m.quitting {
		return m.styles.MutedText.Render("cancelled") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if !snap.HasProgress || snap.Progress.Stage < debrid.StagePolling {
		b.WriteString("  ")
		b.WriteString(m.styles.InfoText.Render(stageLabel(snap.Progress.Stage)))
		b.WriteString("\n")
		return b.String()
	}

	p := snap.Progress
	b.WriteString("  ")
	b.WriteString(m.bar.ViewAs(p.Fraction()))
	b.WriteString(" ")
	b.WriteString(m.styles.Text.Render(fmt.Sprintf("%3.0f%%", p.Fraction()*100)))
	b.WriteString("\n")

	if detail := p.Detail(); detail != "" {
		b.WriteString("  ")
		b.WriteString(m.styles.FaintText.Render(detail))
		b.WriteString("\n")
	}
	if n := len(snap.Messages); n > 0 {
		b.WriteString("  ")
		b.WriteString(m.styles.MutedText.Render(truncate(snap.Messages[n-1], m.lineWidth())))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.FaintText.Render("  q cancel · t theme"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderHeader() string {
	p := m.snapshot.Progress
	name := p.Filename
	if name == "" {
		name = m.magnet
	}
	name = truncateMiddle(name, m.lineWidth()-20)

	status := p.Status
	if status == "" {
		status = "wait"
	}
	return fmt.Sprintf("%s %s %s",
		m.spinner.View(),
		m.styles.StatusStyle(status).Render(titleCase(status)),
		m.styles.Text.Render(name),
	)
}

func (m Model) renderResult() string {
	snap := m.snapshot
	if snap.Failed() {
		return m.styles.DangerText.Render("✗ failed") + " " + m.styles.Text.Render(snap.LastError.Error())
	}
	name := snap.Progress.Filename
	if name == "" {
		name = "link ready"
	}
	return m.styles.SuccessText.Render("✓ ready") + " " + m.styles.Text.Render(truncateMiddle(name, m.lineWidth()-10))
}

func (m Model) lineWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func stageLabel(stage debrid.Stage) string {
	switch stage {
	case debrid.StageSubmitted:
		return "magnet submitted, selecting files"
	case debrid.StageFilesSelected:
		return "files selected"
	default:
		return "submitting magnet"
	}
}

func barWidth(termWidth int) int {
	w := termWidth - 10
	if w > maxBarWidth {
		return maxBarWidth
	}
	if w < minBarWidth {
		return minBarWidth
	}
	return w
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}
