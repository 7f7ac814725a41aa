package debrid

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog"
)

const (
	defaultPollInterval = time.Second
	defaultPollTimeout  = 30 * time.Minute
	defaultHost         = "uptobox.com"
)

// ErrPollTimeout is returned when a torrent does not produce links within
// the configured timeout.
var ErrPollTimeout = errors.New("conversion timed out")

// ConversionError reports a torrent that ended in a failure status.
type ConversionError struct {
	ID     string
	Status string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert failed: torrent %s reported status %q", e.ID, e.Status)
}

// MultiFileUnsupportedError reports a torrent that produced several links.
type MultiFileUnsupportedError struct {
	Links []string
}

func (e *MultiFileUnsupportedError) Error() string {
	return fmt.Sprintf("cannot download split files:\n%s", strings.Join(e.Links, "\n"))
}

// Stage is a step of the magnet conversion. Stages only move forward.
type Stage int

const (
	StageIdle Stage = iota
	StageSubmitted
	StageFilesSelected
	StagePolling
	StageReady
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageSubmitted:
		return "submitted"
	case StageFilesSelected:
		return "files selected"
	case StagePolling:
		return "polling"
	case StageReady:
		return "ready"
	case StageFailed:
		return "failed"
	default:
		return "stage(" + strconv.Itoa(int(s)) + ")"
	}
}

// Terminal reports whether no further transition can happen.
func (s Stage) Terminal() bool {
	return s == StageReady || s == StageFailed
}

// Converter turns magnet links into hoster links by driving a torrent
// through add, select and poll.
type Converter struct {
	api      TorrentAPI
	clock    clock.Clock
	interval time.Duration
	timeout  time.Duration
	host     string
	failures map[string]bool
	observe  func(Progress)
	logger   zerolog.Logger
}

// ConverterOption customises a Converter.
type ConverterOption func(*Converter)

// WithClock sets the clock used for poll waits and the timeout.
func WithClock(clk clock.Clock) ConverterOption {
	return func(c *Converter) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithPollInterval sets the wait between torrent info requests.
func WithPollInterval(d time.Duration) ConverterOption {
	return func(c *Converter) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithTimeout bounds the polling phase. Zero disables the bound.
func WithTimeout(d time.Duration) ConverterOption {
	return func(c *Converter) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithHost sets the hoster hint sent with the magnet.
func WithHost(host string) ConverterOption {
	return func(c *Converter) {
		c.host = strings.TrimSpace(host)
	}
}

// WithFailureStatuses replaces the statuses treated as conversion failures.
func WithFailureStatuses(statuses ...string) ConverterOption {
	return func(c *Converter) {
		c.failures = make(map[string]bool, len(statuses))
		for _, s := range statuses {
			c.failures[s] = true
		}
	}
}

// WithObserver receives a structured snapshot at every transition and poll.
func WithObserver(fn func(Progress)) ConverterOption {
	return func(c *Converter) {
		c.observe = fn
	}
}

// WithConverterLogger sets the logger for poll diagnostics.
func WithConverterLogger(logger zerolog.Logger) ConverterOption {
	return func(c *Converter) {
		c.logger = logger
	}
}

// NewConverter builds a Converter on top of api.
func NewConverter(api TorrentAPI, opts ...ConverterOption) *Converter {
	c := &Converter{
		api:      api,
		clock:    clock.WallClock,
		interval: defaultPollInterval,
		timeout:  defaultPollTimeout,
		host:     defaultHost,
		logger:   zerolog.Nop(),
	}
	WithFailureStatuses(StatusError, StatusMagnetError, StatusVirus, StatusDead)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MagnetToURL submits magnet, selects every file, and polls until the
// torrent yields exactly one link, which it returns. progress is called
// synchronously after each step and each poll.
func (c *Converter) MagnetToURL(ctx context.Context, magnet string, progress func(string)) (string, error) {
	if c == nil || c.api == nil {
		return "", fmt.Errorf("converter is nil")
	}
	run := &conversion{converter: c, progress: progress}

	added, err := c.api.AddMagnet(ctx, AddMagnetRequest{Magnet: magnet, Host: c.host})
	if err != nil {
		return "", run.fail(fmt.Errorf("add magnet: %w", err))
	}
	if added == nil || added.ID == "" {
		return "", run.fail(fmt.Errorf("add magnet: response has no torrent id"))
	}
	ref := TorrentRef{ID: added.ID}
	run.info = TorrentInfo{ID: added.ID}
	run.enter(StageSubmitted, "added magnet link")

	if err := c.api.SelectFiles(ctx, ref, SelectFilesRequest{Files: SelectAll}); err != nil {
		return "", run.fail(fmt.Errorf("select files: %w", err))
	}
	run.enter(StageFilesSelected, "")

	run.info = TorrentInfo{ID: added.ID, Status: "wait"}
	run.enter(StagePolling, progressMessage(run.info))

	var deadline time.Time
	if c.timeout > 0 {
		deadline = c.clock.Now().Add(c.timeout)
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", run.fail(err)
		}
		info, err := c.api.TorrentInfo(ctx, ref)
		if err != nil {
			return "", run.fail(fmt.Errorf("torrent info: %w", err))
		}
		run.info = *info
		run.report(progressMessage(run.info))
		c.logger.Debug().
			Str("torrent", ref.ID).
			Str("status", info.Status).
			Float64("progress", info.Progress).
			Int("links", len(info.Links)).
			Msg("torrent polled")

		if c.failures[info.Status] {
			return "", run.fail(&ConversionError{ID: ref.ID, Status: info.Status})
		}
		if len(info.Links) > 0 {
			break
		}
		if !deadline.IsZero() && !c.clock.Now().Before(deadline) {
			return "", run.fail(fmt.Errorf("torrent %s still %q after %s: %w", ref.ID, info.Status, c.timeout, ErrPollTimeout))
		}

		select {
		case <-ctx.Done():
			return "", run.fail(ctx.Err())
		case <-c.clock.After(c.interval):
		}
	}

	run.enter(StageReady, "")
	if len(run.info.Links) > 1 {
		return "", &MultiFileUnsupportedError{Links: append([]string(nil), run.info.Links...)}
	}
	return run.info.Links[0], nil
}

type conversion struct {
	converter *Converter
	progress  func(string)
	stage     Stage
	info      TorrentInfo
}

func (r *conversion) enter(next Stage, message string) {
	if next <= r.stage || r.stage.Terminal() {
		panic(fmt.Sprintf("debrid: invalid stage transition %s -> %s", r.stage, next))
	}
	r.stage = next
	r.report(message)
}

func (r *conversion) fail(err error) error {
	if !r.stage.Terminal() {
		r.stage = StageFailed
		r.notify("")
	}
	return err
}

func (r *conversion) report(message string) {
	if message != "" && r.progress != nil {
		r.progress(message)
	}
	r.notify(message)
}

func (r *conversion) notify(message string) {
	if r.converter.observe == nil {
		return
	}
	r.converter.observe(Progress{
		Stage:     r.stage,
		TorrentID: r.info.ID,
		Filename:  r.info.Filename,
		Status:    r.info.Status,
		Percent:   r.info.Progress,
		Bytes:     r.info.Bytes,
		Speed:     r.info.Speed,
		Seeders:   r.info.Seeders,
		Links:     len(r.info.Links),
		Message:   message,
	})
}

func progressMessage(info TorrentInfo) string {
	return fmt.Sprintf("Convert torrent progress: %s: %s%%", info.Status, strconv.FormatFloat(info.Progress, 'f', -1, 64))
}
