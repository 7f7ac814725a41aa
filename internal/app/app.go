package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/rdlink/internal/config"
	"github.com/five82/rdlink/internal/debrid"
	"github.com/five82/rdlink/internal/prefs"
	"github.com/five82/rdlink/internal/rest"
	"github.com/five82/rdlink/internal/state"
	"github.com/five82/rdlink/internal/ui"
)

var (
	// ErrMissingToken means the configured token variable is unset or empty.
	ErrMissingToken = errors.New("missing Real-Debrid access token")
	// ErrInvalidMagnet means the argument is not a magnet URI.
	ErrInvalidMagnet = errors.New("invalid magnet link")
)

var magnetPattern = regexp.MustCompile(`^magnet:.+`)

// Options configure a single rdlink run.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses $XDG_STATE_HOME/rdlink/prefs.toml
	Magnet     string
	Plain      bool // never start the TUI
	Verbose    bool // force debug logging
	ShowUser   bool // print the account instead of converting

	Stdout io.Writer
	Stderr io.Writer

	// Transport replaces the HTTP transport; nil uses rest.HTTPTransport.
	Transport rest.Transport
}

// Run converts opts.Magnet into a direct download URL and writes it to
// Stdout, or prints the account summary when ShowUser is set.
func Run(ctx context.Context, opts Options) error {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	magnet := strings.TrimSpace(opts.Magnet)
	if !opts.ShowUser {
		if err := ValidateMagnet(magnet); err != nil {
			return err
		}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	token := cfg.Token()
	if token == "" {
		return fmt.Errorf("%w: set %s", ErrMissingToken, tokenEnv(cfg))
	}

	interactive := !opts.Plain && !opts.ShowUser && isTerminal(stderr)
	logger, closeLog, err := newLogger(cfg, opts.Verbose, interactive, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newClient(cfg, token, opts.Transport, logger)
	if err != nil {
		return err
	}

	if opts.ShowUser {
		return printUser(ctx, client, stdout)
	}

	convOpts := []debrid.ConverterOption{
		debrid.WithPollInterval(cfg.PollInterval),
		debrid.WithTimeout(cfg.Timeout),
		debrid.WithHost(cfg.Host),
		debrid.WithConverterLogger(logger),
	}

	var link string
	if interactive {
		link, err = runInteractive(ctx, client, convOpts, uiTheme{cfg: cfg, prefsPath: opts.PrefsPath, logger: logger}, magnet, stderr)
	} else {
		link, err = convert(ctx, client, debrid.NewConverter(client, convOpts...), magnet, func(msg string) {
			fmt.Fprintln(stderr, msg)
		})
	}
	if err != nil {
		return err
	}
	logger.Info().Str("link", link).Msg("conversion complete")
	_, err = fmt.Fprintln(stdout, link)
	return err
}

// ValidateMagnet checks that magnet looks like a magnet URI.
func ValidateMagnet(magnet string) error {
	if !magnetPattern.MatchString(magnet) {
		return fmt.Errorf("%w: %q", ErrInvalidMagnet, magnet)
	}
	return nil
}

func newClient(cfg config.Config, token string, transport rest.Transport, logger zerolog.Logger) (*debrid.Client, error) {
	reg := rest.NewRegistry()
	if err := debrid.Register(reg); err != nil {
		return nil, err
	}
	opts := []rest.ClientOption{rest.WithLogger(logger)}
	if transport != nil {
		opts = append(opts, rest.WithTransport(transport))
	}
	client, err := debrid.NewClient(reg, cfg.BaseURL, token, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// convert runs the torrent workflow and unrestricts the resulting hoster link.
func convert(ctx context.Context, client *debrid.Client, conv *debrid.Converter, magnet string, progress func(string)) (string, error) {
	hosterLink, err := conv.MagnetToURL(ctx, magnet, progress)
	if err != nil {
		return "", err
	}
	res, err := client.UnrestrictLink(ctx, debrid.UnrestrictRequest{Link: hosterLink})
	if err != nil {
		return "", err
	}
	if res.Download == "" {
		return "", fmt.Errorf("unrestrict link: response has no download url")
	}
	return res.Download, nil
}

func runInteractive(ctx context.Context, client *debrid.Client, convOpts []debrid.ConverterOption, theme uiTheme, magnet string, stderr io.Writer) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	conv := debrid.NewConverter(client, append(convOpts, debrid.WithObserver(store.Observe))...)

	g, gctx := errgroup.WithContext(ctx)
	var link string
	g.Go(func() error {
		var err error
		link, err = convert(gctx, client, conv, magnet, store.Message)
		store.Finish(link, err)
		return err
	})
	g.Go(func() error {
		return ui.Run(gctx, ui.Options{
			Store:         store,
			Magnet:        magnet,
			ThemeName:     theme.name(),
			Cancel:        cancel,
			OnThemeChange: theme.save,
			Output:        stderr,
		})
	})
	if err := g.Wait(); err != nil {
		return "", err
	}
	return link, nil
}

// uiTheme resolves the TUI theme: the last one picked with the t key wins
// over the config file.
type uiTheme struct {
	cfg       config.Config
	prefsPath string
	logger    zerolog.Logger
}

func (t uiTheme) name() string {
	p, err := prefs.Load(t.prefsPath)
	if err != nil {
		t.logger.Warn().Err(err).Msg("ignoring prefs")
	}
	if p.Theme != "" {
		return p.Theme
	}
	return t.cfg.Theme
}

func (t uiTheme) save(name string) {
	if err := prefs.Save(t.prefsPath, prefs.Prefs{Theme: name}); err != nil {
		t.logger.Warn().Err(err).Msg("save prefs")
	}
}

func printUser(ctx context.Context, client *debrid.Client, w io.Writer) error {
	user, err := client.User(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "user:    %s\n", user.Username)
	if user.Email != "" {
		fmt.Fprintf(w, "email:   %s\n", user.Email)
	}
	fmt.Fprintf(w, "type:    %s\n", user.Type)
	fmt.Fprintf(w, "points:  %s\n", humanize.Comma(int64(user.Points)))
	if exp := user.ParsedExpiration(); !exp.IsZero() {
		fmt.Fprintf(w, "expires: %s (%s)\n", exp.Format("2006-01-02"), humanize.Time(exp))
	}
	_, err = fmt.Fprintf(w, "premium: %s left\n", premiumLeft(user))
	return err
}

func premiumLeft(user *debrid.User) string {
	left := user.PremiumLeft()
	if left <= 0 {
		return "none"
	}
	days := int64(left.Hours() / 24)
	if days >= 1 {
		return humanize.Comma(days) + " days"
	}
	return left.String()
}

func tokenEnv(cfg config.Config) string {
	if cfg.TokenEnv == "" {
		return "RD_TOKEN"
	}
	return cfg.TokenEnv
}
