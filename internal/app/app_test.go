package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/five82/rdlink/internal/config"
	"github.com/five82/rdlink/internal/debrid"
)

const testMagnet = "magnet:?xt=urn:btih:0123456789abcdef"

// fakeDebrid serves the subset of the Real-Debrid API used by Run.
type fakeDebrid struct {
	mu       sync.Mutex
	polls    int
	readyAt  int
	status   string
	links    []string
	requests []string
}

func (f *fakeDebrid) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)

		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want Bearer secret", got)
		}
		if r.Method == http.MethodPost {
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm: %v", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/1.0/torrents/addMagnet":
			if r.PostForm.Get("magnet") != testMagnet {
				t.Errorf("magnet = %q", r.PostForm.Get("magnet"))
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":"T1","uri":"https://api/torrents/info/T1"}`)
		case "/rest/1.0/torrents/selectFiles/T1":
			if r.PostForm.Get("files") != "all" {
				t.Errorf("files = %q, want all", r.PostForm.Get("files"))
			}
			w.WriteHeader(http.StatusNoContent)
		case "/rest/1.0/torrents/info/T1":
			f.polls++
			if f.polls < f.readyAt {
				fmt.Fprintf(w, `{"id":"T1","filename":"file.iso","status":"downloading","progress":%d,"links":[]}`, f.polls*10)
				return
			}
			links := `[]`
			if len(f.links) > 0 {
				links = `["` + strings.Join(f.links, `","`) + `"]`
			}
			fmt.Fprintf(w, `{"id":"T1","filename":"file.iso","status":%q,"progress":100,"links":%s}`, f.status, links)
		case "/rest/1.0/unrestrict/link":
			fmt.Fprintf(w, `{"id":"U1","filename":"file.iso","link":%q,"download":"https://dl.example/file.iso"}`, r.PostForm.Get("link"))
		case "/rest/1.0/user":
			fmt.Fprint(w, `{"id":1,"username":"alice","email":"a@example.com","points":1200,"type":"premium","premium":864000,"expiration":"2030-01-02T03:04:05.000Z"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"unknown_ressource","error_code":7}`)
		}
	})
}

func (f *fakeDebrid) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	body := fmt.Sprintf("base_url = %q\npoll_interval = \"5ms\"\ntimeout = \"5s\"\ntoken_env = \"RDLINK_TEST_TOKEN\"\n", baseURL)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func startFake(t *testing.T, fake *fakeDebrid) string {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	t.Setenv("RDLINK_TEST_TOKEN", "secret")
	return writeConfig(t, srv.URL+"/rest/1.0")
}

func TestRun_ConvertsMagnetToDownloadURL(t *testing.T) {
	fake := &fakeDebrid{readyAt: 3, status: "downloaded", links: []string{"https://hoster/abc"}}
	cfgPath := startFake(t, fake)

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), Options{
		ConfigPath: cfgPath,
		Magnet:     testMagnet,
		Stdout:     &stdout,
		Stderr:     &stderr,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v\nstderr:\n%s", err, stderr.String())
	}
	if got := stdout.String(); got != "https://dl.example/file.iso\n" {
		t.Fatalf("stdout = %q, want download url", got)
	}

	progress := stderr.String()
	for _, want := range []string{
		"added magnet link",
		"Convert torrent progress: wait: 0%",
		"Convert torrent progress: downloading: 10%",
		"Convert torrent progress: downloaded: 100%",
	} {
		if !strings.Contains(progress, want) {
			t.Fatalf("stderr missing %q:\n%s", want, progress)
		}
	}

	calls := fake.calls()
	if calls[0] != "POST /rest/1.0/torrents/addMagnet" || calls[len(calls)-1] != "POST /rest/1.0/unrestrict/link" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestRun_RemoteFailureStatus(t *testing.T) {
	fake := &fakeDebrid{readyAt: 1, status: "magnet_error"}
	cfgPath := startFake(t, fake)

	var stdout bytes.Buffer
	err := Run(context.Background(), Options{
		ConfigPath: cfgPath,
		Magnet:     testMagnet,
		Stdout:     &stdout,
		Stderr:     &bytes.Buffer{},
	})
	var convErr *debrid.ConversionError
	if !errors.As(err, &convErr) || convErr.Status != "magnet_error" {
		t.Fatalf("Run error = %v, want ConversionError(magnet_error)", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout = %q, want no partial result", stdout.String())
	}
	for _, c := range fake.calls() {
		if strings.Contains(c, "unrestrict") {
			t.Fatalf("unrestrict called after failure: %v", fake.calls())
		}
	}
}

func TestRun_MultipleLinksUnsupported(t *testing.T) {
	fake := &fakeDebrid{readyAt: 1, status: "downloaded", links: []string{"https://hoster/a", "https://hoster/b"}}
	cfgPath := startFake(t, fake)

	err := Run(context.Background(), Options{
		ConfigPath: cfgPath,
		Magnet:     testMagnet,
		Stdout:     &bytes.Buffer{},
		Stderr:     &bytes.Buffer{},
	})
	var multi *debrid.MultiFileUnsupportedError
	if !errors.As(err, &multi) || len(multi.Links) != 2 {
		t.Fatalf("Run error = %v, want MultiFileUnsupportedError with 2 links", err)
	}
}

func TestRun_ValidatesBeforeAnyCall(t *testing.T) {
	fake := &fakeDebrid{}
	cfgPath := startFake(t, fake)

	err := Run(context.Background(), Options{ConfigPath: cfgPath, Magnet: "http://not-a-magnet", Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	if !errors.Is(err, ErrInvalidMagnet) {
		t.Fatalf("Run error = %v, want ErrInvalidMagnet", err)
	}

	t.Setenv("RDLINK_TEST_TOKEN", "  ")
	err = Run(context.Background(), Options{ConfigPath: cfgPath, Magnet: testMagnet, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("Run error = %v, want ErrMissingToken", err)
	}
	if !strings.Contains(err.Error(), "RDLINK_TEST_TOKEN") {
		t.Fatalf("Run error = %q, want it to name the token variable", err.Error())
	}

	if calls := fake.calls(); len(calls) != 0 {
		t.Fatalf("calls = %v, want none", calls)
	}
}

func TestRun_ShowUser(t *testing.T) {
	fake := &fakeDebrid{}
	cfgPath := startFake(t, fake)

	var stdout bytes.Buffer
	err := Run(context.Background(), Options{ConfigPath: cfgPath, ShowUser: true, Stdout: &stdout, Stderr: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"user:    alice", "type:    premium", "points:  1,200", "expires: 2030-01-02", "premium: 10 days left"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestRun_CancelledContext(t *testing.T) {
	fake := &fakeDebrid{readyAt: 1 << 30, status: "downloaded"}
	cfgPath := startFake(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	stderr := &cancelAfter{n: 3, cancel: cancel}
	err := Run(ctx, Options{ConfigPath: cfgPath, Magnet: testMagnet, Stdout: &bytes.Buffer{}, Stderr: stderr})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

// cancelAfter cancels once n progress lines have been written.
type cancelAfter struct {
	mu     sync.Mutex
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n--
	if c.n == 0 {
		c.cancel()
	}
	return len(p), nil
}

func TestValidateMagnet(t *testing.T) {
	cases := map[string]bool{
		testMagnet: true,
		"magnet:x": true,
		"magnet:":  false,
		"":         false,
		"MAGNET:x": false,
		" magnet:": false,
	}
	for in, ok := range cases {
		err := ValidateMagnet(in)
		if (err == nil) != ok {
			t.Fatalf("ValidateMagnet(%q) = %v, want ok=%v", in, err, ok)
		}
	}
}

func TestNewLogger_LevelsAndFile(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog, err := newLogger(config.Config{LogLevel: "warn"}, false, false, &buf)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	defer closeLog()
	if logger.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("level = %v, want warn", logger.GetLevel())
	}

	logger, _, _ = newLogger(config.Config{LogLevel: "warn"}, true, false, &buf)
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("verbose level = %v, want debug", logger.GetLevel())
	}

	logger, _, _ = newLogger(config.Config{LogLevel: "bogus"}, false, false, &buf)
	if logger.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("invalid level = %v, want warn fallback", logger.GetLevel())
	}

	path := filepath.Join(t.TempDir(), "logs", "rdlink.log")
	logger, closeLog, err = newLogger(config.Config{LogLevel: "info", LogFile: path}, false, true, &buf)
	if err != nil {
		t.Fatalf("newLogger(file): %v", err)
	}
	logger.Info().Str("link", "x").Msg("conversion complete")
	closeLog()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"message":"conversion complete"`) {
		t.Fatalf("log file = %q, want JSON entry", data)
	}
}

func TestUITheme_PrefsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	theme := uiTheme{cfg: config.Config{Theme: "Slate"}, prefsPath: path, logger: zerolog.Nop()}

	if got := theme.name(); got != "Slate" {
		t.Fatalf("name() = %q, want config theme without prefs", got)
	}
	theme.save("Kanagawa")
	if got := theme.name(); got != "Kanagawa" {
		t.Fatalf("name() = %q, want saved theme", got)
	}
}
