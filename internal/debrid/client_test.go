package debrid

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/five82/rdlink/internal/rest"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	reg := rest.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	c, err := NewClient(reg, serverURL, "tok")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func TestRegister_TwiceOnSameRegistryFails(t *testing.T) {
	reg := rest.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := Register(reg); !errors.Is(err, rest.ErrDuplicateMetadata) {
		t.Fatalf("second Register error = %v, want ErrDuplicateMetadata", err)
	}
}

func TestClient_CallsEndpoints(t *testing.T) {
	t.Parallel()

	type seen struct {
		method string
		auth   string
		form   url.Values
	}
	var mu sync.Mutex
	got := map[string]seen{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(data))
		mu.Lock()
		got[r.URL.Path] = seen{method: r.Method, auth: r.Header.Get("Authorization"), form: form}
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/rest/1.0/user":
			_ = json.NewEncoder(w).Encode(User{ID: 1, Username: "alice", Type: "premium", Premium: 3600})
		case "/rest/1.0/torrents/addMagnet":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(AddedMagnet{ID: "ABC", URI: "https://x/torrents/info/ABC"})
		case "/rest/1.0/torrents/selectFiles/ABC":
			w.WriteHeader(http.StatusNoContent)
		case "/rest/1.0/torrents/info/ABC":
			_ = json.NewEncoder(w).Encode(TorrentInfo{ID: "ABC", Status: StatusDownloaded, Progress: 100, Links: []string{"https://host/file"}})
		case "/rest/1.0/unrestrict/link":
			_ = json.NewEncoder(w).Encode(UnrestrictedLink{ID: "L", Download: "https://dl/file.mkv", Filesize: 42})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL+"/rest/1.0")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	user, err := c.User(ctx)
	if err != nil {
		t.Fatalf("User returned error: %v", err)
	}
	if user.Username != "alice" || user.PremiumLeft() != time.Hour {
		t.Fatalf("User = %#v, want alice with 1h premium", user)
	}

	added, err := c.AddMagnet(ctx, AddMagnetRequest{Magnet: "magnet:?xt=urn:btih:1", Host: "uptobox.com"})
	if err != nil {
		t.Fatalf("AddMagnet returned error: %v", err)
	}
	if added.ID != "ABC" {
		t.Fatalf("AddMagnet id = %q, want ABC", added.ID)
	}
	if err := c.SelectFiles(ctx, TorrentRef{ID: added.ID}, SelectFilesRequest{Files: SelectAll}); err != nil {
		t.Fatalf("SelectFiles returned error: %v", err)
	}
	info, err := c.TorrentInfo(ctx, TorrentRef{ID: added.ID})
	if err != nil {
		t.Fatalf("TorrentInfo returned error: %v", err)
	}
	if len(info.Links) != 1 || info.Status != StatusDownloaded {
		t.Fatalf("TorrentInfo = %#v", info)
	}
	link, err := c.UnrestrictLink(ctx, UnrestrictRequest{Link: info.Links[0]})
	if err != nil {
		t.Fatalf("UnrestrictLink returned error: %v", err)
	}
	if link.Download != "https://dl/file.mkv" {
		t.Fatalf("Download = %q", link.Download)
	}

	mu.Lock()
	defer mu.Unlock()
	add := got["/rest/1.0/torrents/addMagnet"]
	if add.method != http.MethodPost || add.form.Get("magnet") != "magnet:?xt=urn:btih:1" || add.form.Get("host") != "uptobox.com" {
		t.Fatalf("addMagnet request = %#v", add)
	}
	if sel := got["/rest/1.0/torrents/selectFiles/ABC"]; sel.form.Get("files") != "all" {
		t.Fatalf("selectFiles form = %v, want files=all", sel.form)
	}
	if un := got["/rest/1.0/unrestrict/link"]; un.form.Get("link") != "https://host/file" || un.form.Has("password") {
		t.Fatalf("unrestrict form = %v", un.form)
	}
	for path, s := range got {
		if s.auth != "Bearer tok" {
			t.Fatalf("%s Authorization = %q, want Bearer tok", path, s.auth)
		}
	}
	if got["/rest/1.0/user"].method != http.MethodGet {
		t.Fatalf("user method = %q, want GET", got["/rest/1.0/user"].method)
	}
}

func TestClient_APIErrorPayload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad_token","error_code":8}`))
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)
	_, err := c.User(context.Background())
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("AsAPIError(%v) = false, want true", err)
	}
	if apiErr.Message != "bad_token" || apiErr.Code != 8 || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("APIError = %#v", apiErr)
	}
	var terr *rest.TransportError
	if !errors.As(err, &terr) || string(terr.Body) != `{"error":"bad_token","error_code":8}` {
		t.Fatalf("error chain lacks TransportError with raw body: %v", err)
	}
}

func TestClient_ValidatesInput(t *testing.T) {
	reg := rest.NewRegistry()
	if _, err := NewClient(reg, "", "  "); err == nil {
		t.Fatalf("NewClient accepted empty token")
	}
	c, err := NewClient(reg, "", "tok")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if c.rest.BaseURL() != DefaultBaseURL {
		t.Fatalf("BaseURL = %q, want default", c.rest.BaseURL())
	}
	if _, err := c.TorrentInfo(context.Background(), TorrentRef{}); err == nil {
		t.Fatalf("TorrentInfo accepted empty id")
	}
	if err := c.SelectFiles(context.Background(), TorrentRef{}, SelectFilesRequest{Files: SelectAll}); err == nil {
		t.Fatalf("SelectFiles accepted empty id")
	}
	if _, err := c.UnrestrictLink(context.Background(), UnrestrictRequest{}); err == nil {
		t.Fatalf("UnrestrictLink accepted empty link")
	}
}

func TestClient_InterceptRequestLeavesInputUntouched(t *testing.T) {
	c := &Client{accessToken: "tok"}
	in := rest.Request{URL: "https://x", Method: http.MethodGet}
	out := c.InterceptRequest(in)
	if in.Header.Get("Authorization") != "" {
		t.Fatalf("input request mutated")
	}
	if out.Header.Get("Authorization") != "Bearer tok" {
		t.Fatalf("Authorization = %q", out.Header.Get("Authorization"))
	}
}

func TestTorrentInfoHelpers(t *testing.T) {
	info := TorrentInfo{
		Added: "2024-03-01T10:11:12.000Z",
		Files: []TorrentFile{{ID: 1, Selected: 1}, {ID: 2}, {ID: 3, Selected: 1}},
	}
	if info.ParsedAdded().IsZero() {
		t.Fatalf("ParsedAdded should parse API timestamps")
	}
	if sel := info.SelectedFiles(); len(sel) != 2 || sel[1].ID != 3 {
		t.Fatalf("SelectedFiles = %#v", sel)
	}
	if !(User{Expiration: "garbage"}).ParsedExpiration().IsZero() {
		t.Fatalf("ParsedExpiration should return zero for invalid input")
	}
}
