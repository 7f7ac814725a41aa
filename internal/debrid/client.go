package debrid

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/five82/rdlink/internal/rest"
)

// DefaultBaseURL is the Real-Debrid REST endpoint.
const DefaultBaseURL = "https://api.real-debrid.com/rest/1.0"

const clientName = "realdebrid"

var (
	opUser           = rest.GET(clientName, "user", rest.Path("/user"))
	opUnrestrictLink = rest.POST(clientName, "unrestrictLink", rest.Path("/unrestrict/link"))
	opAddMagnet      = rest.POST(clientName, "torrentsAddMagnet", rest.Path("/torrents/addMagnet"))
	opSelectFiles    = rest.POST(clientName, "torrentsSelectFiles", rest.PathFunc(func(args any) string {
		return "/torrents/selectFiles/" + url.PathEscape(args.(TorrentRef).ID)
	}))
	opTorrentInfo = rest.GET(clientName, "torrentsInfo", rest.PathFunc(func(args any) string {
		return "/torrents/info/" + url.PathEscape(args.(TorrentRef).ID)
	}))
)

// Register declares the Real-Debrid operations in reg. It must run once per
// registry, before the first client built on it makes a call.
func Register(reg *rest.Registry) error {
	decls := []struct {
		op   rest.Operation
		opts []rest.Option
	}{
		{opUser, nil},
		{opUnrestrictLink, []rest.Option{rest.WithBody(rest.FormBody)}},
		{opAddMagnet, []rest.Option{rest.WithBody(rest.FormBody)}},
		{opSelectFiles, []rest.Option{rest.WithURLArgs(rest.URLArgs), rest.WithBody(rest.FormBody)}},
		{opTorrentInfo, []rest.Option{rest.WithURLArgs(rest.URLArgs)}},
	}
	for _, d := range decls {
		if err := rest.Define(reg, d.op, d.opts...); err != nil {
			return fmt.Errorf("declare real-debrid operations: %w", err)
		}
	}
	return nil
}

// TorrentAPI is the subset of the client used by Converter.
type TorrentAPI interface {
	AddMagnet(ctx context.Context, req AddMagnetRequest) (*AddedMagnet, error)
	SelectFiles(ctx context.Context, ref TorrentRef, req SelectFilesRequest) error
	TorrentInfo(ctx context.Context, ref TorrentRef) (*TorrentInfo, error)
}

var _ TorrentAPI = (*Client)(nil)

// Client talks to the Real-Debrid REST API.
type Client struct {
	rest        *rest.Client
	accessToken string
}

// NewClient builds a Client for baseURL (DefaultBaseURL when empty) that
// authenticates with accessToken. reg must have been passed to Register.
func NewClient(reg *rest.Registry, baseURL, accessToken string, opts ...rest.ClientOption) (*Client, error) {
	token := strings.TrimSpace(accessToken)
	if token == "" {
		return nil, fmt.Errorf("access token is empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{accessToken: token}
	base, err := rest.NewClient(baseURL, reg, c, opts...)
	if err != nil {
		return nil, fmt.Errorf("init real-debrid client: %w", err)
	}
	c.rest = base
	return c, nil
}

// InterceptRequest adds the bearer token to every call.
func (c *Client) InterceptRequest(req rest.Request) rest.Request {
	return req.WithHeader("Authorization", "Bearer "+c.accessToken)
}

// User returns the authenticated account.
func (c *Client) User(ctx context.Context) (*User, error) {
	var out User
	if err := c.call(ctx, opUser, rest.Args{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnrestrictLink turns a hoster link into a direct download link.
func (c *Client) UnrestrictLink(ctx context.Context, req UnrestrictRequest) (*UnrestrictedLink, error) {
	if strings.TrimSpace(req.Link) == "" {
		return nil, fmt.Errorf("link required")
	}
	var out UnrestrictedLink
	if err := c.call(ctx, opUnrestrictLink, rest.Args{Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddMagnet submits a magnet link and returns the new torrent id.
func (c *Client) AddMagnet(ctx context.Context, req AddMagnetRequest) (*AddedMagnet, error) {
	var out AddedMagnet
	if err := c.call(ctx, opAddMagnet, rest.Args{Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SelectFiles chooses which files of the torrent to download.
func (c *Client) SelectFiles(ctx context.Context, ref TorrentRef, req SelectFilesRequest) error {
	if ref.ID == "" {
		return fmt.Errorf("torrent id required")
	}
	return c.call(ctx, opSelectFiles, rest.Args{URL: ref, Body: req}, nil)
}

// TorrentInfo fetches the current state of a torrent.
func (c *Client) TorrentInfo(ctx context.Context, ref TorrentRef) (*TorrentInfo, error) {
	if ref.ID == "" {
		return nil, fmt.Errorf("torrent id required")
	}
	var out TorrentInfo
	if err := c.call(ctx, opTorrentInfo, rest.Args{URL: ref}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, op rest.Operation, args rest.Args, dest any) error {
	if c == nil || c.rest == nil {
		return fmt.Errorf("client is nil")
	}
	err := c.rest.Do(ctx, op, args, dest)
	if err == nil {
		return nil
	}
	if apiErr, ok := AsAPIError(err); ok {
		return fmt.Errorf("%s: %w", op.Name, apiErr)
	}
	return fmt.Errorf("%s: %w", op.Name, err)
}
