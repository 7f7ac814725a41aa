package debrid

import (
	"errors"
	"fmt"
	"time"

	"github.com/five82/rdlink/internal/rest"
)

// Torrent statuses reported by /torrents/info.
const (
	StatusMagnetError      = "magnet_error"
	StatusMagnetConversion = "magnet_conversion"
	StatusWaitingSelection = "waiting_files_selection"
	StatusQueued           = "queued"
	StatusDownloading      = "downloading"
	StatusDownloaded       = "downloaded"
	StatusError            = "error"
	StatusVirus            = "virus"
	StatusCompressing      = "compressing"
	StatusUploading        = "uploading"
	StatusDead             = "dead"
)

// SelectAll selects every file of a torrent.
const SelectAll = "all"

// User mirrors GET /user.
type User struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Points     int    `json:"points"`
	Locale     string `json:"locale"`
	Avatar     string `json:"avatar"`
	Type       string `json:"type"`
	Premium    int    `json:"premium"`
	Expiration string `json:"expiration"`
}

// PremiumLeft returns the remaining premium time.
func (u User) PremiumLeft() time.Duration {
	if u.Premium <= 0 {
		return 0
	}
	return time.Duration(u.Premium) * time.Second
}

// ParsedExpiration returns the expiration timestamp when it parses.
func (u User) ParsedExpiration() time.Time {
	return parseTime(u.Expiration)
}

// UnrestrictRequest is the form body of POST /unrestrict/link.
type UnrestrictRequest struct {
	Link     string `url:"link"`
	Password string `url:"password,omitempty"`
	Remote   string `url:"remote,omitempty"`
}

// UnrestrictedLink mirrors the /unrestrict/link response.
type UnrestrictedLink struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mimeType"`
	Filesize   int64  `json:"filesize"`
	Link       string `json:"link"`
	Host       string `json:"host"`
	Chunks     int    `json:"chunks"`
	CRC        int    `json:"crc"`
	Download   string `json:"download"`
	Streamable int    `json:"streamable"`
}

// AddMagnetRequest is the form body of POST /torrents/addMagnet.
type AddMagnetRequest struct {
	Magnet string `url:"magnet"`
	Host   string `url:"host,omitempty"`
	Split  int    `url:"split,omitempty"`
}

// AddedMagnet mirrors the /torrents/addMagnet response.
type AddedMagnet struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// SelectFilesRequest is the form body of POST /torrents/selectFiles/{id}.
// Files is a comma separated list of file ids or SelectAll.
type SelectFilesRequest struct {
	Files string `url:"files"`
}

// TorrentRef identifies a torrent in URL templates.
type TorrentRef struct {
	ID string
}

// TorrentInfo mirrors GET /torrents/info/{id}.
type TorrentInfo struct {
	ID               string        `json:"id"`
	Filename         string        `json:"filename"`
	OriginalFilename string        `json:"original_filename"`
	Hash             string        `json:"hash"`
	Bytes            int64         `json:"bytes"`
	OriginalBytes    int64         `json:"original_bytes"`
	Host             string        `json:"host"`
	Split            int           `json:"split"`
	Progress         float64       `json:"progress"`
	Status           string        `json:"status"`
	Added            string        `json:"added"`
	Ended            string        `json:"ended,omitempty"`
	Speed            int64         `json:"speed,omitempty"`
	Seeders          int           `json:"seeders,omitempty"`
	Links            []string      `json:"links"`
	Files            []TorrentFile `json:"files"`
}

// TorrentFile describes one file inside a torrent.
type TorrentFile struct {
	ID       int    `json:"id"`
	Path     string `json:"path"`
	Bytes    int64  `json:"bytes"`
	Selected int    `json:"selected"`
}

// ParsedAdded returns the parsed Added timestamp.
func (t TorrentInfo) ParsedAdded() time.Time {
	return parseTime(t.Added)
}

// SelectedFiles returns the files chosen for download.
func (t TorrentInfo) SelectedFiles() []TorrentFile {
	var out []TorrentFile
	for _, f := range t.Files {
		if f.Selected == 1 {
			out = append(out, f)
		}
	}
	return out
}

// APIError is the error payload returned by the Real-Debrid API.
type APIError struct {
	Message string `json:"error"`
	Code    int    `json:"error_code"`
	Details string `json:"error_details,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("real-debrid: %s (code %d): %s", e.Message, e.Code, e.Details)
	}
	return fmt.Sprintf("real-debrid: %s (code %d)", e.Message, e.Code)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AsAPIError extracts the Real-Debrid error payload from a failed call.
func AsAPIError(err error) (*APIError, bool) {
	var existing *APIError
	if errors.As(err, &existing) {
		return existing, true
	}
	var terr *rest.TransportError
	if !errors.As(err, &terr) || terr.Err != nil {
		return nil, false
	}
	var apiErr APIError
	if decodeErr := terr.Decode(&apiErr); decodeErr != nil || apiErr.Message == "" {
		return nil, false
	}
	apiErr.Status = terr.Status
	apiErr.Err = terr
	return &apiErr, true
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z07:00"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
