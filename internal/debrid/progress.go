package debrid

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Progress is a structured view of the conversion at one point in time.
type Progress struct {
	Stage     Stage
	TorrentID string
	Filename  string
	Status    string
	Percent   float64
	Bytes     int64
	Speed     int64
	Seeders   int
	Links     int
	Message   string
}

// Fraction returns Percent clamped to [0, 1].
func (p Progress) Fraction() float64 {
	switch {
	case p.Percent <= 0:
		return 0
	case p.Percent >= 100:
		return 1
	default:
		return p.Percent / 100
	}
}

// Detail summarises size, speed and seeders, omitting unknown values.
func (p Progress) Detail() string {
	var parts []string
	if p.Bytes > 0 {
		parts = append(parts, humanize.IBytes(uint64(p.Bytes)))
	}
	if p.Speed > 0 {
		parts = append(parts, humanize.IBytes(uint64(p.Speed))+"/s")
	}
	if p.Seeders > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", p.Seeders, plural(p.Seeders, "seeder", "seeders")))
	}
	return strings.Join(parts, " · ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
