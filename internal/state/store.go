package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/rdlink/internal/debrid"
)

const maxMessages = 50

// Snapshot represents the latest conversion state available to the UI.
type Snapshot struct {
	Progress    debrid.Progress
	HasProgress bool
	Messages    []string
	LastUpdated time.Time
	Result      string
	LastError   error
	Done        bool
}

// Failed reports whether the conversion finished with an error.
func (s Snapshot) Failed() bool {
	return s.Done && s.LastError != nil
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Observe records a structured progress update. Updates after Finish are
// ignored.
func (s *Store) Observe(p debrid.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot.Done {
		return
	}
	s.snapshot.Progress = p
	s.snapshot.HasProgress = true
	s.snapshot.LastUpdated = time.Now()
}

// Message appends a progress message, keeping the most recent ones.
func (s *Store) Message(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Messages = append(s.snapshot.Messages, msg)
	if n := len(s.snapshot.Messages); n > maxMessages {
		s.snapshot.Messages = cloneMessages(s.snapshot.Messages[n-maxMessages:])
	}
	s.snapshot.LastUpdated = time.Now()
}

// Finish records the outcome. When err is non-nil the result is discarded.
func (s *Store) Finish(result string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Done = true
	s.snapshot.LastError = err
	if err != nil {
		s.snapshot.Result = ""
	} else {
		s.snapshot.Result = result
	}
	s.snapshot.LastUpdated = time.Now()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Messages = cloneMessages(s.snapshot.Messages)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneMessages(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	dup := make([]string, len(items))
	copy(dup, items)
	return dup
}
