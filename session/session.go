// Package session keeps the per-chat accumulate-then-analyze state.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

type State int

const (
	Idle State = iota
	Accumulating
)

func (s State) String() string {
	if s == Accumulating {
		return "accumulating"
	}
	return "idle"
}

// ErrBufferFull is returned by AppendLine when the line would push the
// buffer past the configured limit. The buffer is left unchanged.
var ErrBufferFull = errors.New("session buffer full")

const maxSessions = 100_000

type entry struct {
	buf string
}

// Store maps a chat ID to its session. A chat with no entry is Idle.
// Entries not touched for the TTL are dropped, returning the chat to Idle.
type Store struct {
	mu       sync.Mutex
	cache    *otter.Cache[int64, entry]
	maxBytes int
}

// New creates a Store. ttl <= 0 disables expiry; maxBytes <= 0 disables the
// buffer limit.
func New(ttl time.Duration, maxBytes int) *Store {
	opts := &otter.Options[int64, entry]{
		MaximumSize:     maxSessions,
		InitialCapacity: 64,
	}
	if ttl > 0 {
		opts.ExpiryCalculator = otter.ExpiryAccessing[int64, entry](ttl)
	}
	return &Store{cache: otter.Must(opts), maxBytes: maxBytes}
}

// StartAccumulating puts id into Accumulating with an empty buffer,
// discarding anything collected before.
func (s *Store) StartAccumulating(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(id, entry{})
}

// AppendLine adds text plus a newline to the buffer of an accumulating
// session. It reports false when id is Idle.
func (s *Store) AppendLine(id int64, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache.GetIfPresent(id)
	if !ok {
		return false, nil
	}
	if s.maxBytes > 0 && len(e.buf)+len(text)+1 > s.maxBytes {
		return true, ErrBufferFull
	}
	e.buf += text + "\n"
	s.cache.Set(id, e)
	return true, nil
}

// TakeBufferAndReset returns the collected text and moves id back to Idle.
func (s *Store) TakeBufferAndReset(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.cache.GetIfPresent(id)
	s.cache.Invalidate(id)
	return e.buf
}

// Cancel drops the session of id.
func (s *Store) Cancel(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Invalidate(id)
}

func (s *Store) State(id int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache.GetIfPresent(id); ok {
		return Accumulating
	}
	return Idle
}

// HasData reports whether id is accumulating and its buffer holds more than
// whitespace.
func (s *Store) HasData(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache.GetIfPresent(id)
	return ok && strings.TrimSpace(e.buf) != ""
}

// Active is an estimate of the number of accumulating chats.
func (s *Store) Active() int {
	return s.cache.EstimatedSize()
}
