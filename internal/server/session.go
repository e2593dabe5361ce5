package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/jimwhimpey/beforeafterify/pkg/assets"
	"github.com/jimwhimpey/beforeafterify/pkg/interaction"
	"github.com/jimwhimpey/beforeafterify/pkg/layout"
)

// Session is one user's editing state: the two uploaded assets, their preview
// renditions, the label configs, and the interaction controller that mutates
// them. All access goes through the session mutex, which keeps the drag
// session confined to one logical thread.
type Session struct {
	ID string

	mu       sync.Mutex
	before   *assets.Asset
	after    *assets.Asset
	previews [2]*image.NRGBA
	scale    float64
	labels   [2]*layout.LabelConfig
	ctrl     *interaction.Controller
	lastUsed time.Time
}

// withLock runs fn while holding the session mutex and refreshes the
// last-used timestamp.
func (s *Session) withLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	fn()
}

// Store is a TTL-bounded in-memory session registry.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	done     chan struct{}
}

// NewStore creates a store whose sessions expire after ttl of inactivity and
// starts the background sweeper.
func NewStore(ttl time.Duration) *Store {
	st := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go st.sweep()
	return st
}

// Put registers a session under a fresh random ID and returns the ID.
func (st *Store) Put(s *Session) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	s.ID = id
	s.lastUsed = time.Now()

	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()
	return id, nil
}

// Get looks up a session by ID.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Close stops the background sweeper.
func (st *Store) Close() {
	close(st.done)
}

func (st *Store) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-st.done:
			return
		case now := <-ticker.C:
			st.mu.Lock()
			for id, s := range st.sessions {
				s.mu.Lock()
				expired := now.Sub(s.lastUsed) > st.ttl
				s.mu.Unlock()
				if expired {
					delete(st.sessions, id)
				}
			}
			st.mu.Unlock()
		}
	}
}

func newSessionID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
