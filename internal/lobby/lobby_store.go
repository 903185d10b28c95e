// internal/lobby/lobby_store.go
package lobby

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/quest/internal/cache"
	"github.com/jason-s-yu/quest/internal/game"
	"github.com/sirupsen/logrus"
)

// Options configure the sessions a Store creates.
type Options struct {
	Timers  game.PhaseTimers
	Journal *cache.Journal
	Logger  logrus.FieldLogger
}

// Store manages active lobby sessions in memory, keyed by lobby code.
// The store lock is never held while a session lock is taken.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*game.Session
	opts     Options
}

// NewStore initializes and returns an empty Store.
func NewStore(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Timers == (game.PhaseTimers{}) {
		opts.Timers = game.DefaultPhaseTimers
	}
	return &Store{
		sessions: make(map[string]*game.Session),
		opts:     opts,
	}
}

// NormalizeCode trims a client supplied lobby code.
func NormalizeCode(code string) string {
	return strings.TrimSpace(code)
}

// GetOrCreate returns the session for code, creating it on first use.
func (s *Store) GetOrCreate(code string) *game.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[code]; ok {
		return sess
	}
	sess := game.NewSession(code)
	sess.Timers = s.opts.Timers
	if s.opts.Journal != nil {
		sess.Journal = s.opts.Journal
	}
	sess.Logger = s.opts.Logger.WithField("lobby", code)
	sess.OnEmpty = func(emptied *game.Session) {
		s.remove(code, emptied)
	}
	s.sessions[code] = sess
	s.opts.Logger.WithField("lobby", code).Info("Lobby created")
	return sess
}

// Get returns the session for code.
func (s *Store) Get(code string) (*game.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[code]
	return sess, ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Delete closes and removes a session.
func (s *Store) Delete(code string) {
	s.mu.Lock()
	sess, ok := s.sessions[code]
	delete(s.sessions, code)
	s.mu.Unlock()

	if ok {
		sess.Close()
		s.opts.Logger.WithField("lobby", code).Info("Lobby deleted")
	}
}

// remove drops sess if it is still the session registered under code.
func (s *Store) remove(code string, sess *game.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[code]; ok && cur == sess {
		delete(s.sessions, code)
		s.opts.Logger.WithField("lobby", code).Info("Lobby emptied and removed")
	}
}

// List returns summaries of every live session, ordered by lobby code.
func (s *Store) List() []game.Summary {
	s.mu.Lock()
	snapshot := make([]*game.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		snapshot = append(snapshot, sess)
	}
	s.mu.Unlock()

	out := make([]game.Summary, 0, len(snapshot))
	for _, sess := range snapshot {
		out = append(out, sess.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LobbyID < out[j].LobbyID })
	return out
}

// Sweep closes and removes sessions idle for longer than idle. It returns the
// number of sessions removed.
func (s *Store) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	s.mu.Lock()
	snapshot := make(map[string]*game.Session, len(s.sessions))
	for code, sess := range s.sessions {
		snapshot[code] = sess
	}
	s.mu.Unlock()

	removed := 0
	for code, sess := range snapshot {
		if !sess.ExpireIfIdle(cutoff) {
			continue
		}
		s.mu.Lock()
		if cur, ok := s.sessions[code]; ok && cur == sess {
			delete(s.sessions, code)
			removed++
		}
		s.mu.Unlock()
	}
	if removed > 0 {
		s.opts.Logger.WithField("removed", removed).Info("Swept idle lobbies")
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(idle)
		}
	}
}

// CloseAll closes every session, used on shutdown.
func (s *Store) CloseAll() {
	s.mu.Lock()
	snapshot := s.sessions
	s.sessions = make(map[string]*game.Session)
	s.mu.Unlock()

	for _, sess := range snapshot {
		sess.Close()
	}
}
