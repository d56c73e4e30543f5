// ABOUTME: User search with debounced queries and follow/unfollow toggles
// ABOUTME: Only the latest query's response is ever applied to the result list

package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/debounce"
	"github.com/markalston/networkhub/internal/session"
)

// DefaultDebounce is the quiet period before a typed query is sent
const DefaultDebounce = 300 * time.Millisecond

// Notices and fallbacks for follow actions
const (
	MsgFollowing    = "Following user"
	MsgUnfollowed   = "Unfollowed successfully"
	MsgFollowFailed = "Action failed"
	MsgSearchFailed = "Search failed"
)

var (
	// ErrUnknownUser is returned when toggling follow on an id not in the results
	ErrUnknownUser = errors.New("user not in search results")
	// ErrBusy is returned while a follow toggle for the same user is outstanding
	ErrBusy = errors.New("follow request already in progress")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("search closed")
)

// API is the subset of the API client used by search
type API interface {
	SearchUsers(ctx context.Context, token, query string) ([]client.SearchResult, error)
	Follow(ctx context.Context, token string, id client.ID) error
	Unfollow(ctx context.Context, token string, id client.ID) error
}

// Session exposes the current credential
type Session interface {
	Credential() string
}

// Option configures a Search
type Option func(*Search)

// WithDebounce overrides DefaultDebounce
func WithDebounce(d time.Duration) Option {
	return func(s *Search) { s.delay = d }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Search) { s.logger = logger }
}

// WithNotify registers fn to run after a debounced response is applied.
// fn runs on the timer goroutine.
func WithNotify(fn func()) Option {
	return func(s *Search) { s.notify = fn }
}

// Search holds the query and its results. Safe for concurrent use.
type Search struct {
	api       API
	session   Session
	logger    *slog.Logger
	notify    func()
	delay     time.Duration
	debouncer *debounce.Debouncer
	ctx       context.Context
	cancel    context.CancelFunc

	mu        sync.Mutex
	query     string
	seq       uint64
	results   []client.SearchResult
	loading   bool
	err       error
	following map[client.ID]bool
	closed    bool
}

// New creates an idle search
func New(api API, sess Session, opts ...Option) *Search {
	s := &Search{
		api:       api,
		session:   sess,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		notify:    func() {},
		delay:     DefaultDebounce,
		results:   []client.SearchResult{},
		following: make(map[client.ID]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.debouncer = debounce.New(s.delay)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// SetQuery records q and schedules a search once typing pauses. A blank
// query cancels any pending search and clears the results immediately.
func (s *Search) SetQuery(q string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.query = q
	s.seq++
	seq := s.seq
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		s.results = []client.SearchResult{}
		s.loading = false
		s.err = nil
		s.mu.Unlock()
		s.debouncer.Cancel()
		return
	}
	s.mu.Unlock()

	s.debouncer.Trigger(func() {
		s.run(s.ctx, seq, trimmed)
		s.notify()
	})
}

// SearchNow runs q immediately, superseding any pending or in-flight search
func (s *Search) SearchNow(ctx context.Context, q string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.query = q
	s.seq++
	seq := s.seq
	s.mu.Unlock()
	s.debouncer.Cancel()

	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		s.mu.Lock()
		s.results = []client.SearchResult{}
		s.err = nil
		s.mu.Unlock()
		return nil
	}
	return s.run(ctx, seq, trimmed)
}

func (s *Search) run(ctx context.Context, seq uint64, q string) error {
	token := s.session.Credential()
	if token == "" {
		return session.ErrNoSession
	}

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	results, err := s.api.SearchUsers(ctx, token, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq || s.closed {
		s.logger.Debug("dropping superseded search", "query", q)
		return nil
	}
	s.loading = false
	if err != nil {
		s.err = err
		s.logger.Debug("search failed", "query", q, "error", err)
		return err
	}
	if results == nil {
		results = []client.SearchResult{}
	}
	s.results = results
	s.err = nil
	return nil
}

// Query returns the current query text
func (s *Search) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Results returns a copy of the current results
func (s *Search) Results() []client.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]client.SearchResult, len(s.results))
	copy(out, s.results)
	return out
}

// Loading reports whether a search for the current query is outstanding
func (s *Search) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading || (s.debouncer.Pending() && strings.TrimSpace(s.query) != "")
}

// Err returns the failure of the latest search, if any
func (s *Search) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ToggleFollow follows or unfollows the user with id depending on the current
// flag. Only that entry changes, and only on success. It returns the new state.
func (s *Search) ToggleFollow(ctx context.Context, id client.ID) (bool, error) {
	token := s.session.Credential()
	if token == "" {
		return false, session.ErrNoSession
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, ErrUnknownUser
	}
	if s.following[id] {
		s.mu.Unlock()
		return false, ErrBusy
	}
	wasFollowing := s.results[idx].IsFollowing
	s.following[id] = true
	s.mu.Unlock()

	var err error
	if wasFollowing {
		err = s.api.Unfollow(ctx, token, id)
	} else {
		err = s.api.Follow(ctx, token, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.following, id)
	if err != nil {
		return wasFollowing, err
	}
	if idx := s.indexLocked(id); idx >= 0 {
		s.results[idx].IsFollowing = !wasFollowing
	}
	return !wasFollowing, nil
}

// FollowPending reports whether a follow toggle for id is outstanding
func (s *Search) FollowPending(id client.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.following[id]
}

func (s *Search) indexLocked(id client.ID) int {
	for i, r := range s.results {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Close cancels pending and in-flight searches; late results are dropped
func (s *Search) Close() {
	s.mu.Lock()
	s.closed = true
	s.seq++
	s.loading = false
	s.mu.Unlock()
	s.debouncer.Cancel()
	s.cancel()
}
