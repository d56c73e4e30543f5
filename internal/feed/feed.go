// ABOUTME: Feed state: post list, compose form and local like toggles
// ABOUTME: Drops responses that belong to a credential that is no longer current

package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/media"
	"github.com/markalston/networkhub/internal/session"
)

// MsgPostCreated is shown after a successful submit
const MsgPostCreated = "Post created successfully!"

var (
	// ErrEmptyContent is returned when submitting whitespace-only content
	ErrEmptyContent = errors.New("post content is empty")
	// ErrBusy is returned when submitting while a submit is outstanding
	ErrBusy = errors.New("post already being submitted")
	// ErrStale is returned when a response arrives for a superseded credential
	ErrStale = errors.New("response belongs to a previous session")
)

// API is the subset of the API client used by the feed
type API interface {
	ListPosts(ctx context.Context, token string) ([]client.Post, error)
	CreatePost(ctx context.Context, token string, req client.CreatePostRequest) (*client.Post, error)
}

// Session exposes the current credential and its generation
type Session interface {
	Credential() string
	Generation() uint64
}

// Feed holds the post list and compose state. Safe for concurrent use.
type Feed struct {
	api     API
	session Session
	logger  *slog.Logger

	mu         sync.Mutex
	posts      []client.Post
	loaded     bool
	loadedGen  uint64
	loading    bool
	content    string
	image      *media.Image
	submitting bool
}

// New creates an empty feed
func New(api API, sess Session, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Feed{api: api, session: sess, logger: logger}
}

// Load replaces the post list with the server's. The list is left alone on failure.
func (f *Feed) Load(ctx context.Context) error {
	token, gen := f.session.Credential(), f.session.Generation()
	if token == "" {
		return session.ErrNoSession
	}

	f.mu.Lock()
	f.loading = true
	f.mu.Unlock()

	posts, err := f.api.ListPosts(ctx, token)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if gen != f.session.Generation() {
		f.logger.Debug("dropping feed for superseded session", "generation", gen)
		return ErrStale
	}
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []client.Post{}
	}
	f.posts = posts
	f.loaded = true
	f.loadedGen = gen
	f.logger.Debug("feed loaded", "posts", len(posts))
	return nil
}

// Stale reports whether the list needs a fetch for the current credential
func (f *Feed) Stale() bool {
	gen := f.session.Generation()
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.loaded || f.loadedGen != gen
}

// Loading reports whether a fetch is outstanding
func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Posts returns a copy of the current list
func (f *Feed) Posts() []client.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]client.Post, len(f.posts))
	copy(out, f.posts)
	return out
}

// SetContent sets the compose text
func (f *Feed) SetContent(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = content
}

// Content returns the compose text
func (f *Feed) Content() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content
}

// AttachImage loads the image at path for the next post
func (f *Feed) AttachImage(path string) error {
	img, err := media.Load(path)
	if err != nil {
		return err
	}
	img, err = img.Fit(media.MaxDimension)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.image = img
	return nil
}

// ClearImage removes the pending attachment
func (f *Feed) ClearImage() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.image = nil
}

// Image returns the pending attachment, nil when there is none
func (f *Feed) Image() *media.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.image
}

// Submitting reports whether a submit is outstanding
func (f *Feed) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Submit creates a post from the compose state. On success the compose state
// is cleared and the list reloaded; on failure the input is kept.
func (f *Feed) Submit(ctx context.Context) error {
	token, gen := f.session.Credential(), f.session.Generation()
	if token == "" {
		return session.ErrNoSession
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrBusy
	}
	if strings.TrimSpace(f.content) == "" {
		f.mu.Unlock()
		return ErrEmptyContent
	}
	req := client.CreatePostRequest{Content: f.content}
	if f.image != nil {
		req.Image = f.image.DataURI()
	}
	f.submitting = true
	f.mu.Unlock()

	_, err := f.api.CreatePost(ctx, token, req)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.mu.Unlock()
		return err
	}
	if gen == f.session.Generation() {
		f.content = ""
		f.image = nil
	}
	f.mu.Unlock()

	if err := f.Load(ctx); err != nil && !errors.Is(err, ErrStale) {
		f.logger.Warn("feed reload after post failed", "error", err)
	}
	return nil
}

// ToggleLike flips the viewer's like on a post locally. Likes are not sent
// to the server. It reports whether the post was found.
func (f *Feed) ToggleLike(id client.ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		p := &f.posts[i]
		if p.ID != id {
			continue
		}
		if p.IsLiked {
			p.Likes--
		} else {
			p.Likes++
		}
		p.IsLiked = !p.IsLiked
		return true
	}
	return false
}

// Reset forgets everything, used on sign-out
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = nil
	f.loaded = false
	f.content = ""
	f.image = nil
}
