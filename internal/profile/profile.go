// ABOUTME: Profile editing: read/edit mode, saving fields and uploading a profile image
// ABOUTME: Successful changes are merged into the session identity

package profile

import (
	"context"
	"errors"
	"sync"

	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/media"
	"github.com/markalston/networkhub/internal/session"
)

// Notices and fallbacks shown to the user
const (
	MsgProfileUpdated = "Profile updated successfully!"
	MsgImageUpdated   = "Profile image updated!"
	MsgUpdateFailed   = "Failed to update profile"
	MsgUploadFailed   = "Failed to upload image"
)

// AvatarDimension is the longest edge kept for uploaded profile images
const AvatarDimension = 512

var (
	// ErrNotEditing is returned by Save outside edit mode
	ErrNotEditing = errors.New("profile is not being edited")
	// ErrBusy is returned while a save or upload is outstanding
	ErrBusy = errors.New("profile request already in progress")
	// ErrStale is returned when a response arrives for a superseded credential
	ErrStale = errors.New("response belongs to a previous session")
)

// API is the subset of the API client used for profile changes
type API interface {
	UpdateProfile(ctx context.Context, token string, update client.ProfileUpdate) error
	UploadProfileImage(ctx context.Context, token string, img client.ImageUpload) (string, error)
}

// Session is the identity holder the editor reads from and merges into
type Session interface {
	Credential() string
	Generation() uint64
	Identity() (client.User, bool)
	UpdateIdentity(fn func(*client.User)) error
}

// Editor holds profile edit state. Safe for concurrent use.
type Editor struct {
	api     API
	session Session

	mu        sync.Mutex
	editing   bool
	form      client.ProfileUpdate
	saving    bool
	uploading bool
}

// New creates an editor in read mode
func New(api API, sess Session) *Editor {
	return &Editor{api: api, session: sess}
}

// BeginEdit enters edit mode with the form seeded from the identity
func (e *Editor) BeginEdit() error {
	user, ok := e.session.Identity()
	if !ok {
		return session.ErrNoSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form = client.ProfileUpdate{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		Location:  user.Location,
	}
	e.editing = true
	return nil
}

// CancelEdit returns to read mode discarding the form
func (e *Editor) CancelEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editing = false
	e.form = client.ProfileUpdate{}
}

// Editing reports whether the editor is in edit mode
func (e *Editor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}

// Form returns the edit form values
func (e *Editor) Form() client.ProfileUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

// SetForm replaces the edit form values
func (e *Editor) SetForm(form client.ProfileUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form = form
}

// Busy reports whether a save or upload is outstanding
func (e *Editor) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving || e.uploading
}

// Save sends the form. On success the identity is updated and edit mode ends;
// on failure the editor stays in edit mode with the form as entered. A
// response for a credential that changed in flight is dropped with ErrStale.
func (e *Editor) Save(ctx context.Context) error {
	token, gen := e.session.Credential(), e.session.Generation()
	if token == "" {
		return session.ErrNoSession
	}

	e.mu.Lock()
	if !e.editing {
		e.mu.Unlock()
		return ErrNotEditing
	}
	if e.saving {
		e.mu.Unlock()
		return ErrBusy
	}
	form := e.form
	e.saving = true
	e.mu.Unlock()

	err := e.api.UpdateProfile(ctx, token, form)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if gen != e.session.Generation() {
		return ErrStale
	}
	if err != nil {
		return err
	}
	if err := e.session.UpdateIdentity(form.Apply); err != nil {
		return err
	}
	e.editing = false
	return nil
}

// UploadImage uploads the image at path as the profile picture and merges the
// returned reference into the identity. Edit mode is not affected.
func (e *Editor) UploadImage(ctx context.Context, path string) (string, error) {
	token, gen := e.session.Credential(), e.session.Generation()
	if token == "" {
		return "", session.ErrNoSession
	}

	img, err := media.Load(path)
	if err != nil {
		return "", err
	}
	if img, err = img.Fit(AvatarDimension); err != nil {
		return "", err
	}

	e.mu.Lock()
	if e.uploading {
		e.mu.Unlock()
		return "", ErrBusy
	}
	e.uploading = true
	e.mu.Unlock()

	ref, err := e.api.UploadProfileImage(ctx, token, img.Upload())

	e.mu.Lock()
	e.uploading = false
	e.mu.Unlock()
	if gen != e.session.Generation() {
		return "", ErrStale
	}
	if err != nil {
		return "", err
	}

	if err := e.session.UpdateIdentity(func(u *client.User) { u.ProfileImage = ref }); err != nil {
		return "", err
	}
	return ref, nil
}
