// ABOUTME: Async commands issued by the TUI and the result messages they report
// ABOUTME: Every result carries the epoch it was issued under so stale results can be dropped

package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/flow"
)

// sessionReadyMsg is sent when the stored session has been verified or discarded
type sessionReadyMsg struct {
	epoch uint64
	err   error
}

// identityResolvedMsg is sent when the identity has been re-fetched after a sign-in
type identityResolvedMsg struct {
	epoch uint64
	ok    bool
}

// loginResultMsg is sent when a sign-in request completes
type loginResultMsg struct {
	epoch uint64
	resp  *client.AuthResponse
	err   error
}

// registerResultMsg is sent when the signup details have been submitted
type registerResultMsg struct {
	epoch uint64
	err   error
}

// verifyResultMsg is sent when the signup code has been checked
type verifyResultMsg struct {
	epoch uint64
	err   error
}

// resetCodeResultMsg is sent when a reset code has been requested
type resetCodeResultMsg struct {
	epoch uint64
	err   error
}

// resetResultMsg is sent when the new password has been submitted
type resetResultMsg struct {
	epoch uint64
	err   error
}

// resetClosedMsg closes the reset modal after the completion notice
type resetClosedMsg struct {
	epoch uint64
}

// feedLoadedMsg is sent when the post list has been fetched
type feedLoadedMsg struct {
	epoch uint64
	err   error
}

// postResultMsg is sent when a post has been submitted
type postResultMsg struct {
	epoch uint64
	err   error
}

// imageAttachedMsg is sent when a post image has been decoded
type imageAttachedMsg struct {
	epoch uint64
	err   error
}

// followResultMsg is sent when a follow toggle completes
type followResultMsg struct {
	epoch      uint64
	generation uint64
	name       string
	following  bool
	err        error
}

// searchUpdatedMsg is sent from the search debounce goroutine after results change
type searchUpdatedMsg struct{}

// profileSavedMsg is sent when the profile form has been saved
type profileSavedMsg struct {
	epoch uint64
	err   error
}

// avatarUploadedMsg is sent when a profile picture upload completes
type avatarUploadedMsg struct {
	epoch uint64
	err   error
}

// initializeSession verifies the stored credential
func (a *App) initializeSession() tea.Cmd {
	epoch, ctx, store := a.epoch, a.ctx, a.session
	return func() tea.Msg {
		err := store.Initialize(ctx)
		return sessionReadyMsg{epoch: epoch, err: err}
	}
}

// resolveIdentity replaces the sign-in payload with the server's full profile
func (a *App) resolveIdentity() tea.Cmd {
	epoch, ctx, store := a.epoch, a.ctx, a.session
	return func() tea.Msg {
		return identityResolvedMsg{epoch: epoch, ok: store.Resolve(ctx)}
	}
}

func (a *App) doLogin(email, password string) tea.Cmd {
	epoch, ctx, api := a.epoch, a.ctx, a.client
	return func() tea.Msg {
		resp, err := api.Login(ctx, email, password)
		return loginResultMsg{epoch: epoch, resp: resp, err: err}
	}
}

func (a *App) doRegister() tea.Cmd {
	epoch, ctx, f := a.epoch, a.ctx, a.signupFlow
	return func() tea.Msg {
		return registerResultMsg{epoch: epoch, err: f.Register(ctx)}
	}
}

func (a *App) doVerify(code string) tea.Cmd {
	epoch, ctx, f := a.epoch, a.ctx, a.signupFlow
	return func() tea.Msg {
		return verifyResultMsg{epoch: epoch, err: f.Verify(ctx, code)}
	}
}

func (a *App) doRequestCode() tea.Cmd {
	epoch, ctx, f := a.epoch, a.ctx, a.resetFlow
	return func() tea.Msg {
		return resetCodeResultMsg{epoch: epoch, err: f.RequestCode(ctx)}
	}
}

func (a *App) doReset(code, password string) tea.Cmd {
	epoch, ctx, f := a.epoch, a.ctx, a.resetFlow
	return func() tea.Msg {
		return resetResultMsg{epoch: epoch, err: f.Reset(ctx, code, password)}
	}
}

// closeResetAfterDelay keeps the completion notice up for flow.ResetCloseDelay
func (a *App) closeResetAfterDelay() tea.Cmd {
	epoch := a.epoch
	return tea.Tick(flow.ResetCloseDelay, func(time.Time) tea.Msg {
		return resetClosedMsg{epoch: epoch}
	})
}

func (a *App) loadFeed() tea.Cmd {
	epoch, ctx, f := a.epoch, a.ctx, a.feed
	return func() tea.Msg {
		return feedLoadedMsg{epoch: epoch, err: f.Load(ctx)}
	}
}

func (a *App) submitPost() tea.Cmd {
	epoch, ctx, f := a.epoch, a.ctx, a.feed
	return func() tea.Msg {
		return postResultMsg{epoch: epoch, err: f.Submit(ctx)}
	}
}

func (a *App) attachImage(path string) tea.Cmd {
	epoch, f := a.epoch, a.feed
	return func() tea.Msg {
		return imageAttachedMsg{epoch: epoch, err: f.AttachImage(path)}
	}
}

func (a *App) toggleFollow(id client.ID, name string) tea.Cmd {
	epoch, gen, ctx, s := a.epoch, a.session.Generation(), a.ctx, a.search
	return func() tea.Msg {
		following, err := s.ToggleFollow(ctx, id)
		return followResultMsg{epoch: epoch, generation: gen, name: name, following: following, err: err}
	}
}

func (a *App) saveProfile() tea.Cmd {
	epoch, ctx, e := a.epoch, a.ctx, a.editor
	return func() tea.Msg {
		return profileSavedMsg{epoch: epoch, err: e.Save(ctx)}
	}
}

func (a *App) uploadAvatar(path string) tea.Cmd {
	epoch, ctx, e := a.epoch, a.ctx, a.editor
	return func() tea.Msg {
		_, err := e.UploadImage(ctx, path)
		return avatarUploadedMsg{epoch: epoch, err: err}
	}
}

// notifySearch forwards debounced search completions into the program
func (a *App) notifySearch() {
	if a.send != nil {
		a.send(searchUpdatedMsg{})
	}
}
