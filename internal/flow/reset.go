// ABOUTME: Password reset flow: request an emailed code, then set a new password
// ABOUTME: Completion is followed by a delayed dismissal that restores the initial values

package flow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/markalston/networkhub/internal/client"
)

// ResetCloseDelay is how long the completion notice stays before the modal closes
const ResetCloseDelay = 2 * time.Second

// ResetStep is a state of the password reset flow
type ResetStep int

const (
	RequestingCode ResetStep = iota
	SubmittingNewPassword
	ResetComplete
)

func (s ResetStep) String() string {
	switch s {
	case RequestingCode:
		return "requesting-code"
	case SubmittingNewPassword:
		return "submitting-new-password"
	case ResetComplete:
		return "complete"
	}
	return fmt.Sprintf("reset-step(%d)", int(s))
}

var resetTransitions = Transitions[ResetStep]{
	RequestingCode:        {SubmittingNewPassword},
	SubmittingNewPassword: {RequestingCode, ResetComplete},
}

// ResetAPI is the subset of the API client used by the reset flow
type ResetAPI interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req client.ResetPasswordRequest) error
}

// PasswordReset drives password recovery
type PasswordReset struct {
	api ResetAPI

	mu      sync.Mutex
	machine *Machine[ResetStep]
	email   string
	busy    bool
	epoch   int
}

// NewPasswordReset creates a flow in RequestingCode
func NewPasswordReset(api ResetAPI) *PasswordReset {
	return &PasswordReset{
		api:     api,
		machine: NewMachine(RequestingCode, resetTransitions),
	}
}

// Step returns the current step
func (f *PasswordReset) Step() ResetStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.machine.State()
}

// Busy reports whether a request is outstanding
func (f *PasswordReset) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Email returns the address the code was sent to
func (f *PasswordReset) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// SetEmail sets the address to recover
func (f *PasswordReset) SetEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = email
}

// RequestCode asks the backend to email a reset code
func (f *PasswordReset) RequestCode(ctx context.Context) error {
	f.mu.Lock()
	if err := f.beginLocked(SubmittingNewPassword); err != nil {
		f.mu.Unlock()
		return err
	}
	email, epoch := f.email, f.epoch
	if strings.TrimSpace(email) == "" {
		f.busy = false
		f.mu.Unlock()
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	f.mu.Unlock()

	err := f.api.ForgotPassword(ctx, email)

	f.mu.Lock()
	defer f.mu.Unlock()
	if epoch != f.epoch {
		return ErrDismissed
	}
	f.busy = false
	if err != nil {
		return err
	}
	return f.machine.Transition(SubmittingNewPassword)
}

// Reset submits the code and new password
func (f *PasswordReset) Reset(ctx context.Context, code, newPassword string) error {
	f.mu.Lock()
	if err := f.beginLocked(ResetComplete); err != nil {
		f.mu.Unlock()
		return err
	}
	switch {
	case utf8.RuneCountInString(code) != OTPLength:
		f.busy = false
		f.mu.Unlock()
		return ErrInvalidCode
	case newPassword == "":
		f.busy = false
		f.mu.Unlock()
		return fmt.Errorf("%w: new password", ErrMissingField)
	}
	req := client.ResetPasswordRequest{Email: f.email, OTP: code, NewPassword: newPassword}
	epoch := f.epoch
	f.mu.Unlock()

	err := f.api.ResetPassword(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if epoch != f.epoch {
		return ErrDismissed
	}
	f.busy = false
	if err != nil {
		return err
	}
	return f.machine.Transition(ResetComplete)
}

// Back returns to RequestingCode keeping the email
func (f *PasswordReset) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	return f.machine.Transition(RequestingCode)
}

// Dismiss discards all state from any step
func (f *PasswordReset) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.machine.Reset()
	f.email = ""
	f.busy = false
	f.epoch++
}

// beginLocked marks the flow busy if a request toward next may start
func (f *PasswordReset) beginLocked(next ResetStep) error {
	if f.busy {
		return ErrBusy
	}
	if !f.machine.Can(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.machine.State(), next)
	}
	f.busy = true
	return nil
}
