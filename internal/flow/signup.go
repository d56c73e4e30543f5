// ABOUTME: Signup flow: registration form followed by email OTP verification
// ABOUTME: Starts a session on successful verification

package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/markalston/networkhub/internal/client"
)

// OTPLength is the number of characters in an emailed code
const OTPLength = 6

// Notices shown after successful steps
const (
	MsgOTPSent        = "OTP sent to your email!"
	MsgAccountCreated = "Account created successfully!"
	MsgPasswordReset  = "Password reset successfully!"
)

// ErrInvalidCode is returned when a verification code is not OTPLength characters
var ErrInvalidCode = fmt.Errorf("code must be exactly %d characters", OTPLength)

// SignupStep is a state of the signup flow
type SignupStep int

const (
	CollectingInfo SignupStep = iota
	VerifyingOtp
	SignupComplete
)

func (s SignupStep) String() string {
	switch s {
	case CollectingInfo:
		return "collecting-info"
	case VerifyingOtp:
		return "verifying-otp"
	case SignupComplete:
		return "complete"
	}
	return fmt.Sprintf("signup-step(%d)", int(s))
}

var signupTransitions = Transitions[SignupStep]{
	CollectingInfo: {VerifyingOtp},
	VerifyingOtp:   {CollectingInfo, SignupComplete},
}

// SignupAPI is the subset of the API client used by the signup flow
type SignupAPI interface {
	Signup(ctx context.Context, req client.SignupRequest) error
	VerifyOTP(ctx context.Context, email, otp string) (*client.AuthResponse, error)
}

// SessionStarter adopts a freshly issued session
type SessionStarter interface {
	Login(credential string, identity *client.User) error
}

// Signup drives account creation. Methods are safe to call from command goroutines.
type Signup struct {
	api     SignupAPI
	session SessionStarter

	mu      sync.Mutex
	machine *Machine[SignupStep]
	fields  client.SignupRequest
	busy    bool
	epoch   int
}

// NewSignup creates a flow in CollectingInfo
func NewSignup(api SignupAPI, session SessionStarter) *Signup {
	return &Signup{
		api:     api,
		session: session,
		machine: NewMachine(CollectingInfo, signupTransitions),
	}
}

// Step returns the current step
func (f *Signup) Step() SignupStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.machine.State()
}

// Busy reports whether a request is outstanding
func (f *Signup) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Fields returns the registration fields
func (f *Signup) Fields() client.SignupRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// SetFields replaces the registration fields
func (f *Signup) SetFields(fields client.SignupRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
}

// Register submits the registration form and moves to VerifyingOtp on success
func (f *Signup) Register(ctx context.Context) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	if !f.machine.Can(VerifyingOtp) {
		state := f.machine.State()
		f.mu.Unlock()
		return fmt.Errorf("%w: cannot register from %s", ErrInvalidTransition, state)
	}
	req, epoch := f.fields, f.epoch
	if err := validateSignup(req); err != nil {
		f.mu.Unlock()
		return err
	}
	f.busy = true
	f.mu.Unlock()

	err := f.api.Signup(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if epoch != f.epoch {
		return ErrDismissed
	}
	f.busy = false
	if err != nil {
		return err
	}
	return f.machine.Transition(VerifyingOtp)
}

// Verify submits the emailed code. On success the session is started and the
// flow completes; on failure the flow stays in VerifyingOtp.
func (f *Signup) Verify(ctx context.Context, code string) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	if !f.machine.Can(SignupComplete) {
		state := f.machine.State()
		f.mu.Unlock()
		return fmt.Errorf("%w: cannot verify from %s", ErrInvalidTransition, state)
	}
	if utf8.RuneCountInString(code) != OTPLength {
		f.mu.Unlock()
		return ErrInvalidCode
	}
	email, epoch := f.fields.Email, f.epoch
	f.busy = true
	f.mu.Unlock()

	resp, err := f.api.VerifyOTP(ctx, email, code)

	f.mu.Lock()
	defer f.mu.Unlock()
	if epoch != f.epoch {
		return ErrDismissed
	}
	f.busy = false
	if err != nil {
		return err
	}
	if resp.AccessToken == "" || resp.User == nil {
		return errors.New("backend returned an incomplete session")
	}
	if err := f.session.Login(resp.AccessToken, resp.User); err != nil {
		return err
	}
	return f.machine.Transition(SignupComplete)
}

// Back returns from VerifyingOtp to CollectingInfo keeping the entered fields
func (f *Signup) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	return f.machine.Transition(CollectingInfo)
}

// Reset discards everything and returns to CollectingInfo
func (f *Signup) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.machine.Reset()
	f.fields = client.SignupRequest{}
	f.busy = false
	f.epoch++
}

func validateSignup(req client.SignupRequest) error {
	required := []struct {
		name  string
		value string
	}{
		{"first name", req.FirstName},
		{"last name", req.LastName},
		{"email", req.Email},
		{"password", req.Password},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, r.name)
		}
	}
	return nil
}
