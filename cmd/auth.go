// ABOUTME: Account commands: login, logout, whoami, signup, reset-password
// ABOUTME: Drive the same session store and signup/reset flows as the TUI

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/flow"
	"github.com/markalston/networkhub/internal/session"
	"github.com/markalston/networkhub/internal/tui/debuglog"
	"github.com/spf13/cobra"
)

// maxCodeAttempts bounds how often a wrong code can be re-entered
const maxCodeAttempts = 3

var (
	loginEmail string
	signupReq  client.SignupRequest
	resetEmail string
)

// runInteractive wires signal handling and stdin prompts around fn
func runInteractive(fn func(ctx context.Context, p *prompter, w io.Writer) int) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	exitCode := fn(ctx, newPrompter(os.Stdout), os.Stdout)
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Run: func(cmd *cobra.Command, args []string) {
		runInteractive(func(ctx context.Context, p *prompter, w io.Writer) int {
			return runLogin(ctx, p, w, loginEmail)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		if exitCode := runLogout(os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runWhoami(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and verify it with the emailed code",
	Run: func(cmd *cobra.Command, args []string) {
		runInteractive(func(ctx context.Context, p *prompter, w io.Writer) int {
			return runSignup(ctx, p, w, signupReq)
		})
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Reset a forgotten password with an emailed code",
	Run: func(cmd *cobra.Command, args []string) {
		runInteractive(func(ctx context.Context, p *prompter, w io.Writer) int {
			return runResetPassword(ctx, p, w, resetEmail)
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (prompted when omitted)")

	signupCmd.Flags().StringVar(&signupReq.FirstName, "first-name", "", "First name")
	signupCmd.Flags().StringVar(&signupReq.LastName, "last-name", "", "Last name")
	signupCmd.Flags().StringVar(&signupReq.Email, "email", "", "Email address")
	signupCmd.Flags().StringVar(&signupReq.Bio, "bio", "", "Short bio (optional)")
	signupCmd.Flags().StringVar(&signupReq.Location, "location", "", "Location (optional)")

	resetPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "Account email (prompted when omitted)")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, signupCmd, resetPasswordCmd)
}

// report prints err for the user and returns the matching exit code
func report(w io.Writer, err error, fallback string) int {
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(w, "Not signed in. Run 'networkhub login' first.")
		return exitRejected
	}
	if errors.Is(err, errNoInput) {
		fmt.Fprintln(w, "Error: input ended before all answers were given")
		return exitFailure
	}
	fmt.Fprintf(w, "Error: %s\n", client.UserMessage(err, fallback))
	debuglog.Error(fallback, err)
	if client.IsTransport(err) {
		return exitFailure
	}
	return exitRejected
}

// resolveProfile replaces the sign-in payload with the full profile. A
// rejected credential leaves the store signed out.
func resolveProfile(ctx context.Context, store *session.Store) error {
	if store.Resolve(ctx) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return session.ErrNoSession
}

// runLogin signs in and persists the session
func runLogin(ctx context.Context, p *prompter, w io.Writer, email string) int {
	email, err := p.Required("Email", email)
	if err != nil {
		return report(w, err, "Login failed")
	}
	password, err := p.Password("Password")
	if err != nil {
		return report(w, err, "Login failed")
	}

	c := client.New(GetAPIURL())
	store := newStore(c, debuglog.Logger())
	resp, err := c.Login(ctx, email, password)
	if err == nil {
		err = store.Login(resp.AccessToken, resp.User)
	}
	if err == nil {
		err = resolveProfile(ctx, store)
	}
	if err != nil {
		return report(w, err, "Login failed")
	}

	user, _ := store.Identity()
	if IsJSONOutput() {
		fmt.Fprintln(w, formatUserJSON(user))
	} else {
		fmt.Fprintf(w, "Signed in as %s\n", user.FullName())
	}
	return exitOK
}

// runLogout clears the stored credential; it never touches the network
func runLogout(w io.Writer) int {
	store := newStore(client.New(GetAPIURL()), debuglog.Logger())
	if err := store.Logout(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailure
	}
	fmt.Fprintln(w, "Signed out")
	return exitOK
}

// runWhoami verifies the stored session and prints the identity
func runWhoami(ctx context.Context, w io.Writer) int {
	store, err := signedIn(ctx, client.New(GetAPIURL()))
	if err != nil {
		return report(w, err, "Could not load session")
	}
	user, _ := store.Identity()

	if IsJSONOutput() {
		fmt.Fprintln(w, formatUserJSON(user))
	} else {
		fmt.Fprintln(w, formatUserHuman(user))
	}
	return exitOK
}

// runSignup registers an account and verifies the emailed code
func runSignup(ctx context.Context, p *prompter, w io.Writer, req client.SignupRequest) int {
	var err error
	if req.FirstName, err = p.Required("First name", req.FirstName); err != nil {
		return report(w, err, "Signup failed")
	}
	if req.LastName, err = p.Required("Last name", req.LastName); err != nil {
		return report(w, err, "Signup failed")
	}
	if req.Email, err = p.Required("Email", req.Email); err != nil {
		return report(w, err, "Signup failed")
	}
	if req.Password, err = p.Password("Password"); err != nil {
		return report(w, err, "Signup failed")
	}

	c := client.New(GetAPIURL())
	store := newStore(c, debuglog.Logger())
	signup := flow.NewSignup(c, store)
	signup.SetFields(req)

	if err := signup.Register(ctx); err != nil {
		return report(w, err, "Signup failed")
	}
	fmt.Fprintln(w, flow.MsgOTPSent)

	for attempt := 1; ; attempt++ {
		code, err := p.Line("Verification code", "")
		if err != nil {
			return report(w, err, "Verification failed")
		}
		err = signup.Verify(ctx, strings.TrimSpace(code))
		if err == nil {
			break
		}
		if attempt >= maxCodeAttempts || client.IsTransport(err) {
			return report(w, err, "Verification failed")
		}
		fmt.Fprintf(w, "Error: %s\n", codeMessage(err, "Verification failed"))
	}
	if err := resolveProfile(ctx, store); err != nil {
		return report(w, err, "Signup failed")
	}

	user, _ := store.Identity()
	if IsJSONOutput() {
		fmt.Fprintln(w, formatUserJSON(user))
	} else {
		fmt.Fprintln(w, flow.MsgAccountCreated)
		fmt.Fprintf(w, "Signed in as %s\n", user.FullName())
	}
	return exitOK
}

// runResetPassword requests a reset code and sets a new password
func runResetPassword(ctx context.Context, p *prompter, w io.Writer, email string) int {
	email, err := p.Required("Email", email)
	if err != nil {
		return report(w, err, "Password reset failed")
	}

	reset := flow.NewPasswordReset(client.New(GetAPIURL()))
	reset.SetEmail(email)
	if err := reset.RequestCode(ctx); err != nil {
		return report(w, err, "Password reset failed")
	}
	fmt.Fprintln(w, flow.MsgOTPSent)

	for attempt := 1; ; attempt++ {
		code, err := p.Line("Reset code", "")
		if err != nil {
			return report(w, err, "Password reset failed")
		}
		password, err := p.Password("New password")
		if err != nil {
			return report(w, err, "Password reset failed")
		}
		err = reset.Reset(ctx, strings.TrimSpace(code), password)
		if err == nil {
			break
		}
		if attempt >= maxCodeAttempts || client.IsTransport(err) {
			return report(w, err, "Password reset failed")
		}
		fmt.Fprintf(w, "Error: %s\n", codeMessage(err, "Password reset failed"))
	}

	fmt.Fprintln(w, flow.MsgPasswordReset)
	return exitOK
}

// codeMessage describes a rejected code without losing flow validation errors
func codeMessage(err error, fallback string) string {
	if errors.Is(err, flow.ErrInvalidCode) || errors.Is(err, flow.ErrMissingField) {
		return err.Error()
	}
	return client.UserMessage(err, fallback)
}

// formatUserHuman formats the identity for human readability
func formatUserHuman(u client.User) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <%s>\n", u.FullName(), u.Email)
	if u.Location != "" {
		fmt.Fprintf(&sb, "Location:   %s\n", u.Location)
	}
	if u.Bio != "" {
		fmt.Fprintf(&sb, "Bio:        %s\n", u.Bio)
	}
	if since, ok := u.MemberSince(); ok {
		fmt.Fprintf(&sb, "Member since %s\n", since.Format("January 2006"))
	}
	fmt.Fprintf(&sb, "Followers:  %d\n", u.FollowerCount)
	fmt.Fprintf(&sb, "Following:  %d", u.FollowingCount)
	return sb.String()
}

// formatUserJSON formats the identity as JSON
func formatUserJSON(u client.User) string {
	data, _ := json.MarshalIndent(u, "", "  ")
	return string(data)
}
