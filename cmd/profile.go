// ABOUTME: Profile command: show the signed-in profile, update fields, upload a picture
// ABOUTME: Uses the profile editor so partial updates keep the other fields

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/profile"
	"github.com/spf13/cobra"
)

// profileChanges holds only the fields given on the command line
type profileChanges struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Location  *string
	Image     string
}

func (c profileChanges) empty() bool {
	return c.FirstName == nil && c.LastName == nil && c.Bio == nil && c.Location == nil
}

// apply overwrites the fields that were given
func (c profileChanges) apply(form *client.ProfileUpdate) {
	if c.FirstName != nil {
		form.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		form.LastName = *c.LastName
	}
	if c.Bio != nil {
		form.Bio = *c.Bio
	}
	if c.Location != nil {
		form.Location = *c.Location
	}
}

var profileFlags struct {
	firstName, lastName, bio, location, image string
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your profile",
	Long: `Show your profile. Pass any of --first-name, --last-name, --bio or --location
to change those fields, or --image to upload a new profile picture.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		changes := profileChanges{Image: profileFlags.image}
		flags := cmd.Flags()
		if flags.Changed("first-name") {
			changes.FirstName = &profileFlags.firstName
		}
		if flags.Changed("last-name") {
			changes.LastName = &profileFlags.lastName
		}
		if flags.Changed("bio") {
			changes.Bio = &profileFlags.bio
		}
		if flags.Changed("location") {
			changes.Location = &profileFlags.location
		}

		if exitCode := runProfile(ctx, os.Stdout, changes); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileFlags.firstName, "first-name", "", "New first name")
	profileCmd.Flags().StringVar(&profileFlags.lastName, "last-name", "", "New last name")
	profileCmd.Flags().StringVar(&profileFlags.bio, "bio", "", "New bio")
	profileCmd.Flags().StringVar(&profileFlags.location, "location", "", "New location")
	profileCmd.Flags().StringVar(&profileFlags.image, "image", "", "Path to a new profile picture")

	rootCmd.AddCommand(profileCmd)
}

// runProfile applies changes, if any, then prints the profile
func runProfile(ctx context.Context, w io.Writer, changes profileChanges) int {
	c := client.New(GetAPIURL())
	store, err := signedIn(ctx, c)
	if err != nil {
		return report(w, err, profile.MsgUpdateFailed)
	}
	editor := profile.New(c, store)

	if !changes.empty() {
		if err := editor.BeginEdit(); err != nil {
			return report(w, err, profile.MsgUpdateFailed)
		}
		form := editor.Form()
		changes.apply(&form)
		editor.SetForm(form)
		if err := editor.Save(ctx); err != nil {
			return report(w, err, profile.MsgUpdateFailed)
		}
		if !IsJSONOutput() {
			fmt.Fprintln(w, profile.MsgProfileUpdated)
		}
	}

	if changes.Image != "" {
		if _, err := editor.UploadImage(ctx, changes.Image); err != nil {
			return report(w, err, profile.MsgUploadFailed)
		}
		if !IsJSONOutput() {
			fmt.Fprintln(w, profile.MsgImageUpdated)
		}
	}

	user, _ := store.Identity()
	if IsJSONOutput() {
		fmt.Fprintln(w, formatUserJSON(user))
	} else {
		fmt.Fprintln(w, formatUserHuman(user))
	}
	return exitOK
}
