// ABOUTME: People commands: search the user directory and follow or unfollow
// ABOUTME: Print follow state the way the Find People tab shows it

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/search"
	"github.com/markalston/networkhub/internal/tui/debuglog"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find people by name",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runSearch(ctx, os.Stdout, strings.Join(args, " ")); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var followCmd = &cobra.Command{
	Use:   "follow <user-id>",
	Short: "Follow a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runFollow(ctx, os.Stdout, client.ID(args[0]), true); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <user-id>",
	Short: "Stop following a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runFollow(ctx, os.Stdout, client.ID(args[0]), false); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(searchCmd, followCmd, unfollowCmd)
}

// runSearch prints users matching query
func runSearch(ctx context.Context, w io.Writer, query string) int {
	query = strings.TrimSpace(query)
	if query == "" {
		fmt.Fprintln(w, "Error: search query is empty")
		return exitFailure
	}

	c := client.New(GetAPIURL())
	store, err := signedIn(ctx, c)
	if err != nil {
		return report(w, err, search.MsgSearchFailed)
	}

	people := search.New(c, store, search.WithLogger(debuglog.Logger()))
	defer people.Close()
	if err := people.SearchNow(ctx, query); err != nil {
		return report(w, err, search.MsgSearchFailed)
	}
	results := people.Results()

	if IsJSONOutput() {
		fmt.Fprintln(w, formatResultsJSON(results))
	} else {
		fmt.Fprintln(w, formatResultsHuman(query, results))
	}
	return exitOK
}

// runFollow follows or unfollows id
func runFollow(ctx context.Context, w io.Writer, id client.ID, follow bool) int {
	c := client.New(GetAPIURL())
	store, err := signedIn(ctx, c)
	if err != nil {
		return report(w, err, search.MsgFollowFailed)
	}

	if follow {
		err = c.Follow(ctx, store.Credential(), id)
	} else {
		err = c.Unfollow(ctx, store.Credential(), id)
	}
	if err != nil {
		return report(w, err, search.MsgFollowFailed)
	}

	if follow {
		fmt.Fprintln(w, search.MsgFollowing)
	} else {
		fmt.Fprintln(w, search.MsgUnfollowed)
	}
	return exitOK
}

// formatResultsHuman formats search results for human readability
func formatResultsHuman(query string, results []client.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No users found for %q", query)
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		state := "not following"
		if r.IsFollowing {
			state = "following"
		}
		fmt.Fprintf(&sb, "%-10s %-30s %s", r.ID, r.FullName(), state)
		if r.Bio != "" {
			fmt.Fprintf(&sb, "\n           %s", r.Bio)
		}
	}
	return sb.String()
}

// formatResultsJSON formats search results as JSON
func formatResultsJSON(results []client.SearchResult) string {
	if results == nil {
		results = []client.SearchResult{}
	}
	data, _ := json.MarshalIndent(results, "", "  ")
	return string(data)
}
