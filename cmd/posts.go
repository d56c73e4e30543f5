// ABOUTME: Feed commands: list recent posts and publish a new one
// ABOUTME: Share the feed package with the TUI so validation and image handling match

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
	"time"

	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/feed"
	"github.com/markalston/networkhub/internal/tui/debuglog"
	"github.com/markalston/networkhub/internal/tui/widgets"
	"github.com/spf13/cobra"
)

var (
	feedLimit int
	postImage string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "List recent posts",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runFeed(ctx, os.Stdout, feedLimit); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var postCmd = &cobra.Command{
	Use:   "post <text>",
	Short: "Publish a post",
	Long:  `Publish a post. All arguments are joined into the post text. Use --image to attach a picture.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runPost(ctx, os.Stdout, strings.Join(args, " "), postImage); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	feedCmd.Flags().IntVarP(&feedLimit, "limit", "n", 20, "Maximum number of posts to show (0 for all)")
	postCmd.Flags().StringVar(&postImage, "image", "", "Path to an image to attach")

	rootCmd.AddCommand(feedCmd, postCmd)
}

// runFeed prints the post list
func runFeed(ctx context.Context, w io.Writer, limit int) int {
	c := client.New(GetAPIURL())
	store, err := signedIn(ctx, c)
	if err != nil {
		return report(w, err, "Failed to load posts")
	}

	f := feed.New(c, store, debuglog.Logger())
	if err := f.Load(ctx); err != nil {
		return report(w, err, "Failed to load posts")
	}
	posts := f.Posts()
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatPostsJSON(posts))
	} else {
		fmt.Fprintln(w, formatPostsHuman(posts, time.Now()))
	}
	return exitOK
}

// runPost publishes content with an optional image
func runPost(ctx context.Context, w io.Writer, content, imagePath string) int {
	c := client.New(GetAPIURL())
	store, err := signedIn(ctx, c)
	if err != nil {
		return report(w, err, "Failed to create post")
	}

	f := feed.New(c, store, debuglog.Logger())
	f.SetContent(content)
	if imagePath != "" {
		if err := f.AttachImage(imagePath); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitFailure
		}
	}

	if err := f.Submit(ctx); err != nil {
		if errors.Is(err, feed.ErrEmptyContent) {
			fmt.Fprintln(w, "Error: post text is empty")
			return exitFailure
		}
		return report(w, err, "Failed to create post")
	}

	fmt.Fprintln(w, feed.MsgPostCreated)
	return exitOK
}

// formatPostsHuman formats posts newest first for human readability
func formatPostsHuman(posts []client.Post, now time.Time) string {
	if len(posts) == 0 {
		return "No posts yet."
	}

	var sb strings.Builder
	for i, p := range posts {
		if i > 0 {
			sb.WriteString("\n")
		}
		when := ""
		if created, ok := p.Created(); ok {
			when = " · " + widgets.TimeAgo(created, now)
		}
		fmt.Fprintf(&sb, "%s%s\n", p.Author.FullName(), when)
		fmt.Fprintf(&sb, "  %s\n", strings.ReplaceAll(p.Content, "\n", "\n  "))
		fmt.Fprintf(&sb, "  %d likes · %d comments", p.Likes, p.Comments)
		if p.Image != "" {
			sb.WriteString(" · image")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatPostsJSON formats posts as JSON
func formatPostsJSON(posts []client.Post) string {
	if posts == nil {
		posts = []client.Post{}
	}
	data, _ := json.MarshalIndent(posts, "", "  ")
	return string(data)
}
