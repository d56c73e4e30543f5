// ABOUTME: Entry point for the networkhub CLI
// ABOUTME: Starts the TUI or runs a one-shot account, feed, or profile command

package main

import (
	"fmt"
	"os"

	"github.com/markalston/networkhub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
