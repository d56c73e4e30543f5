// ABOUTME: Interactive prompts for commands that need credentials or codes
// ABOUTME: Passwords are read without echo when stdin is a terminal

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// errNoInput is returned when stdin closes before an answer
var errNoInput = errors.New("no input")

// prompter reads answers for interactive commands
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal file descriptor, or -1 when input is not a terminal
	fd int
}

// newPrompter returns a prompter on stdin that hides passwords when possible
func newPrompter(out io.Writer) *prompter {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fd = -1
	}
	return &prompter{in: bufio.NewReader(os.Stdin), out: out, fd: fd}
}

// Line asks for a visible answer; def is returned for an empty answer
func (p *prompter) Line(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errNoInput
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Password asks for a hidden answer
func (p *prompter) Password(label string) (string, error) {
	if p.fd < 0 {
		return p.Line(label, "")
	}

	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

// Required asks until a non-empty answer is given
func (p *prompter) Required(label, def string) (string, error) {
	for {
		answer, err := p.Line(label, def)
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		fmt.Fprintf(p.out, "%s is required\n", label)
	}
}
