package oauth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
	"github.com/custodia-labs/ggbackup/internal/logger"
)

// Port range searched for a free loopback port.
const (
	LoopbackPortStart = 8085
	LoopbackPortEnd   = 8185
)

// DefaultCallbackTimeout bounds how long the loopback prompter waits.
const DefaultCallbackTimeout = 5 * time.Minute

var (
	_ driven.AuthPrompter = (*TerminalPrompter)(nil)
	_ driven.AuthPrompter = (*LoopbackPrompter)(nil)
)

// Browser opens a URL. OpenBrowser is the default.
type Browser func(url string) error

// TerminalPrompter prints the consent URL and reads the code the user
// pastes back.
type TerminalPrompter struct {
	in      io.Reader
	out     io.Writer
	browser Browser
	isTTY   bool
}

// NewTerminalPrompter creates a prompter on stdin/stdout.
func NewTerminalPrompter(browser Browser) *TerminalPrompter {
	return &TerminalPrompter{
		in:      os.Stdin,
		out:     os.Stdout,
		browser: browser,
		isTTY:   term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// NewTerminalPrompterWithIO creates a prompter on the given streams.
func NewTerminalPrompterWithIO(in io.Reader, out io.Writer, browser Browser) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out, browser: browser}
}

// RedirectURL defers to the redirect registered with the client.
func (p *TerminalPrompter) RedirectURL() string {
	return ""
}

// Authorize shows authURL and reads one line from the input.
func (p *TerminalPrompter) Authorize(ctx context.Context, authURL, _ string) (string, error) {
	showURL(p.out, p.browser, authURL)
	if p.isTTY {
		fmt.Fprint(p.out, "Enter verification code: ")
	}

	type line struct {
		text string
		err  error
	}
	ch := make(chan line, 1)
	go func() {
		text, err := bufio.NewReader(p.in).ReadString('\n')
		if errors.Is(err, io.EOF) && text != "" {
			err = nil
		}
		ch <- line{strings.TrimSpace(text), err}
	}()

	select {
	case l := <-ch:
		if l.err != nil {
			return "", fmt.Errorf("reading verification code: %w", l.err)
		}
		return l.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// LoopbackPrompter receives the code on a local callback server.
type LoopbackPrompter struct {
	out     io.Writer
	browser Browser
	port    int
	timeout time.Duration
}

// NewLoopbackPrompter reserves a port for the callback server.
func NewLoopbackPrompter(out io.Writer, browser Browser) (*LoopbackPrompter, error) {
	port, err := FindAvailablePort(LoopbackPortStart, LoopbackPortEnd)
	if err != nil {
		return nil, err
	}
	return &LoopbackPrompter{
		out:     out,
		browser: browser,
		port:    port,
		timeout: DefaultCallbackTimeout,
	}, nil
}

// RedirectURL returns the loopback callback URI.
func (p *LoopbackPrompter) RedirectURL() string {
	return RedirectURI(p.port)
}

// Authorize starts the callback server, shows authURL and waits for the
// provider's redirect carrying state.
func (p *LoopbackPrompter) Authorize(ctx context.Context, authURL, state string) (string, error) {
	server := NewCallbackServer(p.port, state)
	if err := server.Start(); err != nil {
		return "", err
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Debug("Stopping callback server: %v", err)
		}
	}()

	showURL(p.out, p.browser, authURL)
	fmt.Fprintf(p.out, "Waiting for authorization on %s ...\n", server.RedirectURI())

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return server.WaitForCode(ctx)
}

func showURL(out io.Writer, browser Browser, authURL string) {
	fmt.Fprintf(out, "Go to the following link in your browser:\n\n    %s\n\n", authURL)
	if browser == nil {
		return
	}
	if err := browser(authURL); err != nil {
		logger.Debug("Could not open browser: %v", err)
	}
}
