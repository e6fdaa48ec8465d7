// Package display renders search progress on a terminal. On a TTY the last
// row is pinned as a status bar and other output scrolls above it.
package display

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Console writes status and log lines to a terminal or plain stream.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	tty    bool
	height int
	// active is set between Init and Reset, while the scroll region exists.
	active bool
}

// New returns a Console writing to w. height is the terminal height in
// rows and is ignored when tty is false.
func New(w io.Writer, tty bool, height int) *Console {
	// ANSI row numbers are 1-indexed and we need at least a content row
	// and a status row.
	if height < 3 {
		height = 3
	}
	return &Console{w: w, tty: tty, height: height}
}

// Detect returns a Console on stderr, in TTY mode when both stdout and
// stderr are terminals.
func Detect() *Console {
	tty := term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
	height := 24
	if tty {
		if _, h, err := term.GetSize(int(os.Stderr.Fd())); err == nil {
			height = h
		}
	}
	return New(os.Stderr, tty, height)
}

// IsTTY reports whether the console renders a status bar.
func (c *Console) IsTTY() bool { return c.tty }

// Active reports whether the status bar is pinned, that is Init has been
// called on a TTY and Reset has not.
func (c *Console) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Init sets up the scroll region above the status bar.
func (c *Console) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tty {
		return
	}
	fmt.Fprintf(c.w, "\033[1;%dr", c.height-1)
	fmt.Fprintf(c.w, "\033[%d;1H", c.height-1)
	c.active = true
}

// Reset restores the terminal scroll region.
func (c *Console) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tty {
		return
	}
	c.active = false
	fmt.Fprintf(c.w, "\033[r")
	fmt.Fprintf(c.w, "\033[%d;1H\n", c.height)
}

// PrintAboveStatus prints a line in the scroll region above the status bar.
// Without a scroll region the line is printed as is.
func (c *Console) PrintAboveStatus(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		fmt.Fprintf(c.w, format+"\n", args...)
		return
	}
	fmt.Fprintf(c.w, "\033[s\033[%d;1H", c.height)
	fmt.Fprintf(c.w, "\033[1A")
	fmt.Fprintf(c.w, "\n")
	fmt.Fprintf(c.w, "\033[%d;1H", c.height-1)
	fmt.Fprintf(c.w, "\033[2K")
	fmt.Fprintf(c.w, format, args...)
	fmt.Fprintf(c.w, "\033[u")
}

// UpdateStatusBar replaces the pinned bottom line. It does nothing when the
// console is not a TTY.
func (c *Console) UpdateStatusBar(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tty {
		return
	}
	fmt.Fprintf(c.w, "\033[s")
	fmt.Fprintf(c.w, "\033[%d;1H", c.height)
	fmt.Fprintf(c.w, "\033[2K")
	fmt.Fprintf(c.w, "\033[7m %s \033[0m", status)
	fmt.Fprintf(c.w, "\033[u")
}

// Write implements io.Writer so the console can back a log backend. Each
// line is printed above the status bar.
func (c *Console) Write(p []byte) (int, error) {
	msg := string(p)
	if len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}
	c.PrintAboveStatus("%s", msg)
	return len(p), nil
}
