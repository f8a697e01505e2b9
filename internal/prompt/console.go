package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ErrNotTerminal is returned by NewStdio when stdin is not a terminal.
var ErrNotTerminal = errors.New("interactive mode needs a terminal on stdin")

var (
	questionStyle = color.New(color.FgCyan, color.Bold)
	defaultStyle  = color.New(color.Faint)
)

// Console asks questions on a line-oriented terminal. It implements
// metadata.Prompter.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a Console reading answers from in and writing to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// NewStdio creates a Console on stdin and stdout, refusing to run when
// stdin is redirected.
func NewStdio() (*Console, error) {
	if !IsTerminal(os.Stdin) {
		return nil, ErrNotTerminal
	}
	return NewConsole(os.Stdin, os.Stdout), nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Ask prints question with its default and reads one line. Yes/no
// defaults ("y" or "n") are shown as [Y/n] or [y/N].
func (c *Console) Ask(question, def string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s %s: ", questionStyle.Sprint(question), defaultStyle.Sprint(renderDefault(def)))

	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		fmt.Fprintln(c.out)
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Show prints text on its own lines.
func (c *Console) Show(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

func renderDefault(def string) string {
	switch strings.ToLower(def) {
	case "y", "yes":
		return "[Y/n]"
	case "n", "no":
		return "[y/N]"
	default:
		return "[" + def + "]"
	}
}
