// Package console renders human-facing output and reads answers from the terminal.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	promptStr   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(">>> ")
)

type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Std is a console bound to the process stdin/stdout
func Std() *Console {
	return New(os.Stdin, os.Stdout)
}

func (c *Console) Banner(msg string) {
	c.println(bannerStyle.Render(msg))
}

// Section prints a bold title followed by body as-is
func (c *Console) Section(title, body string) {
	c.println(headerStyle.Render(title))
	c.println(strings.TrimRight(body, "\n"))
}

func (c *Console) Warn(msg string) {
	c.println(warnStyle.Render(msg))
}

func (c *Console) Note(msg string) {
	c.println(dimStyle.Render(msg))
}

// Print writes s without a trailing newline, used for streamed chunks
func (c *Console) Print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprint(c.out, s)
}

func (c *Console) Println(s string) {
	c.println(s)
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, s)
}

// ReadLine shows the prompt marker and returns the next trimmed line.
// io.EOF is returned once input is exhausted and nothing was typed.
func (c *Console) ReadLine() (string, error) {
	c.Print(promptStr)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question until it gets y, yes, n or no.
func (c *Console) Confirm(question string) (bool, error) {
	for {
		c.Print(warnStyle.Render(question) + " (yes/no): ")
		line, err := c.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read confirmation: %w", err)
		}
		c.println("Please answer yes or no.")
	}
}
