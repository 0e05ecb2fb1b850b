package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const (
	codeCyan    = "\033[36m"
	codeYellow  = "\033[33m"
	codeRed     = "\033[31m"
	codeGreen   = "\033[32m"
	codeMagenta = "\033[35m"
	codeDim     = "\033[2m"
	codeReset   = "\033[0m"
)

// itemIndent prefixes per-URL and per-post lines
const itemIndent = "    "

// Console writes the human-readable progress of a run. Structured logs go
// through pkg/logger on stderr; the console owns stdout.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
	quiet bool
}

// NewConsole creates a console on out
func NewConsole(out io.Writer, color, quiet bool) *Console {
	return &Console{out: out, color: color, quiet: quiet}
}

// NewStdout creates a console on stdout. Colors are used only when stdout is
// a terminal, noColor is false and NO_COLOR is unset.
func NewStdout(noColor, quiet bool) *Console {
	color := !noColor && os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))
	return NewConsole(os.Stdout, color, quiet)
}

// Quiet reports whether progress lines are suppressed
func (c *Console) Quiet() bool {
	return c.quiet
}

func (c *Console) paint(code, text string) string {
	if !c.color {
		return text
	}
	return code + text + codeReset
}

func (c *Console) Cyan(text string) string    { return c.paint(codeCyan, text) }
func (c *Console) Yellow(text string) string  { return c.paint(codeYellow, text) }
func (c *Console) Red(text string) string     { return c.paint(codeRed, text) }
func (c *Console) Green(text string) string   { return c.paint(codeGreen, text) }
func (c *Console) Magenta(text string) string { return c.paint(codeMagenta, text) }
func (c *Console) Dim(text string) string     { return c.paint(codeDim, text) }

func (c *Console) write(force bool, line string) {
	if c.quiet && !force {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

// Println prints a plain progress line
func (c *Console) Println(msg string) {
	c.write(false, msg)
}

// Item prints an indented progress line
func (c *Console) Item(format string, args ...interface{}) {
	c.write(false, itemIndent+fmt.Sprintf(format, args...))
}

// ItemSuccess prints an indented line in green
func (c *Console) ItemSuccess(format string, args ...interface{}) {
	c.write(false, itemIndent+c.Green(fmt.Sprintf(format, args...)))
}

// ItemWarning prints an indented line in yellow
func (c *Console) ItemWarning(format string, args ...interface{}) {
	c.write(false, itemIndent+c.Yellow(fmt.Sprintf(format, args...)))
}

// ItemError prints an indented line in red
func (c *Console) ItemError(format string, args ...interface{}) {
	c.write(false, itemIndent+c.Red(fmt.Sprintf(format, args...)))
}

// Error prints an error message in red, even in quiet mode
func (c *Console) Error(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	c.write(true, c.Red(msg))
}

// Success prints a success message in green
func (c *Console) Success(msg string) {
	c.write(false, c.Green(msg))
}

// Info prints a label and value pair
func (c *Console) Info(label, value string) {
	c.write(false, fmt.Sprintf("%s: %s", c.Cyan(label), c.Yellow(value)))
}

// Warning prints a warning message in yellow
func (c *Console) Warning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	c.write(false, c.Yellow(msg))
}

// Highlight prints a message in magenta
func (c *Console) Highlight(msg string) {
	c.write(false, c.Magenta(msg))
}

// Result prints a line that survives quiet mode, such as the run summary
func (c *Console) Result(msg string) {
	c.write(true, msg)
}

var (
	stdMu sync.RWMutex
	std   = NewConsole(os.Stdout, false, false)
)

// SetDefault replaces the console used by the package-level printers
func SetDefault(c *Console) {
	stdMu.Lock()
	defer stdMu.Unlock()
	std = c
}

// Default returns the console used by the package-level printers
func Default() *Console {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

// IsQuietMode reports whether the default console is quiet
func IsQuietMode() bool {
	return Default().Quiet()
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	Default().Error(msg, args...)
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	Default().Success(msg)
}

// PrintInfo prints a label and value pair
func PrintInfo(label string, value string) {
	Default().Info(label, value)
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	Default().Warning(msg, args...)
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	Default().Highlight(msg)
}
