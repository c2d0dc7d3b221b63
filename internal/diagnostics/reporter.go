package diagnostics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// Reporter prints diagnostics and progress messages. It is shared by the
// whole program and passed explicitly to everything that reports.
type Reporter struct {
	mu       sync.Mutex
	out      io.Writer
	color    bool
	errors   int
	warnings int
	// Source lookup for snippets; defaults to reading the file from disk.
	ReadLine func(file string, line int) (string, bool)
}

// NewReporter creates a reporter writing to out. Colors are enabled only
// when out is a terminal and NO_COLOR is unset.
func NewReporter(out io.Writer) *Reporter {
	r := &Reporter{out: out, ReadLine: readSourceLine}
	if f, ok := out.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		fd := f.Fd()
		r.color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return r
}

// Stderr returns a reporter for os.Stderr.
func Stderr() *Reporter {
	return NewReporter(os.Stderr)
}

func (r *Reporter) paint(color, s string) string {
	if !r.color {
		return s
	}
	return color + s + colorReset
}

func (r *Reporter) print(label, color, location, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sb strings.Builder
	if location != "" {
		sb.WriteString(r.paint(colorBold, location+":"))
		sb.WriteString(" ")
	}
	if label != "" {
		sb.WriteString(r.paint(colorBold+color, label+":"))
		sb.WriteString(" ")
	}
	sb.WriteString(message)
	sb.WriteString("\n")
	io.WriteString(r.out, sb.String())
}

func (r *Reporter) Error(format string, args ...interface{}) {
	r.mu.Lock()
	r.errors++
	r.mu.Unlock()
	r.print("error", colorRed, "", fmt.Sprintf(format, args...))
}

func (r *Reporter) Warning(format string, args ...interface{}) {
	r.mu.Lock()
	r.warnings++
	r.mu.Unlock()
	r.print("warning", colorYellow, "", fmt.Sprintf(format, args...))
}

func (r *Reporter) Info(format string, args ...interface{}) {
	r.print("info", colorCyan, "", fmt.Sprintf(format, args...))
}

func (r *Reporter) Success(format string, args ...interface{}) {
	r.print("", "", "", r.paint(colorGreen, fmt.Sprintf(format, args...)))
}

// Progress prints a "[i/n] message" line.
func (r *Reporter) Progress(i, n int, format string, args ...interface{}) {
	r.print("", "", "", fmt.Sprintf("[%d/%d] ", i, n)+fmt.Sprintf(format, args...))
}

// Warn reports a positioned non-fatal diagnostic.
func (r *Reporter) Warn(file string, line, column int, message string) {
	r.mu.Lock()
	r.warnings++
	r.mu.Unlock()
	r.print("warning", colorYellow, formatLocation(file, line, column), message)
}

// Note reports a positioned informational message.
func (r *Reporter) Note(file string, line, column int, message string) {
	r.print("info", colorCyan, formatLocation(file, line, column), message)
}

// Diagnostic reports a positioned error with a source snippet.
func (r *Reporter) Diagnostic(err *DiagnosticError) {
	r.mu.Lock()
	r.errors++
	r.mu.Unlock()
	r.print("error", colorRed, formatLocation(err.File, err.Line, err.Column), err.Message)
	snippet := err.Snippet
	if snippet == "" && err.Line > 0 && r.ReadLine != nil {
		snippet, _ = r.ReadLine(err.File, err.Line)
	}
	if snippet != "" {
		r.mu.Lock()
		defer r.mu.Unlock()
		fmt.Fprintf(r.out, "%5d | %s\n", err.Line, snippet)
		if err.Column > 0 {
			fmt.Fprintf(r.out, "      | %s%s\n", caretPadding(snippet, err.Column), r.paint(colorRed, "^"))
		}
	}
}

// Report prints each diagnostic in errs.
func (r *Reporter) Report(errs []*DiagnosticError) {
	for _, err := range errs {
		r.Diagnostic(err)
	}
}

func (r *Reporter) Errors() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

func (r *Reporter) Warnings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings
}

func formatLocation(file string, line, column int) string {
	if line <= 0 {
		return file
	}
	return fmt.Sprintf("%s:%d:%d", file, line, column)
}

// caretPadding keeps tabs so the caret lines up with the snippet.
func caretPadding(line string, column int) string {
	var sb strings.Builder
	for i := 0; i < column-1 && i < len(line); i++ {
		if line[i] == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func readSourceLine(file string, line int) (string, bool) {
	if file == "" {
		return "", false
	}
	f, err := os.Open(file)
	if err != nil {
		return "", false
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		if n == line {
			return scanner.Text(), true
		}
	}
	return "", false
}
