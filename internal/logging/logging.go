// Package logging owns SkyScout's file logger and the tail reader behind
// the in-app log view. The terminal belongs to the UI, so nothing is ever
// written to stdout or stderr while it runs.
package logging

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Open creates the log directory if needed and returns a logger appending
// to path. The caller closes the returned io.Closer on exit.
func Open(path string, debug bool) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return New(file, debug), file, nil
}

// New returns a text logger writing to w with SkyScout's line layout:
//
//	2026-10-15 09:30:00 INFO skyapi: airport lookup query=Lon results=4
func New(w io.Writer, debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Formatter:       log.TextFormatter,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// Tail returns at most maxLines from the end of the file at path. A
// missing file yields no lines and no error.
func Tail(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Palette styles the parts of a log line.
type Palette struct {
	Time  lipgloss.Style
	Debug lipgloss.Style
	Info  lipgloss.Style
	Warn  lipgloss.Style
	Error lipgloss.Style
}

// Highlight styles the timestamp and level of a line in the New layout.
// Lines in any other shape are returned unchanged.
func Highlight(line string, p Palette) string {
	fields := strings.SplitN(line, " ", 4)
	if len(fields) < 3 {
		return line
	}
	if _, err := time.Parse(time.DateTime, fields[0]+" "+fields[1]); err != nil {
		return line
	}

	var level lipgloss.Style
	switch fields[2] {
	case "DEBU":
		level = p.Debug
	case "INFO":
		level = p.Info
	case "WARN":
		level = p.Warn
	case "ERRO", "FATA":
		level = p.Error
	default:
		return line
	}

	var b strings.Builder
	b.WriteString(p.Time.Render(fields[0] + " " + fields[1]))
	b.WriteByte(' ')
	b.WriteString(level.Render(fields[2]))
	if len(fields) == 4 {
		b.WriteByte(' ')
		b.WriteString(fields[3])
	}
	return b.String()
}

// HighlightLines applies Highlight to every line.
func HighlightLines(lines []string, p Palette) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Highlight(line, p)
	}
	return out
}
