package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrJSON produces a standard JSON error response.
func ErrJSON(msg string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   msg,
	}
}

type SSEWriter struct {
	c    echo.Context
	w    http.ResponseWriter
	fl   http.Flusher
	done bool
}

var ErrNotFlushable = errors.New("SSE not supported: ResponseWriter not flushable")

// NewSSEWriter initializes SSE headers and returns a writer.
func NewSSEWriter(c echo.Context) (*SSEWriter, error) {
	w := c.Response()
	f, ok := w.Writer.(http.Flusher)
	if !ok {
		return nil, ErrNotFlushable
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &SSEWriter{c: c, w: w, fl: f}, nil
}

// Event sends an SSE event with an event name and data (struct/map/string).
func (s *SSEWriter) Event(event string, data any) error {
	if s.done {
		return nil
	}
	var payload string
	switch v := data.(type) {
	case string:
		payload = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		payload = string(b)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.fl.Flush()
	return nil
}

// Close finalizes the stream.
func (s *SSEWriter) Close() {
	if s.done {
		return
	}
	s.done = true
	fmt.Fprint(s.w, "event: close\ndata: null\n\n")
	s.fl.Flush()
}

// LimitStr returns a string truncated to n runes with "..." appended if longer.
func LimitStr(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// CleanJSON removes markdown code blocks from a string to extract raw JSON.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) >= 2 {
			lines = lines[1:]
			if strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
				lines = lines[:len(lines)-1]
			}
			s = strings.Join(lines, "\n")
		}
	}
	return strings.TrimSpace(s)
}

// ExtractJSON trims reasoning blocks, fences and any prose around the
// outermost JSON object. It returns "" when no object is present.
func ExtractJSON(s string) string {
	if idx := strings.LastIndex(s, "</think>"); idx != -1 {
		s = s[idx+len("</think>"):]
	}
	s = CleanJSON(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}

// SanitizeFilename replaces dangerous characters with underscores.
func SanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.TrimSpace(s)
	return s
}

var whitespaceRX = regexp.MustCompile(`\s+`)

// Slug replaces every whitespace run with an underscore and lower-cases the result.
func Slug(title string) string {
	return strings.ToLower(whitespaceRX.ReplaceAllString(title, "_"))
}
