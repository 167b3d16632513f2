package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// EventLogger is the append-only audit log the router writes to. It is
// fire-and-forget: implementations must never return errors to the caller.
type EventLogger interface {
	Event(category string, message string)
	Crisis(userID string, message string)
}

// FileLogger appends events to per-category files under a log directory.
type FileLogger struct {
	dir string
	now func() time.Time
}

// NopLogger discards everything. Useful in tests.
type NopLogger struct{}

func (NopLogger) Event(category, message string) {}
func (NopLogger) Crisis(userID, message string)  {}

func NewFileLogger(dir string) *FileLogger {
	return &FileLogger{
		dir: dir,
		now: time.Now,
	}
}

var (
	phonePattern = regexp.MustCompile(`\b\d{10,16}\b`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
)

// Anonymize redacts phone numbers and email addresses before anything
// reaches a log file.
func Anonymize(text string) string {
	text = phonePattern.ReplaceAllString(text, "[PHONE/ID REDACTED]")
	text = emailPattern.ReplaceAllString(text, "[EMAIL REDACTED]")
	return text
}

// Event appends a timestamped line to <category>.log. Errors are swallowed;
// a secondary write into the working directory is attempted before giving up.
func (l *FileLogger) Event(category string, message string) {
	safe := Anonymize(strings.TrimSpace(message))
	line := fmt.Sprintf("[%s] %s\n", l.now().Format("2006-01-02 15:04:05"), safe)

	filename := category + ".log"
	if err := appendFile(filepath.Join(l.dir, filename), line); err != nil {
		// Fallback write so the event is not lost entirely.
		if err2 := appendFile("fallback_"+filename, line); err2 != nil {
			log.Printf("logging failed for %s: %v", category, err)
		}
	}
}

// Crisis records a crisis event. It also mirrors a marker into the error log
// so crisis activity is visible without reading the dedicated file.
func (l *FileLogger) Crisis(userID string, message string) {
	l.Event("crisis_events", fmt.Sprintf("UserID: %s | CRISIS MESSAGE: %s", userID, Truncate(message, 200)))
	l.Event("errors", fmt.Sprintf("CRISIS DETECTED - UserID: %s", userID))
}

func appendFile(path string, line string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}

// Truncate shortens text to at most n bytes for audit copies.
func Truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n]
}
