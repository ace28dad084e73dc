package router

import (
	"fmt"
	"os"
	"strings"
)

const (
	blockHeader = "--- Action Required Email ---"
	blockFooter = "-----------------------------"
)

// ActionLog appends action records to a plain UTF-8 text file. The file
// is opened in append mode for every record, so earlier content is never
// truncated.
type ActionLog struct {
	path string
}

// NewActionLog returns an ActionLog writing to path.
func NewActionLog(path string) *ActionLog {
	return &ActionLog{path: path}
}

// Path returns the log file location.
func (l *ActionLog) Path() string {
	return l.path
}

// Append writes one block for rec in a single write call.
func (l *ActionLog) Append(rec Record) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening action log %s: %w", l.path, err)
	}

	if _, err := f.WriteString(FormatBlock(rec)); err != nil {
		f.Close()
		return fmt.Errorf("writing action log %s: %w", l.path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing action log %s: %w", l.path, err)
	}
	return nil
}

// FormatBlock renders the fixed-format text block for one record.
func FormatBlock(rec Record) string {
	var sb strings.Builder
	sb.WriteString(blockHeader + "\n")
	sb.WriteString(fmt.Sprintf("Received Date: %s\n", rec.ReceivedAt))
	sb.WriteString(fmt.Sprintf("Subject: %s\n", rec.Subject))
	sb.WriteString(fmt.Sprintf("Classification: %s\n", rec.Label))
	sb.WriteString(fmt.Sprintf("Body:\n%s\n", rec.Body))
	sb.WriteString(blockFooter + "\n\n")
	return sb.String()
}
