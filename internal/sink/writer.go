package sink

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"sub-inspector/internal/model"
)

// Record is one analyzed subscription.
type Record struct {
	Source    string          `json:"source"`
	CheckedAt time.Time       `json:"checked_at"`
	Report    model.Report    `json:"report"`
	Warnings  []model.Warning `json:"warnings,omitempty"`

	// Text is the rendered report. Only the text sink uses it.
	Text string `json:"-"`
}

// Sink persists records. Implementations are safe for concurrent use.
type Sink interface {
	Write(rec Record) error
	Close() error
}

// lockedFile serializes whole writes so records never interleave.
type lockedFile struct {
	mu sync.Mutex
	f  *os.File
}

func openLocked(path string, flag int) (*lockedFile, error) {
	f, err := os.OpenFile(path, flag|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &lockedFile{f: f}, nil
}

func (l *lockedFile) write(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.f.Write(p)
	return err
}

func (l *lockedFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// JSONL appends one JSON object per line, keeping earlier runs.
type JSONL struct{ *lockedFile }

func NewJSONL(path string) (*JSONL, error) {
	l, err := openLocked(path, os.O_APPEND)
	if err != nil {
		return nil, err
	}
	return &JSONL{l}, nil
}

func (j *JSONL) Write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return j.write(append(data, '\n'))
}

// Text holds the rendered reports of the current run only.
type Text struct{ *lockedFile }

func NewText(path string) (*Text, error) {
	l, err := openLocked(path, os.O_TRUNC)
	if err != nil {
		return nil, err
	}
	return &Text{l}, nil
}

func (t *Text) Write(rec Record) error {
	if rec.Text == "" {
		return nil
	}
	return t.write([]byte(rec.Text + "\n\n"))
}

// Multi writes every record to all sinks and joins their errors.
type Multi []Sink

func (m Multi) Write(rec Record) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Write(rec))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
