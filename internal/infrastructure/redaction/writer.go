package redaction

import (
	"bytes"
	"io"
	"sync"
)

// Writer scrubs everything written through it before passing it on.
// Output is held back until a newline so a secret split across two writes
// is still seen whole; Flush emits any trailing partial line. Safe for
// concurrent use.
type Writer struct {
	underlying io.Writer
	redactor   *Redactor
	pending    []byte
	mu         sync.Mutex
}

// NewWriter returns a scrubbing writer. A nil redactor passes data through
// unbuffered.
func NewWriter(w io.Writer, r *Redactor) *Writer {
	return &Writer{underlying: w, redactor: r}
}

// Write scrubs and forwards every complete line of p. On success it
// reports len(p), since the scrubbed length may differ.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.redactor == nil {
		if _, err := w.underlying.Write(p); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	w.pending = append(w.pending, p...)
	end := bytes.LastIndexByte(w.pending, '\n')
	if end < 0 {
		return len(p), nil
	}
	if err := w.emit(w.pending[:end+1]); err != nil {
		return 0, err
	}
	w.pending = append(w.pending[:0], w.pending[end+1:]...)
	return len(p), nil
}

// Flush scrubs and forwards any buffered partial line.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	err := w.emit(w.pending)
	w.pending = w.pending[:0]
	return err
}

func (w *Writer) emit(chunk []byte) error {
	_, err := io.WriteString(w.underlying, w.redactor.ScrubString(string(chunk)))
	return err
}
