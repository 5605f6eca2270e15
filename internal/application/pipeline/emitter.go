package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application"
)

// DoneMarker ends every stream.
const DoneMarker = "data: [DONE]\n\n"

// ErrClosed is returned for writes after the end marker.
var ErrClosed = errors.New("progress stream closed")

type flusher interface{ Flush() }

// Emitter writes server-sent events for one request. Each event is flushed
// as soon as it is written. Progress never decreases.
//
// A failed write (client gone) is remembered and every later write is
// dropped, so the pipeline itself can carry on.
type Emitter struct {
	mu       sync.Mutex
	w        io.Writer
	clock    application.Clock
	progress int
	closed   bool
	err      error
}

func NewEmitter(w io.Writer, clock application.Clock) *Emitter {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Emitter{w: w, clock: clock}
}

// Emit stamps and writes one progress event. A progress lower than the
// last one sent is raised to it.
func (e *Emitter) Emit(ev Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	ev.Progress = min(max(ev.Progress, e.progress), 100)
	e.progress = ev.Progress
	ev.Timestamp = e.clock.Now()
	if ev.Details == nil {
		ev.Details = map[string]any{}
	}
	return e.writeJSON(ev)
}

// Progress is the last progress value sent.
func (e *Emitter) Progress() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// Terminal writes the final payload of the stream.
func (e *Emitter) Terminal(payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.writeJSON(payload)
}

// Done writes the end marker. Calling it more than once is a no-op.
func (e *Emitter) Done() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.write([]byte(DoneMarker))
}

// Err returns the first write error, if any.
func (e *Emitter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Emitter) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(b) + 8)
	buf.WriteString("data: ")
	buf.Write(b)
	buf.WriteString("\n\n")
	return e.write(buf.Bytes())
}

func (e *Emitter) write(b []byte) error {
	if e.err != nil {
		return e.err
	}
	if _, err := e.w.Write(b); err != nil {
		e.err = fmt.Errorf("write event: %w", err)
		return e.err
	}
	if f, ok := e.w.(flusher); ok {
		f.Flush()
	}
	return nil
}
