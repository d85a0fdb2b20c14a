package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ErrOutputClosed is returned once the output stream rejected a write. It is
// terminal: later calls to Emit return it without writing.
var ErrOutputClosed = errors.New("events: output closed")

// Observer is notified after an event was written successfully.
type Observer func(Event)

// Emitter writes one JSON object per line and flushes after every event.
type Emitter struct {
	mu        sync.Mutex
	w         *bufio.Writer
	err       error
	observers []Observer
	log       *slog.Logger
}

// NewEmitter returns an Emitter writing to w.
func NewEmitter(w io.Writer, logger *slog.Logger) *Emitter {
	if w == nil {
		panic("events: writer must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		w:   bufio.NewWriter(w),
		log: logger.With("component", "events"),
	}
}

// Observe registers fn to be called after each successful Emit.
func (e *Emitter) Observe(fn Observer) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.observers = append(e.observers, fn)
	e.mu.Unlock()
}

// Emit serialises ev, writes it followed by a newline and flushes.
func (e *Emitter) Emit(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.err != nil {
		e.mu.Unlock()
		return e.err
	}
	payload = append(payload, '\n')
	if _, err := e.w.Write(payload); err != nil {
		e.fail(err)
	} else if err := e.w.Flush(); err != nil {
		e.fail(err)
	}
	if e.err != nil {
		failed := e.err
		e.mu.Unlock()
		return failed
	}
	observers := append([]Observer(nil), e.observers...)
	e.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
	return nil
}

// fail records the terminal error. Callers hold e.mu.
func (e *Emitter) fail(err error) {
	e.err = fmt.Errorf("%w: %v", ErrOutputClosed, err)
	e.log.Error("output stream failed", "error", err)
}

// Err returns the terminal error, if any.
func (e *Emitter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
