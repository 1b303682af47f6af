// Package diag records the recoverable problems met while converting models.
// A conversion that cannot map an object records an error here and carries on
// with a nil result instead of failing.
package diag

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Level is the severity of an event
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Event is one recorded message
type Event struct {
	Level   Level
	Message string
	Time    time.Time
}

// Recorder logs events and keeps them for later inspection. It is safe for
// concurrent use. A nil *Recorder logs through the standard logger and keeps
// nothing.
type Recorder struct {
	mu     sync.Mutex
	logger *log.Logger
	events []Event
}

// New creates a recorder writing to logger. A nil logger writes to stderr
// with the "keras: " prefix.
func New(logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.New(os.Stderr, "keras: ", log.LstdFlags)
	}
	return &Recorder{logger: logger}
}

// Discard creates a recorder that keeps events without logging them
func Discard() *Recorder {
	return New(log.New(io.Discard, "", 0))
}

func (r *Recorder) record(level Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if r == nil {
		log.Printf("%s: %s", level, msg)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Level: level, Message: msg, Time: time.Now()})
	r.logger.Printf("%s: %s", level, msg)
}

// Errorf records an error
func (r *Recorder) Errorf(format string, args ...interface{}) {
	r.record(Error, format, args...)
}

// Warningf records a warning
func (r *Recorder) Warningf(format string, args ...interface{}) {
	r.record(Warning, format, args...)
}

// Infof records an informational note
func (r *Recorder) Infof(format string, args ...interface{}) {
	r.record(Info, format, args...)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Messages returns the messages recorded at the given level
func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Len returns the number of recorded events
func (r *Recorder) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset drops the recorded events
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
