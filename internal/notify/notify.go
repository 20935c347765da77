// Package notify delivers user-facing success and error notifications (toasts).
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Level is the kind of notification.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notification is one toast.
type Notification struct {
	Level   Level
	Message string
}

// Notifier shows notifications to the user. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// Success sends a success notification.
func Success(n Notifier, msg string) { n.Notify(Notification{Level: LevelSuccess, Message: msg}) }

// Error sends an error notification.
func Error(n Notifier, msg string) { n.Notify(Notification{Level: LevelError, Message: msg}) }

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(Notification) {}

// Writer prints notifications as single lines, e.g. for a terminal.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer printing to w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

func (w *Writer) Notify(n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()
	mark := "ok"
	if n.Level == LevelError {
		mark = "error"
	}
	fmt.Fprintf(w.w, "[%s] %s\n", mark, n.Message)
}

// Log records notifications with a zap logger.
type Log struct{ L *zap.Logger }

func (l Log) Notify(n Notification) {
	if n.Level == LevelError {
		l.L.Warn("notify", zap.String("level", n.Level.String()), zap.String("message", n.Message))
		return
	}
	l.L.Info("notify", zap.String("level", n.Level.String()), zap.String("message", n.Message))
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, x := range m {
		x.Notify(n)
	}
}

// Recorder keeps notifications in memory. Used by tests and headless callers.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.all = append(r.all, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}
