package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level distinguishes success toasts from error toasts.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one transient user-visible message.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier displays transient messages to the user.
type Notifier interface {
	Notify(n Notification)
}

// Success sends a success notification through n.
func Success(n Notifier, message string) {
	n.Notify(Notification{Level: LevelSuccess, Message: message, At: time.Now()})
}

// Error sends an error notification through n.
func Error(n Notifier, message string) {
	n.Notify(Notification{Level: LevelError, Message: message, At: time.Now()})
}

// LogNotifier writes every notification to the process log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier backed by logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

func (l *LogNotifier) Notify(n Notification) {
	ev := l.logger.Info()
	if n.Level == LevelError {
		ev = l.logger.Warn()
	}
	ev.Str("level_kind", string(n.Level)).Msg(n.Message)
}

// Feed buffers the most recent notifications until the UI drains them.
type Feed struct {
	mu      sync.Mutex
	limit   int
	pending []Notification
}

// NewFeed creates a feed keeping at most limit undrained notifications.
func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 20
	}
	return &Feed{limit: limit}
}

func (f *Feed) Notify(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, n)
	if over := len(f.pending) - f.limit; over > 0 {
		f.pending = append([]Notification(nil), f.pending[over:]...)
	}
}

// Drain returns and clears the pending notifications, oldest first.
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(n)
		}
	}
}
