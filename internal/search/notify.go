package search

import (
	"go.uber.org/zap"
)

// Level grades a user-facing notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a message meant for the user, never blocking the caller.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Notifier delivers notifications to whatever view is attached.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// ChanNotifier queues notifications on a buffered channel. When the buffer
// is full the notification is dropped and logged.
type ChanNotifier struct {
	ch  chan Notification
	log *zap.Logger
}

func NewChanNotifier(size int, log *zap.Logger) *ChanNotifier {
	if size <= 0 {
		size = 16
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ChanNotifier{ch: make(chan Notification, size), log: log}
}

func (c *ChanNotifier) Notify(n Notification) {
	select {
	case c.ch <- n:
	default:
		c.log.Warn("Notification channel full, dropping notification",
			zap.String("message", n.Message),
		)
	}
}

// C returns the receive side for views that consume notifications.
func (c *ChanNotifier) C() <-chan Notification {
	return c.ch
}

// Drain returns every queued notification without blocking.
func (c *ChanNotifier) Drain() []Notification {
	var out []Notification
	for {
		select {
		case n := <-c.ch:
			out = append(out, n)
		default:
			return out
		}
	}
}
