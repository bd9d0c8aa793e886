// Package notify carries short user-facing messages from background work to
// whatever surface is showing them.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Level is the severity of a toast.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Toast is one notification.
type Toast struct {
	Level   Level
	Message string
	At      time.Time
}

// Notifier is the sink background components report to.
type Notifier interface {
	Notify(level Level, message string)
}

// Channel delivers toasts on a buffered channel. Sends never block; when
// the buffer is full the toast is logged and dropped.
type Channel struct {
	ch  chan Toast
	log *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewChannel returns a Channel with room for size pending toasts.
func NewChannel(size int, log *slog.Logger) *Channel {
	if log == nil {
		log = slog.Default()
	}
	if size <= 0 {
		size = 16
	}
	return &Channel{ch: make(chan Toast, size), log: log}
}

// Notify queues a toast without blocking.
func (c *Channel) Notify(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	t := Toast{Level: level, Message: message, At: time.Now()}
	select {
	case c.ch <- t:
	default:
		c.log.Info("toast dropped", "level", level.String(), "message", message)
	}
}

// C returns the receive side.
func (c *Channel) C() <-chan Toast {
	return c.ch
}

// Close stops delivery and closes the channel.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}

// Log writes toasts to a logger. It is the notifier for non-interactive
// commands.
type Log struct {
	Logger *slog.Logger
}

// Notify logs the message at the matching level.
func (l Log) Notify(level Level, message string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch level {
	case Error:
		logger.Error(message)
	case Warn:
		logger.Warn(message)
	default:
		logger.Info(message)
	}
}
