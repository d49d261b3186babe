// Package notify carries user-visible messages from the request pipeline to whatever interface layer
// is displaying them.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
)

// Notification is one message for the user. Status is the HTTP status that caused it, 0 when no
// response was received.
type Notification struct {
	Level   Level
	Message string
	Status  int
}

// Notifier must not block; it is called on the request path.
type Notifier interface {
	Notify(n Notification)
}

type Func func(n Notification)

func (f Func) Notify(n Notification) { f(n) }

// Error builds an error-level notification.
func Error(status int, message string) Notification {
	return Notification{Level: LevelError, Message: message, Status: status}
}

// Log writes notifications to the global zerolog logger.
type Log struct{}

func (Log) Notify(n Notification) {
	var ev = log.Info()
	switch n.Level {
	case LevelError:
		ev = log.Error()
	case LevelWarning:
		ev = log.Warn()
	}
	if n.Status != 0 {
		ev = ev.Int("status", n.Status)
	}
	ev.Str("level", string(n.Level)).Msg(n.Message)
}

// Terminal prints one line per notification, coloured by level unless Plain is set.
type Terminal struct {
	Out   io.Writer
	Plain bool
	mu    sync.Mutex
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{Out: out}
}

func (t *Terminal) Notify(n Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Plain {
		fmt.Fprintf(t.Out, "[%s] %s\n", n.Level, n.Message)
		return
	}
	colour, ok := levelColours[n.Level]
	if !ok {
		colour = Gray
	}
	fmt.Fprintf(t.Out, "%s[%s]%s %s\n", colour, n.Level, ResetColor, n.Message)
}

// Multi fans a notification out to every notifier.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}
