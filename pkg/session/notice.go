package session

import (
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const maxNotices = 20

type Notice struct {
	Id      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Notifier receives every notice as it is raised, next to the list kept in
// the view.
type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

func newNotice(level Level, message string) Notice {
	return Notice{
		Id:      uuid.NewString(),
		Level:   level,
		Message: message,
		Time:    time.Now(),
	}
}
