package tracking

import "time"

const (
	EventSearch   uint16 = 1
	EventDocument uint16 = 2
)

type BaseEvent struct {
	SessionId string    `json:"session_id"`
	Context   string    `json:"context,omitempty"`
	Event     uint16    `json:"event"`
	Time      time.Time `json:"time"`
}

type SearchEvent struct {
	*BaseEvent
	Dataset         string `json:"dataset"`
	Query           string `json:"query"`
	Page            int    `json:"page"`
	PageSize        int    `json:"page_size"`
	NumberOfResults int    `json:"noi"`
	TookMs          int64  `json:"took_ms"`
}

type DocumentEvent struct {
	*BaseEvent
	Dataset string `json:"dataset"`
	Query   string `json:"query"`
}

type Tracking interface {
	TrackSearch(sessionId string, event SearchEvent) error
	TrackDocument(sessionId string, event DocumentEvent) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) TrackSearch(string, SearchEvent) error     { return nil }
func (Noop) TrackDocument(string, DocumentEvent) error { return nil }
func (Noop) Close() error                              { return nil }
