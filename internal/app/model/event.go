package model

import "time"

// LinkEvent is published when a workflow reaches a terminal outcome.
type LinkEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	ShortURL    string    `json:"short_url,omitempty"`
	OriginalURL string    `json:"original_url,omitempty"`
	Code        string    `json:"code,omitempty"`
	Status      string    `json:"status,omitempty"`
	HTTPStatus  int       `json:"http_status,omitempty"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

const (
	LinkEventShortened     = "link.shortened"
	LinkEventShortenFailed = "link.shorten_failed"
	LinkEventAnalyzed      = "link.analyzed"
	LinkEventLookupFailed  = "link.lookup_failed"

	LinkSubjectShortened = "ushort.links.shortened"
	LinkSubjectAnalyzed  = "ushort.links.analyzed"
)
