package model

import "time"

// ShortenRequest is the body of POST /shorten.
type ShortenRequest struct {
	OriginalURL string `json:"originalUrl"`
}

// ShortenResult describes a link the service just created.
type ShortenResult struct {
	ShortURL    string     `json:"shortUrl"`
	OriginalURL string     `json:"originalUrl"`
	ShortCode   string     `json:"shortCode,omitempty"`
	CreatedAt   Timestamp  `json:"createdAt"`
	ExpiresAt   *Timestamp `json:"expiresAt"`
}

// AnalyticsResult is the usage report for one short code.
type AnalyticsResult struct {
	ShortURL    string     `json:"shortUrl"`
	OriginalURL string     `json:"originalUrl"`
	ShortCode   string     `json:"shortCode,omitempty"`
	ClickCount  int64      `json:"clickCount"`
	CreatedAt   Timestamp  `json:"createdAt"`
	ExpiresAt   *Timestamp `json:"expiresAt"`
	IsActive    bool       `json:"isActive"`
}

// LinkStatus is derived from an AnalyticsResult at a point in time.
type LinkStatus string

const (
	LinkStatusActive   LinkStatus = "Active"
	LinkStatusInactive LinkStatus = "Inactive"
	LinkStatusExpired  LinkStatus = "Expired"
)

// Status evaluates the link status at now. Inactive wins over Expired.
// The result must not be stored: it changes as now advances.
func (r *AnalyticsResult) Status(now time.Time) LinkStatus {
	if !r.IsActive {
		return LinkStatusInactive
	}
	if r.ExpiresAt != nil && !r.ExpiresAt.IsZero() && r.ExpiresAt.Before(now) {
		return LinkStatusExpired
	}
	return LinkStatusActive
}
