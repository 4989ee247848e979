package model

import "time"

// HistoryEntry is a link this client shortened earlier.
type HistoryEntry struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ShortURL    string     `json:"short_url" gorm:"size:512;not null"`
	ShortCode   string     `json:"short_code,omitempty" gorm:"size:64;index"`
	OriginalURL string     `json:"original_url" gorm:"type:text;not null;index"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName keeps the table name stable across GORM naming strategies.
func (HistoryEntry) TableName() string {
	return "ushort_history"
}
