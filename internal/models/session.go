package models

import "time"

// SessionInfo describes the dataset currently held by a session.
type SessionInfo struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	RowCount   int       `json:"rowCount"`
	Columns    []string  `json:"columns"`
	Engine     string    `json:"engine"`
	LoadedAt   time.Time `json:"loadedAt"`
	LastAccess time.Time `json:"lastAccess"`
}
