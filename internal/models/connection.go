package models

import "time"

// Connection is the connections table row.
type Connection struct {
	ConnectionID    string     `json:"connectionID"`
	UserID          string     `json:"userID"`
	AccessToken     string     `json:"-"`
	Cursor          *string    `json:"cursor"`
	LastSyncedAt    *time.Time `json:"lastSyncedAt"`
	IsActive        bool       `json:"isActive"`
	InitialSyncDone bool       `json:"initialSyncDone"`
	AuditFields
}
