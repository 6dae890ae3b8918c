package domain

import "time"

// Connection is one link to the upstream aggregation provider for a user.
// The access token arrives already decrypted; credential exchange and
// encryption at rest are handled outside this service.
type Connection struct {
	ConnectionID    string     `json:"connectionID"`
	UserID          string     `json:"userID"`
	AccessToken     string     `json:"-"`
	Cursor          *string    `json:"cursor,omitempty"` // opaque, forward-only per provider contract
	LastSyncedAt    *time.Time `json:"lastSyncedAt,omitempty"`
	IsActive        bool       `json:"isActive"`
	InitialSyncDone bool       `json:"initialSyncDone"`
	AuditFields
}
