package database

import (
	"time"
)

// SiteRecord is the row-level metadata for a stored site, without the blob.
type SiteRecord struct {
	ID        string
	Name      string
	OwnerID   string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
