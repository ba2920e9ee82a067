package database

import (
	"errors"

	"github.com/dotunfolarin/pressflow/app/site"
)

var (
	// ErrSiteNotFound is returned when no site row matches the given name.
	ErrSiteNotFound = errors.New("site not found")

	// ErrVersionConflict is returned when an update keeps losing the optimistic
	// version check against concurrent writers.
	ErrVersionConflict = errors.New("site version conflict")
)

type SiteRepository interface {
	GetSite(name string) (*site.Site, error)
	GetSitesByOwner(ownerID string) ([]*site.Site, error)
	ListSites() ([]SiteRecord, error)
	GetSiteCount() (int, error)

	// RegisterSite inserts the seed if no site with that name exists yet.
	// It never overwrites an existing row, so mutable state survives reseeding.
	// Returns true when a new row was inserted.
	RegisterSite(s *site.Site) (bool, error)

	// UpdateSite runs fn against the current site state and writes the whole
	// object back, guarded by a version check-and-increment. On conflict the
	// read-modify-write is retried with fresh state.
	UpdateSite(name string, fn func(*site.Site) error) error
}
