package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dotunfolarin/pressflow/app/site"
)

var _ SiteRepository = (*SiteRepositoryImpl)(nil)

// maxUpdateRetries bounds the optimistic-concurrency retry loop. Conflicts are
// rare (two jobs for the same site racing to commit), so a handful is plenty.
const maxUpdateRetries = 5

type SiteRepositoryImpl struct {
	db *DB
}

func NewSiteRepository(db *DB) *SiteRepositoryImpl {
	return &SiteRepositoryImpl{db: db}
}

func (r *SiteRepositoryImpl) GetSite(name string) (*site.Site, error) {
	var data string
	err := r.db.QueryRow(`SELECT data FROM sites WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrSiteNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	return unmarshalSite(data)
}

func (r *SiteRepositoryImpl) GetSitesByOwner(ownerID string) ([]*site.Site, error) {
	rows, err := r.db.Query(`SELECT data FROM sites WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sites by owner: %w", err)
	}
	defer rows.Close()

	var sites []*site.Site
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan site row: %w", err)
		}
		s, err := unmarshalSite(data)
		if err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating site rows: %w", err)
	}

	return sites, nil
}

func (r *SiteRepositoryImpl) ListSites() ([]SiteRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, name, owner_id, version, created_at, updated_at
		FROM sites
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var records []SiteRecord
	for rows.Next() {
		var rec SiteRecord
		err := rows.Scan(&rec.ID, &rec.Name, &rec.OwnerID, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating site records: %w", err)
	}

	return records, nil
}

func (r *SiteRepositoryImpl) GetSiteCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sites`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sites: %w", err)
	}
	return count, nil
}

func (r *SiteRepositoryImpl) RegisterSite(s *site.Site) (bool, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("failed to marshal site: %w", err)
	}

	// INSERT OR IGNORE so an existing site's mutable state is never clobbered
	// by re-registering seeds at startup.
	result, err := r.db.Exec(`
		INSERT OR IGNORE INTO sites (id, name, owner_id, data)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), s.Name, s.OwnerID, string(data))
	if err != nil {
		return false, fmt.Errorf("failed to register site: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read register result: %w", err)
	}

	return affected == 1, nil
}

func (r *SiteRepositoryImpl) UpdateSite(name string, fn func(*site.Site) error) error {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var version int64
		var data string
		err := r.db.QueryRow(`SELECT version, data FROM sites WHERE name = ?`, name).Scan(&version, &data)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", ErrSiteNotFound, name)
		}
		if err != nil {
			return fmt.Errorf("failed to read site for update: %w", err)
		}

		s, err := unmarshalSite(data)
		if err != nil {
			return err
		}

		if err := fn(s); err != nil {
			return err
		}

		updated, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal site: %w", err)
		}

		result, err := r.db.Exec(`
			UPDATE sites
			SET data = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
			WHERE name = ? AND version = ?
		`, string(updated), name, version)
		if err != nil {
			return fmt.Errorf("failed to write site: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read update result: %w", err)
		}
		if affected == 1 {
			return nil
		}
		// A concurrent writer bumped the version; re-read and re-apply.
	}

	return fmt.Errorf("%w: %s after %d attempts", ErrVersionConflict, name, maxUpdateRetries)
}

func unmarshalSite(data string) (*site.Site, error) {
	var s site.Site
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal site: %w", err)
	}
	return &s, nil
}
