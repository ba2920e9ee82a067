package site

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ConfigCache loads and caches site seed configurations from a directory of
// YAML files. The seed defines a site's initial configuration; mutable state
// (history, drafts, consumption markers) lives in the database afterwards.
type ConfigCache struct {
	sitesDir string
	cache    map[string]*Site
	mu       sync.RWMutex
}

func NewConfigCache(sitesDir string) *ConfigCache {
	return &ConfigCache{
		sitesDir: sitesDir,
		cache:    make(map[string]*Site),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.sitesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.sitesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive site name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		siteName := fileName[:len(fileName)-4]

		seed, err := cc.LoadSeed(siteName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Site seed loaded", "site", siteName, "owner", seed.OwnerID, "source", seed.DailyGenerationSource)
	}

	return nil
}

func (cc *ConfigCache) LoadSeed(siteName string) (*Site, error) {
	seedFile := filepath.Join(cc.sitesDir, siteName+".yml")

	data, err := os.ReadFile(seedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var seed Site
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Site name comes from the filename, not the file body.
	seed.Name = siteName

	setSeedDefaults(&seed)

	if err := validateSeed(&seed); err != nil {
		return nil, fmt.Errorf("invalid seed %s: %w", seedFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[seed.Name] = &seed

	return &seed, nil
}

func (cc *ConfigCache) GetSeed(siteName string) (*Site, error) {
	cc.mu.RLock()
	seed, ok := cc.cache[siteName]
	cc.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no seed configuration for site %q", siteName)
	}
	return seed, nil
}

func (cc *ConfigCache) GetSeeds() []*Site {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	seeds := make([]*Site, 0, len(cc.cache))
	for _, seed := range cc.cache {
		seeds = append(seeds, seed)
	}
	return seeds
}

func (cc *ConfigCache) GetSeedCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func setSeedDefaults(s *Site) {
	if s.DailyGenerationSource == "" {
		s.DailyGenerationSource = SourceKeyword
	}
	if s.SocialGraphic.Source == "" {
		s.SocialGraphic.Source = SourceNewPost
	}
	if s.SocialVideo.Source == "" {
		s.SocialVideo.Source = SourceNewPost
	}
	if s.Email.Source == "" {
		s.Email.Source = SourceKeyword
	}
	if s.Broadcast.State == "" {
		s.Broadcast.State = BroadcastIdle
	}
	if s.APIUsage == nil {
		s.APIUsage = make(map[string]float64)
	}
}

func validateSeed(s *Site) error {
	if s.OwnerID == "" {
		return fmt.Errorf("site owner is required")
	}

	validSources := map[SourceType]bool{
		SourceKeyword:     true,
		SourceRSS:         true,
		SourceVideo:       true,
		SourceGoogleSheet: true,
		SourceAgencyAgent: true,
		SourceNewPost:     true,
	}
	for _, source := range []SourceType{s.DailyGenerationSource, s.SocialGraphic.Source, s.SocialVideo.Source, s.Email.Source} {
		if !validSources[source] {
			return fmt.Errorf("invalid source type: %s", source)
		}
	}

	if s.Blog.Enabled && s.WordPressURL == "" {
		return fmt.Errorf("blog automation requires a WordPress URL")
	}

	if s.Broadcast.Enabled {
		if s.Broadcast.FeedURL == "" {
			return fmt.Errorf("broadcast automation requires a feed URL to monitor")
		}
		switch s.Broadcast.SourceKind {
		case BroadcastSourcePage:
			if s.Broadcast.PageID == "" {
				return fmt.Errorf("broadcast page source requires a page id")
			}
		case BroadcastSourceProfile:
			if s.Broadcast.ProfileURL == "" {
				return fmt.Errorf("broadcast profile source requires a profile URL")
			}
		default:
			return fmt.Errorf("invalid broadcast source kind: %s", s.Broadcast.SourceKind)
		}
	}

	for i, schedule := range s.Blog.Schedules {
		if schedule.Type != ScheduleWeekly && schedule.Type != ScheduleMonthly {
			return fmt.Errorf("invalid schedule type at index %d: %s", i, schedule.Type)
		}
	}

	return nil
}
