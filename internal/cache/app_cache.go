package cache

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/sampark/sampark/internal/config"
	"github.com/sampark/sampark/internal/database"
)

// Cache key prefixes.
const (
	ProfileCachePrefix    = "profile-"
	ThemeCountCachePrefix = "theme-counts-"
)

// ThemeCountsKey is the single key under which the theme aggregate is stored.
const ThemeCountsKey = "all"

// AppCache holds the read-through caches in front of the database.
type AppCache struct {
	// Profiles caches scanned profiles keyed by registration number.
	Profiles *PrefixedCache[database.User]
	// ThemeCounts caches the public theme aggregate.
	ThemeCounts *PrefixedCache[[]database.ThemeCount]
}

// New creates the application caches for cfg.
func New(cfg *config.CacheConfig) (*AppCache, error) {
	if cfg == nil {
		cfg = &config.CacheConfig{Type: config.CacheTypeMemory}
	}

	profiles, profileKeys, err := newCacheInstanceByType(cfg)
	if err != nil {
		return nil, err
	}
	themes, themeKeys, err := newCacheInstanceByType(cfg)
	if err != nil {
		return nil, err
	}

	ac := &AppCache{
		Profiles:    NewPrefixedCache[database.User](profiles, cfg.Type, ProfileCachePrefix, cfg.TTL),
		ThemeCounts: NewPrefixedCache[[]database.ThemeCount](themes, cfg.Type, ThemeCountCachePrefix, cfg.TTL),
	}
	ac.Profiles.keys = profileKeys
	ac.ThemeCounts.keys = themeKeys
	return ac, nil
}

// InvalidateProfile drops the cached profile of a participant.
func (a *AppCache) InvalidateProfile(ctx context.Context, registrationNumber string) {
	if err := a.Profiles.Delete(ctx, registrationNumber); err != nil {
		log.Debug("failed to invalidate profile cache", "registration_number", registrationNumber, "error", err)
	}
}

// InvalidateThemes drops the cached theme aggregate.
func (a *AppCache) InvalidateThemes(ctx context.Context) {
	if err := a.ThemeCounts.Delete(ctx, ThemeCountsKey); err != nil {
		log.Debug("failed to invalidate theme cache", "error", err)
	}
}

// ClearAll drops every cached profile and aggregate. Other keys in a shared redis are kept.
func (a *AppCache) ClearAll(ctx context.Context) {
	errs := []error{
		a.Profiles.Clear(ctx),
		a.ThemeCounts.Clear(ctx),
	}
	for _, err := range errs {
		if err != nil {
			log.Errorf("failed to clear cache: %v", err)
		}
	}
}

type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
}

func (a *AppCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     a.Profiles.GetStats(),
			CacheName: "profiles",
		},
		{
			Stats:     a.ThemeCounts.GetStats(),
			CacheName: "theme-counts",
		},
	}
}
