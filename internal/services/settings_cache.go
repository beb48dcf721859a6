package services

import (
	"context"
	"time"

	"dispatch-backend/internal/models"
	"dispatch-backend/pkg/cache"
)

const settingsCacheKey = "whatsapp_settings"

// CachedSettingsStore decorates a SettingsStore with a short-lived
// Redis cache. The dispatch path reads the gateway credentials on every
// send, so the single settings document is the hottest read in the
// system. Cache failures fall through to the backing store.
type CachedSettingsStore struct {
	store SettingsStore
	cache *cache.Cache
	ttl   time.Duration
}

func NewCachedSettingsStore(store SettingsStore, c *cache.Cache, ttl time.Duration) *CachedSettingsStore {
	return &CachedSettingsStore{
		store: store,
		cache: c,
		ttl:   ttl,
	}
}

func (s *CachedSettingsStore) Get() (*models.WhatsAppSettings, error) {
	ctx := context.Background()

	var cached models.WhatsAppSettings
	if found, err := s.cache.Get(ctx, settingsCacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	settings, err := s.store.Get()
	if err != nil {
		return nil, err
	}

	// Best effort; a failed fill just means another store read next time
	s.cache.Set(ctx, settingsCacheKey, settings, s.ttl)

	return settings, nil
}

func (s *CachedSettingsStore) Upsert(settings *models.WhatsAppSettings) (*models.WhatsAppSettings, error) {
	saved, err := s.store.Upsert(settings)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(context.Background(), settingsCacheKey)
	return saved, nil
}

func (s *CachedSettingsStore) SetConnected(connected bool) error {
	if err := s.store.SetConnected(connected); err != nil {
		return err
	}

	return s.cache.Delete(context.Background(), settingsCacheKey)
}
