package services

import (
	"testing"
	"time"

	"dispatch-backend/internal/models"
	"dispatch-backend/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSettingsStore struct {
	fakeSettingsStore
	getCalls int
}

func (s *countingSettingsStore) Get() (*models.WhatsAppSettings, error) {
	s.getCalls++
	return s.fakeSettingsStore.Get()
}

func setupCachedStore(t *testing.T) (*CachedSettingsStore, *countingSettingsStore) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backing := &countingSettingsStore{
		fakeSettingsStore: fakeSettingsStore{
			settings: &models.WhatsAppSettings{
				InstanceID:   "inst-1",
				APIToken:     "token",
				SenderNumber: "+15550001111",
			},
		},
	}

	return NewCachedSettingsStore(backing, cache.New(client, "settings:"), time.Minute), backing
}

func TestCachedSettingsStore_SecondGetHitsCache(t *testing.T) {
	store, backing := setupCachedStore(t)

	first, err := store.Get()
	require.NoError(t, err)

	second, err := store.Get()
	require.NoError(t, err)

	assert.Equal(t, first.InstanceID, second.InstanceID)
	assert.Equal(t, 1, backing.getCalls)
}

func TestCachedSettingsStore_UpsertInvalidates(t *testing.T) {
	store, backing := setupCachedStore(t)

	_, err := store.Get()
	require.NoError(t, err)

	backing.settings.InstanceID = "inst-2"
	_, err = store.Upsert(backing.settings)
	require.NoError(t, err)

	got, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "inst-2", got.InstanceID)
	assert.Equal(t, 2, backing.getCalls)
}

func TestCachedSettingsStore_SetConnectedInvalidates(t *testing.T) {
	store, backing := setupCachedStore(t)

	_, err := store.Get()
	require.NoError(t, err)

	require.NoError(t, store.SetConnected(false))

	_, err = store.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, backing.getCalls)
}
