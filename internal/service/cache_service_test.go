package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type memoryCacheRepo struct {
	items  map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out map[string]int
	hit, err := svc.Get(ctx, "dash:admin", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "dash:admin", map[string]int{"pending": 2}, 0))
	assert.Equal(t, time.Minute, repo.ttls["dash:admin"])

	hit, err = svc.Get(ctx, "dash:admin", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, out["pending"])

	require.NoError(t, svc.Invalidate(ctx, cachePatternDashboards))
	hit, _ = svc.Get(ctx, "dash:admin", &out)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.items)

	var out int
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceGetError(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, 0, nil, true)

	var out int
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}
