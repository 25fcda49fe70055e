package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/metrics"
	"github.com/angelmondragon/cafehop-backend/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	cafes []CafeSummary
	calls int
	err   error
}

func (s *stubSource) ListActive(context.Context) ([]CafeSummary, error) {
	s.calls++
	return s.cafes, s.err
}

type memCache struct {
	data   map[string]string
	getErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}}
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

func (m *memCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memCache) NearbyKey(fingerprint string) string {
	return "nearby:" + fingerprint
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNearbyUsesConfiguredTimezone(t *testing.T) {
	source := &stubSource{cafes: []CafeSummary{
		{ID: "early", Coordinate: types.Coordinate{Lat: 0, Lng: 0.01}, Hours: WeeklyHours{1: {Open: "08:00", Close: "10:00"}}},
	}}
	// 14:00 UTC Monday is 09:00 at UTC-5.
	at := time.Date(2025, 3, 17, 14, 0, 0, 0, time.UTC)

	local, err := NewService(source, Options{Location: time.FixedZone("EST", -5*3600), Now: fixedClock(at)})
	require.NoError(t, err)
	got, err := local.Nearby(context.Background(), NearbyQuery{User: origin, Filters: Filters{OpenOnly: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"early"}, ids(got))

	utc, err := NewService(source, Options{Location: time.UTC, Now: fixedClock(at)})
	require.NoError(t, err)
	got, err = utc.Nearby(context.Background(), NearbyQuery{User: origin, Filters: Filters{OpenOnly: true}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNearbyCachesCafeListing(t *testing.T) {
	source := &stubSource{cafes: []CafeSummary{
		{ID: "a", Name: "A", Coordinate: types.Coordinate{Lat: 0, Lng: 0.02}, Rating: 4.2, Hours: weekdays("06:00", "20:00")},
		{ID: "b", Name: "B", Coordinate: types.Coordinate{Lat: 0, Lng: 0.01}, Rating: 3.9, Hours: weekdays("06:00", "20:00")},
	}}
	cache := newMemCache()
	reg := prometheus.NewRegistry()
	svc, err := NewService(source, Options{
		Cache:    cache,
		CacheTTL: time.Minute,
		Location: time.UTC,
		Now:      fixedClock(time.Date(2025, 3, 17, 12, 0, 0, 0, time.UTC)),
		Metrics:  metrics.NewDiscoveryMetrics(reg),
	})
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Nearby(ctx, NearbyQuery{User: origin})
	require.NoError(t, err)
	second, err := svc.Nearby(ctx, NearbyQuery{User: origin, Filters: Filters{Sort: enums.CafeSortRating}})
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, []string{"b", "a"}, ids(first))
	assert.Equal(t, []string{"a", "b"}, ids(second))
	assert.True(t, second[0].OpenNow)
	assert.Contains(t, cache.data, "nearby:active_cafes")

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Nearby(ctx, NearbyQuery{User: origin})
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestNearbyFallsBackWhenCacheFails(t *testing.T) {
	source := &stubSource{cafes: []CafeSummary{{ID: "a", Coordinate: origin}}}
	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	svc, err := NewService(source, Options{Cache: cache, CacheTTL: time.Minute})
	require.NoError(t, err)

	got, err := svc.Nearby(context.Background(), NearbyQuery{User: origin})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(got))
}

func TestNearbyValidatesQuery(t *testing.T) {
	svc, err := NewService(&stubSource{}, Options{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Nearby(ctx, NearbyQuery{User: types.Coordinate{Lat: 120}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Nearby(ctx, NearbyQuery{User: origin, Filters: Filters{MaxDistance: Within(-1)}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Nearby(ctx, NearbyQuery{User: origin, Filters: Filters{Sort: enums.CafeSort("popularity")}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestNearbyPropagatesSourceError(t *testing.T) {
	boom := pkgerrors.New(pkgerrors.CodeDependency, "db unavailable")
	svc, err := NewService(&stubSource{err: boom}, Options{})
	require.NoError(t, err)

	_, err = svc.Nearby(context.Background(), NearbyQuery{User: origin})
	assert.ErrorIs(t, err, boom)
}

func TestNewServiceRequiresSource(t *testing.T) {
	_, err := NewService(nil, Options{})
	require.Error(t, err)
}
