package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"github.com/angelmondragon/cafehop-backend/pkg/metrics"
	"github.com/angelmondragon/cafehop-backend/pkg/redis"
	"github.com/angelmondragon/cafehop-backend/pkg/types"
)

const activeCafesFingerprint = "active_cafes"

// CafeSource loads every active café with its weekly hours.
type CafeSource interface {
	ListActive(ctx context.Context) ([]CafeSummary, error)
}

// Cache is the subset of the redis client used to memoize café listings.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	NearbyKey(fingerprint string) string
}

// NearbyQuery describes one discovery request. A zero At means now.
type NearbyQuery struct {
	User    types.Coordinate
	Filters Filters
	At      time.Time
}

// Service ranks nearby cafés for a user.
type Service interface {
	Nearby(ctx context.Context, query NearbyQuery) ([]RankedCafe, error)
	Invalidate(ctx context.Context) error
}

// Options tunes the discovery service; zero values fall back to sensible defaults.
type Options struct {
	Cache    Cache
	CacheTTL time.Duration
	Location *time.Location
	Now      func() time.Time
	Metrics  *metrics.DiscoveryMetrics
	Logger   *logger.Logger
}

type service struct {
	source   CafeSource
	cache    Cache
	cacheTTL time.Duration
	loc      *time.Location
	now      func() time.Time
	metrics  *metrics.DiscoveryMetrics
	logg     *logger.Logger
}

// NewService builds the discovery service.
func NewService(source CafeSource, opts Options) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("cafe source required")
	}
	svc := &service{
		source:   source,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		loc:      opts.Location,
		now:      opts.Now,
		metrics:  opts.Metrics,
		logg:     opts.Logger,
	}
	if svc.loc == nil {
		svc.loc = time.Local
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	return svc, nil
}

func (s *service) Nearby(ctx context.Context, query NearbyQuery) ([]RankedCafe, error) {
	if !query.User.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user location is invalid").WithDetails(map[string]any{
			"latitude":  fmt.Sprint(query.User.Lat),
			"longitude": fmt.Sprint(query.User.Lng),
		})
	}
	if query.Filters.MaxDistance != nil && *query.Filters.MaxDistance < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max distance must be non-negative")
	}
	if query.Filters.Sort == "" {
		query.Filters.Sort = enums.CafeSortDistance
	}
	if !query.Filters.Sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort").WithDetails(map[string]any{
			"sort": query.Filters.Sort.String(),
		})
	}

	started := s.now()
	cafes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	at := query.At
	if at.IsZero() {
		at = started
	}
	if excluded := ExcludedCount(cafes); excluded > 0 {
		s.metrics.AddExcluded(excluded)
		s.logg.Warn(s.logg.WithField(ctx, "excluded", excluded), "cafes with invalid coordinates skipped")
	}
	ranked := Rank(cafes, query.User, ClockAt(at.In(s.loc)), query.Filters)
	s.metrics.ObserveDuration(s.now().Sub(started))
	return ranked, nil
}

// Invalidate drops the cached café listing so the next request reloads it.
func (s *service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Del(ctx, s.cache.NearbyKey(activeCafesFingerprint)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate cafe cache")
	}
	return nil
}

func (s *service) load(ctx context.Context) ([]CafeSummary, error) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return s.source.ListActive(ctx)
	}

	key := s.cache.NearbyKey(activeCafesFingerprint)
	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var cafes []CafeSummary
		decodeErr := json.Unmarshal([]byte(raw), &cafes)
		if decodeErr == nil {
			s.metrics.CacheHit()
			return cafes, nil
		}
		s.logg.Warn(ctx, "discarding undecodable cafe cache entry: "+decodeErr.Error())
	case redis.IsMiss(err):
	default:
		s.logg.Warn(ctx, "cafe cache read failed: "+err.Error())
	}
	s.metrics.CacheMiss()

	cafes, err := s.source.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(cafes)
	if err != nil {
		s.logg.Warn(ctx, "cafe listing not cacheable: "+err.Error())
		return cafes, nil
	}
	if err := s.cache.Set(ctx, key, string(payload), s.cacheTTL); err != nil {
		s.logg.Warn(ctx, "cafe cache write failed: "+err.Error())
	}
	return cafes, nil
}
