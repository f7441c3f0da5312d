package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// MentorSource loads the aggregate behind a cache miss
type MentorSource interface {
	GetByID(ctx context.Context, id string) (*models.Mentor, error)
}

const (
	profileKeyPrefix  = "mentor:profile:"
	profileCacheName  = "mentor_profile"
	cacheCheckPeriod  = time.Minute
	defaultProfileTTL = 5 * time.Minute
)

// ProfileCache keeps public mentor profiles (reputation and capacity) for
// read endpoints. Writes never go through it; services call Invalidate after
// committing a change that alters a profile.
type ProfileCache struct {
	cache  *gocache.Cache
	source MentorSource
	ttl    time.Duration
}

// NewProfileCache creates a TTL cache in front of source
func NewProfileCache(source MentorSource, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	return &ProfileCache{
		cache:  gocache.New(ttl, cacheCheckPeriod),
		source: source,
		ttl:    ttl,
	}
}

// Get returns the cached profile or loads it from the source
func (pc *ProfileCache) Get(ctx context.Context, mentorID string) (models.MentorProfile, error) {
	key := profileKeyPrefix + mentorID

	if data, found := pc.cache.Get(key); found {
		if profile, ok := data.(models.MentorProfile); ok {
			metrics.CacheHits.WithLabelValues(profileCacheName).Inc()
			return profile, nil
		}
		logger.Error("Invalid profile cache data type", zap.String("mentor_id", mentorID))
		pc.cache.Delete(key)
	}

	metrics.CacheMisses.WithLabelValues(profileCacheName).Inc()

	mentor, err := pc.source.GetByID(ctx, mentorID)
	if err != nil {
		return models.MentorProfile{}, fmt.Errorf("failed to load mentor profile: %w", err)
	}

	profile := mentor.Profile()
	pc.cache.Set(key, profile, pc.ttl)
	metrics.CacheSize.WithLabelValues(profileCacheName).Set(float64(pc.cache.ItemCount()))

	return profile, nil
}

// Invalidate drops the cached profile for mentorID
func (pc *ProfileCache) Invalidate(mentorID string) {
	pc.cache.Delete(profileKeyPrefix + mentorID)
	logger.Debug("Mentor profile cache invalidated", zap.String("mentor_id", mentorID))
}

// Flush drops every cached profile
func (pc *ProfileCache) Flush() {
	pc.cache.Flush()
	metrics.CacheSize.WithLabelValues(profileCacheName).Set(0)
}
