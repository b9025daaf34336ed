package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voxcmd/pkg/cache"
	"voxcmd/pkg/logger"
	"voxcmd/pkg/resilience"

	"go.uber.org/zap"
)

// NameSource supplies object names known to the downstream system
type NameSource interface {
	FetchMetadataNames(ctx context.Context) ([]string, error)
	SourceName() string
}

type Loader struct {
	source NameSource
	cache  cache.Cache
	ttl    time.Duration
	retry  *resilience.RetryConfig
}

// NewLoader creates a loader; c may be nil to disable caching
func NewLoader(source NameSource, c cache.Cache, ttl time.Duration, retry *resilience.RetryConfig) *Loader {
	if retry == nil {
		retry = resilience.DefaultRetryConfig()
	}
	return &Loader{
		source: source,
		cache:  c,
		ttl:    ttl,
		retry:  retry,
	}
}

// Names returns dynamic names from cache or the source
func (l *Loader) Names(ctx context.Context) ([]string, error) {
	key := cache.MetadataNamesCacheKey(l.source.SourceName())

	if l.cache != nil {
		var names []string
		err := l.cache.Get(ctx, key, &names)
		if err == nil {
			logger.Debug("Metadata names loaded from cache", zap.Int("count", len(names)))
			return names, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			logger.Warn("Failed to read metadata cache", zap.Error(err))
		}
	}

	var names []string
	err := resilience.RetryWithExponentialBackoff(ctx, l.retry, func(ctx context.Context) error {
		fetched, err := l.source.FetchMetadataNames(ctx)
		if err != nil {
			logger.Warn("Metadata fetch attempt failed", zap.Error(err))
			return err
		}
		names = fetched
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata names: %w", err)
	}

	if l.cache != nil {
		if err := l.cache.SetWithTTL(ctx, key, names, l.ttl); err != nil {
			logger.Warn("Failed to cache metadata names", zap.Error(err))
		}
	}

	return names, nil
}

// Build returns a canonicalizer over StaticNames extended by the source.
// A failing source degrades to the static table only.
func (l *Loader) Build(ctx context.Context) *Canonicalizer {
	names, err := l.Names(ctx)
	if err != nil {
		logger.Warn("Using static metadata names only", zap.Error(err))
		return NewDefault()
	}

	c := NewDefault(names...)
	logger.Info("Metadata canonicalizer built",
		zap.Int("dynamic", len(names)),
		zap.Int("stems", c.Len()))
	return c
}
