// Package worker relays commands published to the broker into the 1C command register.
package worker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"voxcmd/internal/metrics"
	"voxcmd/internal/onec"
	"voxcmd/pkg/cache"
	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"
	"voxcmd/pkg/resilience"

	"go.uber.org/zap"
)

// Relay statuses reported to metrics
const (
	StatusApplied   = "applied"
	StatusDuplicate = "duplicate"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
)

const doneTTL = 24 * time.Hour

type Applier interface {
	Apply(ctx context.Context, cmd model.Command) error
}

type Consumer interface {
	Consume(ctx context.Context, handler func(model.Command) error) error
}

type Relay struct {
	consumer Consumer
	target   Applier
	cache    cache.Cache
	retry    *resilience.RetryConfig
	timeout  time.Duration
}

// NewRelay builds a relay. c may be nil, in which case duplicate deliveries
// are applied again and left to the target's idempotency handling.
func NewRelay(consumer Consumer, target Applier, c cache.Cache, retry *resilience.RetryConfig) *Relay {
	if retry == nil {
		retry = resilience.DefaultRetryConfig()
	}
	cfg := *retry
	cfg.Retryable = func(err error) bool { return !isPermanent(err) }

	return &Relay{
		consumer: consumer,
		target:   target,
		cache:    c,
		retry:    &cfg,
		timeout:  30 * time.Second,
	}
}

// Run consumes until ctx is canceled or the broker closes the delivery channel
func (r *Relay) Run(ctx context.Context) error {
	logger.Info("Relay started")
	err := r.consumer.Consume(ctx, r.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Handle applies one command. A returned error makes the broker redeliver it;
// commands the target refuses outright are logged and acknowledged.
func (r *Relay) Handle(cmd model.Command) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	log := logger.With(zap.String("command_id", cmd.ID), zap.String("intent", cmd.Intent))

	if r.alreadyApplied(ctx, cmd.ID) {
		log.Info("Skipping duplicate command")
		metrics.RelayedTotal.WithLabelValues(StatusDuplicate).Inc()
		return nil
	}

	err := resilience.RetryWithExponentialBackoff(ctx, r.retry, func(ctx context.Context) error {
		return r.target.Apply(ctx, cmd)
	})
	switch {
	case err == nil:
	case isPermanent(err):
		log.Error("1C rejected command", zap.Error(err))
		metrics.RelayedTotal.WithLabelValues(StatusRejected).Inc()
		return nil
	default:
		log.Warn("Failed to relay command, requeueing", zap.Error(err))
		metrics.RelayedTotal.WithLabelValues(StatusFailed).Inc()
		return err
	}

	r.markApplied(ctx, cmd.ID)
	log.Info("Command relayed")
	metrics.RelayedTotal.WithLabelValues(StatusApplied).Inc()
	return nil
}

func (r *Relay) alreadyApplied(ctx context.Context, id string) bool {
	if r.cache == nil || id == "" {
		return false
	}
	exists, err := r.cache.Exists(ctx, cache.RelayedCommandCacheKey(id))
	if err != nil {
		logger.Warn("Failed to check relay cache", zap.Error(err))
		return false
	}
	return exists
}

func (r *Relay) markApplied(ctx context.Context, id string) {
	if r.cache == nil || id == "" {
		return
	}
	if err := r.cache.SetWithTTL(ctx, cache.RelayedCommandCacheKey(id), time.Now().Unix(), doneTTL); err != nil {
		logger.Warn("Failed to mark command as relayed", zap.Error(err))
	}
}

// isPermanent reports client errors that redelivery cannot fix
func isPermanent(err error) bool {
	var se *onec.StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status >= 400 && se.Status < 500 &&
		se.Status != http.StatusTooManyRequests && se.Status != http.StatusRequestTimeout
}
