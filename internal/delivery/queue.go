// Package delivery hands recognized commands to the downstream system,
// retaining them for polling when the immediate attempt fails.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	"go.uber.org/zap"
)

var (
	ErrChannelUnavailable = errors.New("delivery channel unavailable")
	ErrQueueFull          = errors.New("delivery queue full")
)

// Channel applies a command downstream
type Channel interface {
	Apply(ctx context.Context, cmd model.Command) error
}

// Store holds pending commands in FIFO order
type Store interface {
	Push(ctx context.Context, p model.PendingCommand) error
	Pop(ctx context.Context) (*model.PendingCommand, error)
	Len(ctx context.Context) (int, error)
	// DropOldest removes the head without returning it
	DropOldest(ctx context.Context) error
}

type OverflowPolicy string

const (
	DropOldest OverflowPolicy = "drop_oldest"
	Reject     OverflowPolicy = "reject"
)

// Observer receives delivery outcomes, used for metrics
type Observer interface {
	Delivered()
	Queued()
	Dropped()
	Polled()
	Pending(n int)
}

type nopObserver struct{}

func (nopObserver) Delivered()  {}
func (nopObserver) Queued()     {}
func (nopObserver) Dropped()    {}
func (nopObserver) Polled()     {}
func (nopObserver) Pending(int) {}

type Options struct {
	AttemptTimeout time.Duration
	MaxPending     int
	Overflow       OverflowPolicy
	Observer       Observer
}

func DefaultOptions() Options {
	return Options{
		AttemptTimeout: 3 * time.Second,
		MaxPending:     10000,
		Overflow:       DropOldest,
	}
}

type Queue struct {
	channel Channel
	store   Store
	opts    Options

	// serializes store mutations so the bound check and push are atomic
	mu sync.Mutex
}

// NewQueue creates a delivery queue; channel may be nil, in which case every
// command goes straight to the store.
func NewQueue(channel Channel, store Store, opts Options) *Queue {
	if store == nil {
		store = NewMemoryStore()
	}
	if opts.MaxPending <= 0 {
		opts.MaxPending = DefaultOptions().MaxPending
	}
	if opts.Overflow == "" {
		opts.Overflow = DropOldest
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Queue{
		channel: channel,
		store:   store,
		opts:    opts,
	}
}

// Submit attempts immediate delivery and falls back to the store. It never
// fails from the caller's point of view.
func (q *Queue) Submit(ctx context.Context, cmd model.Command) {
	err := q.attempt(ctx, cmd)
	if err == nil {
		q.opts.Observer.Delivered()
		logger.Debug("Command delivered",
			zap.String("command_id", cmd.ID),
			zap.String("intent", cmd.Intent))
		return
	}

	logger.Warn("Immediate delivery failed, queueing command",
		zap.String("command_id", cmd.ID),
		zap.String("intent", cmd.Intent),
		zap.Error(err))

	if err := q.enqueue(ctx, model.PendingCommand{Command: cmd, EnqueuedAt: time.Now()}); err != nil {
		q.opts.Observer.Dropped()
		logger.Error("Command dropped",
			zap.String("command_id", cmd.ID),
			zap.String("intent", cmd.Intent),
			zap.Error(err))
	}
}

func (q *Queue) attempt(ctx context.Context, cmd model.Command) error {
	if q.channel == nil {
		return ErrChannelUnavailable
	}

	attemptCtx := ctx
	if q.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, q.opts.AttemptTimeout)
		defer cancel()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.channel.Apply(attemptCtx, cmd)
	}()

	// a channel that ignores ctx still cannot stall the caller past the timeout
	select {
	case err := <-errCh:
		return err
	case <-attemptCtx.Done():
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, attemptCtx.Err())
	}
}

func (q *Queue) enqueue(ctx context.Context, p model.PendingCommand) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	n, err := q.store.Len(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue length: %w", err)
	}

	if n >= q.opts.MaxPending {
		switch q.opts.Overflow {
		case Reject:
			return ErrQueueFull
		default:
			if err := q.store.DropOldest(ctx); err != nil {
				return fmt.Errorf("failed to evict oldest command: %w", err)
			}
			n--
			q.opts.Observer.Dropped()
			logger.Warn("Queue full, oldest command evicted",
				zap.Int("max_pending", q.opts.MaxPending))
		}
	}

	if err := q.store.Push(ctx, p); err != nil {
		return fmt.Errorf("failed to store command: %w", err)
	}

	q.opts.Observer.Queued()
	q.opts.Observer.Pending(n + 1)
	return nil
}

// PollNext removes and returns the oldest pending command, or nil when the
// queue is empty. Returning the command is the hand-off.
func (q *Queue) PollNext(ctx context.Context) (*model.PendingCommand, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	p, err := q.store.Pop(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pop command: %w", err)
	}
	if p == nil {
		q.opts.Observer.Pending(0)
		return nil, nil
	}

	q.opts.Observer.Polled()
	if n, err := q.store.Len(ctx); err == nil {
		q.opts.Observer.Pending(n)
	}
	return p, nil
}

// Len returns the number of pending commands
func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.store.Len(ctx)
}
