package delivery

import (
	"context"
	"errors"
	"fmt"

	"voxcmd/pkg/model"
	"voxcmd/pkg/resilience"
)

// BreakerChannel short-circuits a failing channel until the breaker lets a
// probe through.
type BreakerChannel struct {
	next    Channel
	breaker *resilience.CircuitBreaker
}

func NewBreakerChannel(next Channel, breaker *resilience.CircuitBreaker) *BreakerChannel {
	return &BreakerChannel{next: next, breaker: breaker}
}

func (b *BreakerChannel) Apply(ctx context.Context, cmd model.Command) error {
	err := b.breaker.Execute(func() error {
		return b.next.Apply(ctx, cmd)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	return err
}
