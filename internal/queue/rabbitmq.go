package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var ErrNotConfirmed = errors.New("broker did not confirm publish")

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	mu      sync.Mutex
}

// NewRabbitMQ connects and declares the exchange, the command queue and
// their binding. The channel runs in confirm mode.
func NewRabbitMQ(cfg Config) (*RabbitMQ, error) {
	cfg = cfg.withDefaults()

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	fail := func(msg string, err error) (*RabbitMQ, error) {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fail("failed to declare exchange", err)
	}

	_, err = ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fail("failed to declare queue", err)
	}

	err = ch.QueueBind(
		cfg.Queue,    // queue name
		cfg.Queue,    // routing key
		cfg.Exchange, // exchange
		false,
		nil,
	)
	if err != nil {
		return fail("failed to bind queue", err)
	}

	if err := ch.Confirm(false); err != nil {
		return fail("failed to enable publisher confirms", err)
	}

	logger.Info("RabbitMQ connected",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", cfg.Queue))

	return &RabbitMQ{
		conn:    conn,
		channel: ch,
		cfg:     cfg,
	}, nil
}

// Apply publishes the command and waits for the broker's confirm. It
// satisfies delivery.Channel.
func (r *RabbitMQ) Apply(ctx context.Context, cmd model.Command) error {
	msg, err := newPublishing(cmd)
	if err != nil {
		return err
	}

	r.mu.Lock()
	confirm, err := r.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		r.cfg.Exchange, // exchange
		r.cfg.Queue,    // routing key
		true,           // mandatory
		false,          // immediate
		msg,
	)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish command: %w", err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to await confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}

	logger.Debug("Command published",
		zap.String("command_id", cmd.ID),
		zap.String("intent", cmd.Intent),
		zap.Int("size", len(msg.Body)))

	return nil
}

// Consume delivers commands to handler one at a time until ctx is done or
// the channel closes.
func (r *RabbitMQ) Consume(ctx context.Context, handler func(model.Command) error) error {
	err := r.channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := r.channel.ConsumeWithContext(
		ctx,
		r.cfg.Queue, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger.Info("Starting to consume commands", zap.String("queue", r.cfg.Queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("consumer channel closed")
			}
			if err := dispatch(msg, handler); err != nil {
				logger.Error("Failed to handle command", zap.Error(err))
			}
		}
	}
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
