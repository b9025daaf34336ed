package queue

import (
	"fmt"
	"time"

	"voxcmd/pkg/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "voxcmd"
	DefaultQueue    = "voice_commands"

	contentType = "application/json"
)

// Config locates the broker and the command queue
type Config struct {
	URL      string
	Exchange string
	Queue    string
}

func (c Config) withDefaults() Config {
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
	if c.Queue == "" {
		c.Queue = DefaultQueue
	}
	return c
}

// newPublishing wraps a command payload as a persistent message. The command
// id doubles as the message id so consumers can de-duplicate.
func newPublishing(cmd model.Command) (amqp.Publishing, error) {
	body, err := cmd.MarshalPayload()
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  contentType,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    cmd.ID,
		Type:         cmd.Intent,
		Timestamp:    time.Now(),
	}, nil
}

// dispatch runs handler on one delivery, acking on success and requeueing on
// failure. Undecodable messages are rejected without requeue.
func dispatch(msg amqp.Delivery, handler func(model.Command) error) error {
	cmd, err := model.UnmarshalCommand(msg.Body)
	if err != nil {
		if nackErr := msg.Nack(false, false); nackErr != nil {
			return fmt.Errorf("failed to reject message: %w", nackErr)
		}
		return fmt.Errorf("dropped malformed message: %w", err)
	}
	if cmd.ID == "" {
		cmd.ID = msg.MessageId
	}

	if err := handler(cmd); err != nil {
		if nackErr := msg.Nack(false, true); nackErr != nil {
			return fmt.Errorf("failed to requeue message: %w", nackErr)
		}
		return fmt.Errorf("requeued command %s: %w", cmd.ID, err)
	}

	return msg.Ack(false)
}
