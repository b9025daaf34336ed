package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"voxcmd/pkg/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAck) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestNewPublishing(t *testing.T) {
	cmd := model.NewCommand(model.IntentAddPosition, model.Fields{"item": "молоко", "qty": 5})

	msg, err := newPublishing(cmd)
	require.NoError(t, err)

	assert.Equal(t, cmd.ID, msg.MessageId)
	assert.Equal(t, model.IntentAddPosition, msg.Type)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var payload model.CommandPayload
	require.NoError(t, json.Unmarshal(msg.Body, &payload))
	assert.Equal(t, map[string]string{"item": "молоко", "qty": "5"}, payload.Fields)
}

func delivery(t *testing.T, ack amqp.Acknowledger, cmd model.Command) amqp.Delivery {
	t.Helper()
	msg, err := newPublishing(cmd)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: msg.Body, MessageId: msg.MessageId}
}

func TestDispatch_Ack(t *testing.T) {
	ack := &fakeAck{}
	cmd := model.NewCommand(model.IntentSaveDocument, nil)

	var got model.Command
	err := dispatch(delivery(t, ack, cmd), func(c model.Command) error {
		got = c
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ack.acked)
	assert.Equal(t, cmd.ID, got.ID)
	assert.Equal(t, model.IntentSaveDocument, got.Intent)
}

func TestDispatch_HandlerFailureRequeues(t *testing.T) {
	ack := &fakeAck{}
	cmd := model.NewCommand(model.IntentRunReport, model.Fields{"report": "ОстаткиНоменклатуры"})

	err := dispatch(delivery(t, ack, cmd), func(model.Command) error {
		return errors.New("1c unavailable")
	})

	assert.Error(t, err)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)
	assert.False(t, ack.acked)
}

func TestDispatch_MalformedRejected(t *testing.T) {
	ack := &fakeAck{}
	called := false

	err := dispatch(amqp.Delivery{Acknowledger: ack, Body: []byte(`{"fields":{}}`)}, func(model.Command) error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}

func TestRabbitMQ_ApplyAndConsume(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if testing.Short() || url == "" {
		t.Skip("Skipping integration test: set RABBITMQ_URL")
	}

	r, err := NewRabbitMQ(Config{URL: url, Queue: "voice_commands_test"})
	require.NoError(t, err)
	defer r.Close()

	cmd := model.NewCommand(model.IntentHelp, nil)
	require.NoError(t, r.Apply(context.Background(), cmd))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan model.Command, 1)
	go r.Consume(ctx, func(c model.Command) error {
		received <- c
		return nil
	})

	select {
	case got := <-received:
		assert.Equal(t, model.IntentHelp, got.Intent)
	case <-ctx.Done():
		t.Fatal("command not consumed")
	}
}
