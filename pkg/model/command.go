package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Command is a recognized intent addressed to the downstream system
type Command struct {
	ID        string
	Intent    string
	Fields    Fields
	CreatedAt time.Time
}

// NewCommand creates a command with a fresh id
func NewCommand(intent string, fields Fields) Command {
	return Command{
		ID:        uuid.New().String(),
		Intent:    intent,
		Fields:    fields.Clone(),
		CreatedAt: time.Now(),
	}
}

// CommandPayload is the wire form: fields are flattened to strings
type CommandPayload struct {
	ID     string            `json:"id"`
	Intent string            `json:"intent"`
	Fields map[string]string `json:"fields"`
}

// Payload returns the wire form of the command
func (c Command) Payload() CommandPayload {
	return CommandPayload{
		ID:     c.ID,
		Intent: c.Intent,
		Fields: c.Fields.Strings(),
	}
}

// MarshalPayload serializes the command for the downstream channel
func (c Command) MarshalPayload() ([]byte, error) {
	body, err := json.Marshal(c.Payload())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}
	return body, nil
}

// UnmarshalCommand decodes a wire payload back into a command.
// Field values stay strings: the flattening is not reversible.
func UnmarshalCommand(body []byte) (Command, error) {
	var p CommandPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Command{}, fmt.Errorf("failed to unmarshal command: %w", err)
	}
	if p.Intent == "" {
		return Command{}, fmt.Errorf("command payload has no intent")
	}
	fields := make(Fields, len(p.Fields))
	for k, v := range p.Fields {
		fields[k] = v
	}
	return Command{ID: p.ID, Intent: p.Intent, Fields: fields}, nil
}

// PendingCommand is a command retained by the delivery queue after a failed attempt
type PendingCommand struct {
	Command    Command
	EnqueuedAt time.Time
}

// MarshalJSON renders the pending command the way pollers receive it
func (p PendingCommand) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CommandPayload
		EnqueuedAt time.Time `json:"enqueued_at"`
	}{p.Command.Payload(), p.EnqueuedAt})
}
