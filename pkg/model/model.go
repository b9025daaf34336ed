package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine identifies which recognition tier produced a transcript
type Engine string

const (
	EngineFast     Engine = "fast"
	EngineFallback Engine = "fallback"
)

// JSONB represents a JSONB field for PostgreSQL
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}

	return json.Unmarshal(bytes, j)
}

// Utterance is one request's audio: 16-bit little-endian mono PCM.
// Grammar, when set, overrides the fast engine's configured phrase list.
type Utterance struct {
	Audio      []byte
	SampleRate int
	Grammar    []string
}

// Duration returns the audio length assuming 16-bit mono samples
func (u Utterance) Duration() time.Duration {
	if u.SampleRate <= 0 {
		return 0
	}
	samples := len(u.Audio) / 2
	return time.Duration(samples) * time.Second / time.Duration(u.SampleRate)
}

// Transcript is the text produced by one recognition tier
type Transcript struct {
	Text   string `json:"text"`
	Engine Engine `json:"engine"`
}

// Result is what the recognition caller receives
type Result struct {
	Text   string `json:"text"`
	Engine Engine `json:"engine"`
	Intent string `json:"intent"`
	Fields Fields `json:"fields"`
}

// Recognition is a journal entry for one handled utterance
type Recognition struct {
	ID         string    `json:"id" db:"id"`
	Text       string    `json:"text" db:"text"`
	Engine     Engine    `json:"engine" db:"engine"`
	Intent     string    `json:"intent" db:"intent"`
	Fields     JSONB     `json:"fields" db:"fields"`
	DurationMs int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// NewRecognition builds a journal entry from a pipeline result
func NewRecognition(res *Result, elapsed time.Duration) *Recognition {
	fields := make(JSONB, len(res.Fields))
	for k, v := range res.Fields {
		fields[k] = v
	}
	return &Recognition{
		ID:         uuid.New().String(),
		Text:       res.Text,
		Engine:     res.Engine,
		Intent:     res.Intent,
		Fields:     fields,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now(),
	}
}
