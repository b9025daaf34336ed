// Package pipeline wires recognition, canonicalization and delivery into one
// request flow.
package pipeline

import (
	"context"
	"sync"
	"time"

	"voxcmd/internal/metrics"
	"voxcmd/internal/recognizer"
	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	"go.uber.org/zap"
)

type Recognizer interface {
	Recognize(ctx context.Context, u model.Utterance) (*recognizer.Outcome, error)
}

type Enricher interface {
	Enrich(intent string, fields model.Fields) model.Fields
}

type Submitter interface {
	Submit(ctx context.Context, cmd model.Command)
}

// Journal records handled utterances
type Journal interface {
	SaveRecognition(ctx context.Context, r *model.Recognition) error
}

type Pipeline struct {
	recognizer Recognizer
	enricher   Enricher
	submitter  Submitter
	journal    Journal

	wg sync.WaitGroup
}

// New creates a pipeline; journal may be nil
func New(rec Recognizer, enricher Enricher, submitter Submitter, journal Journal) *Pipeline {
	return &Pipeline{
		recognizer: rec,
		enricher:   enricher,
		submitter:  submitter,
		journal:    journal,
	}
}

// Handle recognizes one utterance and returns the enriched result. Delivery
// and journaling run in the background and never affect the response.
func (p *Pipeline) Handle(ctx context.Context, u model.Utterance) (*model.Result, error) {
	started := time.Now()

	out, err := p.recognizer.Recognize(ctx, u)
	if err != nil {
		metrics.RecognitionErrorsTotal.Inc()
		logger.Error("Recognition failed",
			zap.Duration("audio", u.Duration()),
			zap.Error(err))
		return nil, err
	}

	fields := p.enricher.Enrich(out.Intent.Name, out.Intent.Fields)
	res := &model.Result{
		Text:   out.Transcript.Text,
		Engine: out.Transcript.Engine,
		Intent: out.Intent.Name,
		Fields: fields,
	}

	elapsed := time.Since(started)
	metrics.RecognitionsTotal.WithLabelValues(string(res.Engine), res.Intent).Inc()
	metrics.RecognitionLatency.WithLabelValues(string(res.Engine)).Observe(elapsed.Seconds())

	logger.Info("Utterance recognized",
		zap.String("text", res.Text),
		zap.String("engine", string(res.Engine)),
		zap.String("intent", res.Intent),
		zap.Duration("elapsed", elapsed))

	cmd := model.NewCommand(res.Intent, res.Fields)
	rec := model.NewRecognition(res, elapsed)
	bg := context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.submitter.Submit(bg, cmd)

		if p.journal != nil {
			if err := p.journal.SaveRecognition(bg, rec); err != nil {
				logger.Warn("Failed to journal recognition",
					zap.String("id", rec.ID),
					zap.Error(err))
			}
		}
	}()

	return res, nil
}

// Wait blocks until background deliveries started by Handle finish
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
