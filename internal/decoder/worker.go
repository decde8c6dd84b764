package decoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/telemetry"
)

// Worker drives the engine and finalizes segments of a session
type Worker struct {
	s *Session
}

// NewWorker creates a worker for the session
func NewWorker(s *Session) *Worker {
	return &Worker{s: s}
}

// Run loops decode steps until EndOfFeatures, a fault or cancellation.
// Returns nil when the session is finished.
func (w *Worker) Run(ctx context.Context) error {
	goapp.Log.Info().Str("session", w.s.ID).Msg("Decode started")
	for {
		if err := ctx.Err(); err != nil {
			goapp.Log.Info().Str("session", w.s.ID).Msg("Decode canceled")
			return err
		}
		st, err := w.Step(ctx)
		if err != nil {
			if isCancel(err) {
				goapp.Log.Info().Str("session", w.s.ID).Msg("Decode canceled")
			} else {
				goapp.Log.Error().Err(err).Str("session", w.s.ID).Msg("Decode failed")
			}
			return err
		}
		if st == domain.EndOfFeatures {
			goapp.Log.Info().Str("session", w.s.ID).Msg("Decode finished")
			return nil
		}
	}
}

// Step runs one decode iteration and updates the session
func (w *Worker) Step(ctx context.Context) (domain.DecodeState, error) {
	eng := w.s.engine
	st, err := eng.DecodeStep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return st, ctx.Err()
		}
		return st, fmt.Errorf("%w: decode: %w", domain.ErrEngineFault, err)
	}
	switch st {
	case domain.Active:
		var sentence string
		if eng.HasHypothesis() {
			sentence = eng.BestHypothesis().Sentence
		}
		w.s.publishPartial(st, sentence)
		if sentence != "" {
			goapp.Log.Debug().Str("session", w.s.ID).Str("txt", sentence).Msg("Partial result")
		}
	case domain.Endpoint, domain.EndOfFeatures:
		if err := eng.Rescore(); err != nil {
			return st, fmt.Errorf("%w: rescore: %w", domain.ErrEngineFault, err)
		}
		var hyp domain.Hypothesis
		if eng.HasHypothesis() {
			hyp = eng.BestHypothesis()
		}
		seg := w.s.finalize(st, w.postProcess(ctx, hyp.Sentence), hyp.WordPieces)
		telemetry.SegmentFinalized(seg.Final, len(seg.WordPieces))
		goapp.Log.Info().Str("session", w.s.ID).Str("state", st.String()).Int("from", seg.Start).Int("to", seg.End).
			Str("txt", seg.Sentence).Msg("Final result")
		if st == domain.Endpoint {
			eng.ResetContinuousSegment()
		}
	default:
		return st, fmt.Errorf("%w: unknown decode state %s", domain.ErrEngineFault, st.String())
	}
	return st, nil
}

func (w *Worker) postProcess(ctx context.Context, text string) string {
	if w.s.post == nil || text == "" {
		return text
	}
	res, err := w.s.post.Process(ctx, text)
	if err != nil {
		goapp.Log.Error().Err(err).Str("session", w.s.ID).Msg("Can't post process")
		return text
	}
	return res
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
