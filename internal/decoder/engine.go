package decoder

import (
	"context"

	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/model"
)

// FeaturePipeline buffers raw audio for the engine.
// It is fed by the ingest caller while the worker reads it, so it must be safe for concurrent use.
type FeaturePipeline interface {
	AcceptSamples(samples []int16)
	SignalEndOfInput()
}

// Engine is the recognition engine driven by the worker
type Engine interface {
	// DecodeStep blocks until a chunk of features is decoded or the input is drained
	DecodeStep(ctx context.Context) (domain.DecodeState, error)
	Rescore() error
	Reset()
	// ResetContinuousSegment resets segment local state only
	ResetContinuousSegment()
	HasHypothesis() bool
	BestHypothesis() domain.Hypothesis
}

// EngineFactory allocates a fresh pipeline and engine binding for a model config
type EngineFactory interface {
	New(cfg model.Config) (FeaturePipeline, Engine, error)
}

// PostProcessor transforms finalized sentence text
type PostProcessor interface {
	Process(context.Context, string) (string, error)
}

type resetter interface {
	Reset()
}
