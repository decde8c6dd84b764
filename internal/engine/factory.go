package engine

import (
	"fmt"

	"github.com/airenas/stream-decoder/internal/decoder"
	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/model"
)

// Factory creates pipeline and engine bindings
type Factory struct {
	SpeechThreshold  float64
	SilenceThreshold float64
	Rules            EndpointRules
}

// New creates a fresh binding for the model config.
// Only the stub backend is built in, native backends are not compiled.
func (f *Factory) New(cfg model.Config) (decoder.FeaturePipeline, decoder.Engine, error) {
	if cfg.Backend != model.BackendStub {
		return nil, nil, fmt.Errorf("%w: backend '%s' is not compiled in", domain.ErrConfiguration, cfg.Backend)
	}
	p := NewPipeline()
	return p, NewStub(p, StubOptions{
		SampleRate:       cfg.SampleRate,
		ChunkSize:        cfg.ChunkSize,
		SpeechThreshold:  f.SpeechThreshold,
		SilenceThreshold: f.SilenceThreshold,
		Rules:            f.Rules,
	}), nil
}
