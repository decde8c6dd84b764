package decoder_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/airenas/stream-decoder/internal/decoder"
	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/model"
)

type step struct {
	st  domain.DecodeState
	hyp domain.Hypothesis
	err error
}

type mockPipeline struct {
	mu       sync.Mutex
	samples  int
	finished bool
}

func (p *mockPipeline) AcceptSamples(s []int16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples += len(s)
}

func (p *mockPipeline) SignalEndOfInput() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = true
}

// mockEngine plays scripted steps, with block set it waits for ctx cancel
type mockEngine struct {
	mu        sync.Mutex
	steps     []step
	i         int
	cur       domain.Hypothesis
	block     bool
	resets    int
	segResets int
}

func (e *mockEngine) DecodeStep(ctx context.Context) (domain.DecodeState, error) {
	e.mu.Lock()
	block := e.block
	e.mu.Unlock()
	if block {
		<-ctx.Done()
		return domain.Active, ctx.Err()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.i >= len(e.steps) {
		e.cur = domain.Hypothesis{}
		return domain.EndOfFeatures, nil
	}
	s := e.steps[e.i]
	e.i++
	e.cur = s.hyp
	return s.st, s.err
}

func (e *mockEngine) Rescore() error { return nil }

func (e *mockEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resets++
	e.i = 0
	e.cur = domain.Hypothesis{}
}

func (e *mockEngine) ResetContinuousSegment() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.segResets++
}

func (e *mockEngine) HasHypothesis() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur.Sentence != "" || len(e.cur.WordPieces) > 0
}

func (e *mockEngine) BestHypothesis() domain.Hypothesis {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur
}

func (e *mockEngine) setBlock(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.block = v
}

type mockFactory struct {
	engine *mockEngine
	err    error
	calls  int
}

func (f *mockFactory) New(cfg model.Config) (decoder.FeaturePipeline, decoder.Engine, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return &mockPipeline{}, f.engine, nil
}

type upperPost struct{}

func (upperPost) Process(_ context.Context, s string) (string, error) {
	return strings.ToUpper(s), nil
}

type failPost struct{}

func (failPost) Process(_ context.Context, s string) (string, error) {
	return "", fmt.Errorf("olia")
}

func hyp(sentence string, pieces ...domain.WordPiece) domain.Hypothesis {
	return domain.Hypothesis{Sentence: sentence, WordPieces: pieces}
}

func scripted() []step {
	return []step{
		{st: domain.Active, hyp: hyp("lab")},
		{st: domain.Endpoint, hyp: hyp("labas", domain.WordPiece{Word: "▁labas", Start: 0, End: 12000})},
		{st: domain.Active, hyp: hyp("")},
		{st: domain.Endpoint, hyp: hyp("kaip", domain.WordPiece{Word: "▁kaip", Start: 18000, End: 30000})},
		{st: domain.EndOfFeatures, hyp: hyp("sekasi", domain.WordPiece{Word: "▁sekasi", Start: 33000, End: 39000})},
	}
}
