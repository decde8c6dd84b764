package decoder

import (
	"fmt"
	"sync"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/result"
	"github.com/airenas/stream-decoder/internal/telemetry"
	"github.com/oklog/ulid/v2"
)

// Session keeps the transcript and timing state of one recognition session.
// All state is guarded by mu, engine calls are done by the worker outside the lock.
type Session struct {
	ID         string
	sampleRate int
	pipeline   FeaturePipeline
	engine     Engine
	post       PostProcessor

	mu           sync.Mutex
	state        domain.DecodeState
	segments     []domain.Segment
	pieces       []domain.WordPiece
	partial      string
	totalSamples int
	segmentStart int
	running      bool
	finished     bool
	err          error
}

// NewSession starts a fresh session on the provided binding
func NewSession(sampleRate int, pipeline FeaturePipeline, engine Engine, post PostProcessor) (*Session, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("%w: no feature pipeline", domain.ErrConfiguration)
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: no engine", domain.ErrConfiguration)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: wrong sample rate %d", domain.ErrConfiguration, sampleRate)
	}
	res := &Session{ID: ulid.Make().String(), sampleRate: sampleRate, pipeline: pipeline, engine: engine,
		post: post, state: domain.Active}
	goapp.Log.Info().Str("session", res.ID).Int("sampleRate", sampleRate).Msg("Session started")
	return res, nil
}

// SampleRate of the session audio
func (s *Session) SampleRate() int {
	return s.sampleRate
}

// AcceptSamples passes audio to the feature pipeline. No decoding is done here.
func (s *Session) AcceptSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}
	s.mu.Lock()
	s.pipeline.AcceptSamples(samples)
	s.totalSamples += len(samples)
	s.mu.Unlock()
	telemetry.SamplesAccepted(len(samples))
	goapp.Log.Trace().Str("session", s.ID).Int("ms", len(samples)*1000/s.sampleRate).Msg("Accept waveform")
}

// SignalEndOfInput marks the end of audio. The session is finalized by the worker.
func (s *Session) SignalEndOfInput() {
	goapp.Log.Info().Str("session", s.ID).Msg("Input finished")
	s.pipeline.SignalEndOfInput()
}

// Reset clears the transcript and reinitializes the engine. Fails if a worker is active.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("%w: reset while decoding", domain.ErrContractViolation)
	}
	goapp.Log.Info().Str("session", s.ID).Msg("Reset")
	s.engine.Reset()
	if r, ok := s.pipeline.(resetter); ok {
		r.Reset()
	}
	s.state = domain.Active
	s.segments = nil
	s.pieces = nil
	s.partial = ""
	s.totalSamples = 0
	s.segmentStart = 0
	s.finished = false
	s.err = nil
	return nil
}

// Snapshot returns a consistent copy of the session state
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	// segments and pieces are append only, capped slices can't see later appends
	return domain.Snapshot{
		ID:           s.ID,
		Segments:     s.segments[:len(s.segments):len(s.segments)],
		WordPieces:   s.pieces[:len(s.pieces):len(s.pieces)],
		Partial:      s.partial,
		State:        s.state,
		TotalSamples: s.totalSamples,
		SegmentStart: s.segmentStart,
		Running:      s.running,
		Finished:     s.finished,
		Err:          s.err,
	}
}

// Finished returns true once EndOfFeatures is observed
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Err returns the fault of the last run
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) beginRun() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("%w: decode is already running", domain.ErrContractViolation)
	}
	if s.finished {
		return fmt.Errorf("%w: session is finished, reset it first", domain.ErrContractViolation)
	}
	s.running = true
	s.err = nil
	return nil
}

func (s *Session) endRun(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.partial = ""
	if err != nil && !isCancel(err) {
		s.err = err
	}
}

func (s *Session) publishPartial(state domain.DecodeState, sentence string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.partial = sentence
}

// finalize appends a segment spanning [segmentStart, totalSamples)
func (s *Session) finalize(state domain.DecodeState, sentence string, pieces []domain.WordPiece) domain.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	final := state == domain.EndOfFeatures
	seg := domain.Segment{
		Start:      s.segmentStart,
		End:        s.totalSamples,
		Sentence:   sentence,
		WordPieces: append([]domain.WordPiece(nil), pieces...),
		Final:      final,
	}
	seg.Text = result.SegmentText(sentence, seg.Start, seg.End, s.sampleRate, final)
	s.state = state
	s.segments = append(s.segments, seg)
	s.pieces = append(s.pieces, seg.WordPieces...)
	s.partial = ""
	if final {
		s.finished = true
	} else {
		s.segmentStart = s.totalSamples
	}
	return seg
}
