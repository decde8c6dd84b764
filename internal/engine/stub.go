package engine

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/result"
)

// SpeechWord is the word piece the stub emits for voiced audio
const SpeechWord = result.WordBoundary + "speech"

// EndpointRules decide when an utterance ends
type EndpointRules struct {
	// Rule1 - trailing silence when nothing was said
	Rule1 time.Duration
	// Rule2 - trailing silence after speech
	Rule2 time.Duration
	// Rule3 - max utterance length
	Rule3 time.Duration
}

// DefaultEndpointRules returns the rules of a typical streaming recognizer
func DefaultEndpointRules() EndpointRules {
	return EndpointRules{Rule1: 5 * time.Second, Rule2: time.Second, Rule3: 20 * time.Second}
}

// StubOptions configures the stub engine
type StubOptions struct {
	SampleRate int
	// ChunkSize in decoder frames, one frame covers 4 feature frames of 10ms
	ChunkSize        int
	SpeechThreshold  float64
	SilenceThreshold float64
	Rules            EndpointRules
}

// Stub is an energy based engine: it does no recognition, it marks voiced audio
// with SpeechWord pieces and detects endpoints by trailing silence
type Stub struct {
	pipeline *Pipeline
	opts     StubOptions
	chunk    int

	inSpeech  bool
	pos       int
	segStart  int
	silence   int
	hasSpeech bool
	pieces    []domain.WordPiece
	drained   bool
}

// NewStub creates a stub engine reading from the pipeline
func NewStub(pipeline *Pipeline, opts StubOptions) *Stub {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 16
	}
	if opts.SpeechThreshold == 0 {
		opts.SpeechThreshold = 0.015
	}
	if opts.SilenceThreshold == 0 {
		opts.SilenceThreshold = 0.008
	}
	if opts.Rules == (EndpointRules{}) {
		opts.Rules = DefaultEndpointRules()
	}
	res := &Stub{pipeline: pipeline, opts: opts}
	res.chunk = opts.ChunkSize * 4 * opts.SampleRate / 100
	goapp.Log.Info().Int("chunkSamples", res.chunk).Float64("speech", opts.SpeechThreshold).
		Float64("silence", opts.SilenceThreshold).Msg("Stub engine")
	return res
}

// DecodeStep consumes one chunk of audio
func (s *Stub) DecodeStep(ctx context.Context) (domain.DecodeState, error) {
	if s.drained {
		return domain.EndOfFeatures, nil
	}
	samples, eof, err := s.pipeline.Read(ctx, s.chunk)
	if err != nil {
		return domain.Active, err
	}
	s.consume(samples)
	if eof {
		s.drained = true
		return domain.EndOfFeatures, nil
	}
	if s.endpoint() {
		return domain.Endpoint, nil
	}
	return domain.Active, nil
}

// Rescore does nothing, there are no alternative hypotheses
func (s *Stub) Rescore() error {
	return nil
}

// Reset clears all decoding state
func (s *Stub) Reset() {
	s.inSpeech, s.pos, s.drained = false, 0, false
	s.ResetContinuousSegment()
}

// ResetContinuousSegment starts a new segment at the current position
func (s *Stub) ResetContinuousSegment() {
	s.segStart = s.pos
	s.silence = 0
	s.hasSpeech = false
	s.pieces = nil
}

// HasHypothesis returns true if the segment has voiced audio
func (s *Stub) HasHypothesis() bool {
	return len(s.pieces) > 0
}

// BestHypothesis returns the voiced pieces of the segment
func (s *Stub) BestHypothesis() domain.Hypothesis {
	pieces := append([]domain.WordPiece(nil), s.pieces...)
	var sb strings.Builder
	for _, p := range pieces {
		sb.WriteString(strings.ReplaceAll(p.Word, result.WordBoundary, " "))
	}
	return domain.Hypothesis{Sentence: strings.TrimSpace(sb.String()), WordPieces: pieces}
}

func (s *Stub) consume(samples []int16) {
	if len(samples) == 0 {
		return
	}
	level := rms(samples)
	if s.inSpeech && level < s.opts.SilenceThreshold {
		s.inSpeech = false
	} else if !s.inSpeech && level >= s.opts.SpeechThreshold {
		s.inSpeech = true
	}
	end := s.pos + len(samples)
	if s.inSpeech {
		s.hasSpeech = true
		s.silence = 0
		if l := len(s.pieces); l > 0 && s.pieces[l-1].End == s.pos {
			s.pieces[l-1].End = end
		} else {
			s.pieces = append(s.pieces, domain.WordPiece{Word: SpeechWord, Start: s.pos, End: end})
		}
	} else {
		s.silence += len(samples)
	}
	s.pos = end
}

func (s *Stub) endpoint() bool {
	r := s.opts.Rules
	switch {
	case !s.hasSpeech:
		return s.silence >= s.samples(r.Rule1)
	case s.silence >= s.samples(r.Rule2):
		return true
	default:
		return s.pos-s.segStart >= s.samples(r.Rule3)
	}
}

func (s *Stub) samples(d time.Duration) int {
	return int(d.Seconds() * float64(s.opts.SampleRate))
}

func rms(pcm []int16) float64 {
	var sum float64
	for _, v := range pcm {
		f := float64(v) / 32768
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(pcm)))
}
