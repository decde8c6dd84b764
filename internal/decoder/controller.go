package decoder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/model"
	"github.com/airenas/stream-decoder/internal/result"
)

// Controller is the session control surface: init, reset, feed audio, start decoding and poll results
type Controller struct {
	factory EngineFactory
	post    PostProcessor

	mu      sync.Mutex
	cfg     *model.Config
	session *Session
	run     *Run
}

// NewController creates a controller. post may be nil.
func NewController(factory EngineFactory, post PostProcessor) (*Controller, error) {
	if factory == nil {
		return nil, fmt.Errorf("no engine factory")
	}
	return &Controller{factory: factory, post: post}, nil
}

// Init validates model resources and creates a session.
// Calling it again with the same config keeps the current session.
func (c *Controller) Init(cfg model.Config) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg != nil && *c.cfg == cfg {
		return nil
	}
	if c.session != nil && c.session.Snapshot().Running {
		return fmt.Errorf("%w: init while decoding", domain.ErrContractViolation)
	}
	goapp.Log.Info().Str("dir", cfg.Dir).Str("backend", cfg.Backend).Int("chunk", cfg.ChunkSize).
		Float64("ctcWeight", cfg.CTCWeight).Float64("rescoringWeight", cfg.RescoringWeight).Msg("Init")
	pipeline, engine, err := c.factory.New(cfg)
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			return fmt.Errorf("create engine: %w", err)
		}
		return fmt.Errorf("%w: create engine: %w", domain.ErrConfiguration, err)
	}
	s, err := NewSession(cfg.SampleRate, pipeline, engine, c.post)
	if err != nil {
		return err
	}
	c.cfg, c.session, c.run = &cfg, s, nil
	return nil
}

// Reset stops the active worker, waits for it and clears the session
func (c *Controller) Reset(ctx context.Context) error {
	s, r, err := c.detachRun()
	if err != nil {
		return err
	}
	if r != nil {
		r.Cancel()
		select {
		case <-r.Done():
		case <-ctx.Done():
			c.reattach(s, r)
			return fmt.Errorf("%w: worker did not stop: %w", domain.ErrContractViolation, ctx.Err())
		}
	}
	return s.Reset()
}

// Stop cancels the active worker and waits for it
func (c *Controller) Stop(ctx context.Context) error {
	s, r, err := c.detachRun()
	if err != nil || r == nil {
		return err
	}
	r.Cancel()
	select {
	case <-r.Done():
		return nil
	case <-ctx.Done():
		c.reattach(s, r)
		return ctx.Err()
	}
}

// AcceptWaveform appends audio
func (c *Controller) AcceptWaveform(samples []int16) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	s.AcceptSamples(samples)
	return nil
}

// SetInputFinished marks the end of the stream
func (c *Controller) SetInputFinished() error {
	s, err := c.current()
	if err != nil {
		return err
	}
	s.SignalEndOfInput()
	return nil
}

// StartDecode spawns the background worker and returns immediately
func (c *Controller) StartDecode() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return errNotInitialized()
	}
	r, err := Start(context.Background(), c.session)
	if err != nil {
		return err
	}
	c.run = r
	return nil
}

// Wait joins the active run, returns its error
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	r := c.run
	c.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.Wait(ctx)
}

// GetFinished returns true iff EndOfFeatures was observed
func (c *Controller) GetFinished() bool {
	s, err := c.current()
	if err != nil {
		return false
	}
	return s.Finished()
}

// GetResult returns finalized text with the current partial hypothesis
func (c *Controller) GetResult() string {
	return result.RenderText(c.Snapshot())
}

// GetTimedResult returns the JSON array of finalized word pieces
func (c *Controller) GetTimedResult() string {
	return result.RenderTimedJSON(c.Snapshot().WordPieces)
}

// GetTimedResultSince returns word pieces appended after offset and the next offset
func (c *Controller) GetTimedResultSince(offset int) (string, int) {
	return result.TimedSince(c.Snapshot().WordPieces, offset)
}

// TimestampedText returns finalized words split into sentences with start times
func (c *Controller) TimestampedText() string {
	s, err := c.current()
	if err != nil {
		return ""
	}
	return result.TimestampedText(s.Snapshot().WordPieces, s.SampleRate())
}

// Snapshot returns the session state
func (c *Controller) Snapshot() domain.Snapshot {
	s, err := c.current()
	if err != nil {
		return domain.Snapshot{}
	}
	return s.Snapshot()
}

// Err returns the fault of the last run
func (c *Controller) Err() error {
	s, err := c.current()
	if err != nil {
		return nil
	}
	return s.Err()
}

// SampleRate of the initialized session, 0 before Init
func (c *Controller) SampleRate() int {
	s, err := c.current()
	if err != nil {
		return 0
	}
	return s.SampleRate()
}

func (c *Controller) current() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, errNotInitialized()
	}
	return c.session, nil
}

func (c *Controller) detachRun() (*Session, *Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, nil, errNotInitialized()
	}
	r := c.run
	c.run = nil
	return c.session, r, nil
}

// reattach keeps the handle of a run that did not stop in time, so it can be joined later
func (c *Controller) reattach(s *Session, r *Run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == s && c.run == nil {
		c.run = r
	}
}

func errNotInitialized() error {
	return fmt.Errorf("%w: not initialized", domain.ErrContractViolation)
}
