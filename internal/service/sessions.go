package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/decoder"
	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/model"
	"github.com/oklog/ulid/v2"
)

// RecordingStore keeps results of finished sessions
type RecordingStore interface {
	SaveRecording(ctx context.Context, rec *domain.Recording, samples []int16) error
	GetRecording(ctx context.Context, id string) (*domain.Recording, error)
	GetAudio(ctx context.Context, id string) ([]byte, error)
	ListRecordings(ctx context.Context) ([]*domain.Recording, error)
	Search(ctx context.Context, keyword string) ([]domain.SearchResult, error)
	DeleteRecording(ctx context.Context, id string) error
}

// Notifier is informed about saved recordings
type Notifier interface {
	RecordingSaved(ctx context.Context, id, text string) error
}

type session struct {
	id   string
	ctrl *decoder.Controller

	mu      sync.Mutex
	audio   []int16
	saved   bool
	recID   string
	touched time.Time
}

func (s *session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *session) addAudio(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append(s.audio, samples...)
}

// clearAudio starts a new recording, a reset session is saved under a new id
func (s *session) clearAudio() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = nil
	s.saved = false
	s.recID = ulid.Make().String()
}

// takeAudio returns audio and the recording id once, the buffer is released
func (s *session) takeAudio() ([]int16, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved {
		return nil, "", false
	}
	s.saved = true
	res := s.audio
	s.audio = nil
	return res, s.recID, true
}

// SessionManager keeps decode sessions by id
type SessionManager struct {
	factory  decoder.EngineFactory
	post     decoder.PostProcessor
	cfg      model.Config
	store    RecordingStore
	notifier Notifier

	// saveTimeout limits the wait of a finished session before it is saved
	saveTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionManager creates the manager. store, notifier and post may be nil.
func NewSessionManager(factory decoder.EngineFactory, post decoder.PostProcessor, cfg model.Config,
	store RecordingStore, notifier Notifier) (*SessionManager, error) {
	if factory == nil {
		return nil, fmt.Errorf("no engine factory")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	goapp.Log.Info().Str("backend", cfg.Backend).Bool("store", store != nil).Bool("notify", notifier != nil).
		Msg("Session manager")
	return &SessionManager{factory: factory, post: post, cfg: cfg, store: store, notifier: notifier,
		saveTimeout: time.Minute * 10, sessions: make(map[string]*session)}, nil
}

// Create initializes a new session and starts decoding
func (sm *SessionManager) Create() (string, error) {
	ctrl, err := decoder.NewController(sm.factory, sm.post)
	if err != nil {
		return "", err
	}
	if err := ctrl.Init(sm.cfg); err != nil {
		return "", err
	}
	if err := ctrl.StartDecode(); err != nil {
		return "", err
	}
	id := ctrl.Snapshot().ID
	s := &session{id: id, ctrl: ctrl, recID: id, touched: time.Now()}
	sm.mu.Lock()
	sm.sessions[s.id] = s
	sm.mu.Unlock()
	goapp.Log.Info().Str("id", s.id).Msg("Session created")
	return s.id, nil
}

// Controller returns the session controller
func (sm *SessionManager) Controller(id string) (*decoder.Controller, error) {
	s, err := sm.get(id)
	if err != nil {
		return nil, err
	}
	return s.ctrl, nil
}

// AddAudio feeds samples into the session
func (sm *SessionManager) AddAudio(id string, samples []int16) error {
	s, err := sm.get(id)
	if err != nil {
		return err
	}
	if s.ctrl.GetFinished() {
		return fmt.Errorf("%w: session '%s' finished", domain.ErrContractViolation, id)
	}
	s.addAudio(samples)
	return s.ctrl.AcceptWaveform(samples)
}

// Finish marks end of input, the recording is saved once the worker finishes
func (sm *SessionManager) Finish(id string) error {
	s, err := sm.get(id)
	if err != nil {
		return err
	}
	if err := s.ctrl.SetInputFinished(); err != nil {
		return err
	}
	go sm.saveWhenFinished(s)
	return nil
}

// Reset cancels decoding, clears the session and starts a new run
func (sm *SessionManager) Reset(ctx context.Context, id string) error {
	s, err := sm.get(id)
	if err != nil {
		return err
	}
	if err := s.ctrl.Reset(ctx); err != nil {
		return err
	}
	s.clearAudio()
	return s.ctrl.StartDecode()
}

// Delete stops the worker and forgets the session
func (sm *SessionManager) Delete(ctx context.Context, id string) error {
	sm.mu.Lock()
	s, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if !ok {
		return fmt.Errorf("session '%s': %w", id, domain.ErrNotFound)
	}
	goapp.Log.Info().Str("id", id).Msg("Session deleted")
	return s.ctrl.Stop(ctx)
}

// Close stops all sessions
func (sm *SessionManager) Close(ctx context.Context) {
	sm.mu.RLock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	sm.mu.RUnlock()
	for _, id := range ids {
		if err := sm.Delete(ctx, id); err != nil {
			goapp.Log.Warn().Err(err).Str("id", id).Msg("stop session")
		}
	}
}

// Len returns the number of live sessions
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// StartReaper deletes sessions not used for longer than idle, until ctx is done
func (sm *SessionManager) StartReaper(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		goapp.Log.Warn().Msg("Idle sessions are not reaped")
		return
	}
	goapp.Log.Info().Dur("idle", idle).Msg("Session reaper")
	every := max(idle/4, 10*time.Millisecond)
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sm.reapIdle(time.Now().Add(-idle))
			}
		}
	}()
}

func (sm *SessionManager) reapIdle(before time.Time) {
	sm.mu.RLock()
	var ids []string
	for id, s := range sm.sessions {
		if s.idleSince().Before(before) {
			ids = append(ids, id)
		}
	}
	sm.mu.RUnlock()
	for _, id := range ids {
		goapp.Log.Info().Str("id", id).Msg("Drop idle session")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := sm.Delete(ctx, id); err != nil {
			goapp.Log.Warn().Err(err).Str("id", id).Msg("drop idle session")
		}
		cancel()
	}
}

func (sm *SessionManager) get(id string) (*session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	res, ok := sm.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session '%s': %w", id, domain.ErrNotFound)
	}
	res.touch()
	return res, nil
}

func (sm *SessionManager) saveWhenFinished(s *session) {
	ctx, cancel := context.WithTimeout(context.Background(), sm.saveTimeout)
	defer cancel()
	if err := s.ctrl.Wait(ctx); err != nil {
		goapp.Log.Error().Err(err).Str("id", s.id).Msg("decode failed")
		return
	}
	if !s.ctrl.GetFinished() {
		return
	}
	if err := sm.save(ctx, s); err != nil {
		goapp.Log.Error().Err(err).Str("id", s.id).Msg("can't save recording")
	}
}

func (sm *SessionManager) save(ctx context.Context, s *session) error {
	if sm.store == nil {
		return nil
	}
	audio, recID, ok := s.takeAudio()
	if !ok {
		return nil
	}
	rec := newRecording(recID, s.ctrl)
	if err := sm.store.SaveRecording(ctx, rec, audio); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if sm.notifier != nil {
		text := s.ctrl.TimestampedText()
		if text == "" {
			text = rec.Text
		}
		if err := sm.notifier.RecordingSaved(ctx, rec.ID, text); err != nil {
			goapp.Log.Warn().Err(err).Str("id", rec.ID).Msg("can't notify")
		}
	}
	return nil
}

func newRecording(id string, ctrl *decoder.Controller) *domain.Recording {
	snap := ctrl.Snapshot()
	sentences := make([]string, 0, len(snap.Segments))
	for _, seg := range snap.Segments {
		if seg.Sentence != "" {
			sentences = append(sentences, seg.Sentence)
		}
	}
	return &domain.Recording{
		ID:         id,
		CreatedAt:  time.Now(),
		Text:       strings.Join(sentences, " "),
		Transcript: ctrl.GetResult(),
		Timed:      ctrl.GetTimedResult(),
		Samples:    snap.TotalSamples,
		SampleRate: ctrl.SampleRate(),
	}
}
