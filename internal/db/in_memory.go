package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/domain"
)

// MemoryDataManager keeps recordings in memory
type MemoryDataManager struct {
	recordings map[string]*domain.Recording
	audio      map[string][]byte

	lock sync.RWMutex
}

// NewMemoryDataManager creates an empty store
func NewMemoryDataManager() *MemoryDataManager {
	return &MemoryDataManager{
		recordings: make(map[string]*domain.Recording),
		audio:      make(map[string][]byte),
	}
}

// SaveRecording stores the result and the audio as wav
func (am *MemoryDataManager) SaveRecording(ctx context.Context, rec *domain.Recording, samples []int16) error {
	goapp.Log.Info().Str("id", rec.ID).Int("samples", len(samples)).Msg("Save recording")
	data, err := ToWav(samples, rec.SampleRate)
	if err != nil {
		return fmt.Errorf("to wav: %w", err)
	}
	cp := *rec
	am.lock.Lock()
	defer am.lock.Unlock()
	am.recordings[rec.ID] = &cp
	am.audio[rec.ID] = data
	return nil
}

// GetRecording returns a copy of the recording
func (am *MemoryDataManager) GetRecording(ctx context.Context, id string) (*domain.Recording, error) {
	am.lock.RLock()
	defer am.lock.RUnlock()
	rec, ok := am.recordings[id]
	if !ok {
		return nil, fmt.Errorf("recording '%s': %w", id, domain.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

// GetAudio returns the wav bytes
func (am *MemoryDataManager) GetAudio(ctx context.Context, id string) ([]byte, error) {
	am.lock.RLock()
	defer am.lock.RUnlock()
	data, ok := am.audio[id]
	if !ok {
		return nil, fmt.Errorf("audio '%s': %w", id, domain.ErrNotFound)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// ListRecordings returns recordings newest first
func (am *MemoryDataManager) ListRecordings(ctx context.Context) ([]*domain.Recording, error) {
	am.lock.RLock()
	res := make([]*domain.Recording, 0, len(am.recordings))
	for _, r := range am.recordings {
		cp := *r
		res = append(res, &cp)
	}
	am.lock.RUnlock()
	sortNewestFirst(res)
	return res, nil
}

// Search finds recordings by keyword
func (am *MemoryDataManager) Search(ctx context.Context, keyword string) ([]domain.SearchResult, error) {
	recs, err := am.ListRecordings(ctx)
	if err != nil {
		return nil, err
	}
	return search(recs, keyword), nil
}

// DeleteRecording removes the recording and its audio
func (am *MemoryDataManager) DeleteRecording(ctx context.Context, id string) error {
	am.lock.Lock()
	defer am.lock.Unlock()
	if _, ok := am.recordings[id]; !ok {
		return fmt.Errorf("recording '%s': %w", id, domain.ErrNotFound)
	}
	delete(am.recordings, id)
	delete(am.audio, id)
	return nil
}
