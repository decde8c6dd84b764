package db_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/airenas/stream-decoder/internal/db"
	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/go-audio/wav"
)

func TestToWav(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768}
	data, err := db.ToWav(samples, 16000)
	if err != nil {
		t.Fatalf("ToWav() failed: %v", err)
	}
	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.SampleRate != 16000 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("format = %d/%d/%d", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("len = %d, want %d", len(buf.Data), len(samples))
	}
	for i, s := range samples {
		if buf.Data[i] != int(s) {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], s)
		}
	}
}

func TestMemoryDataManager(t *testing.T) {
	ctx := context.Background()
	m := db.NewMemoryDataManager()
	now := time.Now()
	recs := []*domain.Recording{
		{ID: "1", CreatedAt: now.Add(-time.Minute), Text: "labas rytas", SampleRate: 16000},
		{ID: "2", CreatedAt: now, Text: "kaip sekasi", SampleRate: 16000},
	}
	for _, r := range recs {
		if err := m.SaveRecording(ctx, r, []int16{1, 2, 3}); err != nil {
			t.Fatalf("SaveRecording() failed: %v", err)
		}
	}

	list, err := m.ListRecordings(ctx)
	if err != nil {
		t.Fatalf("ListRecordings() failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "2" {
		t.Errorf("ListRecordings() = %v", list)
	}

	got, err := m.GetRecording(ctx, "1")
	if err != nil {
		t.Fatalf("GetRecording() failed: %v", err)
	}
	if got.Text != "labas rytas" {
		t.Errorf("Text = %q", got.Text)
	}
	got.Text = "changed"
	if again, _ := m.GetRecording(ctx, "1"); again.Text != "labas rytas" {
		t.Errorf("stored recording changed")
	}

	audio, err := m.GetAudio(ctx, "1")
	if err != nil || len(audio) < 44 || string(audio[:4]) != "RIFF" {
		t.Errorf("GetAudio() = %d bytes, %v", len(audio), err)
	}

	found, err := m.Search(ctx, "SEKA")
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != "2" || found[0].Preview != "kaip sekasi" {
		t.Errorf("Search() = %v", found)
	}

	if err := m.DeleteRecording(ctx, "1"); err != nil {
		t.Fatalf("DeleteRecording() failed: %v", err)
	}
	if _, err := m.GetRecording(ctx, "1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetRecording() = %v, want ErrNotFound", err)
	}
	if _, err := m.GetAudio(ctx, "1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetAudio() = %v, want ErrNotFound", err)
	}
	if err := m.DeleteRecording(ctx, "1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteRecording() = %v, want ErrNotFound", err)
	}
}
