package model_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/model"
)

func TestDefault(t *testing.T) {
	tests := []struct {
		backend       string
		wantCTC       float64
		wantRescoring float64
	}{
		{backend: model.BackendONNX, wantCTC: 1.0, wantRescoring: 0},
		{backend: model.BackendNNAPI, wantCTC: 1.0, wantRescoring: 0},
		{backend: model.BackendTorch, wantCTC: 0.5, wantRescoring: 1.0},
		{backend: "", wantCTC: 1.0, wantRescoring: 0},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			got := model.Default("dir", tt.backend)
			if got.CTCWeight != tt.wantCTC || got.RescoringWeight != tt.wantRescoring {
				t.Errorf("weights = %v/%v, want %v/%v", got.CTCWeight, got.RescoringWeight, tt.wantCTC, tt.wantRescoring)
			}
			if got.ChunkSize != 16 || got.SampleRate != 16000 || got.FeatureDim != 80 {
				t.Errorf("wrong defaults %+v", got)
			}
		})
	}
}

func touch(t *testing.T, dir string, files ...string) {
	t.Helper()
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	onnx := t.TempDir()
	touch(t, onnx, "units.txt", "encoder.onnx", "ctc.onnx")
	onnxFull := t.TempDir()
	touch(t, onnxFull, "units.txt", "encoder.onnx", "ctc.onnx", "decoder.onnx")
	torch := t.TempDir()
	touch(t, torch, "units.txt", "final.zip")
	withDir := t.TempDir()
	touch(t, withDir, "encoder.onnx", "ctc.onnx")
	if err := os.Mkdir(filepath.Join(withDir, "units.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     model.Config
		wantErr bool
	}{
		{name: "onnx", cfg: model.Default(onnx, model.BackendONNX)},
		{name: "onnx rescoring no decoder", cfg: model.Config{Dir: onnx, Backend: model.BackendONNX, RescoringWeight: 1}, wantErr: true},
		{name: "onnx rescoring", cfg: model.Config{Dir: onnxFull, Backend: model.BackendONNX, RescoringWeight: 1}},
		{name: "torch", cfg: model.Default(torch, model.BackendTorch)},
		{name: "torch in onnx dir", cfg: model.Default(onnx, model.BackendTorch), wantErr: true},
		{name: "stub", cfg: model.Default("", model.BackendStub)},
		{name: "no dir", cfg: model.Default("", model.BackendONNX), wantErr: true},
		{name: "dict is dir", cfg: model.Default(withDir, model.BackendONNX), wantErr: true},
		{name: "unknown", cfg: model.Default(onnx, "olia"), wantErr: true},
		{name: "full chunk", cfg: model.Config{Dir: onnx, Backend: model.BackendONNX, ChunkSize: -1}},
		{name: "bad chunk", cfg: model.Config{Dir: onnx, Backend: model.BackendONNX, ChunkSize: -2}, wantErr: true},
		{name: "negative weight", cfg: model.Config{Dir: onnx, Backend: model.BackendONNX, CTCWeight: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrConfiguration) {
					t.Errorf("Validate() = %v, want ErrConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() failed: %v", err)
			}
		})
	}
}
