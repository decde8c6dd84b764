package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/airenas/stream-decoder/internal/domain"
)

// Backend names
const (
	BackendONNX  = "onnx"
	BackendNNAPI = "nnapi"
	BackendTorch = "torch"
	BackendStub  = "stub"
)

const (
	// DefaultSampleRate of the feature pipeline
	DefaultSampleRate = 16000
	// DefaultFeatureDim - fbank dims
	DefaultFeatureDim = 80
	// DefaultChunkSize in decoder frames
	DefaultChunkSize = 16
	// DictFile is the units dictionary file name
	DictFile = "units.txt"
)

// Config describes the model resources and decode options
type Config struct {
	Dir             string
	Backend         string
	ChunkSize       int
	CTCWeight       float64
	RescoringWeight float64
	SampleRate      int
	FeatureDim      int
	Threads         int
}

// Default returns config for the backend with defaults applied
func Default(dir, backend string) Config {
	res := Config{Dir: dir, Backend: backend}
	res.ApplyDefaults()
	return res
}

// ApplyDefaults fills empty fields
func (c *Config) ApplyDefaults() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendONNX
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.FeatureDim == 0 {
		c.FeatureDim = DefaultFeatureDim
	}
	if c.Threads == 0 {
		c.Threads = 1
	}
	if c.CTCWeight == 0 && c.RescoringWeight == 0 {
		// onnx models run ctc prefix beam search only
		if c.Backend == BackendONNX || c.Backend == BackendNNAPI {
			c.CTCWeight = 1.0
		} else {
			c.CTCWeight = 0.5
			c.RescoringWeight = 1.0
		}
	}
}

// Files returns the resource files required by the backend
func (c *Config) Files() []string {
	switch c.Backend {
	case BackendTorch:
		return []string{DictFile, "final.zip"}
	case BackendONNX, BackendNNAPI:
		res := []string{DictFile, "encoder.onnx", "ctc.onnx"}
		if c.RescoringWeight > 0 {
			res = append(res, "decoder.onnx")
		}
		return res
	default:
		return nil
	}
}

// Validate checks options and the presence of model resources
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendONNX, BackendNNAPI, BackendTorch, BackendStub:
	default:
		return fmt.Errorf("%w: unknown backend '%s'", domain.ErrConfiguration, c.Backend)
	}
	if c.ChunkSize <= 0 && c.ChunkSize != -1 {
		return fmt.Errorf("%w: wrong chunk size %d", domain.ErrConfiguration, c.ChunkSize)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: wrong sample rate %d", domain.ErrConfiguration, c.SampleRate)
	}
	if c.CTCWeight < 0 || c.RescoringWeight < 0 {
		return fmt.Errorf("%w: negative weights", domain.ErrConfiguration)
	}
	files := c.Files()
	if len(files) == 0 {
		return nil
	}
	if c.Dir == "" {
		return fmt.Errorf("%w: no model dir", domain.ErrConfiguration)
	}
	for _, f := range files {
		p := filepath.Join(c.Dir, f)
		st, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("%w: no '%s': %v", domain.ErrConfiguration, p, err)
		}
		if st.IsDir() {
			return fmt.Errorf("%w: '%s' is a dir", domain.ErrConfiguration, p)
		}
	}
	return nil
}
