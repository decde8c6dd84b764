package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/airenas/stream-decoder/internal/db"
)

func TestNewCommand_Defaults(t *testing.T) {
	opts := &options{}
	cmd := newCommand(opts)
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("ParseFlags() failed: %v", err)
	}
	if !opts.realTime {
		t.Errorf("real-time must be on by default")
	}
	if opts.feed != 100*time.Millisecond || opts.backend != "stub" {
		t.Errorf("wrong defaults %+v", opts)
	}
}

func speechWav(t *testing.T) string {
	t.Helper()
	samples := make([]int16, 51200)
	for i := range samples {
		// 20480 speech, 20480 silence, 10240 speech
		if i < 20480 || i >= 40960 {
			if i%2 == 0 {
				samples[i] = 8000
			} else {
				samples[i] = -8000
			}
		}
	}
	data, err := db.ToWav(samples, 16000)
	if err != nil {
		t.Fatalf("ToWav() failed: %v", err)
	}
	res := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(res, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return res
}

func TestReadWav(t *testing.T) {
	samples, rate, err := readWav(speechWav(t))
	if err != nil {
		t.Fatalf("readWav() failed: %v", err)
	}
	if rate != 16000 || len(samples) != 51200 || samples[0] != 8000 || samples[1] != -8000 {
		t.Errorf("readWav() = %d samples, rate %d", len(samples), rate)
	}
	if _, _, err := readWav(filepath.Join(t.TempDir(), "none.wav")); err == nil {
		t.Errorf("expected error")
	}
}

func TestRun_RealTimeTags(t *testing.T) {
	file := speechWav(t)
	opts := &options{backend: "stub", chunkSize: 16, feed: 20 * time.Millisecond, poll: 10 * time.Millisecond,
		realTime: true}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	buf := &bytes.Buffer{}
	if err := run(ctx, opts, file, buf); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	out := buf.String()
	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		t.Fatalf("output = %q", out)
	}
	first := lines[0]
	if !strings.HasPrefix(first, "speech [00:00.0-00:02.") {
		t.Errorf("first segment = %q, want it to end near the endpoint", first)
	}
	if second := lines[1]; second == "speech [00:03.2-00:03.2]" || !strings.HasSuffix(second, "-00:03.2]") {
		t.Errorf("second segment = %q", second)
	}
}
