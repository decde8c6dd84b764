package engine

import (
	"context"
	"sync"
)

// Pipeline buffers audio samples between the ingest caller and the engine
type Pipeline struct {
	mu       sync.Mutex
	buf      []int16
	finished bool
	changed  chan struct{}
}

// NewPipeline creates an empty pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{changed: make(chan struct{})}
}

// AcceptSamples appends audio
func (p *Pipeline) AcceptSamples(samples []int16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf = append(p.buf, samples...)
	p.notify()
}

// SignalEndOfInput marks that no more audio will come
func (p *Pipeline) SignalEndOfInput() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = true
	p.notify()
}

// Reset drops buffered audio and the end of input flag
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf = nil
	p.finished = false
	p.notify()
}

// Read blocks until n samples are buffered or the input is finished.
// Less than n samples are returned only at the end of input, eof is true when the buffer is drained.
func (p *Pipeline) Read(ctx context.Context, n int) (samples []int16, eof bool, err error) {
	for {
		p.mu.Lock()
		if len(p.buf) >= n || p.finished {
			k := min(n, len(p.buf))
			samples = make([]int16, k)
			copy(samples, p.buf[:k])
			p.buf = p.buf[k:]
			eof = p.finished && len(p.buf) == 0
			p.mu.Unlock()
			return samples, eof, nil
		}
		ch := p.changed
		p.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// must be called with mu held
func (p *Pipeline) notify() {
	close(p.changed)
	p.changed = make(chan struct{})
}
