package telemetry

import (
	"context"
	"errors"

	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "decoder"

var (
	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "runs_total", Help: "Finished decode runs by result",
	}, []string{"result"})
	activeRuns = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "active_runs", Help: "Currently running decode workers",
	})
	segmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "segments_total", Help: "Finalized transcript segments",
	}, []string{"kind"})
	wordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "word_pieces_total", Help: "Finalized word pieces",
	})
	samplesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "samples_total", Help: "Accepted audio samples",
	})
)

func init() {
	prometheus.MustRegister(runsTotal, activeRuns, segmentsTotal, wordsTotal, samplesTotal)
}

// RunStarted marks a new worker
func RunStarted() {
	activeRuns.Inc()
}

// RunEnded records the worker result
func RunEnded(err error) {
	activeRuns.Dec()
	runsTotal.WithLabelValues(runResult(err)).Inc()
}

// SegmentFinalized counts a new segment and its words
func SegmentFinalized(final bool, words int) {
	kind := "endpoint"
	if final {
		kind = "final"
	}
	segmentsTotal.WithLabelValues(kind).Inc()
	wordsTotal.Add(float64(words))
}

// SamplesAccepted counts ingested audio
func SamplesAccepted(n int) {
	samplesTotal.Add(float64(n))
}

func runResult(err error) string {
	switch {
	case err == nil:
		return "finished"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, domain.ErrEngineFault):
		return "fault"
	default:
		return "error"
	}
}
