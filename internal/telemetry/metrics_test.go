package telemetry

import (
	"context"
	"fmt"
	"testing"

	"github.com/airenas/stream-decoder/internal/domain"
)

func Test_runResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "finished", err: nil, want: "finished"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "deadline", err: fmt.Errorf("wait: %w", context.DeadlineExceeded), want: "canceled"},
		{name: "fault", err: fmt.Errorf("%w: decode", domain.ErrEngineFault), want: "fault"},
		{name: "other", err: fmt.Errorf("olia"), want: "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runResult(tt.err); got != tt.want {
				t.Errorf("runResult() = %v, want %v", got, tt.want)
			}
		})
	}
}
