package utils_test

import (
	"testing"

	"github.com/airenas/stream-decoder/internal/utils"
)

func TestToSamples(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []int16
	}{
		{name: "empty", in: nil, want: []int16{}},
		{name: "one", in: []byte{0x01, 0x00}, want: []int16{1}},
		{name: "negative", in: []byte{0xff, 0xff, 0x00, 0x80}, want: []int16{-1, -32768}},
		{name: "odd byte dropped", in: []byte{0x02, 0x00, 0x05}, want: []int16{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := utils.ToSamples(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("ToSamples() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ToSamples()[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestToBytes(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768}
	got := utils.ToSamples(utils.ToBytes(in))
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], in[i])
		}
	}
}
