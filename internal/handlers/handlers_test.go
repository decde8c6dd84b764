package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/airenas/stream-decoder/internal/handlers"
)

func TestCleaner_Process(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "boundary", in: "▁labas▁rytas", want: "labas rytas"},
		{name: "underscore", in: "labas_rytas", want: "labas rytas"},
		{name: "spaces", in: "  labas   rytas ", want: "labas rytas"},
	}
	c := handlers.NewCleaner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Process(context.Background(), tt.in)
			if err != nil {
				t.Fatalf("Process() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Process() = %q, want %q", got, tt.want)
			}
		})
	}
}

type fnHandler func(string) (string, error)

func (f fnHandler) Process(_ context.Context, s string) (string, error) {
	return f(s)
}

func TestListHandler_Process(t *testing.T) {
	l := handlers.NewListHandler()
	l.Add(fnHandler(func(s string) (string, error) { return s + "1", nil }))
	l.Add(fnHandler(func(s string) (string, error) { return "", fmt.Errorf("olia") }))
	l.Add(fnHandler(func(s string) (string, error) { return s + "3", nil }))
	got, err := l.Process(context.Background(), "a")
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}
	if got != "a13" {
		t.Errorf("Process() = %q, want %q", got, "a13")
	}
	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}
}

func TestNew_NoURL(t *testing.T) {
	if _, err := handlers.NewJoiner(""); err == nil {
		t.Errorf("NewJoiner() expected error")
	}
	if _, err := handlers.NewPunctuator(""); err == nil {
		t.Errorf("NewPunctuator() expected error")
	}
}

func newServer(t *testing.T, code int, resp any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode: %v", err)
		}
		if in["text"] == "" {
			t.Errorf("no text in request")
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestJoiner_Process(t *testing.T) {
	srv := newServer(t, http.StatusOK, map[string]string{"result": "10 kartų"})
	j, err := handlers.NewJoiner(srv.URL)
	if err != nil {
		t.Fatalf("NewJoiner() failed: %v", err)
	}
	got, err := j.Process(context.Background(), "dešimt kartų")
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}
	if got != "10 kartų" {
		t.Errorf("Process() = %q", got)
	}
	if got, _ := j.Process(context.Background(), ""); got != "" {
		t.Errorf("Process(empty) = %q", got)
	}
}

func TestPunctuator_Process(t *testing.T) {
	srv := newServer(t, http.StatusOK, map[string]any{"punctuatedText": "Labas."})
	p, err := handlers.NewPunctuator(srv.URL)
	if err != nil {
		t.Fatalf("NewPunctuator() failed: %v", err)
	}
	got, err := p.Process(context.Background(), "labas")
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}
	if got != "Labas." {
		t.Errorf("Process() = %q", got)
	}
}

func TestPunctuator_Fails(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, map[string]any{})
	p, err := handlers.NewPunctuator(srv.URL)
	if err != nil {
		t.Fatalf("NewPunctuator() failed: %v", err)
	}
	if _, err := p.Process(context.Background(), "labas"); err == nil {
		t.Errorf("Process() expected error")
	}
	l := handlers.NewListHandler()
	l.Add(p)
	got, err := l.Process(context.Background(), "labas")
	if err != nil || got != "labas" {
		t.Errorf("list Process() = %q, %v", got, err)
	}
}
