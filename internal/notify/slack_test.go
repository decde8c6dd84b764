package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/airenas/stream-decoder/internal/notify"
)

func TestSlack_Nil(t *testing.T) {
	s := notify.NewSlack("")
	if s != nil {
		t.Fatalf("expected nil notifier")
	}
	if err := s.RecordingSaved(context.Background(), "1", "olia"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSlack_RecordingSaved(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := notify.NewSlack(srv.URL)
	if err := s.RecordingSaved(context.Background(), "id1", "[00:00.0] olia"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "📝 [id1]\n[00:00.0] olia"; got["text"] != want {
		t.Errorf("text = %q, want %q", got["text"], want)
	}
}

func TestSlack_Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := notify.NewSlack(srv.URL)
	if err := s.RecordingSaved(context.Background(), "id1", "olia"); err == nil {
		t.Errorf("expected error")
	}
}
