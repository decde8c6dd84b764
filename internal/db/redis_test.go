package db

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/secure"
)

func newTestRedisManager(t *testing.T) *RedisDataManager {
	t.Helper()
	c, err := secure.NewCrypter("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewCrypter() failed: %v", err)
	}
	return &RedisDataManager{crypter: c, ttl: time.Hour}
}

func sealRecording(t *testing.T, r *RedisDataManager, rec *domain.Recording) string {
	t.Helper()
	bs, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	enc, err := r.crypter.Encrypt(bs)
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}
	return string(enc)
}

func TestRedisDataManager_decodeRecordings(t *testing.T) {
	r := newTestRedisManager(t)
	now := time.Now()
	ids := []string{"a", "b", "c"}
	values := []any{
		sealRecording(t, r, &domain.Recording{ID: "a", CreatedAt: now, Text: "labas"}),
		nil,
		sealRecording(t, r, &domain.Recording{ID: "c", CreatedAt: now.Add(-time.Minute), Text: "rytas"}),
	}

	got, expired, err := r.decodeRecordings(ids, values)
	if err != nil {
		t.Fatalf("decodeRecordings() failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("decodeRecordings() = %v, want ids [a c]", got)
	}
	if got[0].Text != "labas" {
		t.Errorf("decodeRecordings()[0].Text = %q, want %q", got[0].Text, "labas")
	}
	if len(expired) != 1 || expired[0] != "b" {
		t.Errorf("decodeRecordings() expired = %v, want [b]", expired)
	}
}

func TestRedisDataManager_decodeRecordings_Fail(t *testing.T) {
	r := newTestRedisManager(t)
	if _, _, err := r.decodeRecordings([]string{"a"}, []any{"not encrypted"}); err == nil {
		t.Error("decodeRecordings() succeeded unexpectedly")
	}
}
