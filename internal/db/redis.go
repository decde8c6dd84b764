package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/secure"
	"github.com/redis/go-redis/v9"
)

const keyIndex = "recordings"

// RedisDataManager stores encrypted recordings and audio in Redis.
type RedisDataManager struct {
	client  *redis.Client
	ttl     time.Duration
	crypter *secure.Crypter
}

// NewRedisDataManager creates a new RedisDataManager with connection pooling.
func NewRedisDataManager(connStr string, encryptionKey string, ttl time.Duration) (*RedisDataManager, error) {
	opt, err := redis.ParseURL(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	goapp.Log.Info().Str("redis", opt.Addr).Int("db", opt.DB).Dur("ttl", ttl).Send()

	crypter, err := secure.NewCrypter(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("create crypter: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour * 6
	}
	return &RedisDataManager{
		client:  redis.NewClient(opt),
		ttl:     ttl,
		crypter: crypter,
	}, nil
}

func keyAudio(id string) string {
	return fmt.Sprintf("audio:%s", id)
}

func keyRecording(id string) string {
	return fmt.Sprintf("recording:%s", id)
}

// SaveRecording stores encrypted result and wav audio, and adds the id into the time index
func (r *RedisDataManager) SaveRecording(ctx context.Context, rec *domain.Recording, samples []int16) error {
	goapp.Log.Info().Str("id", rec.ID).Int("samples", len(samples)).Msg("Save recording")
	wavData, err := ToWav(samples, rec.SampleRate)
	if err != nil {
		return fmt.Errorf("to wav: %w", err)
	}
	audio, err := r.crypter.Encrypt(wavData)
	if err != nil {
		return fmt.Errorf("encrypt audio: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	encrypted, err := r.crypter.Encrypt(data)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, keyRecording(rec.ID), encrypted, r.ttl)
		p.Set(ctx, keyAudio(rec.ID), audio, r.ttl)
		p.ZAdd(ctx, keyIndex, redis.Z{Score: float64(rec.CreatedAt.UnixMilli()), Member: rec.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	return nil
}

// GetRecording retrieves and decrypts the recording
func (r *RedisDataManager) GetRecording(ctx context.Context, id string) (*domain.Recording, error) {
	bs, err := r.getDecrypted(ctx, keyRecording(id))
	if err != nil {
		return nil, fmt.Errorf("recording '%s': %w", id, err)
	}
	var res domain.Recording
	if err := json.Unmarshal(bs, &res); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &res, nil
}

// GetAudio retrieves WAV bytes from Redis
func (r *RedisDataManager) GetAudio(ctx context.Context, id string) ([]byte, error) {
	goapp.Log.Trace().Str("id", id).Msg("Get audio")
	res, err := r.getDecrypted(ctx, keyAudio(id))
	if err != nil {
		return nil, fmt.Errorf("audio '%s': %w", id, err)
	}
	return res, nil
}

// ListRecordings returns recordings newest first, expired index entries are dropped
func (r *RedisDataManager) ListRecordings(ctx context.Context) ([]*domain.Recording, error) {
	ids, err := r.client.ZRevRange(ctx, keyIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list index: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Recording{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyRecording(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get recordings: %w", err)
	}
	res, expired, err := r.decodeRecordings(ids, values)
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		if err := r.client.ZRem(ctx, keyIndex, expired...).Err(); err != nil {
			goapp.Log.Warn().Err(err).Msg("drop expired ids")
		}
	}
	sortNewestFirst(res)
	return res, nil
}

// decodeRecordings decrypts MGET values, missing values are returned as expired ids
func (r *RedisDataManager) decodeRecordings(ids []string, values []any) ([]*domain.Recording, []any, error) {
	res := make([]*domain.Recording, 0, len(ids))
	var expired []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		bs, err := r.crypter.Decrypt([]byte(str))
		if err != nil {
			return nil, nil, fmt.Errorf("decrypt '%s': %w", ids[i], err)
		}
		var rec domain.Recording
		if err := json.Unmarshal(bs, &rec); err != nil {
			return nil, nil, fmt.Errorf("unmarshal '%s': %w", ids[i], err)
		}
		res = append(res, &rec)
	}
	return res, expired, nil
}

// Search finds recordings by keyword
func (r *RedisDataManager) Search(ctx context.Context, keyword string) ([]domain.SearchResult, error) {
	recs, err := r.ListRecordings(ctx)
	if err != nil {
		return nil, err
	}
	return search(recs, keyword), nil
}

// DeleteRecording removes the recording, its audio and the index entry
func (r *RedisDataManager) DeleteRecording(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, keyRecording(id), keyAudio(id))
		p.ZRem(ctx, keyIndex, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete '%s': %w", id, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("recording '%s': %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *RedisDataManager) getDecrypted(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	res, err := r.crypter.Decrypt(b)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return res, nil
}

// Close closes the client
func (r *RedisDataManager) Close() error {
	return r.client.Close()
}
