package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/docuproof/internal/document"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "docuproof:"
	maxTxAttempts      = 8
)

// RedisStore keeps each document as one JSON value plus a per-owner set of
// document IDs. Mutations run inside WATCH transactions.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a store from a redis:// URL and verifies the
// connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreWithClient(client, defaultRedisPrefix), nil
}

func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) docKey(id string) string      { return s.prefix + "doc:" + id }
func (s *RedisStore) ownerKey(owner string) string { return s.prefix + "owner:" + owner }

func (s *RedisStore) Create(ctx context.Context, doc *document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.docKey(doc.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if !ok {
		return ErrExists
	}
	if err := s.client.SAdd(ctx, s.ownerKey(doc.OwnerID), doc.ID).Err(); err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*document.Document, error) {
	data, err := s.client.Get(ctx, s.docKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return decodeDocument(data)
}

func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.docKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) ListByOwner(ctx context.Context, ownerID string) ([]document.Document, error) {
	ids, err := s.client.SMembers(ctx, s.ownerKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list owner index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	out := make([]document.Document, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Deleted between SMEMBERS and MGET.
			continue
		}
		doc, err := decodeDocument([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(id))
		pipe.SRem(ctx, s.ownerKey(doc.OwnerID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *RedisStore) UpdateStatus(ctx context.Context, id string, status document.Status) error {
	return s.update(ctx, id, func(doc *document.Document) error {
		applyStatus(doc, status, s.now())
		return nil
	})
}

func (s *RedisStore) ClaimForAnalysis(ctx context.Context, id string, staleAfter time.Duration) error {
	return s.update(ctx, id, func(doc *document.Document) error {
		now := s.now()
		if !claimable(doc, now, staleAfter) {
			return ErrAlreadyAnalyzing
		}
		applyClaim(doc, now)
		return nil
	})
}

func (s *RedisStore) SaveAnalysis(ctx context.Context, id string, run document.AnalysisRun) error {
	return s.update(ctx, id, func(doc *document.Document) error {
		applyAnalysis(doc, run, s.now())
		return nil
	})
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// update applies fn under WATCH so concurrent writers to the same key
// retry instead of overwriting each other.
func (s *RedisStore) update(ctx context.Context, id string, fn func(*document.Document) error) error {
	key := s.docKey(id)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for range maxTxAttempts {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update document %s: too much contention", id)
}

func decodeDocument(data []byte) (*document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
