// Package kvstore implements the namespaced document store on redis.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/lifeos/backend/internal/application/adapter"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

const (
	// keySeparator joins the namespace and the relative key.
	keySeparator = "_"

	defaultMaxRetries = 32
	scanBatch         = 100
)

// ErrInvalidNamespace is returned for namespaces that could match keys of
// another namespace when scanned.
var ErrInvalidNamespace = errors.New("namespace must not be empty or contain '_', '*', '?', '[', ']' or '\\'")

// redisStore implements adapter.KeyValueStore.
type redisStore struct {
	client     redis.UniversalClient
	namespace  string
	maxBytes   int
	maxRetries int
}

// NewRedisStore creates a document store over the keys "<namespace>_*".
// Documents larger than maxBytes are refused; zero disables the quota.
func NewRedisStore(client redis.UniversalClient, namespace string, maxBytes int) (adapter.KeyValueStore, error) {
	if namespace == "" || strings.ContainsAny(namespace, "_*?[]\\") {
		return nil, ErrInvalidNamespace
	}
	return &redisStore{
		client:     client,
		namespace:  namespace,
		maxBytes:   maxBytes,
		maxRetries: defaultMaxRetries,
	}, nil
}

// Namespace returns the key prefix of the store.
func (s *redisStore) Namespace() string {
	return s.namespace
}

func (s *redisStore) key(name string) string {
	return s.namespace + keySeparator + name
}

func (s *redisStore) fullKeys(keys []string) []string {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	return full
}

// Get returns the documents stored under keys.
func (s *redisStore) Get(ctx context.Context, keys ...string) (adapter.Documents, error) {
	if len(keys) == 0 {
		return adapter.Documents{}, nil
	}
	vals, err := s.client.MGet(ctx, s.fullKeys(keys)...).Result()
	if err != nil {
		return nil, persistenceError("failed to read documents", err)
	}
	return decode(keys, vals), nil
}

// Update runs fn inside an optimistic transaction over keys and retries
// when another writer touched them in between.
func (s *redisStore) Update(ctx context.Context, keys []string, fn func(current adapter.Documents) (adapter.Documents, error)) error {
	watched := s.fullKeys(keys)

	txf := func(tx *redis.Tx) error {
		current := adapter.Documents{}
		if len(watched) > 0 {
			vals, err := tx.MGet(ctx, watched...).Result()
			if err != nil {
				return passthrough{persistenceError("failed to read documents", err)}
			}
			current = decode(keys, vals)
		}

		next, err := fn(current)
		if err != nil {
			return passthrough{err}
		}
		if len(next) == 0 {
			return nil
		}

		for name, doc := range next {
			if s.maxBytes > 0 && len(doc) > s.maxBytes {
				return passthrough{domainerror.NewStoreError(
					domainerror.ErrCodeQuotaExceeded,
					fmt.Sprintf("%s is %d bytes, the limit is %d", name, len(doc), s.maxBytes),
					domainerror.ErrQuotaExceeded,
				)}
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for name, doc := range next {
				if doc == nil {
					pipe.Del(ctx, s.key(name))
					continue
				}
				pipe.Set(ctx, s.key(name), doc, 0)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, watched...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		var pt passthrough
		if errors.As(err, &pt) {
			return pt.err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return persistenceError("failed to commit documents", err)
	}
	return persistenceError("failed to commit documents", fmt.Errorf("gave up after %d concurrent modifications", s.maxRetries))
}

// Keys lists the relative keys of the namespace.
func (s *redisStore) Keys(ctx context.Context) ([]string, error) {
	var out []string
	err := s.scan(ctx, func(batch []string) error {
		for _, k := range batch {
			out = append(out, strings.TrimPrefix(k, s.namespace+keySeparator))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Clear deletes every key of the namespace.
func (s *redisStore) Clear(ctx context.Context) (int, error) {
	removed := 0
	err := s.scan(ctx, func(batch []string) error {
		n, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return persistenceError("failed to clear namespace", err)
		}
		removed += int(n)
		return nil
	})
	return removed, err
}

func (s *redisStore) scan(ctx context.Context, fn func(batch []string) error) error {
	var cursor uint64
	pattern := s.namespace + keySeparator + "*"
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return persistenceError("failed to scan namespace", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func decode(keys []string, vals []interface{}) adapter.Documents {
	out := make(adapter.Documents, len(keys))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[keys[i]] = []byte(str)
		}
	}
	return out
}

// passthrough carries errors raised inside the transaction that must
// reach the caller unchanged.
type passthrough struct{ err error }

func (p passthrough) Error() string { return p.err.Error() }

func persistenceError(message string, err error) error {
	return domainerror.NewStoreError(
		domainerror.ErrCodePersistenceFailed,
		message,
		fmt.Errorf("%w: %v", domainerror.ErrPersistence, err),
	)
}
