package kvstore

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lifeos/backend/internal/application/adapter"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

func newTestStore(t *testing.T, namespace string, maxBytes int) (adapter.KeyValueStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, namespace, maxBytes)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store, mr, client
}

func put(t *testing.T, store adapter.KeyValueStore, docs adapter.Documents) {
	t.Helper()
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	err := store.Update(context.Background(), keys, func(adapter.Documents) (adapter.Documents, error) {
		return docs, nil
	})
	if err != nil {
		t.Fatalf("failed to put documents: %v", err)
	}
}

func TestNewRedisStore_RejectsAmbiguousNamespaces(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	for _, ns := range []string{"", "lifeos_1", "lifeos:*", "a[b]"} {
		if _, err := NewRedisStore(client, ns, 0); !errors.Is(err, ErrInvalidNamespace) {
			t.Errorf("namespace %q: expected ErrInvalidNamespace, got %v", ns, err)
		}
	}
}

func TestRedisStore_UpdateAndGet(t *testing.T) {
	store, mr, _ := newTestStore(t, "lifeos:1", 0)
	ctx := context.Background()

	put(t, store, adapter.Documents{"tasks": []byte(`[{"id":"a"}]`)})

	if got, _ := mr.Get("lifeos:1_tasks"); got != `[{"id":"a"}]` {
		t.Errorf("expected document under namespaced key, got %q", got)
	}

	docs, err := store.Get(ctx, "tasks", "habits")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(docs["tasks"]) != `[{"id":"a"}]` {
		t.Errorf("unexpected tasks document %q", docs["tasks"])
	}
	if _, ok := docs["habits"]; ok {
		t.Error("expected absent key to be omitted")
	}
}

func TestRedisStore_UpdateSeesCurrentDocuments(t *testing.T) {
	store, _, _ := newTestStore(t, "lifeos:1", 0)
	put(t, store, adapter.Documents{"stats": []byte(`1`)})

	var seen string
	err := store.Update(context.Background(), []string{"stats"}, func(cur adapter.Documents) (adapter.Documents, error) {
		seen = string(cur["stats"])
		return adapter.Documents{"stats": []byte(`2`)}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "1" {
		t.Errorf("expected callback to see 1, got %q", seen)
	}
}

func TestRedisStore_FailedCallbackWritesNothing(t *testing.T) {
	store, mr, _ := newTestStore(t, "lifeos:1", 0)
	put(t, store, adapter.Documents{"tasks": []byte(`[]`)})

	boom := errors.New("boom")
	err := store.Update(context.Background(), []string{"tasks"}, func(adapter.Documents) (adapter.Documents, error) {
		return adapter.Documents{"tasks": []byte(`[1]`)}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error unchanged, got %v", err)
	}
	if got, _ := mr.Get("lifeos:1_tasks"); got != `[]` {
		t.Errorf("expected document untouched, got %q", got)
	}
}

func TestRedisStore_QuotaExceeded(t *testing.T) {
	store, mr, _ := newTestStore(t, "lifeos:1", 16)

	err := store.Update(context.Background(), []string{"tasks", "habits"}, func(adapter.Documents) (adapter.Documents, error) {
		return adapter.Documents{
			"habits": []byte(`[]`),
			"tasks":  []byte(`["this document is too large"]`),
		}, nil
	})
	if !errors.Is(err, domainerror.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	var storeErr *domainerror.StoreError
	if !errors.As(err, &storeErr) || storeErr.Code != domainerror.ErrCodeQuotaExceeded {
		t.Errorf("expected quota StoreError, got %v", err)
	}
	if mr.Exists("lifeos:1_habits") || mr.Exists("lifeos:1_tasks") {
		t.Error("expected nothing to be written")
	}
}

func TestRedisStore_NilDocumentDeletes(t *testing.T) {
	store, mr, _ := newTestStore(t, "lifeos:1", 0)
	put(t, store, adapter.Documents{"conflicts": []byte(`[]`)})
	put(t, store, adapter.Documents{"conflicts": nil})

	if mr.Exists("lifeos:1_conflicts") {
		t.Error("expected key to be deleted")
	}
}

func TestRedisStore_ClearOnlyTouchesNamespace(t *testing.T) {
	store, mr, _ := newTestStore(t, "lifeos:1", 0)
	put(t, store, adapter.Documents{"tasks": []byte(`[]`), "habits": []byte(`[]`), "stats": []byte(`{}`)})
	_ = mr.Set("lifeos:10_tasks", "[]")
	_ = mr.Set("unrelated", "keep")

	keys, err := store.Keys(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 3 {
		t.Errorf("expected 3 keys, got %v", keys)
	}

	removed, err := store.Clear(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 keys removed, got %d", removed)
	}
	if !mr.Exists("lifeos:10_tasks") || !mr.Exists("unrelated") {
		t.Error("expected keys outside the namespace to survive")
	}
}

func TestRedisStore_ConcurrentUpdatesAreSerialised(t *testing.T) {
	store, _, client := newTestStore(t, "lifeos:1", 0)
	ctx := context.Background()
	const writers = 10

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(ctx, []string{"counter"}, func(cur adapter.Documents) (adapter.Documents, error) {
				n, _ := strconv.Atoi(string(cur["counter"]))
				return adapter.Documents{"counter": []byte(strconv.Itoa(n + 1))}, nil
			})
			if err != nil {
				t.Errorf("update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := client.Get(ctx, "lifeos:1_counter").Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != strconv.Itoa(writers) {
		t.Errorf("expected counter %d, got %s", writers, got)
	}
}

func TestRedisStore_UnavailableRedis(t *testing.T) {
	store, mr, _ := newTestStore(t, "lifeos:1", 0)
	mr.Close()

	_, err := store.Get(context.Background(), "tasks")
	if !errors.Is(err, domainerror.ErrPersistence) {
		t.Errorf("expected ErrPersistence on read, got %v", err)
	}

	err = store.Update(context.Background(), []string{"tasks"}, func(adapter.Documents) (adapter.Documents, error) {
		return adapter.Documents{"tasks": []byte(`[]`)}, nil
	})
	if !errors.Is(err, domainerror.ErrPersistence) {
		t.Errorf("expected ErrPersistence on write, got %v", err)
	}
}
