// Package lifestore is the LifeOS entity store: typed collections over a
// namespaced key/value store, with the derived stats engine applied on every
// mutation and the per-entity sync bookkeeping used by the sync engine.
package lifestore

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

// Keys of the singleton documents kept next to the collections.
const (
	keyIdentity  = string(entity.EntityTypeIdentity)
	keyStats     = string(entity.EntityTypeStats)
	keySyncMeta  = "sync_meta"
	keyConflicts = "conflicts"
	keySyncToken = "sync_token"
)

// Change sources reported in ChangeEvent.
const (
	SourceLocal  = "local"
	SourceSync   = "sync"
	SourceImport = "import"
	SourceClear  = "clear"
)

// allKeys lists every document of a namespace. Each mutation watches all of
// them, so a commit is atomic across collections.
var allKeys = func() []string {
	keys := make([]string, 0, len(entity.CollectionTypes)+5)
	for _, t := range entity.CollectionTypes {
		keys = append(keys, string(t))
	}
	return append(keys, keyIdentity, keyStats, keySyncMeta, keyConflicts, keySyncToken)
}()

// ChangeEvent is emitted once per committed mutation.
type ChangeEvent struct {
	Namespace   string              `json:"namespace"`
	Source      string              `json:"source"`
	Collections []entity.EntityType `json:"collections"`
	At          time.Time           `json:"at"`
}

// Diagnostic records a document that could not be decoded and was read as empty.
type Diagnostic struct {
	Key        string    `json:"key"`
	Error      string    `json:"error"`
	DetectedAt time.Time `json:"detectedAt"`
}

// Options configures a Store.
type Options struct {
	// DeviceID is stamped on every local write.
	DeviceID string
	// Clock defaults to the system clock.
	Clock adapter.Clock
	// Location decides what "today" is for streaks and dates. Defaults to UTC.
	Location *time.Location
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Store is a handle on one user's namespace. It is safe for concurrent use.
type Store struct {
	kv       adapter.KeyValueStore
	clock    adapter.Clock
	deviceID string
	location *time.Location
	logger   *slog.Logger

	mu     sync.Mutex
	closed atomic.Bool

	subMu   sync.RWMutex
	subs    map[int]func(ChangeEvent)
	nextSub int

	diagMu      sync.Mutex
	diagnostics map[string]Diagnostic
}

// New creates a store over kv.
func New(kv adapter.KeyValueStore, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = adapter.SystemClock{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		kv:          kv,
		clock:       opts.Clock,
		deviceID:    opts.DeviceID,
		location:    opts.Location,
		logger:      opts.Logger.With("namespace", kv.Namespace()),
		subs:        make(map[int]func(ChangeEvent)),
		diagnostics: make(map[string]Diagnostic),
	}
}

// Namespace returns the key namespace of the store.
func (s *Store) Namespace() string {
	return s.kv.Namespace()
}

// DeviceID returns the device id stamped on local writes.
func (s *Store) DeviceID() string {
	return s.deviceID
}

// Close disposes the handle. Later calls fail with ErrStoreClosed and
// subscribers are dropped.
func (s *Store) Close() {
	s.closed.Store(true)
	s.subMu.Lock()
	s.subs = make(map[int]func(ChangeEvent))
	s.subMu.Unlock()
}

// Subscribe registers fn for change events and returns the function that
// removes it. fn runs on the writer's goroutine and must not block.
func (s *Store) Subscribe(fn func(ChangeEvent)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Diagnostics lists documents that were unreadable, by key.
func (s *Store) Diagnostics() []Diagnostic {
	s.diagMu.Lock()
	defer s.diagMu.Unlock()
	out := make([]Diagnostic, 0, len(s.diagnostics))
	for _, d := range s.diagnostics {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Clear removes every document of the namespace.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.mu.Lock()
	removed, err := s.kv.Clear(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.diagMu.Lock()
	s.diagnostics = make(map[string]Diagnostic)
	s.diagMu.Unlock()

	s.logger.Info("store cleared", "keys", removed)
	s.notify(SourceClear, append([]entity.EntityType{entity.EntityTypeIdentity, entity.EntityTypeStats}, entity.CollectionTypes...))
	return nil
}

func (s *Store) checkOpen() error {
	if s.closed.Load() {
		return domainerror.NewStoreError(domainerror.ErrCodeStoreClosed, "store "+s.Namespace()+" is closed", domainerror.ErrStoreClosed)
	}
	return nil
}

// view runs fn over a consistent snapshot of the namespace.
func (s *Store) view(ctx context.Context, fn func(t *tx) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	docs, err := s.kv.Get(ctx, allKeys...)
	if err != nil {
		return err
	}
	return fn(s.newTx(docs))
}

// mutate runs fn in one optimistic transaction and notifies subscribers
// once it has committed. fn may run more than once.
func (s *Store) mutate(ctx context.Context, source string, fn func(t *tx) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	var touched []entity.EntityType
	s.mu.Lock()
	err := s.kv.Update(ctx, allKeys, func(current adapter.Documents) (adapter.Documents, error) {
		t := s.newTx(current)
		if err := fn(t); err != nil {
			return nil, err
		}
		touched = t.touchedTypes()
		return t.encode()
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if len(touched) > 0 {
		s.notify(source, touched)
	}
	return nil
}

func (s *Store) notify(source string, collections []entity.EntityType) {
	ev := ChangeEvent{
		Namespace:   s.Namespace(),
		Source:      source,
		Collections: collections,
		At:          s.clock.Now().UTC(),
	}
	s.subMu.RLock()
	subs := make([]func(ChangeEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (s *Store) recordCorruption(key string, err error) {
	s.logger.Warn("unreadable document, reading as empty", "key", key, "error", err)
	s.diagMu.Lock()
	s.diagnostics[key] = Diagnostic{Key: key, Error: err.Error(), DetectedAt: s.clock.Now().UTC()}
	s.diagMu.Unlock()
}

// today returns the calendar date of t in the store location.
func (s *Store) today(t time.Time) string {
	return t.In(s.location).Format(entity.DateLayout)
}
