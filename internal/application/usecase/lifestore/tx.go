package lifestore

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/domain/progression"
)

// tx is the decoded working set of one mutation. Documents are decoded on
// first use and re-encoded only when changed.
type tx struct {
	store   *Store
	now     time.Time
	current adapter.Documents

	cache   map[string]interface{}
	changed map[string]bool
	touched map[entity.EntityType]bool

	meta      map[string]entity.SyncMeta
	conflicts []entity.Conflict
}

func (s *Store) newTx(current adapter.Documents) *tx {
	return &tx{
		store:   s,
		now:     s.clock.Now().UTC(),
		current: current,
		cache:   make(map[string]interface{}),
		changed: make(map[string]bool),
		touched: make(map[entity.EntityType]bool),
	}
}

// today is the current calendar day in the store location.
func (t *tx) today() string {
	return t.store.today(t.now)
}

// localNow is now in the store location, used for day arithmetic.
func (t *tx) localNow() time.Time {
	return t.now.In(t.store.location)
}

// decode unmarshals a document into out. Unreadable documents are reported
// and leave out untouched.
func (t *tx) decode(key string, out interface{}) bool {
	raw, ok := t.current[key]
	if !ok || len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.store.recordCorruption(key, err)
		return false
	}
	return true
}

func (t *tx) markChanged(key string) {
	t.changed[key] = true
}

// list returns the decoded collection of typ.
func list[T any](t *tx, typ entity.EntityType) []T {
	key := string(typ)
	if v, ok := t.cache[key]; ok {
		return v.([]T)
	}
	var items []T
	if !t.decode(key, &items) || items == nil {
		items = []T{}
	}
	t.cache[key] = items
	return items
}

// setList replaces the collection of typ in the working set.
func setList[T any](t *tx, typ entity.EntityType, items []T) {
	t.cache[string(typ)] = items
	t.markChanged(string(typ))
	t.touched[typ] = true
}

func indexOf[T entity.Record](items []T, id string) int {
	for i := range items {
		if items[i].RecordID() == id {
			return i
		}
	}
	return -1
}

// find returns a copy of the record with id, or a not-found error.
func find[T entity.Record](t *tx, typ entity.EntityType, id string) (T, error) {
	items := list[T](t, typ)
	if i := indexOf(items, id); i >= 0 {
		return items[i], nil
	}
	var zero T
	return zero, domainerror.NewNotFoundError(string(typ), id)
}

// put inserts or replaces rec in its collection.
func put[T entity.Record](t *tx, typ entity.EntityType, rec T) {
	items := list[T](t, typ)
	next := make([]T, len(items), len(items)+1)
	copy(next, items)
	if i := indexOf(next, rec.RecordID()); i >= 0 {
		next[i] = rec
	} else {
		next = append(next, rec)
	}
	setList(t, typ, next)
}

// remove deletes id from its collection and reports whether it existed.
func remove[T entity.Record](t *tx, typ entity.EntityType, id string) bool {
	items := list[T](t, typ)
	i := indexOf(items, id)
	if i < 0 {
		return false
	}
	next := make([]T, 0, len(items)-1)
	next = append(next, items[:i]...)
	next = append(next, items[i+1:]...)
	setList(t, typ, next)
	return true
}

// exists reports whether a record with id is in the collection of typ.
func exists[T entity.Record](t *tx, typ entity.EntityType, id string) bool {
	return indexOf(list[T](t, typ), id) >= 0
}

func (t *tx) identity() *entity.Identity {
	if v, ok := t.cache[keyIdentity]; ok {
		return v.(*entity.Identity)
	}
	var id *entity.Identity
	if !t.decode(keyIdentity, &id) {
		id = nil
	}
	t.cache[keyIdentity] = id
	return id
}

func (t *tx) setIdentity(id *entity.Identity) {
	t.cache[keyIdentity] = id
	t.markChanged(keyIdentity)
	t.touched[entity.EntityTypeIdentity] = true
}

func (t *tx) stats() *entity.Stats {
	if v, ok := t.cache[keyStats]; ok {
		return v.(*entity.Stats)
	}
	var st *entity.Stats
	if !t.decode(keyStats, &st) || st == nil {
		st = progression.NewStats()
	}
	t.cache[keyStats] = st
	return st
}

// rewardActivity pays xp and coins, advances the daily activity streak and
// marks stats for writing.
func (t *tx) rewardActivity(xp, coins int) (int, error) {
	st := t.stats()
	levels, err := progression.Reward(st, xp, coins)
	if err != nil {
		return 0, err
	}
	progression.RecordActivity(st, t.today())
	t.statsChanged()
	return levels, nil
}

func (t *tx) statsChanged() {
	t.stats().UpdatedAt = t.now
	t.markChanged(keyStats)
	t.touched[entity.EntityTypeStats] = true
}

func (t *tx) syncMeta() map[string]entity.SyncMeta {
	if t.meta != nil {
		return t.meta
	}
	meta := map[string]entity.SyncMeta{}
	if !t.decode(keySyncMeta, &meta) || meta == nil {
		meta = map[string]entity.SyncMeta{}
	}
	t.meta = meta
	return meta
}

func (t *tx) setMeta(ref entity.EntityRef, m entity.SyncMeta) {
	t.syncMeta()[ref.Key()] = m
	t.markChanged(keySyncMeta)
}

func (t *tx) dropMeta(ref entity.EntityRef) {
	meta := t.syncMeta()
	if _, ok := meta[ref.Key()]; ok {
		delete(meta, ref.Key())
		t.markChanged(keySyncMeta)
	}
}

// touch records a local write of ref: the version moves forward and the
// entry is dirty until pushed. Deleting an entity the remote never saw
// leaves nothing to sync.
func (t *tx) touch(typ entity.EntityType, id string, deleted bool) {
	ref := entity.EntityRef{Type: typ, ID: id}
	m, known := t.syncMeta()[ref.Key()]
	if deleted && (!known || m.BaseVersion == 0) {
		t.dropMeta(ref)
		return
	}
	m.Version++
	m.DeviceID = t.store.deviceID
	m.ModifiedAt = t.now
	m.Dirty = true
	m.Deleted = deleted
	t.setMeta(ref, m)
}

func (t *tx) conflictList() []entity.Conflict {
	if t.conflicts != nil {
		return t.conflicts
	}
	var out []entity.Conflict
	if !t.decode(keyConflicts, &out) || out == nil {
		out = []entity.Conflict{}
	}
	t.conflicts = out
	return out
}

func (t *tx) setConflicts(conflicts []entity.Conflict) {
	t.conflicts = conflicts
	t.markChanged(keyConflicts)
}

func (t *tx) syncToken() string {
	if v, ok := t.cache[keySyncToken]; ok {
		return v.(string)
	}
	var token string
	t.decode(keySyncToken, &token)
	t.cache[keySyncToken] = token
	return token
}

func (t *tx) setSyncToken(token string) {
	t.cache[keySyncToken] = token
	t.markChanged(keySyncToken)
}

// touchedTypes lists the entity types changed by the transaction.
func (t *tx) touchedTypes() []entity.EntityType {
	out := make([]entity.EntityType, 0, len(t.touched))
	for typ := range t.touched {
		out = append(out, typ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// encode serialises every changed document.
func (t *tx) encode() (adapter.Documents, error) {
	out := make(adapter.Documents, len(t.changed))
	for key := range t.changed {
		var v interface{}
		switch key {
		case keySyncMeta:
			v = t.meta
		case keyConflicts:
			v = t.conflicts
		default:
			v = t.cache[key]
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, domainerror.NewStoreError(
				domainerror.ErrCodeSerialization,
				fmt.Sprintf("failed to encode %s", key),
				fmt.Errorf("%w: %v", domainerror.ErrSerialization, err),
			)
		}
		out[key] = raw
	}
	return out, nil
}
