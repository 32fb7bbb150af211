package lifestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/domain/progression"
)

// LocalEntity is the local copy of a synced entity with its bookkeeping.
// Tombstones carry no data.
type LocalEntity struct {
	Entity entity.VersionedEntity
	Meta   entity.SyncMeta
}

// SyncState is what the sync engine needs from the store for one cycle.
type SyncState struct {
	Entities  map[string]LocalEntity
	Conflicts []entity.Conflict
	Token     string
}

// Pending counts local changes waiting to be pushed.
func (st *SyncState) Pending() int {
	n := 0
	for _, e := range st.Entities {
		if e.Meta.Dirty {
			n++
		}
	}
	return n
}

// Adoption writes a remote version locally when the local copy is still at
// LocalVersion. A local write in between makes it a no-op.
type Adoption struct {
	Remote       entity.VersionedEntity
	LocalVersion int
}

// SyncBatch is the outcome of one sync step, committed atomically.
type SyncBatch struct {
	Adopt     []Adoption
	Conflicts []entity.Conflict
	Pushed    []entity.VersionedEntity
	Token     *string
}

// ApplyReport counts what a batch changed.
type ApplyReport struct {
	Adopted   int `json:"adopted"`
	Skipped   int `json:"skipped"`
	Conflicts int `json:"conflicts"`
}

// Resolution is the settled version of a conflicted entity.
type Resolution struct {
	ConflictID string
	Result     entity.VersionedEntity
	// Dirty marks results that still have to be pushed.
	Dirty bool
}

// codec moves records of one synced type in and out of raw payloads.
type codec struct {
	records func(t *tx) (map[string]json.RawMessage, error)
	put     func(t *tx, id string, data json.RawMessage) error
	remove  func(t *tx, id string)
}

var codecs = map[entity.EntityType]codec{
	entity.EntityTypeIdentity:      identityCodec(),
	entity.EntityTypeTask:          listCodec[entity.Task](entity.EntityTypeTask, nil),
	entity.EntityTypeHabit:         listCodec(entity.EntityTypeHabit, func(t *tx, h *entity.Habit) { normalizeHabit(h, t.localNow()) }),
	entity.EntityTypeGoal:          listCodec(entity.EntityTypeGoal, func(t *tx, g *entity.Goal) { progression.NormalizeGoal(g, t.now) }),
	entity.EntityTypeLifeArea:      listCodec[entity.LifeArea](entity.EntityTypeLifeArea, nil),
	entity.EntityTypeSkill:         listCodec[entity.Skill](entity.EntityTypeSkill, nil),
	entity.EntityTypeAchievement:   listCodec[entity.Achievement](entity.EntityTypeAchievement, nil),
	entity.EntityTypeAccount:       listCodec[entity.Account](entity.EntityTypeAccount, nil),
	entity.EntityTypeTransaction:   listCodec[entity.Transaction](entity.EntityTypeTransaction, nil),
	entity.EntityTypeFinancialGoal: listCodec[entity.FinancialGoal](entity.EntityTypeFinancialGoal, nil),
	entity.EntityTypeDailyReview:   listCodec[entity.DailyReview](entity.EntityTypeDailyReview, nil),
}

func listCodec[T entity.Record](typ entity.EntityType, normalize func(t *tx, rec *T)) codec {
	return codec{
		records: func(t *tx) (map[string]json.RawMessage, error) {
			items := list[T](t, typ)
			out := make(map[string]json.RawMessage, len(items))
			for _, rec := range items {
				raw, err := json.Marshal(rec)
				if err != nil {
					return nil, err
				}
				out[rec.RecordID()] = raw
			}
			return out, nil
		},
		put: func(t *tx, id string, data json.RawMessage) error {
			var rec T
			if err := json.Unmarshal(data, &rec); err != nil {
				return invalidPayload(typ, id, err)
			}
			if rec.RecordID() != id {
				return invalidPayload(typ, id, fmt.Errorf("payload id %q does not match", rec.RecordID()))
			}
			if normalize != nil {
				normalize(t, &rec)
			}
			put(t, typ, rec)
			return nil
		},
		remove: func(t *tx, id string) {
			remove[T](t, typ, id)
		},
	}
}

func identityCodec() codec {
	return codec{
		records: func(t *tx) (map[string]json.RawMessage, error) {
			id := t.identity()
			if id == nil {
				return map[string]json.RawMessage{}, nil
			}
			raw, err := json.Marshal(id)
			if err != nil {
				return nil, err
			}
			return map[string]json.RawMessage{entity.IdentityID: raw}, nil
		},
		put: func(t *tx, id string, data json.RawMessage) error {
			var rec entity.Identity
			if err := json.Unmarshal(data, &rec); err != nil {
				return invalidPayload(entity.EntityTypeIdentity, id, err)
			}
			rec.ID = entity.IdentityID
			t.setIdentity(&rec)
			return nil
		},
		// the identity is never deleted
		remove: func(*tx, string) {},
	}
}

func invalidPayload(typ entity.EntityType, id string, err error) error {
	return domainerror.NewSyncError(
		domainerror.ErrCodeInvalidPayload,
		fmt.Sprintf("invalid %s payload for %s", typ, id),
		err,
	)
}

// SyncState returns a snapshot of every synced entity, its bookkeeping,
// the open conflicts and the last sync token.
func (s *Store) SyncState(ctx context.Context) (*SyncState, error) {
	var out *SyncState
	err := s.view(ctx, func(t *tx) error {
		var err error
		out, err = t.syncState()
		return err
	})
	return out, err
}

func (t *tx) syncState() (*SyncState, error) {
	meta := t.syncMeta()
	st := &SyncState{
		Entities:  make(map[string]LocalEntity),
		Conflicts: t.conflictList(),
		Token:     t.syncToken(),
	}

	for _, typ := range entity.SyncedTypes {
		records, err := codecs[typ].records(t)
		if err != nil {
			return nil, domainerror.NewStoreError(domainerror.ErrCodeSerialization, "failed to encode "+string(typ), err)
		}
		for id, data := range records {
			ref := entity.EntityRef{Type: typ, ID: id}
			m := meta[ref.Key()]
			modifiedAt := m.ModifiedAt
			if modifiedAt.IsZero() {
				modifiedAt = recordTime(data)
			}
			st.Entities[ref.Key()] = LocalEntity{
				Entity: entity.VersionedEntity{
					EntityType: typ,
					ID:         id,
					Data:       data,
					Version:    m.Version,
					DeviceID:   m.DeviceID,
					ModifiedAt: modifiedAt,
				},
				Meta: m,
			}
		}
	}

	// tombstones
	for key, m := range meta {
		if !m.Deleted {
			continue
		}
		if _, live := st.Entities[key]; live {
			continue
		}
		ref, ok := parseRefKey(key)
		if !ok {
			continue
		}
		st.Entities[key] = LocalEntity{
			Entity: entity.VersionedEntity{
				EntityType: ref.Type,
				ID:         ref.ID,
				Version:    m.Version,
				DeviceID:   m.DeviceID,
				ModifiedAt: m.ModifiedAt,
				Deleted:    true,
			},
			Meta: m,
		}
	}
	return st, nil
}

// ApplySync commits a sync step in one transaction and notifies
// subscribers once.
func (s *Store) ApplySync(ctx context.Context, b SyncBatch) (*ApplyReport, error) {
	var report ApplyReport
	err := s.mutate(ctx, SourceSync, func(t *tx) error {
		report = ApplyReport{}
		meta := t.syncMeta()

		for _, a := range b.Adopt {
			ref := a.Remote.Ref()
			c, ok := codecs[ref.Type]
			if !ok {
				report.Skipped++
				continue
			}
			if meta[ref.Key()].Version != a.LocalVersion {
				report.Skipped++
				continue
			}
			if a.Remote.Deleted {
				c.remove(t, ref.ID)
			} else if err := c.put(t, ref.ID, a.Remote.Data); err != nil {
				return err
			}
			t.setMeta(ref, entity.SyncMeta{
				Version:     a.Remote.Version,
				DeviceID:    a.Remote.DeviceID,
				ModifiedAt:  a.Remote.ModifiedAt,
				BaseVersion: a.Remote.Version,
				Deleted:     a.Remote.Deleted,
			})
			t.dropConflict(ref)
			report.Adopted++
		}

		for _, c := range b.Conflicts {
			t.recordConflict(c)
			report.Conflicts++
		}

		for _, v := range b.Pushed {
			m, known := meta[v.Ref().Key()]
			if !known {
				continue
			}
			if v.Version > m.BaseVersion {
				m.BaseVersion = v.Version
			}
			if m.Version == v.Version {
				m.Dirty = false
			}
			t.setMeta(v.Ref(), m)
		}

		if b.Token != nil {
			t.setSyncToken(*b.Token)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Conflicts returns the open conflicts.
func (s *Store) Conflicts(ctx context.Context) ([]entity.Conflict, error) {
	var out []entity.Conflict
	err := s.view(ctx, func(t *tx) error {
		out = t.conflictList()
		return nil
	})
	return out, err
}

// SettleConflicts writes the resolved versions and closes their conflicts
// in one commit. Unknown conflict ids fail the whole batch.
func (s *Store) SettleConflicts(ctx context.Context, resolutions []Resolution) error {
	return s.mutate(ctx, SourceSync, func(t *tx) error {
		for _, r := range resolutions {
			conflict, ok := t.findConflict(r.ConflictID)
			if !ok {
				return domainerror.NewSyncError(
					domainerror.ErrCodeConflictNotFound,
					"conflict "+r.ConflictID+" not found",
					domainerror.ErrConflictNotFound,
				)
			}
			ref := conflict.Ref()
			c := codecs[ref.Type]
			if r.Result.Deleted {
				c.remove(t, ref.ID)
			} else if err := c.put(t, ref.ID, r.Result.Data); err != nil {
				return err
			}
			t.setMeta(ref, entity.SyncMeta{
				Version:     r.Result.Version,
				DeviceID:    r.Result.DeviceID,
				ModifiedAt:  r.Result.ModifiedAt,
				BaseVersion: conflict.Remote.Version,
				Dirty:       r.Dirty,
				Deleted:     r.Result.Deleted,
			})
			t.dropConflict(ref)
		}
		return nil
	})
}

func (t *tx) findConflict(id string) (entity.Conflict, bool) {
	for _, c := range t.conflictList() {
		if c.ID == id {
			return c, true
		}
	}
	return entity.Conflict{}, false
}

// recordConflict stores c, refreshing an open conflict on the same entity
// instead of adding a second one.
func (t *tx) recordConflict(c entity.Conflict) {
	current := t.conflictList()
	next := make([]entity.Conflict, 0, len(current)+1)
	replaced := false
	for _, open := range current {
		if open.Ref() == c.Ref() {
			c.ID = open.ID
			next = append(next, c)
			replaced = true
			continue
		}
		next = append(next, open)
	}
	if !replaced {
		next = append(next, c)
	}
	t.setConflicts(next)
}

func (t *tx) dropConflict(ref entity.EntityRef) {
	current := t.conflictList()
	next := make([]entity.Conflict, 0, len(current))
	for _, c := range current {
		if c.Ref() != ref {
			next = append(next, c)
		}
	}
	if len(next) != len(current) {
		t.setConflicts(next)
	}
}

func parseRefKey(key string) (entity.EntityRef, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return entity.EntityRef{Type: entity.EntityType(key[:i]), ID: key[i+1:]}, true
		}
	}
	return entity.EntityRef{}, false
}

// recordTime reads updatedAt from a payload, for entities that were never
// versioned locally.
func recordTime(data json.RawMessage) time.Time {
	var probe struct {
		UpdatedAt time.Time `json:"updatedAt"`
	}
	_ = json.Unmarshal(data, &probe)
	return probe.UpdatedAt
}
