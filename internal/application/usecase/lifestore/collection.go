package lifestore

import (
	"context"
	"errors"

	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

// Reward is what a gamified mutation paid out.
type Reward struct {
	XP           int `json:"xp"`
	Coins        int `json:"coins"`
	LevelsGained int `json:"levelsGained"`
}

func getAll[T entity.Record](ctx context.Context, s *Store, typ entity.EntityType) ([]T, error) {
	var out []T
	err := s.view(ctx, func(t *tx) error {
		out = list[T](t, typ)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getOne[T entity.Record](ctx context.Context, s *Store, typ entity.EntityType, id string) (*T, error) {
	var out T
	err := s.view(ctx, func(t *tx) error {
		rec, err := find[T](t, typ, id)
		out = rec
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// create validates payload, builds the record and appends it.
func create[T entity.Record](ctx context.Context, s *Store, typ entity.EntityType, payload interface{}, build func(t *tx) (T, error)) (*T, error) {
	if err := validation.Struct(payload); err != nil {
		return nil, err
	}
	var out T
	err := s.mutate(ctx, SourceLocal, func(t *tx) error {
		rec, err := build(t)
		if err != nil {
			return err
		}
		put(t, typ, rec)
		t.touch(typ, rec.RecordID(), false)
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// modify validates payload (when given) and applies it to the record with id.
func modify[T entity.Record](ctx context.Context, s *Store, typ entity.EntityType, id string, payload interface{}, apply func(t *tx, rec *T) error) (*T, error) {
	if payload != nil {
		if err := validation.Struct(payload); err != nil {
			return nil, err
		}
	}
	var out T
	err := s.mutate(ctx, SourceLocal, func(t *tx) error {
		rec, err := find[T](t, typ, id)
		if err != nil {
			return err
		}
		if err := apply(t, &rec); err != nil {
			return err
		}
		put(t, typ, rec)
		t.touch(typ, id, false)
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// destroy removes the record with id. Deleting an absent id is a no-op.
// cleanup runs in the same commit with the removed record.
func destroy[T entity.Record](ctx context.Context, s *Store, typ entity.EntityType, id string, cleanup func(t *tx, rec T) error) error {
	return s.mutate(ctx, SourceLocal, func(t *tx) error {
		rec, err := find[T](t, typ, id)
		if errors.Is(err, domainerror.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		remove[T](t, typ, id)
		t.touch(typ, id, true)
		if cleanup != nil {
			return cleanup(t, rec)
		}
		return nil
	})
}

// weakRef is an id-based link from one record to another.
type weakRef struct {
	field string
	typ   entity.EntityType
	id    *string
}

// checkRefs fails with a field error for every link pointing at a record
// that does not exist. Nil and empty links are fine.
func (t *tx) checkRefs(refs ...weakRef) error {
	verr := &domainerror.ValidationError{}
	for _, r := range refs {
		if r.id == nil || *r.id == "" {
			continue
		}
		var ok bool
		switch r.typ {
		case entity.EntityTypeGoal:
			ok = exists[entity.Goal](t, r.typ, *r.id)
		case entity.EntityTypeLifeArea:
			ok = exists[entity.LifeArea](t, r.typ, *r.id)
		case entity.EntityTypeAccount:
			ok = exists[entity.Account](t, r.typ, *r.id)
		}
		if !ok {
			verr.Add(r.field, "exists", "must reference an existing "+string(r.typ)+" record")
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// optionalID turns an empty link into nil.
func optionalID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}

func sameID(link *string, id string) bool {
	return link != nil && *link == id
}

// nullifyReferences clears every weak reference to the deleted record and
// versions the referrers in the same commit.
func (t *tx) nullifyReferences(typ entity.EntityType, id string) {
	switch typ {
	case entity.EntityTypeGoal:
		nullify(t, entity.EntityTypeTask, func(task *entity.Task) bool {
			if sameID(task.GoalID, id) {
				task.GoalID = nil
				task.UpdatedAt = t.now
				return true
			}
			return false
		})
	case entity.EntityTypeLifeArea:
		nullify(t, entity.EntityTypeTask, func(task *entity.Task) bool {
			if sameID(task.AreaID, id) {
				task.AreaID = nil
				task.UpdatedAt = t.now
				return true
			}
			return false
		})
		nullify(t, entity.EntityTypeGoal, func(g *entity.Goal) bool {
			if sameID(g.AreaID, id) {
				g.AreaID = nil
				g.UpdatedAt = t.now
				return true
			}
			return false
		})
		nullify(t, entity.EntityTypeHabit, func(h *entity.Habit) bool {
			if sameID(h.AreaID, id) {
				h.AreaID = nil
				h.UpdatedAt = t.now
				return true
			}
			return false
		})
	case entity.EntityTypeAccount:
		nullify(t, entity.EntityTypeTransaction, func(tr *entity.Transaction) bool {
			if sameID(tr.AccountID, id) {
				tr.AccountID = nil
				tr.UpdatedAt = t.now
				return true
			}
			return false
		})
	}
}

func nullify[T entity.Record](t *tx, typ entity.EntityType, unlink func(rec *T) bool) {
	items := list[T](t, typ)
	var next []T
	for i := range items {
		rec := items[i]
		if !unlink(&rec) {
			continue
		}
		if next == nil {
			next = make([]T, len(items))
			copy(next, items)
		}
		next[i] = rec
		t.touch(typ, rec.RecordID(), false)
	}
	if next != nil {
		setList(t, typ, next)
	}
}
