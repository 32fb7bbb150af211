package syncengine

import (
	"bytes"
	"encoding/json"

	"github.com/lifeos/backend/internal/application/usecase/lifestore"
	"github.com/lifeos/backend/internal/domain/entity"
)

// action is what a pulled remote version means for the local copy.
type action int

const (
	// actionNone leaves the local copy alone; a dirty copy is pushed later.
	actionNone action = iota
	// actionAdopt writes the remote version locally and marks it synced.
	actionAdopt
	// actionConflict keeps both versions until the user resolves them.
	actionConflict
)

type decision struct {
	action       action
	conflictType entity.ConflictType
}

// classify compares a pulled remote version with the local copy. local is
// nil when the entity is unknown locally.
func classify(local *lifestore.LocalEntity, remote entity.VersionedEntity) decision {
	if local == nil {
		return decision{action: actionAdopt}
	}
	meta := local.Meta

	if local.Entity.Deleted {
		switch {
		case remote.Deleted:
			return decision{action: actionAdopt}
		case remote.Version <= meta.BaseVersion:
			return decision{action: actionNone}
		default:
			return decision{action: actionConflict, conflictType: entity.ConflictLocalDeleted}
		}
	}

	if !remote.Deleted && samePayload(local.Entity.Data, remote.Data) {
		return decision{action: actionAdopt}
	}

	remoteChanged := remote.Version > meta.BaseVersion
	switch {
	case !remoteChanged:
		return decision{action: actionNone}
	case !meta.Dirty:
		return decision{action: actionAdopt}
	case remote.Deleted:
		return decision{action: actionConflict, conflictType: entity.ConflictRemoteDeleted}
	default:
		return decision{action: actionConflict, conflictType: entity.ConflictBothModified}
	}
}

// canonical re-encodes a JSON payload with sorted object keys and no
// insignificant whitespace. Numbers keep their literal form.
func canonical(data json.RawMessage) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// samePayload reports whether two payloads hold the same JSON value.
func samePayload(a, b json.RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	ca, err := canonical(a)
	if err != nil {
		return false
	}
	cb, err := canonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}
