package syncengine

import (
	"encoding/json"
	"sort"

	"github.com/lifeos/backend/internal/domain/entity"
)

// MergePolicy combines two diverged payloads of one entity type.
type MergePolicy func(local, remote entity.VersionedEntity) (json.RawMessage, error)

// DefaultPolicies returns the merge policies used when none is configured.
// Types without a policy use FieldMerge.
func DefaultPolicies() map[entity.EntityType]MergePolicy {
	return map[entity.EntityType]MergePolicy{
		entity.EntityTypeHabit: MergeHabit,
		entity.EntityTypeGoal:  MergeGoal,
	}
}

// FieldMerge merges two payloads key by key. Equal values are kept, an empty
// side takes the other one, and otherwise the most recently modified side wins.
func FieldMerge(local, remote entity.VersionedEntity) (json.RawMessage, error) {
	var l, r map[string]json.RawMessage
	if err := json.Unmarshal(local.Data, &l); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(remote.Data, &r); err != nil {
		return nil, err
	}

	remoteNewer := remote.ModifiedAt.After(local.ModifiedAt)
	out := make(map[string]json.RawMessage, len(l)+len(r))
	for key, lv := range l {
		rv, ok := r[key]
		switch {
		case !ok || isEmpty(rv):
			out[key] = lv
		case isEmpty(lv):
			out[key] = rv
		case samePayload(lv, rv):
			out[key] = lv
		case remoteNewer:
			out[key] = rv
		default:
			out[key] = lv
		}
	}
	for key, rv := range r {
		if _, ok := l[key]; !ok {
			out[key] = rv
		}
	}
	return json.Marshal(out)
}

// MergeHabit field-merges two habits and unites their entries by date. A
// date logged on both sides keeps the newer side's entry; a reward paid on
// either side stays paid.
func MergeHabit(local, remote entity.VersionedEntity) (json.RawMessage, error) {
	merged, err := FieldMerge(local, remote)
	if err != nil {
		return nil, err
	}
	var h, lh, rh entity.Habit
	for _, p := range []struct {
		data json.RawMessage
		out  *entity.Habit
	}{{merged, &h}, {local.Data, &lh}, {remote.Data, &rh}} {
		if err := json.Unmarshal(p.data, p.out); err != nil {
			return nil, err
		}
	}

	older, newer := lh.Entries, rh.Entries
	if !remote.ModifiedAt.After(local.ModifiedAt) {
		older, newer = rh.Entries, lh.Entries
	}
	byDate := make(map[string]entity.HabitEntry, len(older)+len(newer))
	for _, e := range older {
		byDate[e.Date] = e
	}
	for _, e := range newer {
		if prev, ok := byDate[e.Date]; ok && prev.Rewarded {
			e.Rewarded = true
		}
		byDate[e.Date] = e
	}
	h.Entries = make([]entity.HabitEntry, 0, len(byDate))
	for _, e := range byDate {
		h.Entries = append(h.Entries, e)
	}
	sort.Slice(h.Entries, func(i, j int) bool { return h.Entries[i].Date < h.Entries[j].Date })
	return json.Marshal(h)
}

// MergeGoal field-merges two goals, keeps the higher progress and unites
// milestones by id. A goal paid out on either side stays paid.
func MergeGoal(local, remote entity.VersionedEntity) (json.RawMessage, error) {
	merged, err := FieldMerge(local, remote)
	if err != nil {
		return nil, err
	}
	var g, lg, rg entity.Goal
	for _, p := range []struct {
		data json.RawMessage
		out  *entity.Goal
	}{{merged, &g}, {local.Data, &lg}, {remote.Data, &rg}} {
		if err := json.Unmarshal(p.data, p.out); err != nil {
			return nil, err
		}
	}

	g.Progress = max(lg.Progress, rg.Progress)
	g.XPAwarded = lg.XPAwarded || rg.XPAwarded

	first, second := lg.Milestones, rg.Milestones
	if remote.ModifiedAt.After(local.ModifiedAt) {
		first, second = rg.Milestones, lg.Milestones
	}
	seen := make(map[string]bool, len(first)+len(second))
	g.Milestones = make([]entity.Milestone, 0, len(first)+len(second))
	for _, m := range append(first, second...) {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		g.Milestones = append(g.Milestones, m)
	}
	return json.Marshal(g)
}

func isEmpty(v json.RawMessage) bool {
	switch string(v) {
	case "", "null", `""`, "[]", "{}":
		return true
	}
	return false
}
