package lifestore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	area, err := s.AddLifeArea(ctx, validation.LifeAreaCreate{Name: "Health", Color: "#22c55e"})
	if err != nil {
		t.Fatalf("failed to seed area: %v", err)
	}
	goal, err := s.AddGoal(ctx, validation.GoalCreate{Title: "Run 10k", AreaID: &area.ID, Milestones: []validation.MilestoneInput{{Title: "5k"}}})
	if err != nil {
		t.Fatalf("failed to seed goal: %v", err)
	}
	if _, err := s.AddTask(ctx, validation.TaskCreate{Title: "Buy shoes", GoalID: &goal.ID, AreaID: &area.ID}); err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	habit, err := s.AddHabit(ctx, validation.HabitCreate{Title: "Jog", Frequency: "custom", TargetDays: []int{1, 3, 5}})
	if err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}
	if _, err := s.ToggleHabit(ctx, habit.ID, validation.HabitToggle{Date: "2026-03-11"}); err != nil {
		t.Fatalf("failed to toggle habit: %v", err)
	}
	if _, err := s.AddAccount(ctx, validation.AccountCreate{Name: "Main", Type: "savings", Currency: "USD", Balance: decimal.NewFromInt(250)}); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	if _, err := s.SubmitDailyReview(ctx, validation.DailyReviewCreate{Date: "2026-03-12", Mood: 5, Energy: 4}); err != nil {
		t.Fatalf("failed to seed review: %v", err)
	}
}

func collectionsJSON(t *testing.T, doc *ExportDocument) string {
	t.Helper()
	clone := *doc
	clone.ExportDate = doc.ExportDate.Truncate(0)
	clone.Stats = nil
	out, err := json.Marshal(clone)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	return string(out)
}

func TestExportImport_RoundTrip(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	seed(t, env.store)

	raw, err := env.store.ExportJSON(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	target := env.open(t, "lifeos:restore", "device-b", 0)
	summary, err := target.Import(ctx, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Records[entity.EntityTypeTask] != 1 || summary.Records[entity.EntityTypeHabit] != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}

	before, _ := env.store.Export(ctx)
	after, _ := target.Export(ctx)
	if collectionsJSON(t, before) != collectionsJSON(t, after) {
		t.Errorf("expected identical collections after round trip\nbefore: %s\nafter:  %s", collectionsJSON(t, before), collectionsJSON(t, after))
	}

	// every imported entity is a local change to push
	state, _ := target.SyncState(ctx)
	if state.Pending() != len(state.Entities) {
		t.Errorf("expected all %d entities dirty, got %d", len(state.Entities), state.Pending())
	}
}

func TestExport_EmptyArraysPresent(t *testing.T) {
	env := newTestEnv(t, 0)

	raw, err := env.store.ExportJSON(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, typ := range entity.CollectionTypes {
		if string(fields[string(typ)]) != "[]" {
			t.Errorf("expected %s to be an empty array, got %s", typ, fields[string(typ)])
		}
	}
}

func TestImport_RejectsMalformedDocuments(t *testing.T) {
	valid := func(mutate func(map[string]interface{})) []byte {
		doc := map[string]interface{}{"version": 1}
		for _, typ := range entity.CollectionTypes {
			doc[string(typ)] = []interface{}{}
		}
		mutate(doc)
		raw, _ := json.Marshal(doc)
		return raw
	}

	tests := []struct {
		name string
		raw  []byte
		code domainerror.ImportErrorCode
	}{
		{"not json", []byte("{oops"), domainerror.ErrCodeMalformedDocument},
		{"array document", []byte("[]"), domainerror.ErrCodeMalformedDocument},
		{"missing tasks", valid(func(d map[string]interface{}) { delete(d, "tasks") }), domainerror.ErrCodeMissingCollection},
		{"tasks not array", valid(func(d map[string]interface{}) { d["tasks"] = "none" }), domainerror.ErrCodeMissingCollection},
		{"wrong version", valid(func(d map[string]interface{}) { d["version"] = 2 }), domainerror.ErrCodeUnsupportedVersion},
		{"missing version", valid(func(d map[string]interface{}) { delete(d, "version") }), domainerror.ErrCodeUnsupportedVersion},
		{"bad status", valid(func(d map[string]interface{}) {
			d["tasks"] = []interface{}{map[string]interface{}{"id": "t1", "title": "x", "status": "doing", "priority": "low"}}
		}), domainerror.ErrCodeInvalidRecord},
		{"duplicate id", valid(func(d map[string]interface{}) {
			task := map[string]interface{}{"id": "t1", "title": "x", "status": "todo", "priority": "low"}
			d["tasks"] = []interface{}{task, task}
		}), domainerror.ErrCodeInvalidRecord},
		{"bad achievement type", valid(func(d map[string]interface{}) {
			d["achievements"] = []interface{}{map[string]interface{}{"id": "a1", "title": "x", "type": "giant"}}
		}), domainerror.ErrCodeInvalidRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 0)
			ctx := context.Background()
			mustAddTask(t, env.store, "keep me")

			_, err := env.store.Import(ctx, tt.raw)
			if !errors.Is(err, domainerror.ErrInvalidImport) {
				t.Fatalf("expected ErrInvalidImport, got %v", err)
			}
			var importErr *domainerror.ImportError
			if !errors.As(err, &importErr) || importErr.Code != tt.code {
				t.Errorf("expected code %s, got %v", tt.code, err)
			}

			tasks, _ := env.store.GetTasks(ctx)
			if len(tasks) != 1 || tasks[0].Title != "keep me" {
				t.Errorf("expected data unchanged, got %+v", tasks)
			}
		})
	}
}

func TestImport_ReplacesAndTombstonesSyncedRecords(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	old := mustAddTask(t, env.store, "old")

	le, _ := localEntity(t, env.store, taskRef(old.ID))
	if _, err := env.store.ApplySync(ctx, SyncBatch{Pushed: []entity.VersionedEntity{le.Entity}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := map[string]interface{}{"version": 1}
	for _, typ := range entity.CollectionTypes {
		doc[string(typ)] = []interface{}{}
	}
	doc["tasks"] = []interface{}{map[string]interface{}{"id": "new-1", "title": "new", "status": "todo", "priority": "medium"}}
	raw, _ := json.Marshal(doc)

	summary, err := env.store.Import(ctx, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Removed != 1 {
		t.Errorf("expected 1 removed record, got %d", summary.Removed)
	}

	tasks, _ := env.store.GetTasks(ctx)
	if len(tasks) != 1 || tasks[0].ID != "new-1" {
		t.Errorf("expected only the imported task, got %+v", tasks)
	}
	tomb, ok := localEntity(t, env.store, taskRef(old.ID))
	if !ok || !tomb.Entity.Deleted || !tomb.Meta.Dirty {
		t.Errorf("expected a dirty tombstone for the replaced task, got %+v", tomb)
	}
}
