package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/integration/persistence/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get connection: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&model.UserModel{}, &model.RefreshTokenModel{}, &model.SyncRecordModel{}, &model.SyncCounterModel{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func taskVersion(id string, version int, title string) entity.VersionedEntity {
	return entity.VersionedEntity{
		EntityType:  entity.EntityTypeTask,
		ID:          id,
		Data:        json.RawMessage(`{"id":"` + id + `","title":"` + title + `"}`),
		Version:     version,
		BaseVersion: version - 1,
		DeviceID:    "laptop",
		ModifiedAt:  time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC),
	}
}

func fromDevice(e entity.VersionedEntity, device string, base int) entity.VersionedEntity {
	e.DeviceID = device
	e.BaseVersion = base
	return e
}

func TestSyncRecordRepository_SaveIfCurrent(t *testing.T) {
	repo := NewSyncRecordRepository(newTestDB(t))
	ctx := context.Background()
	user := uuid.New()

	tests := []struct {
		name         string
		entity       entity.VersionedEntity
		wantAccepted bool
		wantCurrent  int
	}{
		{"first write", taskVersion("t1", 1, "a"), true, 0},
		{"edit of the stored copy", fromDevice(taskVersion("t1", 3, "b"), "laptop", 1), true, 0},
		{"repeat by the writer", fromDevice(taskVersion("t1", 3, "b"), "laptop", 1), true, 0},
		{"same version from another device", fromDevice(taskVersion("t1", 3, "c"), "phone", 1), false, 3},
		{"older version", taskVersion("t1", 2, "d"), false, 3},
		{"higher version on a stale base", fromDevice(taskVersion("t1", 7, "e"), "phone", 1), false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accepted, current, err := repo.SaveIfCurrent(ctx, user, tt.entity)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if accepted != tt.wantAccepted {
				t.Errorf("expected accepted=%v, got %v", tt.wantAccepted, accepted)
			}
			if tt.wantCurrent > 0 && (current == nil || current.Version != tt.wantCurrent) {
				t.Errorf("expected current version %d, got %+v", tt.wantCurrent, current)
			}
		})
	}

	stored, err := repo.Find(ctx, user, entity.EntityRef{Type: entity.EntityTypeTask, ID: "t1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var data map[string]string
	if err := json.Unmarshal(stored.Data, &data); err != nil || data["title"] != "b" {
		t.Errorf("expected stored title b, got %s", stored.Data)
	}
}

func TestSyncRecordRepository_ChangeFeed(t *testing.T) {
	repo := NewSyncRecordRepository(newTestDB(t))
	ctx := context.Background()
	user, other := uuid.New(), uuid.New()

	for _, e := range []entity.VersionedEntity{taskVersion("t1", 1, "a"), taskVersion("t2", 1, "b"), taskVersion("t1", 2, "c")} {
		if _, _, err := repo.SaveIfCurrent(ctx, user, e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, _, err := repo.SaveIfCurrent(ctx, other, taskVersion("t9", 1, "x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	changes, err := repo.FindChangesSince(ctx, user, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].Entity.ID != "t2" || changes[1].Entity.ID != "t1" || changes[1].Entity.Version != 2 {
		t.Errorf("expected feed ordered by last change, got %+v", changes)
	}

	later, _ := repo.FindChangesSince(ctx, user, changes[0].Seq, 10)
	if len(later) != 1 || later[0].Entity.ID != "t1" {
		t.Errorf("expected only t1 after first seq, got %+v", later)
	}

	limited, _ := repo.FindChangesSince(ctx, user, 0, 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestSyncRecordRepository_TombstoneKeepsRow(t *testing.T) {
	repo := NewSyncRecordRepository(newTestDB(t))
	ctx := context.Background()
	user := uuid.New()

	_, _, _ = repo.SaveIfCurrent(ctx, user, taskVersion("t1", 1, "a"))
	tomb := taskVersion("t1", 2, "")
	tomb.Deleted = true
	if accepted, _, err := repo.SaveIfCurrent(ctx, user, tomb); err != nil || !accepted {
		t.Fatalf("expected tombstone accepted, got %v (%v)", accepted, err)
	}

	stored, err := repo.Find(ctx, user, tomb.Ref())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.Deleted || stored.Data != nil {
		t.Errorf("expected tombstone without payload, got %+v", stored)
	}
}

func TestSyncRecordRepository_DeleteByUser(t *testing.T) {
	repo := NewSyncRecordRepository(newTestDB(t))
	ctx := context.Background()
	user := uuid.New()

	_, _, _ = repo.SaveIfCurrent(ctx, user, taskVersion("t1", 1, "a"))
	if err := repo.DeleteByUser(ctx, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.Find(ctx, user, entity.EntityRef{Type: entity.EntityTypeTask, ID: "t1"}); !errors.Is(err, domainerror.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
	changes, _ := repo.FindChangesSince(ctx, user, 0, 10)
	if len(changes) != 0 {
		t.Errorf("expected empty feed, got %d", len(changes))
	}
}

func TestUserRepository_CreateFindDelete(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	tokens := NewTokenRepository(db)
	ctx := context.Background()

	user := entity.NewUser("ada@example.com", "Ada", "hash")
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exists, err := users.ExistsByEmail(ctx, "ada@example.com")
	if err != nil || !exists {
		t.Errorf("expected user to exist, got %v (%v)", exists, err)
	}
	if err := tokens.SaveRefreshToken(ctx, "refresh", user.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := users.Delete(ctx, user.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := users.FindByID(ctx, user.ID); !errors.Is(err, domainerror.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if valid, _ := tokens.IsRefreshTokenValid(ctx, "refresh"); valid {
		t.Error("expected refresh token removed with the user")
	}
}
