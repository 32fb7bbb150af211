// Package entity defines the core business entities for the domain layer.
package entity

// EntityType names a persisted collection. The value doubles as the key
// suffix in the local store and as the entity type on the sync wire.
type EntityType string

const (
	EntityTypeIdentity      EntityType = "identity"
	EntityTypeTask          EntityType = "tasks"
	EntityTypeHabit         EntityType = "habits"
	EntityTypeGoal          EntityType = "goals"
	EntityTypeLifeArea      EntityType = "lifeAreas"
	EntityTypeSkill         EntityType = "skills"
	EntityTypeAchievement   EntityType = "achievements"
	EntityTypeAccount       EntityType = "accounts"
	EntityTypeTransaction   EntityType = "transactions"
	EntityTypeFinancialGoal EntityType = "financialGoals"
	EntityTypeDailyReview   EntityType = "dailyReviews"
	EntityTypeStats         EntityType = "stats"
)

// CollectionTypes lists every list-shaped collection in a stable order.
var CollectionTypes = []EntityType{
	EntityTypeTask,
	EntityTypeHabit,
	EntityTypeGoal,
	EntityTypeLifeArea,
	EntityTypeSkill,
	EntityTypeAchievement,
	EntityTypeAccount,
	EntityTypeTransaction,
	EntityTypeFinancialGoal,
	EntityTypeDailyReview,
}

// SyncedTypes lists the entity types exchanged with the cloud store.
// Stats are a per-device cache and never leave the device.
var SyncedTypes = append([]EntityType{EntityTypeIdentity}, CollectionTypes...)

// IsValid reports whether the entity type is known.
func (t EntityType) IsValid() bool {
	if t == EntityTypeStats {
		return true
	}
	for _, s := range SyncedTypes {
		if s == t {
			return true
		}
	}
	return false
}

// IsSynced reports whether entities of this type take part in sync.
func (t EntityType) IsSynced() bool {
	return t != EntityTypeStats && t.IsValid()
}

// Record is implemented by every entity stored in a collection.
type Record interface {
	RecordID() string
}
