package lifestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/domain/progression"
)

// ExportVersion is the document version written by Export and accepted by Import.
const ExportVersion = 1

// ExportDocument is the full backup of one namespace.
type ExportDocument struct {
	Version        int                    `json:"version"`
	ExportDate     time.Time              `json:"exportDate"`
	Identity       *entity.Identity       `json:"identity"`
	Stats          *entity.Stats          `json:"stats"`
	Tasks          []entity.Task          `json:"tasks"`
	Habits         []entity.Habit         `json:"habits"`
	Goals          []entity.Goal          `json:"goals"`
	LifeAreas      []entity.LifeArea      `json:"lifeAreas"`
	Skills         []entity.Skill         `json:"skills"`
	Achievements   []entity.Achievement   `json:"achievements"`
	Accounts       []entity.Account       `json:"accounts"`
	Transactions   []entity.Transaction   `json:"transactions"`
	FinancialGoals []entity.FinancialGoal `json:"financialGoals"`
	DailyReviews   []entity.DailyReview   `json:"dailyReviews"`
}

// ImportSummary counts the records written by an import.
type ImportSummary struct {
	Records map[entity.EntityType]int `json:"records"`
	Removed int                       `json:"removed"`
}

// Export returns every collection of the namespace. Arrays are never nil.
func (s *Store) Export(ctx context.Context) (*ExportDocument, error) {
	var doc *ExportDocument
	err := s.view(ctx, func(t *tx) error {
		identity := t.identity()
		if identity == nil {
			identity = entity.NewIdentity(t.now)
		}
		doc = &ExportDocument{
			Version:        ExportVersion,
			ExportDate:     t.now,
			Identity:       identity,
			Stats:          t.stats(),
			Tasks:          list[entity.Task](t, entity.EntityTypeTask),
			Habits:         list[entity.Habit](t, entity.EntityTypeHabit),
			Goals:          list[entity.Goal](t, entity.EntityTypeGoal),
			LifeAreas:      list[entity.LifeArea](t, entity.EntityTypeLifeArea),
			Skills:         list[entity.Skill](t, entity.EntityTypeSkill),
			Achievements:   list[entity.Achievement](t, entity.EntityTypeAchievement),
			Accounts:       t.accounts(),
			Transactions:   list[entity.Transaction](t, entity.EntityTypeTransaction),
			FinancialGoals: list[entity.FinancialGoal](t, entity.EntityTypeFinancialGoal),
			DailyReviews:   list[entity.DailyReview](t, entity.EntityTypeDailyReview),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ExportJSON returns the export document encoded as indented JSON.
func (s *Store) ExportJSON(ctx context.Context) ([]byte, error) {
	doc, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, domainerror.NewStoreError(domainerror.ErrCodeSerialization, "failed to encode export", err)
	}
	return out, nil
}

// Import replaces every collection with the content of raw in one commit.
// Imported entities become local changes to push; entities missing from the
// document are deleted. A rejected document leaves the namespace untouched.
func (s *Store) Import(ctx context.Context, raw []byte) (*ImportSummary, error) {
	doc, err := ParseExport(raw)
	if err != nil {
		return nil, err
	}

	var summary ImportSummary
	err = s.mutate(ctx, SourceImport, func(t *tx) error {
		summary = ImportSummary{Records: make(map[entity.EntityType]int)}
		today := t.localNow()

		for i := range doc.Habits {
			normalizeHabit(&doc.Habits[i], today)
		}
		for i := range doc.Goals {
			progression.NormalizeGoal(&doc.Goals[i], t.now)
		}
		// the exported balance is authoritative, documents may predate openingBalance
		for i := range doc.Accounts {
			doc.Accounts[i].SetBalance(doc.Accounts[i].Balance, doc.Transactions)
		}

		summary.Removed += replaceAll(t, entity.EntityTypeTask, doc.Tasks)
		summary.Removed += replaceAll(t, entity.EntityTypeHabit, doc.Habits)
		summary.Removed += replaceAll(t, entity.EntityTypeGoal, doc.Goals)
		summary.Removed += replaceAll(t, entity.EntityTypeLifeArea, doc.LifeAreas)
		summary.Removed += replaceAll(t, entity.EntityTypeSkill, doc.Skills)
		summary.Removed += replaceAll(t, entity.EntityTypeAchievement, doc.Achievements)
		summary.Removed += replaceAll(t, entity.EntityTypeAccount, doc.Accounts)
		summary.Removed += replaceAll(t, entity.EntityTypeTransaction, doc.Transactions)
		summary.Removed += replaceAll(t, entity.EntityTypeFinancialGoal, doc.FinancialGoals)
		summary.Removed += replaceAll(t, entity.EntityTypeDailyReview, doc.DailyReviews)

		summary.Records[entity.EntityTypeTask] = len(doc.Tasks)
		summary.Records[entity.EntityTypeHabit] = len(doc.Habits)
		summary.Records[entity.EntityTypeGoal] = len(doc.Goals)
		summary.Records[entity.EntityTypeLifeArea] = len(doc.LifeAreas)
		summary.Records[entity.EntityTypeSkill] = len(doc.Skills)
		summary.Records[entity.EntityTypeAchievement] = len(doc.Achievements)
		summary.Records[entity.EntityTypeAccount] = len(doc.Accounts)
		summary.Records[entity.EntityTypeTransaction] = len(doc.Transactions)
		summary.Records[entity.EntityTypeFinancialGoal] = len(doc.FinancialGoals)
		summary.Records[entity.EntityTypeDailyReview] = len(doc.DailyReviews)

		if doc.Identity != nil {
			identity := *doc.Identity
			identity.ID = entity.IdentityID
			t.setIdentity(&identity)
			t.touch(entity.EntityTypeIdentity, entity.IdentityID, false)
			summary.Records[entity.EntityTypeIdentity] = 1
		}
		if doc.Stats != nil {
			t.cache[keyStats] = doc.Stats
			t.statsChanged()
		}

		// conflicts referred to copies that no longer exist locally
		if len(t.conflictList()) > 0 {
			t.setConflicts([]entity.Conflict{})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("import committed", "removed", summary.Removed, "records", summary.Records)
	return &summary, nil
}

// ParseExport decodes and checks an export document without touching any store.
func ParseExport(raw []byte) (*ExportDocument, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, domainerror.NewImportError(domainerror.ErrCodeMalformedDocument, "document is not a JSON object")
	}

	var version int
	if err := json.Unmarshal(fields["version"], &version); err != nil || version != ExportVersion {
		return nil, domainerror.NewImportError(
			domainerror.ErrCodeUnsupportedVersion,
			fmt.Sprintf("unsupported export version %s", string(fields["version"])),
		)
	}

	for _, typ := range entity.CollectionTypes {
		value, ok := fields[string(typ)]
		if !ok {
			return nil, domainerror.NewImportError(domainerror.ErrCodeMissingCollection, fmt.Sprintf("missing %q array", typ))
		}
		if !bytes.HasPrefix(bytes.TrimSpace(value), []byte("[")) {
			return nil, domainerror.NewImportError(domainerror.ErrCodeMissingCollection, fmt.Sprintf("%q must be an array", typ))
		}
	}

	var doc ExportDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domainerror.NewImportError(domainerror.ErrCodeMalformedDocument, "document does not match the export format: "+err.Error())
	}

	checks := []error{
		checkRecords(entity.EntityTypeTask, doc.Tasks, func(r entity.Task) string {
			switch {
			case r.Title == "":
				return "title is required"
			case !oneOf(r.Status, entity.TaskStatusTodo, entity.TaskStatusCompleted, entity.TaskStatusCancelled):
				return "unknown status " + string(r.Status)
			case !oneOf(r.Priority, entity.TaskPriorityLow, entity.TaskPriorityMedium, entity.TaskPriorityHigh, entity.TaskPriorityCritical):
				return "unknown priority " + string(r.Priority)
			}
			return ""
		}),
		checkRecords(entity.EntityTypeHabit, doc.Habits, func(r entity.Habit) string {
			if !oneOf(r.Frequency, entity.HabitFrequencyDaily, entity.HabitFrequencyWeekly, entity.HabitFrequencyCustom) {
				return "unknown frequency " + string(r.Frequency)
			}
			for _, d := range r.TargetDays {
				if d < 0 || d > 6 {
					return fmt.Sprintf("target day %d out of range", d)
				}
			}
			return ""
		}),
		checkRecords(entity.EntityTypeGoal, doc.Goals, func(r entity.Goal) string {
			switch {
			case !oneOf(r.Type, entity.GoalTypeOutcome, entity.GoalTypeProcess):
				return "unknown type " + string(r.Type)
			case !oneOf(r.Status, entity.GoalStatusActive, entity.GoalStatusCompleted, entity.GoalStatusPaused, entity.GoalStatusArchived):
				return "unknown status " + string(r.Status)
			case r.Progress < 0 || r.Progress > 100:
				return fmt.Sprintf("progress %d out of range", r.Progress)
			}
			return ""
		}),
		checkRecords(entity.EntityTypeLifeArea, doc.LifeAreas, func(r entity.LifeArea) string {
			if r.CurrentLevel < 1 || r.CurrentLevel > 10 || r.TargetLevel < 1 || r.TargetLevel > 10 {
				return "levels must be between 1 and 10"
			}
			return ""
		}),
		checkRecords(entity.EntityTypeSkill, doc.Skills, func(r entity.Skill) string {
			if r.Level < 1 {
				return "level must be at least 1"
			}
			return ""
		}),
		checkRecords(entity.EntityTypeAchievement, doc.Achievements, func(r entity.Achievement) string {
			if !oneOf(r.Type, entity.AchievementTypeMicro, entity.AchievementTypeMacro, entity.AchievementTypeBreakthrough, entity.AchievementTypeMoment) {
				return "unknown type " + string(r.Type)
			}
			return ""
		}),
		checkRecords(entity.EntityTypeAccount, doc.Accounts, func(r entity.Account) string {
			if !oneOf(r.Type, entity.AccountTypeChecking, entity.AccountTypeSavings, entity.AccountTypeCredit, entity.AccountTypeInvestment, entity.AccountTypeCash) {
				return "unknown type " + string(r.Type)
			}
			return ""
		}),
		checkRecords(entity.EntityTypeTransaction, doc.Transactions, func(r entity.Transaction) string {
			switch {
			case !oneOf(r.Type, entity.TransactionTypeExpense, entity.TransactionTypeIncome):
				return "unknown type " + string(r.Type)
			case !r.Amount.IsPositive():
				return "amount must be positive"
			}
			return ""
		}),
		checkRecords(entity.EntityTypeFinancialGoal, doc.FinancialGoals, func(r entity.FinancialGoal) string {
			if !r.TargetAmount.IsPositive() {
				return "target amount must be positive"
			}
			return ""
		}),
		checkRecords(entity.EntityTypeDailyReview, doc.DailyReviews, func(r entity.DailyReview) string {
			switch {
			case r.Date == "":
				return "date is required"
			case r.Mood < 1 || r.Mood > 5 || r.Energy < 1 || r.Energy > 5:
				return "mood and energy must be between 1 and 5"
			}
			return ""
		}),
	}
	for _, err := range checks {
		if err != nil {
			return nil, err
		}
	}
	return &doc, nil
}

func checkRecords[T entity.Record](typ entity.EntityType, items []T, check func(T) string) error {
	seen := make(map[string]bool, len(items))
	for i, rec := range items {
		id := rec.RecordID()
		if id == "" {
			return invalidRecord(typ, i, "id is required")
		}
		if seen[id] {
			return invalidRecord(typ, i, "duplicate id "+id)
		}
		seen[id] = true
		if msg := check(rec); msg != "" {
			return invalidRecord(typ, i, msg)
		}
	}
	return nil
}

func invalidRecord(typ entity.EntityType, index int, msg string) error {
	return domainerror.NewImportError(domainerror.ErrCodeInvalidRecord, fmt.Sprintf("%s[%d]: %s", typ, index, msg))
}

func oneOf[T comparable](v T, allowed ...T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// replaceAll swaps the collection of typ for items, versioning every imported
// record and deleting the ones that disappeared. It returns the number removed.
func replaceAll[T entity.Record](t *tx, typ entity.EntityType, items []T) int {
	keep := make(map[string]bool, len(items))
	for _, rec := range items {
		keep[rec.RecordID()] = true
	}
	removed := 0
	for _, rec := range list[T](t, typ) {
		if !keep[rec.RecordID()] {
			t.touch(typ, rec.RecordID(), true)
			removed++
		}
	}
	if items == nil {
		items = []T{}
	}
	setList(t, typ, items)
	for _, rec := range items {
		t.touch(typ, rec.RecordID(), false)
	}
	return removed
}
