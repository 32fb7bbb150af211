package lifestore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/integration/persistence/kvstore"
)

const testNamespace = "lifeos:test"

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

type testEnv struct {
	store  *Store
	mr     *miniredis.Miniredis
	client *redis.Client
	clock  *fixedClock
}

func newTestEnv(t *testing.T, maxBytes int) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		mr:     mr,
		client: client,
		clock:  &fixedClock{now: time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC)},
	}
	env.store = env.open(t, testNamespace, "device-a", maxBytes)
	return env
}

func (e *testEnv) open(t *testing.T, namespace, deviceID string, maxBytes int) *Store {
	t.Helper()
	kv, err := kvstore.NewRedisStore(e.client, namespace, maxBytes)
	if err != nil {
		t.Fatalf("failed to create kv store: %v", err)
	}
	return New(kv, Options{DeviceID: deviceID, Clock: e.clock})
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func mustAddTask(t *testing.T, s *Store, title string) *entity.Task {
	t.Helper()
	task, err := s.AddTask(context.Background(), validation.TaskCreate{Title: title})
	if err != nil {
		t.Fatalf("failed to add task: %v", err)
	}
	return task
}

func TestAddTaskThenGet(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	added, err := env.store.AddTask(ctx, validation.TaskCreate{Title: "Write report", Priority: "high", Tags: []string{"work"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added.ID == "" || added.Status != entity.TaskStatusTodo {
		t.Fatalf("unexpected task %+v", added)
	}

	tasks, err := env.store.GetTasks(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != added.ID || tasks[0].Title != "Write report" {
		t.Errorf("expected the added task back, got %+v", tasks)
	}

	got, err := env.store.GetTask(ctx, added.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Priority != entity.TaskPriorityHigh {
		t.Errorf("expected high priority, got %s", got.Priority)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	env := newTestEnv(t, 0)

	_, err := env.store.GetTask(context.Background(), "missing")
	if !errors.Is(err, domainerror.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	var storeErr *domainerror.StoreError
	if !errors.As(err, &storeErr) || storeErr.Code != domainerror.ErrCodeRecordNotFound {
		t.Errorf("expected %s, got %v", domainerror.ErrCodeRecordNotFound, err)
	}
}

func TestAddTask_ValidationFailsWithoutWriting(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	_, err := env.store.AddTask(ctx, validation.TaskCreate{Duration: intPtr(2)})
	var verr *domainerror.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.For("title")) == 0 || len(verr.For("duration")) == 0 {
		t.Errorf("expected title and duration errors, got %+v", verr.Fields)
	}

	tasks, _ := env.store.GetTasks(ctx)
	if len(tasks) != 0 {
		t.Errorf("expected no task to be written, got %d", len(tasks))
	}
}

func TestAddTask_RejectsUnknownGoal(t *testing.T) {
	env := newTestEnv(t, 0)

	_, err := env.store.AddTask(context.Background(), validation.TaskCreate{
		Title:  "Orphan",
		GoalID: strPtr("6f1c1c8e-8a43-4c52-9c1f-2b1a3f0e9d11"),
	})
	var verr *domainerror.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if found := verr.For("goalId"); len(found) != 1 || found[0].Rule != "exists" {
		t.Errorf("expected goalId exists error, got %+v", verr.Fields)
	}
}

func TestDeleteTask_IsIdempotent(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	task := mustAddTask(t, env.store, "Temporary")

	for i := 0; i < 2; i++ {
		if err := env.store.DeleteTask(ctx, task.ID); err != nil {
			t.Fatalf("delete %d: unexpected error: %v", i, err)
		}
	}
	if err := env.store.DeleteTask(ctx, "never-existed"); err != nil {
		t.Fatalf("unexpected error deleting unknown id: %v", err)
	}

	tasks, _ := env.store.GetTasks(ctx)
	if len(tasks) != 0 {
		t.Errorf("expected empty collection, got %+v", tasks)
	}
}

func TestCompleteTask_PaysOnce(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	task, err := env.store.AddTask(ctx, validation.TaskCreate{Title: "Ship", Priority: "high"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := env.store.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Reward.XP != 50 || first.Reward.Coins != 10 {
		t.Errorf("expected 50 XP and 10 coins, got %+v", first.Reward)
	}
	if first.Task.CompletedAt == nil {
		t.Error("expected completedAt to be set")
	}

	if _, err := env.store.CompleteTask(ctx, task.ID); !errors.Is(err, domainerror.ErrTaskAlreadyCompleted) {
		t.Errorf("expected ErrTaskAlreadyCompleted, got %v", err)
	}

	if _, err := env.store.RestoreTask(ctx, task.ID); err != nil {
		t.Fatalf("unexpected restore error: %v", err)
	}
	again, err := env.store.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Reward.XP != 0 {
		t.Errorf("expected no second payout, got %+v", again.Reward)
	}

	stats, _ := env.store.GetStats(ctx)
	if stats.XP != 50 || stats.Coins != 10 || stats.TasksCompleted != 1 {
		t.Errorf("unexpected stats %+v", stats.Stats)
	}
}

func TestToggleHabit_DailyStreak(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	habit, err := env.store.AddHabit(ctx, validation.HabitCreate{Title: "Meditate", Frequency: "daily"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, date := range []string{"2026-03-10", "2026-03-11", "2026-03-12"} {
		res, err := env.store.ToggleHabit(ctx, habit.ID, validation.HabitToggle{Date: date})
		if err != nil {
			t.Fatalf("toggle %s: unexpected error: %v", date, err)
		}
		if !res.Completed {
			t.Errorf("toggle %s: expected completed", date)
		}
	}

	got, err := env.store.GetHabit(ctx, habit.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Streak != 3 || got.BestStreak != 3 || got.TotalCompletions != 3 {
		t.Errorf("expected streak 3/3/3, got %d/%d/%d", got.Streak, got.BestStreak, got.TotalCompletions)
	}

	stats, _ := env.store.GetStats(ctx)
	if stats.XP != 30 || stats.HabitsCompleted != 3 {
		t.Errorf("expected 30 XP over 3 completions, got %+v", stats.Stats)
	}
}

func TestToggleHabit_UntogglePaysNothingTwice(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	habit, _ := env.store.AddHabit(ctx, validation.HabitCreate{Title: "Stretch", Frequency: "daily"})

	for i := 0; i < 3; i++ {
		if _, err := env.store.ToggleHabit(ctx, habit.ID, validation.HabitToggle{}); err != nil {
			t.Fatalf("toggle %d: unexpected error: %v", i, err)
		}
	}

	stats, _ := env.store.GetStats(ctx)
	if stats.XP != 10 {
		t.Errorf("expected a single payout of 10 XP, got %d", stats.XP)
	}
}

func TestToggleHabit_RejectsFutureDate(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	habit, _ := env.store.AddHabit(ctx, validation.HabitCreate{Title: "Run", Frequency: "daily"})

	_, err := env.store.ToggleHabit(ctx, habit.ID, validation.HabitToggle{Date: "2026-03-13"})
	if !errors.Is(err, domainerror.ErrFutureDate) {
		t.Errorf("expected ErrFutureDate, got %v", err)
	}
}

func TestUpdateGoalProgress_CompletesGoal(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	goal, err := env.store.AddGoal(ctx, validation.GoalCreate{Title: "Marathon"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := env.store.UpdateGoalProgress(ctx, goal.ID, validation.GoalProgress{Progress: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Goal.Status != entity.GoalStatusCompleted || res.Goal.CompletedAt == nil {
		t.Errorf("expected completed goal with completedAt, got %+v", res.Goal)
	}
	if res.Reward.XP != 200 || res.Reward.Coins != 50 {
		t.Errorf("expected 200 XP and 50 coins, got %+v", res.Reward)
	}

	stats, _ := env.store.GetStats(ctx)
	if stats.GoalsCompleted != 1 {
		t.Errorf("expected 1 goal completed, got %d", stats.GoalsCompleted)
	}
}

func TestToggleMilestone_DrivesProgress(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	goal, _ := env.store.AddGoal(ctx, validation.GoalCreate{
		Title:      "Book",
		Milestones: []validation.MilestoneInput{{Title: "Outline"}, {Title: "Draft"}},
	})

	res, err := env.store.ToggleMilestone(ctx, goal.ID, goal.Milestones[0].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Goal.Progress != 50 || res.Goal.Status != entity.GoalStatusActive {
		t.Errorf("expected 50%% active, got %d%% %s", res.Goal.Progress, res.Goal.Status)
	}

	res, _ = env.store.ToggleMilestone(ctx, goal.ID, goal.Milestones[1].ID)
	if res.Goal.Status != entity.GoalStatusCompleted {
		t.Errorf("expected completed goal, got %s", res.Goal.Status)
	}

	if _, err := env.store.ToggleMilestone(ctx, goal.ID, "nope"); !errors.Is(err, domainerror.ErrMilestoneNotFound) {
		t.Errorf("expected ErrMilestoneNotFound, got %v", err)
	}
}

func TestDeleteGoal_NullifiesTaskLinks(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	goal, _ := env.store.AddGoal(ctx, validation.GoalCreate{Title: "Launch"})
	task, err := env.store.AddTask(ctx, validation.TaskCreate{Title: "Landing page", GoalID: &goal.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := env.store.DeleteGoal(ctx, goal.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := env.store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.GoalID != nil {
		t.Errorf("expected goal link to be cleared, got %v", *got.GoalID)
	}

	state, _ := env.store.SyncState(ctx)
	if le := state.Entities[entity.EntityRef{Type: entity.EntityTypeTask, ID: task.ID}.Key()]; le.Meta.Version != 2 {
		t.Errorf("expected the referrer to be versioned again, got version %d", le.Meta.Version)
	}
}

func TestAccounts_BalanceFollowsTransactions(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	account, err := env.store.AddAccount(ctx, validation.AccountCreate{
		Name: "Main", Type: "checking", Currency: "EUR", Balance: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := env.store.SyncState(ctx)
	accountVersion := before.Entities[entity.EntityRef{Type: entity.EntityTypeAccount, ID: account.ID}.Key()].Meta.Version

	tr, err := env.store.AddTransaction(ctx, validation.TransactionCreate{
		AccountID: &account.ID, Amount: decimal.RequireFromString("30.50"), Type: "expense", Category: "food", Date: "2026-03-12",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := env.store.GetAccount(ctx, account.ID)
	if !got.Balance.Equal(decimal.RequireFromString("69.50")) {
		t.Errorf("expected 69.50 after expense, got %s", got.Balance)
	}

	after, _ := env.store.SyncState(ctx)
	if v := after.Entities[entity.EntityRef{Type: entity.EntityTypeAccount, ID: account.ID}.Key()].Meta.Version; v != accountVersion {
		t.Errorf("expected the account record untouched by a transaction, version %d -> %d", accountVersion, v)
	}

	income := "income"
	if _, err := env.store.UpdateTransaction(ctx, tr.ID, validation.TransactionUpdate{Type: &income}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	accounts, _ := env.store.GetAccounts(ctx)
	if len(accounts) != 1 || !accounts[0].Balance.Equal(decimal.RequireFromString("130.50")) {
		t.Errorf("expected 130.50 after turning the expense into income, got %+v", accounts)
	}

	// setting the balance moves the opening balance
	target := decimal.NewFromInt(200)
	updated, err := env.store.UpdateAccount(ctx, account.ID, validation.AccountUpdate{Balance: &target})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Balance.Equal(target) || !updated.OpeningBalance.Equal(decimal.RequireFromString("169.50")) {
		t.Errorf("expected balance 200 over opening 169.50, got %s over %s", updated.Balance, updated.OpeningBalance)
	}

	if err := env.store.DeleteTransaction(ctx, tr.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = env.store.GetAccount(ctx, account.ID)
	if !got.Balance.Equal(decimal.RequireFromString("169.50")) {
		t.Errorf("expected the opening balance after delete, got %s", got.Balance)
	}
}

func TestSubmitDailyReview_OncePerDate(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	in := validation.DailyReviewCreate{Date: "2026-03-12", Mood: 4, Energy: 3}

	res, err := env.store.SubmitDailyReview(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Reward.XP != 50 || res.Reward.Coins != 10 {
		t.Errorf("expected 50 XP and 10 coins, got %+v", res.Reward)
	}
	if _, err := env.store.SubmitDailyReview(ctx, in); !errors.Is(err, domainerror.ErrReviewAlreadySubmitted) {
		t.Errorf("expected ErrReviewAlreadySubmitted, got %v", err)
	}

	// deleting and resubmitting does not pay again
	if err := env.store.DeleteDailyReview(ctx, res.Review.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := env.store.SubmitDailyReview(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Reward.XP != 0 {
		t.Errorf("expected no second payout, got %+v", again.Reward)
	}
}

func TestSpendCoins_Insufficient(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	if _, err := env.store.AddCoins(ctx, validation.CoinAmount{Amount: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.store.SpendCoins(ctx, validation.CoinAmount{Amount: 6}); !errors.Is(err, domainerror.ErrInsufficientCoins) {
		t.Errorf("expected ErrInsufficientCoins, got %v", err)
	}
	stats, err := env.store.SpendCoins(ctx, validation.CoinAmount{Amount: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Coins != 0 || stats.CoinsSpent != 5 {
		t.Errorf("unexpected stats %+v", stats.Stats)
	}
}

func TestGetIdentity_CreatesDefault(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	id, err := env.store.GetIdentity(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.ID != entity.IdentityID || id.Name == "" {
		t.Errorf("unexpected default identity %+v", id)
	}

	updated, err := env.store.UpdateIdentity(ctx, validation.IdentityUpdate{Vision: strPtr("Live well")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Vision != "Live well" || updated.Name != id.Name {
		t.Errorf("unexpected identity %+v", updated)
	}
}

func TestQuotaExceeded_LeavesDataUnchanged(t *testing.T) {
	env := newTestEnv(t, 400)
	ctx := context.Background()
	mustAddTask(t, env.store, "small")

	_, err := env.store.AddTask(ctx, validation.TaskCreate{Title: "big", Description: strings.Repeat("x", 1000)})
	if !errors.Is(err, domainerror.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	tasks, _ := env.store.GetTasks(ctx)
	if len(tasks) != 1 || tasks[0].Title != "small" {
		t.Errorf("expected only the first task, got %+v", tasks)
	}
}

func TestCorruptDocument_ReadsEmptyAndReports(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	if err := env.mr.Set(testNamespace+"_tasks", "{not json"); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	tasks, err := env.store.GetTasks(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected empty collection, got %+v", tasks)
	}

	diags := env.store.Diagnostics()
	if len(diags) != 1 || diags[0].Key != "tasks" || diags[0].Error == "" {
		t.Errorf("expected one diagnostic for tasks, got %+v", diags)
	}

	// the next write replaces the unreadable document
	mustAddTask(t, env.store, "fresh")
	tasks, _ = env.store.GetTasks(ctx)
	if len(tasks) != 1 {
		t.Errorf("expected one task after rewrite, got %d", len(tasks))
	}
}

func TestSubscribe_OneEventPerCommit(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	task := mustAddTask(t, env.store, "Observe")

	var events []ChangeEvent
	unsubscribe := env.store.Subscribe(func(ev ChangeEvent) { events = append(events, ev) })

	if _, err := env.store.CompleteTask(ctx, task.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	ev := events[0]
	if ev.Source != SourceLocal || ev.Namespace != testNamespace {
		t.Errorf("unexpected event %+v", ev)
	}
	want := []entity.EntityType{entity.EntityTypeStats, entity.EntityTypeTask}
	if len(ev.Collections) != 2 || ev.Collections[0] != want[0] || ev.Collections[1] != want[1] {
		t.Errorf("expected collections %v, got %v", want, ev.Collections)
	}

	// reads and failed writes stay silent
	_, _ = env.store.GetTasks(ctx)
	_, _ = env.store.CompleteTask(ctx, task.ID)
	if len(events) != 1 {
		t.Errorf("expected no further events, got %d", len(events))
	}

	unsubscribe()
	mustAddTask(t, env.store, "Unobserved")
	if len(events) != 1 {
		t.Errorf("expected no events after unsubscribe, got %d", len(events))
	}
}

func TestClear_OnlyTouchesNamespace(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	other := env.open(t, "lifeos:other", "device-a", 0)

	mustAddTask(t, env.store, "mine")
	mustAddTask(t, other, "theirs")

	var events []ChangeEvent
	env.store.Subscribe(func(ev ChangeEvent) { events = append(events, ev) })

	if err := env.store.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tasks, _ := env.store.GetTasks(ctx); len(tasks) != 0 {
		t.Errorf("expected cleared namespace, got %+v", tasks)
	}
	if tasks, _ := other.GetTasks(ctx); len(tasks) != 1 {
		t.Errorf("expected other namespace untouched, got %+v", tasks)
	}
	if len(events) != 1 || events[0].Source != SourceClear {
		t.Errorf("expected one clear event, got %+v", events)
	}
}

func TestClosedStore_FailsFast(t *testing.T) {
	env := newTestEnv(t, 0)
	env.store.Close()

	_, err := env.store.GetTasks(context.Background())
	if !errors.Is(err, domainerror.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}

func TestManager_ReusesHandles(t *testing.T) {
	env := newTestEnv(t, 0)
	m := NewManager(func(namespace string) (adapter.KeyValueStore, error) {
		return kvstore.NewRedisStore(env.client, namespace, 0)
	}, Options{Clock: env.clock})

	a, err := m.Open("lifeos:u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := m.Open("lifeos:u1")
	if a != b {
		t.Error("expected the same handle for the same namespace")
	}

	mustAddTask(t, a, "kept")
	m.Dispose("lifeos:u1")
	if _, err := a.GetTasks(context.Background()); !errors.Is(err, domainerror.ErrStoreClosed) {
		t.Errorf("expected disposed handle to be closed, got %v", err)
	}

	c, _ := m.Open("lifeos:u1")
	if tasks, _ := c.GetTasks(context.Background()); len(tasks) != 1 {
		t.Errorf("expected data to survive dispose, got %d tasks", len(tasks))
	}

	if _, err := m.Open("bad_namespace"); !errors.Is(err, kvstore.ErrInvalidNamespace) {
		t.Errorf("expected ErrInvalidNamespace, got %v", err)
	}
}
