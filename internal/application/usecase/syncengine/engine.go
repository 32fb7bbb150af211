// Package syncengine reconciles a local entity store with a remote copy:
// pull, classify, merge and push, plus conflict resolution.
package syncengine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/application/usecase/lifestore"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

// State is the sync status of an engine.
type State string

const (
	StateIdle     State = "idle"
	StateSyncing  State = "syncing"
	StateError    State = "error"
	StateOffline  State = "offline"
	StateConflict State = "conflict"
)

// maxPullPages bounds one cycle against a remote that keeps reporting more.
const maxPullPages = 1000

// LocalStore is the part of the entity store the engine works on.
type LocalStore interface {
	Namespace() string
	DeviceID() string
	SyncState(ctx context.Context) (*lifestore.SyncState, error)
	ApplySync(ctx context.Context, b lifestore.SyncBatch) (*lifestore.ApplyReport, error)
	Conflicts(ctx context.Context) ([]entity.Conflict, error)
	SettleConflicts(ctx context.Context, resolutions []lifestore.Resolution) error
}

// Options configures an Engine.
type Options struct {
	// Interval between cycles of Run. Defaults to one minute.
	Interval time.Duration
	// AutoResume runs a cycle as soon as an offline remote answers again.
	AutoResume bool
	// Policies overrides merge policies per entity type.
	Policies map[entity.EntityType]MergePolicy
	Clock    adapter.Clock
	Logger   *slog.Logger
}

// Report summarises one sync cycle.
type Report struct {
	Pulled     int       `json:"pulled"`
	Adopted    int       `json:"adopted"`
	Pushed     int       `json:"pushed"`
	Rejected   int       `json:"rejected"`
	Conflicts  int       `json:"conflicts"`
	State      State     `json:"state"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Status is a snapshot of the engine and the pending local work.
type Status struct {
	State      State      `json:"state"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
	Pending    int        `json:"pending"`
	Conflicts  int        `json:"conflicts"`
}

// Engine syncs one store against one remote. Cycles are single-flight.
type Engine struct {
	store      LocalStore
	remote     adapter.SyncRemote
	interval   time.Duration
	autoResume bool
	policies   map[entity.EntityType]MergePolicy
	clock      adapter.Clock
	logger     *slog.Logger

	flight singleflight.Group

	mu         sync.RWMutex
	state      State
	lastSyncAt *time.Time
	lastErr    error
	blocked    bool
}

// New creates an engine.
func New(store LocalStore, remote adapter.SyncRemote, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = adapter.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	policies := DefaultPolicies()
	for typ, p := range opts.Policies {
		policies[typ] = p
	}
	return &Engine{
		store:      store,
		remote:     remote,
		interval:   opts.Interval,
		autoResume: opts.AutoResume,
		policies:   policies,
		clock:      opts.Clock,
		logger:     opts.Logger.With("namespace", store.Namespace()),
		state:      StateIdle,
	}
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Status returns the state together with pending and conflict counts.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	st, err := e.store.SyncState(ctx)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := &Status{
		State:      e.state,
		LastSyncAt: e.lastSyncAt,
		Pending:    st.Pending(),
		Conflicts:  len(st.Conflicts),
	}
	if e.lastErr != nil {
		out.LastError = e.lastErr.Error()
	}
	return out, nil
}

// Sync runs one pull/push cycle. Concurrent calls share the running cycle.
// An authorization failure blocks further cycles until Reauthorize.
func (e *Engine) Sync(ctx context.Context) (*Report, error) {
	e.mu.RLock()
	blocked, lastErr := e.blocked, e.lastErr
	e.mu.RUnlock()
	if blocked {
		return nil, lastErr
	}

	v, err, _ := e.flight.Do(e.store.Namespace(), func() (interface{}, error) {
		return e.cycle(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Report), nil
}

// Reauthorize lifts the block left by an authorization failure.
func (e *Engine) Reauthorize() {
	e.mu.Lock()
	e.blocked = false
	e.lastErr = nil
	e.mu.Unlock()
	e.setState(StateIdle)
}

// Run syncs every interval until ctx is done. While offline it only pings
// the remote, and resumes with a full cycle when AutoResume is set.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	e.mu.RLock()
	state, blocked := e.state, e.blocked
	e.mu.RUnlock()

	if blocked {
		return
	}
	if state == StateOffline {
		if err := e.remote.Ping(ctx); err != nil {
			e.logger.Debug("remote still unreachable", "error", err)
			return
		}
		if !e.autoResume {
			e.setState(StateIdle)
			return
		}
		e.logger.Info("remote reachable again, resuming sync")
	}
	if _, err := e.Sync(ctx); err != nil && !errors.Is(err, domainerror.ErrSyncOffline) {
		e.logger.Error("sync cycle failed", "error", err)
	}
}

func (e *Engine) cycle(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: e.clock.Now().UTC()}
	e.setState(StateSyncing)

	if err := e.pull(ctx, report); err != nil {
		return nil, e.fail(err)
	}
	if err := e.push(ctx, report); err != nil {
		return nil, e.fail(err)
	}

	conflicts, err := e.store.Conflicts(ctx)
	if err != nil {
		return nil, e.fail(err)
	}
	report.State = StateIdle
	if len(conflicts) > 0 {
		report.State = StateConflict
	}
	report.FinishedAt = e.clock.Now().UTC()

	e.mu.Lock()
	finished := report.FinishedAt
	e.lastSyncAt = &finished
	e.lastErr = nil
	e.mu.Unlock()
	e.setState(report.State)

	e.logger.Info("sync cycle finished",
		"pulled", report.Pulled,
		"adopted", report.Adopted,
		"pushed", report.Pushed,
		"rejected", report.Rejected,
		"conflicts", report.Conflicts,
	)
	return report, nil
}

// pull fetches every remote change after the stored token and commits each
// page in one batch.
func (e *Engine) pull(ctx context.Context, report *Report) error {
	for page := 0; page < maxPullPages; page++ {
		local, err := e.store.SyncState(ctx)
		if err != nil {
			return err
		}
		res, err := e.remote.Pull(ctx, local.Token)
		if err != nil {
			return err
		}
		report.Pulled += len(res.Entities)

		batch := lifestore.SyncBatch{Token: &res.Token}
		now := e.clock.Now().UTC()
		for _, remote := range res.Entities {
			var current *lifestore.LocalEntity
			if le, ok := local.Entities[remote.Ref().Key()]; ok {
				current = &le
			}
			d := classify(current, remote)
			switch d.action {
			case actionAdopt:
				a := lifestore.Adoption{Remote: remote}
				if current != nil {
					a.LocalVersion = current.Meta.Version
				}
				batch.Adopt = append(batch.Adopt, a)
			case actionConflict:
				c := entity.NewConflict(d.conflictType, current.Entity, remote, now)
				batch.Conflicts = append(batch.Conflicts, c)
				e.logger.Warn("sync conflict detected",
					"entity_type", remote.EntityType,
					"entity_id", remote.ID,
					"conflict_type", d.conflictType,
				)
			}
		}

		applied, err := e.store.ApplySync(ctx, batch)
		if err != nil {
			return err
		}
		report.Adopted += applied.Adopted
		report.Conflicts += applied.Conflicts

		if !res.HasMore {
			return nil
		}
	}
	e.logger.Warn("pull stopped after page limit", "pages", maxPullPages)
	return nil
}

// push offers every dirty, non-conflicted entity together with the remote
// version it was edited from, and records rejections as conflicts.
func (e *Engine) push(ctx context.Context, report *Report) error {
	local, err := e.store.SyncState(ctx)
	if err != nil {
		return err
	}
	conflicted := make(map[string]bool, len(local.Conflicts))
	for _, c := range local.Conflicts {
		conflicted[c.Ref().Key()] = true
	}

	var candidates []entity.VersionedEntity
	byKey := make(map[string]entity.VersionedEntity)
	for key, le := range local.Entities {
		if !le.Meta.Dirty || conflicted[key] {
			continue
		}
		v := le.Entity
		v.BaseVersion = le.Meta.BaseVersion
		candidates = append(candidates, v)
		byKey[key] = le.Entity
	}
	if len(candidates) == 0 {
		return nil
	}

	res, err := e.remote.Push(ctx, candidates)
	if err != nil {
		return err
	}

	batch := lifestore.SyncBatch{}
	for _, ref := range res.Accepted {
		if v, ok := byKey[ref.Key()]; ok {
			batch.Pushed = append(batch.Pushed, v)
		}
	}
	now := e.clock.Now().UTC()
	for _, rej := range res.Rejected {
		pushed, ok := byKey[rej.Ref.Key()]
		if !ok || rej.Current == nil {
			continue
		}
		conflictType := entity.ConflictBothModified
		if rej.Current.Deleted && !pushed.Deleted {
			conflictType = entity.ConflictRemoteDeleted
		} else if pushed.Deleted && !rej.Current.Deleted {
			conflictType = entity.ConflictLocalDeleted
		}
		batch.Conflicts = append(batch.Conflicts, entity.NewConflict(conflictType, pushed, *rej.Current, now))
		e.logger.Warn("push rejected, conflict recorded",
			"entity_type", rej.Ref.Type,
			"entity_id", rej.Ref.ID,
		)
	}

	applied, err := e.store.ApplySync(ctx, batch)
	if err != nil {
		return err
	}
	report.Pushed += len(batch.Pushed)
	report.Rejected += len(res.Rejected)
	report.Conflicts += applied.Conflicts
	return nil
}

// fail moves the engine to the state matching err and returns err.
func (e *Engine) fail(err error) error {
	state := StateError
	switch {
	case errors.Is(err, domainerror.ErrSyncOffline):
		state = StateOffline
		e.logger.Warn("remote unreachable, keeping local changes", "error", err)
	case errors.Is(err, domainerror.ErrSyncUnauthorized):
		e.mu.Lock()
		e.blocked = true
		e.mu.Unlock()
		e.logger.Error("sync unauthorized, waiting for new credentials", "error", err)
	default:
		e.logger.Error("sync failed", "error", err)
	}

	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
	e.setState(state)
	return err
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	prev := e.state
	e.state = s
	e.mu.Unlock()
	if prev != s {
		e.logger.Info("sync state changed", "from", prev, "to", s)
	}
}
