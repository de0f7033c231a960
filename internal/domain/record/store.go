package record

import (
	"context"
	"time"

	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

// --- Read scopes ---

// Scope selects which lifecycle states a read sees.
type Scope int

const (
	// ScopeLive reads only records with is_deleted = false (default)
	ScopeLive Scope = iota

	// ScopeAll reads regardless of deletion state
	ScopeAll

	// ScopeDeleted reads only soft-deleted records
	ScopeDeleted
)

// --- Kind-generic storage surface ---

// Handle is the kind-generic storage surface the cascade engines and
// the purge sweeper traverse through. One Handle per kind; implementations
// exist for postgres and memory backends.
//
// Get returns apperror CodeNotFound when no row matches the scope.
type Handle interface {
	Kind() entity.Kind

	Get(ctx context.Context, rid id.ID, scope Scope) (entity.Record, error)

	// ListByRef returns records whose reference field holds rid,
	// filtered by scope. Used to walk ownership edges.
	ListByRef(ctx context.Context, field string, rid id.ID, scope Scope) ([]entity.Record, error)

	// CountByRef is ListByRef without materializing rows; feeds impact
	// warnings.
	CountByRef(ctx context.Context, field string, rid id.ID, scope Scope) (int64, error)

	// CountLiveByKey counts live records sharing the uniqueness key,
	// excluding the given ID. Tenant uniqueness is global: callers pass
	// the nil ID as tenantID for that kind.
	CountLiveByKey(ctx context.Context, tenantID id.ID, key string, exclude id.ID) (int64, error)

	// MarkDeleted sets the three deletion fields on one row.
	MarkDeleted(ctx context.Context, rid id.ID, by id.ID, at time.Time) error

	// Restore clears the three deletion fields on one row.
	Restore(ctx context.Context, rid id.ID) error

	// ListExpired returns soft-deleted rows with deleted_at <= cutoff.
	// limit <= 0 means no limit.
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]entity.Record, error)

	// PurgeExpired permanently erases all rows past the cutoff and
	// returns the count. Bulk path for kinds without per-row work.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)

	// PurgeByIDs permanently erases the given rows. Row-scan path for
	// kinds needing holds, archival or blob release first.
	PurgeByIDs(ctx context.Context, ids []id.ID) (int64, error)
}

// --- Line tables ---

// LineStore manages a kind's line-item table. The engines only prune
// and count value references; typed line CRUD lives on the concrete
// stores.
type LineStore interface {
	// Owner is the kind whose rows own these lines.
	Owner() entity.Kind

	// CountRefs counts lines referencing rid through field, on live
	// owners only.
	CountRefs(ctx context.Context, field string, rid id.ID) (int64, error)

	// PruneRefs deletes lines referencing rid through field, on live
	// owners only, returning the number removed. Lines under already
	// soft-deleted owners stay put so a later restore keeps them.
	PruneRefs(ctx context.Context, field string, rid id.ID) (int64, error)
}

// --- Kind-specific queries ---

// PrincipalQueries are the principal lookups deletion rules need.
type PrincipalQueries interface {
	// CountLiveAdmins counts live admin principals of the tenant.
	CountLiveAdmins(ctx context.Context, tenantID id.ID) (int64, error)
}

// --- Registry ---

// Registry resolves kinds to storage handles. Built once at startup
// from concrete stores; the engines never see kind strings that did not
// resolve here.
type Registry interface {
	Handle(kind entity.Kind) (Handle, bool)

	// LinesFor resolves the line table of a kind, for kinds that own
	// one (WorkItem, ActivityRecord).
	LinesFor(kind entity.Kind) (LineStore, bool)

	Principals() PrincipalQueries
}

// --- Typed CRUD ---

// Store is the typed CRUD surface for one concrete kind, used by
// seeding and tests. Backends implement Store alongside Handle.
type Store[T entity.Record] interface {
	Create(ctx context.Context, rec T) error

	GetByID(ctx context.Context, rid id.ID, scope Scope) (T, error)

	// Update modifies an existing record (with optimistic locking).
	Update(ctx context.Context, rec T) error

	ListByTenant(ctx context.Context, tenantID id.ID, scope Scope) ([]T, error)
}
