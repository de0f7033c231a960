package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/record"
)

// table backs one kind with a guarded map of cloned rows. It carries
// both the kind-generic Handle the engines traverse and the typed CRUD
// surface seeding and tests use. All tables of a Store share one lock
// so snapshots see a consistent whole.
type table[T entity.Record] struct {
	mu    *sync.RWMutex
	kind  entity.Kind
	rows  map[id.ID]T
	clone func(T) T
}

func newTable[T entity.Record](mu *sync.RWMutex, kind entity.Kind, clone func(T) T) *table[T] {
	return &table[T]{
		mu:    mu,
		kind:  kind,
		rows:  make(map[id.ID]T),
		clone: clone,
	}
}

func scopeMatches(rec entity.Record, scope record.Scope) bool {
	switch scope {
	case record.ScopeDeleted:
		return rec.Deleted()
	case record.ScopeAll:
		return true
	default:
		return !rec.Deleted()
	}
}

// sortByID orders records by primary key. IDs are UUIDv7, so byte order
// is creation order.
func sortByID[T entity.Record](recs []T) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i].RecordID(), recs[j].RecordID()
		return bytes.Compare(a[:], b[:]) < 0
	})
}

// --- record.Handle ---

func (t *table[T]) Kind() entity.Kind {
	return t.kind
}

func (t *table[T]) Get(ctx context.Context, rid id.ID, scope record.Scope) (entity.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.rows[rid]
	if !ok || !scopeMatches(rec, scope) {
		return nil, apperror.NewNotFound(string(t.kind), rid)
	}
	return t.clone(rec), nil
}

func (t *table[T]) ListByRef(ctx context.Context, field string, rid id.ID, scope record.Scope) ([]entity.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]entity.Record, 0)
	for _, rec := range t.rows {
		if ref, ok := rec.Ref(field); ok && ref == rid && scopeMatches(rec, scope) {
			out = append(out, t.clone(rec))
		}
	}
	sortByID(out)
	return out, nil
}

func (t *table[T]) CountByRef(ctx context.Context, field string, rid id.ID, scope record.Scope) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var n int64
	for _, rec := range t.rows {
		if ref, ok := rec.Ref(field); ok && ref == rid && scopeMatches(rec, scope) {
			n++
		}
	}
	return n, nil
}

func (t *table[T]) CountLiveByKey(ctx context.Context, tenantID id.ID, key string, exclude id.ID) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var n int64
	for _, rec := range t.rows {
		if rec.Deleted() || rec.RecordID() == exclude {
			continue
		}
		if !id.IsNil(tenantID) && rec.RecordTenant() != tenantID {
			continue
		}
		if k, ok := rec.UniqueKey(); ok && strings.EqualFold(k, key) {
			n++
		}
	}
	return n, nil
}

func (t *table[T]) MarkDeleted(ctx context.Context, rid id.ID, by id.ID, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.rows[rid]
	if !ok {
		return apperror.NewNotFound(string(t.kind), rid)
	}
	rec.MarkDeleted(by, at)
	return nil
}

func (t *table[T]) Restore(ctx context.Context, rid id.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.rows[rid]
	if !ok {
		return apperror.NewNotFound(string(t.kind), rid)
	}
	rec.Restore()
	return nil
}

func (t *table[T]) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]entity.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]entity.Record, 0)
	for _, rec := range t.rows {
		if dt := rec.DeletedOn(); rec.Deleted() && dt != nil && !dt.After(cutoff) {
			out = append(out, t.clone(rec))
		}
	}
	sortByID(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *table[T]) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int64
	for rid, rec := range t.rows {
		if dt := rec.DeletedOn(); rec.Deleted() && dt != nil && !dt.After(cutoff) {
			delete(t.rows, rid)
			n++
		}
	}
	return n, nil
}

func (t *table[T]) PurgeByIDs(ctx context.Context, ids []id.ID) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int64
	for _, rid := range ids {
		if _, ok := t.rows[rid]; ok {
			delete(t.rows, rid)
			n++
		}
	}
	return n, nil
}

// --- record.Store[T] ---

func (t *table[T]) Create(ctx context.Context, rec T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rid := rec.RecordID()
	if id.IsNil(rid) {
		return apperror.NewValidation("id is required")
	}
	if _, exists := t.rows[rid]; exists {
		return apperror.NewConflict(fmt.Sprintf("%s %s already exists", t.kind, rid))
	}
	t.rows[rid] = t.clone(rec)
	return nil
}

func (t *table[T]) GetByID(ctx context.Context, rid id.ID, scope record.Scope) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var zero T
	rec, ok := t.rows[rid]
	if !ok || !scopeMatches(rec, scope) {
		return zero, apperror.NewNotFound(string(t.kind), rid)
	}
	return t.clone(rec), nil
}

func (t *table[T]) Update(ctx context.Context, rec T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.rows[rec.RecordID()]
	if !ok {
		return apperror.NewNotFound(string(t.kind), rec.RecordID())
	}
	if cur.RecordVersion() != rec.RecordVersion() {
		return apperror.NewConcurrentModification(string(t.kind), rec.RecordID())
	}
	rec.Touch()
	t.rows[rec.RecordID()] = t.clone(rec)
	return nil
}

func (t *table[T]) ListByTenant(ctx context.Context, tenantID id.ID, scope record.Scope) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, 0)
	for _, rec := range t.rows {
		if rec.RecordTenant() == tenantID && scopeMatches(rec, scope) {
			out = append(out, t.clone(rec))
		}
	}
	sortByID(out)
	return out, nil
}

// --- snapshotting ---

func snapshotRows[T entity.Record](t *table[T]) map[id.ID]T {
	out := make(map[id.ID]T, len(t.rows))
	for k, v := range t.rows {
		out[k] = t.clone(v)
	}
	return out
}

func restoreRows[T entity.Record](t *table[T], rows map[id.ID]T) {
	t.rows = make(map[id.ID]T, len(rows))
	for k, v := range rows {
		t.rows[k] = t.clone(v)
	}
}
