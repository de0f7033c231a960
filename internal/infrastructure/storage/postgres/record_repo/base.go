// Package record_repo provides the PostgreSQL record stores. One
// generic store per kind implements both the kind-generic Handle the
// lifecycle engines traverse and the typed CRUD surface.
//
// The database is shared across tenants; isolation is the tenant_id
// column, not separate schemas. Every query here joins whatever
// transaction the context carries, so a cascade or sweep sees its own
// writes and rolls back as a whole.
package record_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/record"
	"workdeck/internal/infrastructure/storage/postgres"
)

// store provides common storage operations for one record kind.
// Typed stores embed it; kinds with line tables override the CRUD
// methods to load and save lines alongside the row.
type store[T entity.Record] struct {
	txManager *postgres.TxManager
	kind      entity.Kind
	tableName string
	cols      []string
	refCols   map[string]struct{}
	keyCol    string // uniqueness key column, "" when the kind has none
	newFn     func() T
}

func newStore[T entity.Record](
	txManager *postgres.TxManager,
	kind entity.Kind,
	tableName string,
	keyCol string,
	refCols []string,
	newFn func() T,
) *store[T] {
	refs := make(map[string]struct{}, len(refCols))
	for _, col := range refCols {
		refs[col] = struct{}{}
	}
	return &store[T]{
		txManager: txManager,
		kind:      kind,
		tableName: tableName,
		cols:      postgres.ExtractDBColumns[T](),
		refCols:   refs,
		keyCol:    keyCol,
		newFn:     newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *store[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *store[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// baseSelect creates a SELECT builder over the kind's columns.
func (r *store[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.cols...).
		From(r.tableName)
}

// scoped applies the lifecycle filter of a read scope.
func scoped(q squirrel.SelectBuilder, scope record.Scope) squirrel.SelectBuilder {
	switch scope {
	case record.ScopeDeleted:
		return q.Where(squirrel.Eq{"is_deleted": true})
	case record.ScopeAll:
		return q
	default:
		return q.Where(squirrel.Eq{"is_deleted": false})
	}
}

// refColumn validates a reference field against the kind's whitelist.
// Field names come from the static graph, but they are interpolated
// into SQL, so unknown ones are rejected rather than trusted.
func (r *store[T]) refColumn(field string) (string, error) {
	if _, ok := r.refCols[field]; !ok {
		return "", fmt.Errorf("%s: invalid reference column: %s", r.tableName, field)
	}
	return field, nil
}

// --- record.Handle ---

func (r *store[T]) Kind() entity.Kind {
	return r.kind
}

func (r *store[T]) Get(ctx context.Context, rid id.ID, scope record.Scope) (entity.Record, error) {
	return r.GetByID(ctx, rid, scope)
}

func (r *store[T]) ListByRef(ctx context.Context, field string, rid id.ID, scope record.Scope) ([]entity.Record, error) {
	items, err := r.listByRef(ctx, field, rid, scope)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out, nil
}

// listByRef is the typed form of ListByRef; the line-owning stores
// reuse it to attach lines before erasing the element type.
func (r *store[T]) listByRef(ctx context.Context, field string, rid id.ID, scope record.Scope) ([]T, error) {
	col, err := r.refColumn(field)
	if err != nil {
		return nil, err
	}

	q := scoped(r.baseSelect(), scope).
		Where(squirrel.Eq{col: rid}).
		OrderBy("id") // UUIDv7: byte order is creation order

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list by ref: %w", err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s by %s: %w", r.tableName, col, err)
	}
	return items, nil
}

func (r *store[T]) CountByRef(ctx context.Context, field string, rid id.ID, scope record.Scope) (int64, error) {
	col, err := r.refColumn(field)
	if err != nil {
		return 0, err
	}

	q := scoped(r.Builder().Select("COUNT(*)").From(r.tableName), scope).
		Where(squirrel.Eq{col: rid})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count by ref: %w", err)
	}

	var n int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s by %s: %w", r.tableName, col, err)
	}
	return n, nil
}

func (r *store[T]) CountLiveByKey(ctx context.Context, tenantID id.ID, key string, exclude id.ID) (int64, error) {
	if r.keyCol == "" {
		return 0, nil
	}

	q := r.Builder().
		Select("COUNT(*)").
		From(r.tableName).
		Where(squirrel.Eq{"is_deleted": false}).
		Where(squirrel.Expr("lower("+r.keyCol+") = lower(?)", key)).
		Where(squirrel.NotEq{"id": exclude})

	// The tenant root keys globally; every other kind keys per tenant.
	if !id.IsNil(tenantID) {
		q = q.Where(squirrel.Eq{"tenant_id": tenantID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count by key: %w", err)
	}

	var n int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s by %s: %w", r.tableName, r.keyCol, err)
	}
	return n, nil
}

func (r *store[T]) MarkDeleted(ctx context.Context, rid id.ID, by id.ID, at time.Time) error {
	at = at.UTC()
	q := r.Builder().
		Update(r.tableName).
		Set("is_deleted", true).
		Set("deleted_at", at).
		Set("deleted_by", by).
		Set("updated_at", at).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": rid})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build mark deleted: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark %s deleted: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(string(r.kind), rid)
	}
	return nil
}

func (r *store[T]) Restore(ctx context.Context, rid id.ID) error {
	q := r.Builder().
		Update(r.tableName).
		Set("is_deleted", false).
		Set("deleted_at", nil).
		Set("deleted_by", nil).
		Set("updated_at", time.Now().UTC()).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": rid})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build restore: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("restore %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(string(r.kind), rid)
	}
	return nil
}

func (r *store[T]) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]entity.Record, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"is_deleted": true}).
		Where(squirrel.LtOrEq{"deleted_at": cutoff.UTC()}).
		OrderBy("id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list expired: %w", err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list expired %s: %w", r.tableName, err)
	}

	out := make([]entity.Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out, nil
}

func (r *store[T]) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	q := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"is_deleted": true}).
		Where(squirrel.LtOrEq{"deleted_at": cutoff.UTC()})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge expired: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("purge expired %s: %w", r.tableName, err)
	}
	return result.RowsAffected(), nil
}

func (r *store[T]) PurgeByIDs(ctx context.Context, ids []id.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	q := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": ids})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge by ids: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("purge %s by ids: %w", r.tableName, err)
	}
	return result.RowsAffected(), nil
}

// --- record.Store[T] ---

// Create inserts a new record using its "db" tags.
func (r *store[T]) Create(ctx context.Context, rec T) error {
	data := postgres.StructToMap(rec)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s", r.tableName)
	}

	// Filter to only include columns that exist in the table
	filteredData := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(r.tableName).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// GetByID retrieves a record by ID within the given scope.
func (r *store[T]) GetByID(ctx context.Context, rid id.ID, scope record.Scope) (T, error) {
	rec := r.newFn()

	q := scoped(r.baseSelect(), scope).
		Where(squirrel.Eq{"id": rid}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return rec, fmt.Errorf("build get by id: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return rec, apperror.NewNotFound(string(r.kind), rid)
		}
		return rec, fmt.Errorf("get %s by id: %w", r.tableName, err)
	}
	return rec, nil
}

// Update modifies an existing record with optimistic locking.
func (r *store[T]) Update(ctx context.Context, rec T) error {
	data := postgres.StructToMap(rec)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s", r.tableName)
	}

	recID, ok := data["id"]
	if !ok {
		return fmt.Errorf("%s has no 'id' field with db tag", r.tableName)
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("%s has no 'version' field or it is not an int", r.tableName)
	}

	// Exclude immutable fields from SET
	filteredData := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		switch col {
		case "id", "version", "created_at":
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}
	filteredData["updated_at"] = time.Now().UTC()

	q := r.Builder().
		Update(r.tableName).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": recID}).
		Where(squirrel.Eq{"version": version}) // optimistic lock: expect current version

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(string(r.kind), recID)
	}
	return nil
}

// ListByTenant retrieves the tenant's records within the given scope.
func (r *store[T]) ListByTenant(ctx context.Context, tenantID id.ID, scope record.Scope) ([]T, error) {
	q := scoped(r.baseSelect(), scope).OrderBy("id")
	if r.kind == entity.KindTenant {
		q = q.Where(squirrel.Eq{"id": tenantID})
	} else {
		q = q.Where(squirrel.Eq{"tenant_id": tenantID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list by tenant: %w", err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s by tenant: %w", r.tableName, err)
	}
	return items, nil
}
