package record_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/record"
	"workdeck/internal/infrastructure/storage/postgres"
)

var workItemLineCols = []string{
	"line_id", "work_item_id", "line_no",
	"material_id", "vendor_id", "quantity", "unit_cost", "note",
}

// workItemStore extends the generic store with the consumption-line
// table part. Lines are saved delete-then-insert via COPY, so writes
// must run inside a transaction.
type workItemStore struct {
	*store[*record.WorkItem]
	lines *lineStore
	batch *postgres.BatchInserter
}

func newWorkItemStore(txManager *postgres.TxManager) *workItemStore {
	return &workItemStore{
		store: newStore(txManager, entity.KindWorkItem, "work_items", "",
			[]string{entity.FieldTenant, entity.FieldCreatedBy, entity.FieldDepartment, entity.FieldAssignee},
			func() *record.WorkItem { return &record.WorkItem{} }),
		lines: newLineStore(txManager, entity.KindWorkItem, "work_item_lines", "work_items", "work_item_id"),
		batch: postgres.NewBatchInserter(txManager),
	}
}

func (r *workItemStore) Create(ctx context.Context, rec *record.WorkItem) error {
	if err := r.store.Create(ctx, rec); err != nil {
		return err
	}
	return r.saveLines(ctx, rec)
}

func (r *workItemStore) Update(ctx context.Context, rec *record.WorkItem) error {
	if err := r.store.Update(ctx, rec); err != nil {
		return err
	}
	if err := r.lines.deleteLines(ctx, []id.ID{rec.ID}); err != nil {
		return err
	}
	return r.saveLines(ctx, rec)
}

func (r *workItemStore) Get(ctx context.Context, rid id.ID, scope record.Scope) (entity.Record, error) {
	return r.GetByID(ctx, rid, scope)
}

func (r *workItemStore) GetByID(ctx context.Context, rid id.ID, scope record.Scope) (*record.WorkItem, error) {
	rec, err := r.store.GetByID(ctx, rid, scope)
	if err != nil {
		return rec, err
	}
	return rec, r.attachLines(ctx, []*record.WorkItem{rec})
}

func (r *workItemStore) ListByTenant(ctx context.Context, tenantID id.ID, scope record.Scope) ([]*record.WorkItem, error) {
	items, err := r.store.ListByTenant(ctx, tenantID, scope)
	if err != nil {
		return nil, err
	}
	return items, r.attachLines(ctx, items)
}

func (r *workItemStore) ListByRef(ctx context.Context, field string, rid id.ID, scope record.Scope) ([]entity.Record, error) {
	items, err := r.store.listByRef(ctx, field, rid, scope)
	if err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, items); err != nil {
		return nil, err
	}
	out := make([]entity.Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out, nil
}

// ListExpired attaches lines so archival before purge captures the
// whole document.
func (r *workItemStore) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]entity.Record, error) {
	recs, err := r.store.ListExpired(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}
	items := make([]*record.WorkItem, len(recs))
	for i, rec := range recs {
		items[i] = rec.(*record.WorkItem)
	}
	return recs, r.attachLines(ctx, items)
}

// PurgeByIDs erases lines before the owner rows.
func (r *workItemStore) PurgeByIDs(ctx context.Context, ids []id.ID) (int64, error) {
	if err := r.lines.deleteLines(ctx, ids); err != nil {
		return 0, err
	}
	return r.store.PurgeByIDs(ctx, ids)
}

// PurgeExpired erases lines of expired items first, then the items.
func (r *workItemStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	sql := `
		DELETE FROM work_item_lines
		WHERE work_item_id IN (
			SELECT id FROM work_items
			WHERE is_deleted = true AND deleted_at <= $1
		)
	`
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, cutoff.UTC()); err != nil {
		return 0, fmt.Errorf("purge work_item_lines: %w", err)
	}
	return r.store.PurgeExpired(ctx, cutoff)
}

func (r *workItemStore) saveLines(ctx context.Context, rec *record.WorkItem) error {
	if len(rec.Lines) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(rec.Lines))
	for _, line := range rec.Lines {
		rows = append(rows, []any{
			line.LineID, rec.ID, line.LineNo,
			line.MaterialID, line.VendorID, line.Quantity, line.UnitCost, line.Note,
		})
	}
	if _, err := r.batch.CopyFromSlice(ctx, "work_item_lines", workItemLineCols, rows); err != nil {
		return fmt.Errorf("save work_item_lines: %w", err)
	}
	return nil
}

// workItemLineRow scans one line with its owner for grouping.
type workItemLineRow struct {
	record.WorkItemLine
	WorkItemID id.ID `db:"work_item_id"`
}

func (r *workItemStore) attachLines(ctx context.Context, items []*record.WorkItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]id.ID, len(items))
	byID := make(map[id.ID]*record.WorkItem, len(items))
	for i, item := range items {
		ids[i] = item.ID
		byID[item.ID] = item
		item.Lines = make([]record.WorkItemLine, 0)
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(workItemLineCols...).
		From("work_item_lines").
		Where(squirrel.Eq{"work_item_id": ids}).
		OrderBy("work_item_id", "line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build load lines: %w", err)
	}

	var rows []workItemLineRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return fmt.Errorf("load work_item_lines: %w", err)
	}
	for _, row := range rows {
		if item, ok := byID[row.WorkItemID]; ok {
			item.Lines = append(item.Lines, row.WorkItemLine)
		}
	}
	return nil
}
