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

var activityLineCols = []string{
	"line_id", "activity_record_id", "line_no",
	"material_id", "vendor_id", "quantity",
}

// activityRecordStore extends the generic store with the activity line
// table part, mirroring workItemStore.
type activityRecordStore struct {
	*store[*record.ActivityRecord]
	lines *lineStore
	batch *postgres.BatchInserter
}

func newActivityRecordStore(txManager *postgres.TxManager) *activityRecordStore {
	return &activityRecordStore{
		store: newStore(txManager, entity.KindActivityRecord, "activity_records", "",
			[]string{entity.FieldTenant, entity.FieldCreatedBy, entity.FieldWorkItem},
			func() *record.ActivityRecord { return &record.ActivityRecord{} }),
		lines: newLineStore(txManager, entity.KindActivityRecord, "activity_record_lines", "activity_records", "activity_record_id"),
		batch: postgres.NewBatchInserter(txManager),
	}
}

func (r *activityRecordStore) Create(ctx context.Context, rec *record.ActivityRecord) error {
	if err := r.store.Create(ctx, rec); err != nil {
		return err
	}
	return r.saveLines(ctx, rec)
}

func (r *activityRecordStore) Update(ctx context.Context, rec *record.ActivityRecord) error {
	if err := r.store.Update(ctx, rec); err != nil {
		return err
	}
	if err := r.lines.deleteLines(ctx, []id.ID{rec.ID}); err != nil {
		return err
	}
	return r.saveLines(ctx, rec)
}

func (r *activityRecordStore) Get(ctx context.Context, rid id.ID, scope record.Scope) (entity.Record, error) {
	return r.GetByID(ctx, rid, scope)
}

func (r *activityRecordStore) GetByID(ctx context.Context, rid id.ID, scope record.Scope) (*record.ActivityRecord, error) {
	rec, err := r.store.GetByID(ctx, rid, scope)
	if err != nil {
		return rec, err
	}
	return rec, r.attachLines(ctx, []*record.ActivityRecord{rec})
}

func (r *activityRecordStore) ListByTenant(ctx context.Context, tenantID id.ID, scope record.Scope) ([]*record.ActivityRecord, error) {
	items, err := r.store.ListByTenant(ctx, tenantID, scope)
	if err != nil {
		return nil, err
	}
	return items, r.attachLines(ctx, items)
}

func (r *activityRecordStore) ListByRef(ctx context.Context, field string, rid id.ID, scope record.Scope) ([]entity.Record, error) {
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

func (r *activityRecordStore) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]entity.Record, error) {
	recs, err := r.store.ListExpired(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}
	items := make([]*record.ActivityRecord, len(recs))
	for i, rec := range recs {
		items[i] = rec.(*record.ActivityRecord)
	}
	return recs, r.attachLines(ctx, items)
}

func (r *activityRecordStore) PurgeByIDs(ctx context.Context, ids []id.ID) (int64, error) {
	if err := r.lines.deleteLines(ctx, ids); err != nil {
		return 0, err
	}
	return r.store.PurgeByIDs(ctx, ids)
}

func (r *activityRecordStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	sql := `
		DELETE FROM activity_record_lines
		WHERE activity_record_id IN (
			SELECT id FROM activity_records
			WHERE is_deleted = true AND deleted_at <= $1
		)
	`
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, cutoff.UTC()); err != nil {
		return 0, fmt.Errorf("purge activity_record_lines: %w", err)
	}
	return r.store.PurgeExpired(ctx, cutoff)
}

func (r *activityRecordStore) saveLines(ctx context.Context, rec *record.ActivityRecord) error {
	if len(rec.Lines) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(rec.Lines))
	for _, line := range rec.Lines {
		rows = append(rows, []any{
			line.LineID, rec.ID, line.LineNo,
			line.MaterialID, line.VendorID, line.Quantity,
		})
	}
	if _, err := r.batch.CopyFromSlice(ctx, "activity_record_lines", activityLineCols, rows); err != nil {
		return fmt.Errorf("save activity_record_lines: %w", err)
	}
	return nil
}

type activityLineRow struct {
	record.ActivityLine
	ActivityRecordID id.ID `db:"activity_record_id"`
}

func (r *activityRecordStore) attachLines(ctx context.Context, items []*record.ActivityRecord) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]id.ID, len(items))
	byID := make(map[id.ID]*record.ActivityRecord, len(items))
	for i, item := range items {
		ids[i] = item.ID
		byID[item.ID] = item
		item.Lines = make([]record.ActivityLine, 0)
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(activityLineCols...).
		From("activity_record_lines").
		Where(squirrel.Eq{"activity_record_id": ids}).
		OrderBy("activity_record_id", "line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build load lines: %w", err)
	}

	var rows []activityLineRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return fmt.Errorf("load activity_record_lines: %w", err)
	}
	for _, row := range rows {
		if item, ok := byID[row.ActivityRecordID]; ok {
			item.Lines = append(item.Lines, row.ActivityLine)
		}
	}
	return nil
}
