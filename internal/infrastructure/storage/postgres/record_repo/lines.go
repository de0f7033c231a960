package record_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/infrastructure/storage/postgres"
)

// lineStore manages one line table. Reference pruning joins the owner
// table and touches live owners only: lines under a soft-deleted owner
// stay put so a later restore brings the owner back whole.
type lineStore struct {
	txManager *postgres.TxManager
	owner     entity.Kind
	tableName string
	ownerTbl  string
	ownerCol  string
	refCols   map[string]struct{}
}

func newLineStore(txManager *postgres.TxManager, owner entity.Kind, tableName, ownerTbl, ownerCol string) *lineStore {
	return &lineStore{
		txManager: txManager,
		owner:     owner,
		tableName: tableName,
		ownerTbl:  ownerTbl,
		ownerCol:  ownerCol,
		refCols: map[string]struct{}{
			entity.FieldMaterial: {},
			entity.FieldVendor:   {},
		},
	}
}

func (l *lineStore) Owner() entity.Kind {
	return l.owner
}

func (l *lineStore) refColumn(field string) (string, error) {
	if _, ok := l.refCols[field]; !ok {
		return "", fmt.Errorf("%s: invalid line reference column: %s", l.tableName, field)
	}
	return field, nil
}

func (l *lineStore) CountRefs(ctx context.Context, field string, rid id.ID) (int64, error) {
	col, err := l.refColumn(field)
	if err != nil {
		return 0, err
	}

	sql := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s l
		JOIN %s o ON o.id = l.%s
		WHERE o.is_deleted = false AND l.%s = $1
	`, l.tableName, l.ownerTbl, l.ownerCol, col)

	var n int64
	if err := l.txManager.GetQuerier(ctx).QueryRow(ctx, sql, rid).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s refs: %w", l.tableName, err)
	}
	return n, nil
}

func (l *lineStore) PruneRefs(ctx context.Context, field string, rid id.ID) (int64, error) {
	col, err := l.refColumn(field)
	if err != nil {
		return 0, err
	}

	sql := fmt.Sprintf(`
		DELETE FROM %s l
		USING %s o
		WHERE o.id = l.%s AND o.is_deleted = false AND l.%s = $1
	`, l.tableName, l.ownerTbl, l.ownerCol, col)

	result, err := l.txManager.GetQuerier(ctx).Exec(ctx, sql, rid)
	if err != nil {
		return 0, fmt.Errorf("prune %s refs: %w", l.tableName, err)
	}
	return result.RowsAffected(), nil
}

// deleteLines removes all lines of the given owners. Used by the
// delete-then-insert line save and before purging owner rows.
func (l *lineStore) deleteLines(ctx context.Context, ownerIDs []id.ID) error {
	if len(ownerIDs) == 0 {
		return nil
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Delete(l.tableName).
		Where(squirrel.Eq{l.ownerCol: ownerIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}
	if _, err := l.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete %s: %w", l.tableName, err)
	}
	return nil
}
