package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchInserter bulk-inserts rows using the COPY protocol. Line tables
// are rewritten wholesale on every save of their owning record, so the
// row sets arrive batch-shaped already.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice inserts rows into table via COPY; each row matches
// columns positionally. A line rewrite pairs with the owning record's
// update, so the call must run inside a transaction context.
//
// Example:
//
//	_, err := inserter.CopyFromSlice(ctx, "work_item_lines", workItemLineCols, rows)
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}

	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}
