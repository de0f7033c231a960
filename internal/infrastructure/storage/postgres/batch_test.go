package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFromSliceRequiresTransaction(t *testing.T) {
	inserter := NewBatchInserter(&TxManager{})

	rows := [][]any{{"only row"}}
	n, err := inserter.CopyFromSlice(context.Background(), "work_item_lines", []string{"memo"}, rows)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction")
	assert.Zero(t, n)
}
