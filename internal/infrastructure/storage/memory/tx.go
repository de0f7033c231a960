package memory

import (
	"context"
	"sync"

	"workdeck/internal/core/tx"
)

type txKey struct{}

// Manager implements tx.Manager with snapshot rollback: the unit of
// work runs against the live store, and a failing fn puts the
// pre-transaction state back. Transactions serialize on one lock;
// nested calls join the enclosing scope. Reads outside a transaction
// can observe its uncommitted writes, which is acceptable for the
// test and ephemeral deployments this backend serves.
type Manager struct {
	store *Store
	txMu  sync.Mutex
}

// NewManager builds a transaction manager over the store.
func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

// RunInTransaction implements tx.Manager.
func (m *Manager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if active, _ := ctx.Value(txKey{}).(bool); active {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

var _ tx.Manager = (*Manager)(nil)
