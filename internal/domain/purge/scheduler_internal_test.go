package purge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdeck/internal/domain/graph"
	"workdeck/internal/infrastructure/storage/memory"
)

// Restarting must not stack cron entries: each extra entry fires a
// redundant callback per tick and skews NextRun.
func TestRestartKeepsSingleCronEntry(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	sw, err := NewSweeper(memory.NewManager(s), s, graph.MustNew(), nil)
	require.NoError(t, err)

	sched := NewScheduler(sw, "0 3 1 1 *")

	require.NoError(t, sched.Start(ctx))
	assert.Len(t, sched.cron.Entries(), 1)

	sched.Stop(ctx)
	assert.Empty(t, sched.cron.Entries())

	require.NoError(t, sched.Start(ctx))
	defer sched.Stop(ctx)
	assert.Len(t, sched.cron.Entries(), 1)
}
