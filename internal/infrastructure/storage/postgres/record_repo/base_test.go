package record_repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/record"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	// nil TxManager is fine for query-building tests; nothing executes.
	return New(nil)
}

func TestScopedFilter(t *testing.T) {
	r := testRegistry(t).materials

	sqlLive, liveArgs, err := scoped(r.baseSelect(), record.ScopeLive).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlLive, "WHERE is_deleted = $1")
	assert.Equal(t, []any{false}, liveArgs)

	sqlDel, delArgs, err := scoped(r.baseSelect(), record.ScopeDeleted).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlDel, "WHERE is_deleted = $1")
	assert.Equal(t, []any{true}, delArgs)

	sqlAll, allArgs, err := scoped(r.baseSelect(), record.ScopeAll).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sqlAll, "is_deleted")
	assert.Empty(t, allArgs)
}

func TestExtractedColumns(t *testing.T) {
	reg := testRegistry(t)

	// Lifecycle columns come from the embedded base on every kind.
	for kind, cols := range map[entity.Kind][]string{
		entity.KindTenant:   reg.tenants.cols,
		entity.KindWorkItem: reg.workItems.cols,
		entity.KindNotice:   reg.notices.cols,
	} {
		for _, want := range []string{"id", "is_deleted", "deleted_at", "deleted_by", "version", "created_at", "updated_at"} {
			assert.Contains(t, cols, want, "kind %s", kind)
		}
	}

	// Tenant is the root: no tenant_id column of its own.
	assert.NotContains(t, reg.tenants.cols, "tenant_id")
	assert.Contains(t, reg.workItems.cols, "tenant_id")

	// Table parts are stored separately, never as a column.
	assert.NotContains(t, reg.workItems.cols, "lines")
	assert.Contains(t, reg.workItems.cols, "assignee_id")
	assert.Contains(t, reg.principals.cols, "password_hash")
}

func TestRefColumnWhitelist(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	// A reference field another kind answers to is rejected here.
	_, err := reg.materials.listByRef(ctx, entity.FieldWorkItem, id.New(), record.ScopeLive)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reference column")

	_, err = reg.materials.CountByRef(ctx, entity.FieldRecipient, id.New(), record.ScopeLive)
	require.Error(t, err)

	_, err = reg.workItems.lines.CountRefs(ctx, entity.FieldTenant, id.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid line reference column")
}

func TestCountLiveByKeySQL(t *testing.T) {
	reg := testRegistry(t)

	// Tenant names key globally: no tenant filter in the query.
	q := reg.tenants.Builder().
		Select("COUNT(*)").
		From(reg.tenants.tableName)
	sql, _, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM tenants", sql)

	// Kinds without a uniqueness key short-circuit to zero.
	n, err := reg.notices.CountLiveByKey(context.Background(), id.New(), "anything", id.Nil())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegistryResolvesEveryKind(t *testing.T) {
	reg := testRegistry(t)

	for _, kind := range entity.Kinds() {
		h, ok := reg.Handle(kind)
		require.True(t, ok, "kind %s", kind)
		assert.Equal(t, kind, h.Kind())
	}

	_, ok := reg.Handle(entity.Kind("ghost"))
	assert.False(t, ok)

	for _, kind := range []entity.Kind{entity.KindWorkItem, entity.KindActivityRecord} {
		ls, ok := reg.LinesFor(kind)
		require.True(t, ok)
		assert.Equal(t, kind, ls.Owner())
	}
	_, ok = reg.LinesFor(entity.KindMaterial)
	assert.False(t, ok)
}
