package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/core/types"
	"workdeck/internal/domain/record"
)

func TestTypedCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))

	t.Run("duplicate id rejected", func(t *testing.T) {
		err := s.Tenants().Create(ctx, tenant)
		require.Error(t, err)
	})

	t.Run("reads return clones", func(t *testing.T) {
		got, err := s.Tenants().GetByID(ctx, tenant.ID, record.ScopeLive)
		require.NoError(t, err)
		got.Name = "mutated"

		again, err := s.Tenants().GetByID(ctx, tenant.ID, record.ScopeLive)
		require.NoError(t, err)
		assert.Equal(t, "acme", again.Name)
	})

	t.Run("update bumps version", func(t *testing.T) {
		got, err := s.Tenants().GetByID(ctx, tenant.ID, record.ScopeLive)
		require.NoError(t, err)

		got.Status = record.TenantSuspended
		require.NoError(t, s.Tenants().Update(ctx, got))
		assert.Equal(t, 2, got.Version)

		stored, err := s.Tenants().GetByID(ctx, tenant.ID, record.ScopeLive)
		require.NoError(t, err)
		assert.Equal(t, record.TenantSuspended, stored.Status)
		assert.Equal(t, 2, stored.Version)
	})

	t.Run("stale update rejected", func(t *testing.T) {
		stale, err := s.Tenants().GetByID(ctx, tenant.ID, record.ScopeLive)
		require.NoError(t, err)
		stale.SetVersion(1)

		err = s.Tenants().Update(ctx, stale)
		require.Error(t, err)
		assert.True(t, apperror.IsConcurrentModification(err))
	})
}

func TestHandleLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	actor := id.New()

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))

	h, ok := s.Handle(entity.KindTenant)
	require.True(t, ok)

	deletedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, h.MarkDeleted(ctx, tenant.ID, actor, deletedAt))

	t.Run("live scope misses deleted rows", func(t *testing.T) {
		_, err := h.Get(ctx, tenant.ID, record.ScopeLive)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("all scope sees deletion fields", func(t *testing.T) {
		got, err := h.Get(ctx, tenant.ID, record.ScopeAll)
		require.NoError(t, err)
		assert.True(t, got.Deleted())
		require.NotNil(t, got.DeletedOn())
		assert.Equal(t, deletedAt, *got.DeletedOn())
	})

	t.Run("restore clears all three fields", func(t *testing.T) {
		require.NoError(t, h.Restore(ctx, tenant.ID))

		got, err := s.Tenants().GetByID(ctx, tenant.ID, record.ScopeLive)
		require.NoError(t, err)
		assert.False(t, got.IsDeleted)
		assert.Nil(t, got.DeletedAt)
		assert.Nil(t, got.DeletedBy)
	})
}

func TestListByRefScopes(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	actor := id.New()

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))

	dept := record.NewDepartment(tenant.ID, actor, "ops")
	require.NoError(t, s.Departments().Create(ctx, dept))

	live := record.NewPrincipal(tenant.ID, actor, "live@acme.test", "Live One", "member")
	gone := record.NewPrincipal(tenant.ID, actor, "gone@acme.test", "Gone One", "member")
	live.DepartmentID = &dept.ID
	gone.DepartmentID = &dept.ID
	require.NoError(t, s.Members().Create(ctx, live))
	require.NoError(t, s.Members().Create(ctx, gone))

	h, _ := s.Handle(entity.KindPrincipal)
	require.NoError(t, h.MarkDeleted(ctx, gone.ID, actor, time.Now().UTC()))

	liveRows, err := h.ListByRef(ctx, entity.FieldDepartment, dept.ID, record.ScopeLive)
	require.NoError(t, err)
	require.Len(t, liveRows, 1)
	assert.Equal(t, live.ID, liveRows[0].RecordID())

	deletedRows, err := h.ListByRef(ctx, entity.FieldDepartment, dept.ID, record.ScopeDeleted)
	require.NoError(t, err)
	require.Len(t, deletedRows, 1)
	assert.Equal(t, gone.ID, deletedRows[0].RecordID())

	n, err := h.CountByRef(ctx, entity.FieldDepartment, dept.ID, record.ScopeAll)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestCountLiveByKey(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	actor := id.New()

	tenantA := record.NewTenant("acme")
	tenantB := record.NewTenant("globex")
	require.NoError(t, s.Tenants().Create(ctx, tenantA))
	require.NoError(t, s.Tenants().Create(ctx, tenantB))

	a := record.NewPrincipal(tenantA.ID, actor, "dup@acme.test", "A", "member")
	b := record.NewPrincipal(tenantA.ID, actor, "DUP@acme.test", "B", "member")
	c := record.NewPrincipal(tenantB.ID, actor, "dup@acme.test", "C", "member")
	require.NoError(t, s.Members().Create(ctx, a))
	require.NoError(t, s.Members().Create(ctx, b))
	require.NoError(t, s.Members().Create(ctx, c))

	h, _ := s.Handle(entity.KindPrincipal)

	t.Run("case-insensitive within tenant, excluding self", func(t *testing.T) {
		n, err := h.CountLiveByKey(ctx, tenantA.ID, "dup@acme.test", a.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("deleted holders do not count", func(t *testing.T) {
		require.NoError(t, h.MarkDeleted(ctx, b.ID, actor, time.Now().UTC()))
		n, err := h.CountLiveByKey(ctx, tenantA.ID, "dup@acme.test", a.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})

	t.Run("tenant names are globally scoped", func(t *testing.T) {
		th, _ := s.Handle(entity.KindTenant)
		n, err := th.CountLiveByKey(ctx, id.Nil(), "ACME", id.New())
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})
}

func TestExpiryQueries(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	actor := id.New()

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))
	item := record.NewWorkItem(tenant.ID, actor, "host", record.VariantTask)
	require.NoError(t, s.WorkItems().Create(ctx, item))

	cutoff := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	onCutoff := record.NewNotice(tenant.ID, actor, actor, "a", "body")
	pastCutoff := record.NewNotice(tenant.ID, actor, actor, "b", "body")
	afterCutoff := record.NewNotice(tenant.ID, actor, actor, "c", "body")
	require.NoError(t, s.Notices().Create(ctx, onCutoff))
	require.NoError(t, s.Notices().Create(ctx, pastCutoff))
	require.NoError(t, s.Notices().Create(ctx, afterCutoff))

	h, _ := s.Handle(entity.KindNotice)
	require.NoError(t, h.MarkDeleted(ctx, onCutoff.ID, actor, cutoff))
	require.NoError(t, h.MarkDeleted(ctx, pastCutoff.ID, actor, cutoff.Add(-24*time.Hour)))
	require.NoError(t, h.MarkDeleted(ctx, afterCutoff.ID, actor, cutoff.Add(time.Second)))

	t.Run("list expired is inclusive of the cutoff", func(t *testing.T) {
		rows, err := h.ListExpired(ctx, cutoff, 0)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("limit truncates", func(t *testing.T) {
		rows, err := h.ListExpired(ctx, cutoff, 1)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("purge removes only expired rows", func(t *testing.T) {
		n, err := h.PurgeExpired(ctx, cutoff)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		_, err = h.Get(ctx, afterCutoff.ID, record.ScopeDeleted)
		require.NoError(t, err)
	})

	t.Run("purge by ids", func(t *testing.T) {
		n, err := h.PurgeByIDs(ctx, []id.ID{afterCutoff.ID, id.New()})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})
}

func TestLinePruning(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	actor := id.New()

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))

	material := record.NewMaterial(tenant.ID, actor, "pipe", "m")
	require.NoError(t, s.Materials().Create(ctx, material))

	qty := types.MustDecimal("2.5")
	cost := types.MustDecimal("10")

	liveItem := record.NewWorkItem(tenant.ID, actor, "fix sink", record.VariantTask)
	liveItem.AddLine(&material.ID, nil, qty, cost, "")
	liveItem.AddLine(nil, nil, qty, cost, "freeform")
	require.NoError(t, s.WorkItems().Create(ctx, liveItem))

	deletedItem := record.NewWorkItem(tenant.ID, actor, "fix roof", record.VariantTask)
	deletedItem.AddLine(&material.ID, nil, qty, cost, "")
	require.NoError(t, s.WorkItems().Create(ctx, deletedItem))
	wh, _ := s.Handle(entity.KindWorkItem)
	require.NoError(t, wh.MarkDeleted(ctx, deletedItem.ID, actor, time.Now().UTC()))

	lines, ok := s.LinesFor(entity.KindWorkItem)
	require.True(t, ok)

	n, err := lines.CountRefs(ctx, entity.FieldMaterial, material.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "deleted owners are not counted")

	pruned, err := lines.PruneRefs(ctx, entity.FieldMaterial, material.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)

	got, err := s.WorkItems().GetByID(ctx, liveItem.ID, record.ScopeLive)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "freeform", got.Lines[0].Note)

	kept, err := s.WorkItems().GetByID(ctx, deletedItem.ID, record.ScopeDeleted)
	require.NoError(t, err)
	assert.Len(t, kept.Lines, 1, "lines under deleted owners stay put")
}

func TestCountLiveAdmins(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	actor := id.New()

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))

	admin := record.NewPrincipal(tenant.ID, actor, "root@acme.test", "Root", "admin")
	other := record.NewPrincipal(tenant.ID, actor, "two@acme.test", "Two", "admin")
	member := record.NewPrincipal(tenant.ID, actor, "m@acme.test", "M", "member")
	require.NoError(t, s.Members().Create(ctx, admin))
	require.NoError(t, s.Members().Create(ctx, other))
	require.NoError(t, s.Members().Create(ctx, member))

	n, err := s.Principals().CountLiveAdmins(ctx, tenant.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	h, _ := s.Handle(entity.KindPrincipal)
	require.NoError(t, h.MarkDeleted(ctx, other.ID, actor, time.Now().UTC()))

	n, err = s.Principals().CountLiveAdmins(ctx, tenant.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestManagerRollback(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	m := NewManager(s)

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))

	boom := errors.New("boom")
	err := m.RunInTransaction(ctx, func(txCtx context.Context) error {
		other := record.NewTenant("globex")
		if err := s.Tenants().Create(txCtx, other); err != nil {
			return err
		}
		h, _ := s.Handle(entity.KindTenant)
		if err := h.MarkDeleted(txCtx, tenant.ID, id.New(), time.Now().UTC()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Tenants().GetByID(ctx, tenant.ID, record.ScopeLive)
	require.NoError(t, err)
	assert.False(t, got.Deleted(), "failed transaction must leave no trace")

	rows, err := s.Tenants().ListByTenant(ctx, tenant.ID, record.ScopeAll)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestManagerCommitAndNesting(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	m := NewManager(s)

	tenant := record.NewTenant("acme")
	err := m.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.Tenants().Create(txCtx, tenant); err != nil {
			return err
		}
		// Nested scope joins the outer transaction instead of deadlocking.
		return m.RunInTransaction(txCtx, func(inner context.Context) error {
			got, err := s.Tenants().GetByID(inner, tenant.ID, record.ScopeLive)
			if err != nil {
				return err
			}
			got.Status = record.TenantSuspended
			return s.Tenants().Update(inner, got)
		})
	})
	require.NoError(t, err)

	got, err := s.Tenants().GetByID(ctx, tenant.ID, record.ScopeLive)
	require.NoError(t, err)
	assert.Equal(t, record.TenantSuspended, got.Status)
}
