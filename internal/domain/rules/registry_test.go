package rules_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdeck/internal/core/id"
	"workdeck/internal/domain/cascade"
	"workdeck/internal/domain/graph"
	"workdeck/internal/domain/record"
	"workdeck/internal/domain/rules"
	"workdeck/internal/infrastructure/storage/memory"
)

func newRegistry(t *testing.T, cfg rules.Config) (*memory.Store, *rules.Registry) {
	t.Helper()
	s := memory.NewStore()
	return s, rules.New(s, graph.MustNew(), cfg)
}

func issueCodes(issues []cascade.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}

func TestTenantMustBeSuspended(t *testing.T) {
	ctx := context.Background()
	_, reg := newRegistry(t, rules.DefaultConfig())

	tenant := record.NewTenant("acme")

	res, err := reg.ValidateDeletion(ctx, tenant)
	require.NoError(t, err)
	assert.False(t, res.Valid())
	assert.Contains(t, issueCodes(res.Errors), cascade.CodeTenantActive)
	assert.False(t, res.HasHard(), "active-tenant veto must be overridable")

	tenant.Status = record.TenantSuspended
	res, err = reg.ValidateDeletion(ctx, tenant)
	require.NoError(t, err)
	assert.True(t, res.Valid())
}

func TestLastAdminGuard(t *testing.T) {
	ctx := context.Background()
	s, reg := newRegistry(t, rules.DefaultConfig())
	actor := id.New()

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))

	admin := record.NewPrincipal(tenant.ID, actor, "root@acme.test", "Root", "admin")
	require.NoError(t, s.Members().Create(ctx, admin))

	t.Run("sole admin of a live tenant is protected", func(t *testing.T) {
		res, err := reg.ValidateDeletion(ctx, admin)
		require.NoError(t, err)
		assert.False(t, res.Valid())
		assert.True(t, res.HasHard())
		assert.Contains(t, issueCodes(res.Errors), cascade.CodeLastAdmin)
	})

	t.Run("a second live admin lifts the guard", func(t *testing.T) {
		second := record.NewPrincipal(tenant.ID, actor, "two@acme.test", "Two", "admin")
		require.NoError(t, s.Members().Create(ctx, second))

		res, err := reg.ValidateDeletion(ctx, admin)
		require.NoError(t, err)
		assert.True(t, res.Valid())

		h, _ := s.Handle(second.RecordKind())
		require.NoError(t, h.MarkDeleted(ctx, second.ID, actor, time.Now().UTC()))

		res, err = reg.ValidateDeletion(ctx, admin)
		require.NoError(t, err)
		assert.False(t, res.Valid(), "deleted admins do not count")
	})

	t.Run("guard stands down when the tenant is deleted", func(t *testing.T) {
		th, _ := s.Handle(tenant.RecordKind())
		require.NoError(t, th.MarkDeleted(ctx, tenant.ID, actor, time.Now().UTC()))

		res, err := reg.ValidateDeletion(ctx, admin)
		require.NoError(t, err)
		assert.True(t, res.Valid())
	})

	t.Run("non-admins are never guarded", func(t *testing.T) {
		member := record.NewPrincipal(tenant.ID, actor, "m@acme.test", "M", "member")
		require.NoError(t, s.Members().Create(ctx, member))

		res, err := reg.ValidateDeletion(ctx, member)
		require.NoError(t, err)
		assert.True(t, res.Valid())
	})
}

func TestImpactWarning(t *testing.T) {
	ctx := context.Background()
	s, reg := newRegistry(t, rules.Config{ImpactWarnThreshold: 3})
	actor := id.New()

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))
	dept := record.NewDepartment(tenant.ID, actor, "ops")
	require.NoError(t, s.Departments().Create(ctx, dept))

	addMember := func(email string) {
		p := record.NewPrincipal(tenant.ID, actor, email, "P", "member")
		p.DepartmentID = &dept.ID
		require.NoError(t, s.Members().Create(ctx, p))
	}
	addMember("a@acme.test")
	addMember("b@acme.test")

	res, err := reg.ValidateDeletion(ctx, dept)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings, "footprint below the threshold")

	item := record.NewWorkItem(tenant.ID, actor, "host move", record.VariantTask)
	item.DepartmentID = &dept.ID
	require.NoError(t, s.WorkItems().Create(ctx, item))

	res, err = reg.ValidateDeletion(ctx, dept)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, cascade.CodeCascadeImpact, res.Warnings[0].Code)
	assert.EqualValues(t, 3, res.Warnings[0].Details["liveDescendants"])
	assert.True(t, res.Valid(), "warnings never block")
}

func TestUniqueKeyFree(t *testing.T) {
	ctx := context.Background()
	s, reg := newRegistry(t, rules.DefaultConfig())
	actor := id.New()

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))

	t.Run("duplicate email blocks principal restore", func(t *testing.T) {
		gone := record.NewPrincipal(tenant.ID, actor, "shared@acme.test", "Old", "member")
		require.NoError(t, s.Members().Create(ctx, gone))
		h, _ := s.Handle(gone.RecordKind())
		require.NoError(t, h.MarkDeleted(ctx, gone.ID, actor, time.Now().UTC()))

		taken := record.NewPrincipal(tenant.ID, actor, "SHARED@acme.test", "New", "member")
		require.NoError(t, s.Members().Create(ctx, taken))

		res, err := reg.ValidateRestoration(ctx, gone)
		require.NoError(t, err)
		assert.False(t, res.Valid())
		assert.True(t, res.HasHard())
		assert.Contains(t, issueCodes(res.Errors), cascade.CodeDuplicateEmail)
	})

	t.Run("tenant names collide globally", func(t *testing.T) {
		th, _ := s.Handle(tenant.RecordKind())
		require.NoError(t, th.MarkDeleted(ctx, tenant.ID, actor, time.Now().UTC()))

		squatter := record.NewTenant("ACME")
		require.NoError(t, s.Tenants().Create(ctx, squatter))

		res, err := reg.ValidateRestoration(ctx, tenant)
		require.NoError(t, err)
		assert.False(t, res.Valid())
		assert.Contains(t, issueCodes(res.Errors), cascade.CodeDuplicateName)
	})

	t.Run("free key restores cleanly", func(t *testing.T) {
		dept := record.NewDepartment(tenant.ID, actor, "ops")
		require.NoError(t, s.Departments().Create(ctx, dept))
		h, _ := s.Handle(dept.RecordKind())
		require.NoError(t, h.MarkDeleted(ctx, dept.ID, actor, time.Now().UTC()))

		res, err := reg.ValidateRestoration(ctx, dept)
		require.NoError(t, err)
		assert.True(t, res.Valid())
	})
}

func TestManagerEligible(t *testing.T) {
	ctx := context.Background()
	s, reg := newRegistry(t, rules.DefaultConfig())
	actor := id.New()

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))

	manager := record.NewPrincipal(tenant.ID, actor, "mgr@acme.test", "Mgr", "manager")
	require.NoError(t, s.Members().Create(ctx, manager))

	dept := record.NewDepartment(tenant.ID, actor, "ops")
	dept.ManagerID = &manager.ID
	require.NoError(t, s.Departments().Create(ctx, dept))

	t.Run("live elevated manager passes", func(t *testing.T) {
		res, err := reg.ValidateRestoration(ctx, dept)
		require.NoError(t, err)
		assert.True(t, res.Valid())
	})

	t.Run("deleted manager blocks", func(t *testing.T) {
		h, _ := s.Handle(manager.RecordKind())
		require.NoError(t, h.MarkDeleted(ctx, manager.ID, actor, time.Now().UTC()))
		defer func() { require.NoError(t, h.Restore(ctx, manager.ID)) }()

		res, err := reg.ValidateRestoration(ctx, dept)
		require.NoError(t, err)
		assert.False(t, res.Valid())
		assert.Contains(t, issueCodes(res.Errors), cascade.CodeManagerDeleted)
	})

	t.Run("demoted manager blocks", func(t *testing.T) {
		got, err := s.Members().GetByID(ctx, manager.ID, record.ScopeLive)
		require.NoError(t, err)
		got.Role = "member"
		require.NoError(t, s.Members().Update(ctx, got))

		res, err := reg.ValidateRestoration(ctx, dept)
		require.NoError(t, err)
		assert.False(t, res.Valid())
		assert.Contains(t, issueCodes(res.Errors), cascade.CodeManagerNotEligible)
	})

	t.Run("missing manager blocks", func(t *testing.T) {
		orphan := id.New()
		dept.ManagerID = &orphan

		res, err := reg.ValidateRestoration(ctx, dept)
		require.NoError(t, err)
		assert.False(t, res.Valid())
		assert.Contains(t, issueCodes(res.Errors), cascade.CodeManagerDeleted)
	})

	t.Run("departments without managers validate trivially", func(t *testing.T) {
		plain := record.NewDepartment(tenant.ID, actor, "plain")
		require.NoError(t, s.Departments().Create(ctx, plain))

		res, err := reg.ValidateRestoration(ctx, plain)
		require.NoError(t, err)
		assert.True(t, res.Valid())
	})
}

func TestKindsWithoutRules(t *testing.T) {
	ctx := context.Background()
	_, reg := newRegistry(t, rules.DefaultConfig())

	ann := record.NewAnnotation(id.New(), id.New(), id.New(), "note")

	res, err := reg.ValidateDeletion(ctx, ann)
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.Empty(t, res.Warnings)

	res, err = reg.ValidateRestoration(ctx, ann)
	require.NoError(t, err)
	assert.True(t, res.Valid())
}
