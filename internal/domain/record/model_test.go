package record

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "workdeck/internal/core/context"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/core/types"
)

func TestMarkDeletedSetsAllLifecycleFields(t *testing.T) {
	tenant := NewTenant("acme")
	actor := id.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.False(t, tenant.Deleted())
	tenant.MarkDeleted(actor, at)

	assert.True(t, tenant.Deleted())
	require.NotNil(t, tenant.DeletedAt)
	assert.Equal(t, at, *tenant.DeletedAt)
	require.NotNil(t, tenant.DeletedBy)
	assert.Equal(t, actor, *tenant.DeletedBy)
}

func TestRestoreClearsAllLifecycleFields(t *testing.T) {
	tenant := NewTenant("acme")
	tenant.MarkDeleted(id.New(), time.Now())

	tenant.Restore()

	assert.False(t, tenant.Deleted())
	assert.Nil(t, tenant.DeletedAt)
	assert.Nil(t, tenant.DeletedBy)
}

func TestTenantScopesItself(t *testing.T) {
	tenant := NewTenant("acme")
	assert.Equal(t, tenant.ID, tenant.RecordTenant())

	_, ok := tenant.Ref(entity.FieldTenant)
	assert.False(t, ok, "root kind has no parent references")
}

func TestRefResolution(t *testing.T) {
	tenantID := id.New()
	authorID := id.New()
	deptID := id.New()
	workItemID := id.New()

	principal := NewPrincipal(tenantID, authorID, "dev@acme.io", "Dev", appctx.RoleMember)
	principal.DepartmentID = &deptID

	gotTenant, ok := principal.Ref(entity.FieldTenant)
	require.True(t, ok)
	assert.Equal(t, tenantID, gotTenant)

	gotDept, ok := principal.Ref(entity.FieldDepartment)
	require.True(t, ok)
	assert.Equal(t, deptID, gotDept)

	// Optional reference unset: resolves to not-present, not to nil ID.
	other := NewPrincipal(tenantID, authorID, "ops@acme.io", "Ops", appctx.RoleMember)
	_, ok = other.Ref(entity.FieldDepartment)
	assert.False(t, ok)

	annotation := NewAnnotation(tenantID, authorID, workItemID, "looks good")
	gotItem, ok := annotation.Ref(entity.FieldWorkItem)
	require.True(t, ok)
	assert.Equal(t, workItemID, gotItem)

	gotAuthor, ok := annotation.Ref(entity.FieldCreatedBy)
	require.True(t, ok)
	assert.Equal(t, authorID, gotAuthor)

	_, ok = annotation.Ref("no_such_field")
	assert.False(t, ok)
}

func TestUniqueKeyPresence(t *testing.T) {
	tenantID := id.New()
	actorID := id.New()

	keyed := []entity.Record{
		NewTenant("acme"),
		NewDepartment(tenantID, actorID, "Field Ops"),
		NewPrincipal(tenantID, actorID, "dev@acme.io", "Dev", appctx.RoleMember),
		NewMaterial(tenantID, actorID, "copper pipe", "m"),
		NewExternalParty(tenantID, actorID, "PipeCo"),
	}
	for _, rec := range keyed {
		key, ok := rec.UniqueKey()
		assert.True(t, ok, "%s should carry a uniqueness key", rec.RecordKind())
		assert.NotEmpty(t, key)
	}

	unkeyed := []entity.Record{
		NewWorkItem(tenantID, actorID, "fix pump", VariantTask),
		NewAnnotation(tenantID, actorID, id.New(), "note"),
		NewActivityRecord(tenantID, actorID, id.New(), "site visit"),
		NewNotice(tenantID, actorID, id.New(), "hi", "body"),
		NewAttachment(tenantID, actorID, id.New(), "a.pdf", "application/pdf", "blobs/a", 10),
	}
	for _, rec := range unkeyed {
		_, ok := rec.UniqueKey()
		assert.False(t, ok, "%s should not carry a uniqueness key", rec.RecordKind())
	}
}

func TestWorkItemAddLineNumbersSequentially(t *testing.T) {
	item := NewWorkItem(id.New(), id.New(), "fix pump", VariantTask)
	matID := id.New()
	vendorID := id.New()

	item.AddLine(&matID, nil, types.MustDecimal("2.5"), types.MustDecimal("10.00"), "pipe")
	item.AddLine(nil, &vendorID, types.MustDecimal("1"), types.MustDecimal("150.00"), "callout")

	require.Len(t, item.Lines, 2)
	assert.Equal(t, 1, item.Lines[0].LineNo)
	assert.Equal(t, 2, item.Lines[1].LineNo)
	assert.False(t, id.IsNil(item.Lines[0].LineID))
}

func TestWorkItemValidateRejectsEmptyLine(t *testing.T) {
	item := NewWorkItem(id.New(), id.New(), "fix pump", VariantTask)
	item.Lines = append(item.Lines, WorkItemLine{LineID: id.New(), LineNo: 1})

	err := item.Validate(context.Background())
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for _, k := range entity.Kinds() {
		got, ok := entity.ParseKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}

	_, ok := entity.ParseKind("invoice")
	assert.False(t, ok)
}
