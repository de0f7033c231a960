package record

import (
	"context"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

// Department is an organizational unit inside a tenant. It owns the
// principals and work items assigned to it.
type Department struct {
	entity.Scoped

	// Name is unique among live departments of the tenant
	Name string `db:"name" json:"name"`

	// ManagerID must reference a live principal holding an elevated
	// role; checked on restore
	ManagerID *id.ID `db:"manager_id" json:"managerId,omitempty"`
}

// NewDepartment creates a department under the given tenant.
func NewDepartment(tenantID, createdBy id.ID, name string) *Department {
	return &Department{
		Scoped: entity.NewScoped(tenantID, createdBy),
		Name:   name,
	}
}

func (d *Department) RecordKind() entity.Kind {
	return entity.KindDepartment
}

func (d *Department) Ref(field string) (id.ID, bool) {
	switch field {
	case entity.FieldTenant:
		return d.TenantID, true
	case entity.FieldCreatedBy:
		return d.CreatedBy, !id.IsNil(d.CreatedBy)
	case entity.FieldManager:
		if d.ManagerID != nil {
			return *d.ManagerID, true
		}
	}
	return id.Nil(), false
}

// UniqueKey returns the department name, unique per tenant.
func (d *Department) UniqueKey() (string, bool) {
	return d.Name, true
}

// Validate checks department invariants.
func (d *Department) Validate(ctx context.Context) error {
	if d.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if id.IsNil(d.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	return nil
}

var _ entity.Record = (*Department)(nil)
