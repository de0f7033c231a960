package record

import (
	"context"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

// Material is a consumable referenced from work item and activity
// record lines. Nothing cascades into a material and a material
// cascades into nothing; deleting one prunes the lines that point at it.
type Material struct {
	entity.Scoped

	// Name is unique among live materials of the tenant
	Name string `db:"name" json:"name"`

	// Unit is the unit of measure (pcs, kg, h)
	Unit string `db:"unit" json:"unit"`

	SKU *string `db:"sku" json:"sku,omitempty"`
}

// NewMaterial creates a material under the given tenant.
func NewMaterial(tenantID, createdBy id.ID, name, unit string) *Material {
	return &Material{
		Scoped: entity.NewScoped(tenantID, createdBy),
		Name:   name,
		Unit:   unit,
	}
}

func (m *Material) RecordKind() entity.Kind {
	return entity.KindMaterial
}

func (m *Material) Ref(field string) (id.ID, bool) {
	switch field {
	case entity.FieldTenant:
		return m.TenantID, true
	case entity.FieldCreatedBy:
		return m.CreatedBy, !id.IsNil(m.CreatedBy)
	}
	return id.Nil(), false
}

// UniqueKey returns the material name, unique per tenant.
func (m *Material) UniqueKey() (string, bool) {
	return m.Name, true
}

// Validate checks material invariants.
func (m *Material) Validate(ctx context.Context) error {
	if m.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

var _ entity.Record = (*Material)(nil)
