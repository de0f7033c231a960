// Package record defines the managed record kinds and the storage
// contracts the lifecycle engines operate through.
package record

import (
	"context"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

// TenantStatus defines the operational state of a tenant.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
)

// Tenant is the root of the ownership graph. Every other kind hangs off
// a tenant; tenants themselves are exempt from TTL purge.
type Tenant struct {
	entity.Base

	// Name is unique among live tenants (global, not per scope)
	Name string `db:"name" json:"name"`

	// Status gates deletion: active tenants must be suspended first
	// (overridable with force)
	Status TenantStatus `db:"status" json:"status"`
}

// NewTenant creates an active tenant.
func NewTenant(name string) *Tenant {
	return &Tenant{
		Base:   entity.NewBase(),
		Name:   name,
		Status: TenantActive,
	}
}

func (t *Tenant) RecordKind() entity.Kind {
	return entity.KindTenant
}

// RecordTenant returns the tenant's own ID; the root scopes itself.
func (t *Tenant) RecordTenant() id.ID {
	return t.ID
}

// Ref implements entity.Record. The root has no reference fields.
func (t *Tenant) Ref(field string) (id.ID, bool) {
	return id.Nil(), false
}

// UniqueKey returns the tenant name; uniqueness is global.
func (t *Tenant) UniqueKey() (string, bool) {
	return t.Name, true
}

// Active reports whether the tenant is operational.
func (t *Tenant) Active() bool {
	return t.Status == TenantActive
}

// Validate checks tenant invariants.
func (t *Tenant) Validate(ctx context.Context) error {
	if t.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	switch t.Status {
	case TenantActive, TenantSuspended:
	default:
		return apperror.NewValidation("invalid tenant status").
			WithDetail("field", "status").
			WithDetail("value", string(t.Status))
	}
	return nil
}

var _ entity.Record = (*Tenant)(nil)
