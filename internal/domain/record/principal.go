package record

import (
	"context"
	"regexp"

	"workdeck/internal/core/apperror"
	appctx "workdeck/internal/core/context"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Principal is a person acting inside a tenant. Principals own the work
// items, annotations and activity records they author, and the notices
// addressed to them.
type Principal struct {
	entity.Scoped

	// Email is unique among live principals of the tenant
	Email string `db:"email" json:"email"`

	FullName string `db:"full_name" json:"fullName"`

	// Role is one of admin, manager, member. The last live admin of a
	// live tenant cannot be deleted.
	Role string `db:"role" json:"role"`

	// PasswordHash is a bcrypt hash; never serialized
	PasswordHash string `db:"password_hash" json:"-"`

	// DepartmentID assigns the principal to a department (optional)
	DepartmentID *id.ID `db:"department_id" json:"departmentId,omitempty"`
}

// NewPrincipal creates a principal under the given tenant.
func NewPrincipal(tenantID, createdBy id.ID, email, fullName, role string) *Principal {
	return &Principal{
		Scoped:   entity.NewScoped(tenantID, createdBy),
		Email:    email,
		FullName: fullName,
		Role:     role,
	}
}

func (p *Principal) RecordKind() entity.Kind {
	return entity.KindPrincipal
}

func (p *Principal) Ref(field string) (id.ID, bool) {
	switch field {
	case entity.FieldTenant:
		return p.TenantID, true
	case entity.FieldCreatedBy:
		return p.CreatedBy, !id.IsNil(p.CreatedBy)
	case entity.FieldDepartment:
		if p.DepartmentID != nil {
			return *p.DepartmentID, true
		}
	}
	return id.Nil(), false
}

// UniqueKey returns the email, unique per tenant.
func (p *Principal) UniqueKey() (string, bool) {
	return p.Email, true
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p.Role == appctx.RoleAdmin
}

// Elevated reports whether the principal may manage a department.
func (p *Principal) Elevated() bool {
	return appctx.Elevated(p.Role)
}

// Validate checks principal invariants.
func (p *Principal) Validate(ctx context.Context) error {
	if id.IsNil(p.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	if p.Email == "" || !emailRE.MatchString(p.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}
	switch p.Role {
	case appctx.RoleAdmin, appctx.RoleManager, appctx.RoleMember:
	default:
		return apperror.NewValidation("invalid role").
			WithDetail("field", "role").
			WithDetail("value", p.Role)
	}
	return nil
}

var _ entity.Record = (*Principal)(nil)
