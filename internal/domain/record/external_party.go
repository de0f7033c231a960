package record

import (
	"context"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

// ExternalParty is an outside vendor or contractor referenced from line
// items. Like Material it is a reference-only target: deletion prunes
// referring lines rather than cascading.
type ExternalParty struct {
	entity.Scoped

	// Name is unique among live parties of the tenant
	Name string `db:"name" json:"name"`

	ContactEmail *string `db:"contact_email" json:"contactEmail,omitempty"`
}

// NewExternalParty creates an external party under the given tenant.
func NewExternalParty(tenantID, createdBy id.ID, name string) *ExternalParty {
	return &ExternalParty{
		Scoped: entity.NewScoped(tenantID, createdBy),
		Name:   name,
	}
}

func (e *ExternalParty) RecordKind() entity.Kind {
	return entity.KindExternalParty
}

func (e *ExternalParty) Ref(field string) (id.ID, bool) {
	switch field {
	case entity.FieldTenant:
		return e.TenantID, true
	case entity.FieldCreatedBy:
		return e.CreatedBy, !id.IsNil(e.CreatedBy)
	}
	return id.Nil(), false
}

// UniqueKey returns the party name, unique per tenant.
func (e *ExternalParty) UniqueKey() (string, bool) {
	return e.Name, true
}

// Validate checks external party invariants.
func (e *ExternalParty) Validate(ctx context.Context) error {
	if e.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if e.ContactEmail != nil && *e.ContactEmail != "" && !emailRE.MatchString(*e.ContactEmail) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "contactEmail")
	}
	return nil
}

var _ entity.Record = (*ExternalParty)(nil)
