// Package entity provides the base types shared by every managed record kind.
package entity

// Kind names a managed record type. The set is closed: kind strings
// arriving from the outside must resolve through ParseKind before they
// reach storage or the cascade engines.
type Kind string

const (
	KindTenant         Kind = "tenant"
	KindDepartment     Kind = "department"
	KindPrincipal      Kind = "principal"
	KindWorkItem       Kind = "work_item"
	KindMaterial       Kind = "material"
	KindExternalParty  Kind = "external_party"
	KindAnnotation     Kind = "annotation"
	KindActivityRecord Kind = "activity_record"
	KindNotice         Kind = "notice"
	KindAttachment     Kind = "attachment"
)

// allKinds fixes the canonical ordering (roots before leaves). Purge
// sweeps iterate it in reverse so dependents are erased before owners.
var allKinds = []Kind{
	KindTenant,
	KindDepartment,
	KindPrincipal,
	KindWorkItem,
	KindMaterial,
	KindExternalParty,
	KindAnnotation,
	KindActivityRecord,
	KindNotice,
	KindAttachment,
}

// Kinds returns all managed kinds in canonical order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind resolves a kind string against the closed set.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	for _, known := range allKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

func (k Kind) String() string {
	return string(k)
}

// Reference field names. These double as database column names and as
// the keys models answer to in Record.Ref.
const (
	FieldTenant     = "tenant_id"
	FieldDepartment = "department_id"
	FieldCreatedBy  = "created_by"
	FieldWorkItem   = "work_item_id"
	FieldRecipient  = "recipient_id"
	FieldMaterial   = "material_id"
	FieldVendor     = "vendor_id"
	FieldAssignee   = "assignee_id"
	FieldManager    = "manager_id"
)
