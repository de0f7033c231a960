package entity

import (
	"time"

	"workdeck/internal/core/id"
)

// Record is the behavior every managed kind exposes to the cascade
// engines, the purge scheduler and the stores. Concrete models live in
// internal/domain/record; this interface is what traversal code sees.
type Record interface {
	RecordID() id.ID
	RecordKind() Kind
	// RecordTenant returns the owning tenant; the Tenant root returns
	// its own ID.
	RecordTenant() id.ID
	// RecordVersion returns the optimistic-locking version.
	RecordVersion() int

	Deleted() bool
	DeletedOn() *time.Time
	MarkDeleted(by id.ID, at time.Time)
	Restore()
	Touch()

	// Ref resolves a reference field by name (FieldTenant,
	// FieldDepartment, ...). The second return is false when the kind
	// does not carry the field or the optional reference is unset.
	Ref(field string) (id.ID, bool)

	// UniqueKey returns the value that must be unique among live
	// records of this kind within its scope (name, email). Kinds
	// without a uniqueness constraint return false.
	UniqueKey() (string, bool)
}
