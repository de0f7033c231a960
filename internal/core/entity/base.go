package entity

import (
	"time"

	"workdeck/internal/core/id"
)

///////////////////
// Base          //
///////////////////

// Base contains the lifecycle columns every record kind carries.
// A record is live while IsDeleted is false; soft deletion sets all
// three deletion fields together, restoration clears all three.
// Permanent erasure is the purge scheduler's job, never a flag here.
type Base struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// IsDeleted marks a soft-deleted record
	IsDeleted bool `db:"is_deleted" json:"isDeleted"`

	// DeletedAt is the soft-deletion timestamp; drives retention cutoffs
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`

	// DeletedBy attributes the deletion to an actor
	DeletedBy *id.ID `db:"deleted_by" json:"deletedBy,omitempty"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBase creates a Base with generated ID and timestamps.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordID returns the primary key.
func (b *Base) RecordID() id.ID {
	return b.ID
}

// Deleted reports whether the record is soft-deleted.
func (b *Base) Deleted() bool {
	return b.IsDeleted
}

// DeletedOn returns the soft-deletion timestamp, nil while live.
func (b *Base) DeletedOn() *time.Time {
	return b.DeletedAt
}

// MarkDeleted soft-deletes the record, attributing it to the actor.
// All three deletion fields move together.
func (b *Base) MarkDeleted(by id.ID, at time.Time) {
	at = at.UTC()
	b.IsDeleted = true
	b.DeletedAt = &at
	b.DeletedBy = &by
	b.UpdatedAt = at
}

// Restore clears the deletion fields, returning the record to live state.
func (b *Base) Restore() {
	b.IsDeleted = false
	b.DeletedAt = nil
	b.DeletedBy = nil
	b.UpdatedAt = time.Now().UTC()
}

// RecordVersion returns the optimistic-locking version.
func (b *Base) RecordVersion() int {
	return b.Version
}

// Touch updates the UpdatedAt timestamp and increments version.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.Version++
}

// SetVersion updates the version number (used by storage after sync).
func (b *Base) SetVersion(v int) {
	b.Version = v
}

///////////////////
// Scoped        //
///////////////////

// Scoped extends Base with the tenancy and attribution columns of every
// non-root kind. The Tenant root itself embeds Base directly.
type Scoped struct {
	Base

	// TenantID scopes the record to its owning tenant
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	// CreatedBy is the principal that created the record
	CreatedBy id.ID `db:"created_by" json:"createdBy"`
}

// NewScoped creates a Scoped base under the given tenant and creator.
func NewScoped(tenantID, createdBy id.ID) Scoped {
	return Scoped{
		Base:      NewBase(),
		TenantID:  tenantID,
		CreatedBy: createdBy,
	}
}

// RecordTenant returns the owning tenant ID.
func (s *Scoped) RecordTenant() id.ID {
	return s.TenantID
}
