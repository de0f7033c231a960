package record

import (
	"context"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/core/types"
)

// ActivityRecord logs work performed against a work item: time spent,
// materials consumed, vendors engaged. Owned by the work item and by
// its author.
type ActivityRecord struct {
	entity.Scoped

	WorkItemID id.ID `db:"work_item_id" json:"workItemId"`

	// Action is a short verb phrase ("replaced pump", "site visit")
	Action string `db:"action" json:"action"`

	Detail *string `db:"detail" json:"detail,omitempty"`

	// Table part: consumption recorded with the activity
	Lines []ActivityLine `db:"-" json:"lines"`
}

// ActivityLine is a consumption line on an activity record. MaterialID
// and VendorID are reference-only links, pruned when their target is
// deleted.
type ActivityLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	MaterialID *id.ID `db:"material_id" json:"materialId,omitempty"`
	VendorID   *id.ID `db:"vendor_id" json:"vendorId,omitempty"`

	Quantity types.Decimal `db:"quantity" json:"quantity"`
}

// NewActivityRecord creates an activity record on the given work item.
func NewActivityRecord(tenantID, authorID, workItemID id.ID, action string) *ActivityRecord {
	return &ActivityRecord{
		Scoped:     entity.NewScoped(tenantID, authorID),
		WorkItemID: workItemID,
		Action:     action,
		Lines:      make([]ActivityLine, 0),
	}
}

// AddLine appends a consumption line with the next line number.
func (r *ActivityRecord) AddLine(materialID, vendorID *id.ID, quantity types.Decimal) {
	r.Lines = append(r.Lines, ActivityLine{
		LineID:     id.New(),
		LineNo:     len(r.Lines) + 1,
		MaterialID: materialID,
		VendorID:   vendorID,
		Quantity:   quantity,
	})
}

func (r *ActivityRecord) RecordKind() entity.Kind {
	return entity.KindActivityRecord
}

func (r *ActivityRecord) Ref(field string) (id.ID, bool) {
	switch field {
	case entity.FieldTenant:
		return r.TenantID, true
	case entity.FieldWorkItem:
		return r.WorkItemID, true
	case entity.FieldCreatedBy:
		return r.CreatedBy, !id.IsNil(r.CreatedBy)
	}
	return id.Nil(), false
}

func (r *ActivityRecord) UniqueKey() (string, bool) {
	return "", false
}

// Validate checks activity record invariants.
func (r *ActivityRecord) Validate(ctx context.Context) error {
	if id.IsNil(r.WorkItemID) {
		return apperror.NewValidation("work item is required").
			WithDetail("field", "workItemId")
	}
	if r.Action == "" {
		return apperror.NewValidation("action is required").
			WithDetail("field", "action")
	}
	return nil
}

var _ entity.Record = (*ActivityRecord)(nil)
