package record

import (
	"context"
	"time"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/core/types"
)

// WorkItemVariant distinguishes the flavors of work tracked by the
// system.
type WorkItemVariant string

const (
	VariantTask     WorkItemVariant = "task"
	VariantIncident WorkItemVariant = "incident"
	VariantRequest  WorkItemVariant = "request"
)

// WorkItemStatus is the workflow state of a work item.
type WorkItemStatus string

const (
	StatusOpen       WorkItemStatus = "open"
	StatusInProgress WorkItemStatus = "in_progress"
	StatusDone       WorkItemStatus = "done"
	StatusCancelled  WorkItemStatus = "cancelled"
)

// WorkItem is the central unit of work. It owns its annotations,
// activity records and attachments, and references materials and
// external parties through its line items.
type WorkItem struct {
	entity.Scoped

	Title string `db:"title" json:"title"`

	Variant WorkItemVariant `db:"variant" json:"variant"`

	Status WorkItemStatus `db:"status" json:"status"`

	// DepartmentID places the item in a department (optional)
	DepartmentID *id.ID `db:"department_id" json:"departmentId,omitempty"`

	// AssigneeID is informational; assignment does not create an
	// ownership edge
	AssigneeID *id.ID `db:"assignee_id" json:"assigneeId,omitempty"`

	DueAt *time.Time `db:"due_at" json:"dueAt,omitempty"`

	// Table part: material/vendor consumption lines
	Lines []WorkItemLine `db:"-" json:"lines"`
}

// WorkItemLine is a consumption line on a work item. MaterialID and
// VendorID are reference-only links: deleting the referenced record
// prunes the line instead of cascading into the work item.
type WorkItemLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	MaterialID *id.ID `db:"material_id" json:"materialId,omitempty"`
	VendorID   *id.ID `db:"vendor_id" json:"vendorId,omitempty"`

	Quantity types.Decimal `db:"quantity" json:"quantity"`
	UnitCost types.Decimal `db:"unit_cost" json:"unitCost"`

	Note string `db:"note" json:"note,omitempty"`
}

// NewWorkItem creates an open work item under the given tenant.
func NewWorkItem(tenantID, createdBy id.ID, title string, variant WorkItemVariant) *WorkItem {
	return &WorkItem{
		Scoped:  entity.NewScoped(tenantID, createdBy),
		Title:   title,
		Variant: variant,
		Status:  StatusOpen,
		Lines:   make([]WorkItemLine, 0),
	}
}

// AddLine appends a consumption line with the next line number.
func (w *WorkItem) AddLine(materialID, vendorID *id.ID, quantity, unitCost types.Decimal, note string) {
	w.Lines = append(w.Lines, WorkItemLine{
		LineID:     id.New(),
		LineNo:     len(w.Lines) + 1,
		MaterialID: materialID,
		VendorID:   vendorID,
		Quantity:   quantity,
		UnitCost:   unitCost,
		Note:       note,
	})
}

func (w *WorkItem) RecordKind() entity.Kind {
	return entity.KindWorkItem
}

func (w *WorkItem) Ref(field string) (id.ID, bool) {
	switch field {
	case entity.FieldTenant:
		return w.TenantID, true
	case entity.FieldCreatedBy:
		return w.CreatedBy, !id.IsNil(w.CreatedBy)
	case entity.FieldDepartment:
		if w.DepartmentID != nil {
			return *w.DepartmentID, true
		}
	case entity.FieldAssignee:
		if w.AssigneeID != nil {
			return *w.AssigneeID, true
		}
	}
	return id.Nil(), false
}

// UniqueKey implements entity.Record; work items have no uniqueness key.
func (w *WorkItem) UniqueKey() (string, bool) {
	return "", false
}

// Closed reports whether the item has left the active workflow.
func (w *WorkItem) Closed() bool {
	return w.Status == StatusDone || w.Status == StatusCancelled
}

// Validate checks work item invariants.
func (w *WorkItem) Validate(ctx context.Context) error {
	if w.Title == "" {
		return apperror.NewValidation("title is required").
			WithDetail("field", "title")
	}
	if id.IsNil(w.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	switch w.Variant {
	case VariantTask, VariantIncident, VariantRequest:
	default:
		return apperror.NewValidation("invalid variant").
			WithDetail("field", "variant").
			WithDetail("value", string(w.Variant))
	}
	for i, line := range w.Lines {
		if line.MaterialID == nil && line.VendorID == nil {
			return apperror.NewValidation("line must reference a material or a vendor").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity.IsNegative() {
			return apperror.NewValidation("quantity must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

var _ entity.Record = (*WorkItem)(nil)
