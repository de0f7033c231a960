package record

import (
	"context"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

// Annotation is a comment on a work item. Leaf kind: owned by the work
// item and by its author, owns nothing.
type Annotation struct {
	entity.Scoped

	WorkItemID id.ID `db:"work_item_id" json:"workItemId"`

	Body string `db:"body" json:"body"`
}

// NewAnnotation creates an annotation on the given work item. The
// author is the creating principal.
func NewAnnotation(tenantID, authorID, workItemID id.ID, body string) *Annotation {
	return &Annotation{
		Scoped:     entity.NewScoped(tenantID, authorID),
		WorkItemID: workItemID,
		Body:       body,
	}
}

func (a *Annotation) RecordKind() entity.Kind {
	return entity.KindAnnotation
}

func (a *Annotation) Ref(field string) (id.ID, bool) {
	switch field {
	case entity.FieldTenant:
		return a.TenantID, true
	case entity.FieldWorkItem:
		return a.WorkItemID, true
	case entity.FieldCreatedBy:
		return a.CreatedBy, !id.IsNil(a.CreatedBy)
	}
	return id.Nil(), false
}

func (a *Annotation) UniqueKey() (string, bool) {
	return "", false
}

// Validate checks annotation invariants.
func (a *Annotation) Validate(ctx context.Context) error {
	if id.IsNil(a.WorkItemID) {
		return apperror.NewValidation("work item is required").
			WithDetail("field", "workItemId")
	}
	if a.Body == "" {
		return apperror.NewValidation("body is required").
			WithDetail("field", "body")
	}
	return nil
}

var _ entity.Record = (*Annotation)(nil)
