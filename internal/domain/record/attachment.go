package record

import (
	"context"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

// Attachment is file metadata on a work item. The bytes live in the
// blob store under StorageKey; the purge sweeper releases the blob
// before erasing the row.
type Attachment struct {
	entity.Scoped

	WorkItemID id.ID `db:"work_item_id" json:"workItemId"`

	FileName string `db:"file_name" json:"fileName"`

	ContentType string `db:"content_type" json:"contentType"`

	SizeBytes int64 `db:"size_bytes" json:"sizeBytes"`

	// StorageKey locates the blob in external storage
	StorageKey string `db:"storage_key" json:"storageKey"`
}

// NewAttachment creates attachment metadata on the given work item.
func NewAttachment(tenantID, createdBy, workItemID id.ID, fileName, contentType, storageKey string, sizeBytes int64) *Attachment {
	return &Attachment{
		Scoped:      entity.NewScoped(tenantID, createdBy),
		WorkItemID:  workItemID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		StorageKey:  storageKey,
	}
}

func (a *Attachment) RecordKind() entity.Kind {
	return entity.KindAttachment
}

func (a *Attachment) Ref(field string) (id.ID, bool) {
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

func (a *Attachment) UniqueKey() (string, bool) {
	return "", false
}

// Validate checks attachment invariants.
func (a *Attachment) Validate(ctx context.Context) error {
	if id.IsNil(a.WorkItemID) {
		return apperror.NewValidation("work item is required").
			WithDetail("field", "workItemId")
	}
	if a.FileName == "" {
		return apperror.NewValidation("file name is required").
			WithDetail("field", "fileName")
	}
	if a.StorageKey == "" {
		return apperror.NewValidation("storage key is required").
			WithDetail("field", "storageKey")
	}
	return nil
}

var _ entity.Record = (*Attachment)(nil)
