package record

import (
	"context"
	"time"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

// Notice is a message addressed to a principal. The recipient owns it:
// deleting the principal cascades into their notices. Short retention
// tier; notices churn fast.
type Notice struct {
	entity.Scoped

	RecipientID id.ID `db:"recipient_id" json:"recipientId"`

	Subject string `db:"subject" json:"subject"`

	Body string `db:"body" json:"body"`

	ReadAt *time.Time `db:"read_at" json:"readAt,omitempty"`
}

// NewNotice creates a notice addressed to the given principal.
func NewNotice(tenantID, createdBy, recipientID id.ID, subject, body string) *Notice {
	return &Notice{
		Scoped:      entity.NewScoped(tenantID, createdBy),
		RecipientID: recipientID,
		Subject:     subject,
		Body:        body,
	}
}

func (n *Notice) RecordKind() entity.Kind {
	return entity.KindNotice
}

func (n *Notice) Ref(field string) (id.ID, bool) {
	switch field {
	case entity.FieldTenant:
		return n.TenantID, true
	case entity.FieldRecipient:
		return n.RecipientID, true
	case entity.FieldCreatedBy:
		return n.CreatedBy, !id.IsNil(n.CreatedBy)
	}
	return id.Nil(), false
}

func (n *Notice) UniqueKey() (string, bool) {
	return "", false
}

// Read reports whether the recipient has opened the notice.
func (n *Notice) Read() bool {
	return n.ReadAt != nil
}

// Validate checks notice invariants.
func (n *Notice) Validate(ctx context.Context) error {
	if id.IsNil(n.RecipientID) {
		return apperror.NewValidation("recipient is required").
			WithDetail("field", "recipientId")
	}
	return nil
}

var _ entity.Record = (*Notice)(nil)
