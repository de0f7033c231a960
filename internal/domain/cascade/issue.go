// Package cascade implements recursive soft-delete and soft-restore
// over the ownership graph, plus the transaction coordination around
// them.
package cascade

import (
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

// Issue codes. Hard codes name structural problems force cannot
// override; soft codes are business vetoes an operator may push
// through; warning codes never block.
const (
	// Hard: traversal and structure
	CodeNotFound         = "NOT_FOUND"
	CodeUnknownKind      = "UNKNOWN_KIND"
	CodeMaxDepthExceeded = "MAX_DEPTH_EXCEEDED"
	CodeAncestorDeleted  = "ANCESTOR_DELETED"
	CodeAncestorMissing  = "ANCESTOR_MISSING"

	// Hard: restoration invariants
	CodeDuplicateName      = "DUPLICATE_NAME"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeManagerDeleted     = "MANAGER_DELETED"
	CodeManagerNotEligible = "MANAGER_NOT_ELIGIBLE"

	// Hard: role invariants
	CodeLastAdmin = "LAST_ADMIN"

	// Soft: overridable with force
	CodeTenantActive = "TENANT_ACTIVE"

	// Warnings
	CodeCascadeImpact   = "CASCADE_IMPACT"
	CodeReferencePruned = "REFERENCE_PRUNED"
	CodeManualReattach  = "MANUAL_REATTACH_REQUIRED"
)

// Issue is one validation or traversal finding, attached to the record
// that produced it. Issues surface in results; they are not Go errors.
type Issue struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Kind    entity.Kind    `json:"kind"`
	ID      id.ID          `json:"id"`
	Details map[string]any `json:"details,omitempty"`

	// hard marks findings force cannot override; not serialized
	Hard bool `json:"-"`
}

// ValidationResult accumulates the findings of one kind's rules against
// one record.
type ValidationResult struct {
	Warnings []Issue
	Errors   []Issue
}

// Warn appends a non-blocking finding.
func (r *ValidationResult) Warn(code string, rec entity.Record, message string, details map[string]any) {
	r.Warnings = append(r.Warnings, Issue{
		Code: code, Message: message,
		Kind: rec.RecordKind(), ID: rec.RecordID(),
		Details: details,
	})
}

// Fail appends a blocking finding an operator may override with force.
func (r *ValidationResult) Fail(code string, rec entity.Record, message string, details map[string]any) {
	r.Errors = append(r.Errors, Issue{
		Code: code, Message: message,
		Kind: rec.RecordKind(), ID: rec.RecordID(),
		Details: details,
	})
}

// FailHard appends a structural finding force cannot override.
func (r *ValidationResult) FailHard(code string, rec entity.Record, message string, details map[string]any) {
	r.Errors = append(r.Errors, Issue{
		Code: code, Message: message,
		Kind: rec.RecordKind(), ID: rec.RecordID(),
		Details: details, Hard: true,
	})
}

// Valid reports whether no blocking findings accumulated.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// HasHard reports whether any finding is structural.
func (r *ValidationResult) HasHard() bool {
	for _, issue := range r.Errors {
		if issue.Hard {
			return true
		}
	}
	return false
}
