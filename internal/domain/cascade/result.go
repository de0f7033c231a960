package cascade

import (
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

// DeleteResult is the outcome of one top-level cascade delete.
// Success false means nothing was persisted: the surrounding
// transaction rolled every mark back.
type DeleteResult struct {
	Success bool `json:"success"`

	// DeletedCount is the number of rows that actually transitioned to
	// deleted; already-deleted rows revisited by a re-entrant call are
	// not counted.
	DeletedCount int `json:"deletedCount"`

	Warnings []Issue `json:"warnings"`
	Errors   []Issue `json:"errors"`
}

// RestoreResult is the outcome of one top-level cascade restore.
type RestoreResult struct {
	Success bool `json:"success"`

	// RestoredCount is the number of rows that transitioned back to
	// live.
	RestoredCount int `json:"restoredCount"`

	Warnings []Issue `json:"warnings"`
	Errors   []Issue `json:"errors"`
}

func newDeleteResult() *DeleteResult {
	return &DeleteResult{
		Warnings: make([]Issue, 0),
		Errors:   make([]Issue, 0),
	}
}

func newRestoreResult() *RestoreResult {
	return &RestoreResult{
		Warnings: make([]Issue, 0),
		Errors:   make([]Issue, 0),
	}
}

func (r *DeleteResult) warn(issue Issue)  { r.Warnings = append(r.Warnings, issue) }
func (r *DeleteResult) block(issue Issue) { r.Errors = append(r.Errors, issue) }

func (r *RestoreResult) warn(issue Issue)  { r.Warnings = append(r.Warnings, issue) }
func (r *RestoreResult) block(issue Issue) { r.Errors = append(r.Errors, issue) }

// hardIssue builds a structural Issue for a node the traversal could
// not even load.
func hardIssue(code string, kind entity.Kind, rid id.ID, message string, details map[string]any) Issue {
	return Issue{Code: code, Message: message, Kind: kind, ID: rid, Details: details, Hard: true}
}
