package dto

import "time"

// DeleteRecordRequest tunes one cascade delete. All fields optional;
// an empty body means default tuning.
type DeleteRecordRequest struct {
	SkipValidation bool `json:"skipValidation"`
	Force          bool `json:"force"`
	MaxDepth       int  `json:"maxDepth" binding:"omitempty,min=1,max=10"`
}

// RestoreRecordRequest tunes one cascade restore. ValidateParents
// defaults to true when the field is absent.
type RestoreRecordRequest struct {
	SkipValidation  bool  `json:"skipValidation"`
	ValidateParents *bool `json:"validateParents"`
	MaxDepth        int   `json:"maxDepth" binding:"omitempty,min=1,max=10"`
}

// SweeperStatusResponse describes the purge scheduler state.
type SweeperStatusResponse struct {
	Running  bool       `json:"running"`
	Schedule string     `json:"schedule"`
	NextRun  *time.Time `json:"nextRun,omitempty"`
}
