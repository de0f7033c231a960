package memory

import (
	"context"

	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

func lineRefMatches(field string, materialID, vendorID *id.ID, rid id.ID) bool {
	switch field {
	case entity.FieldMaterial:
		return materialID != nil && *materialID == rid
	case entity.FieldVendor:
		return vendorID != nil && *vendorID == rid
	}
	return false
}

// workItemLines projects the consumption lines embedded in work items
// as a line table. Lines under soft-deleted owners are left alone so a
// later restore brings the item back whole.
type workItemLines struct {
	s *Store
}

func (l *workItemLines) Owner() entity.Kind {
	return entity.KindWorkItem
}

func (l *workItemLines) CountRefs(ctx context.Context, field string, rid id.ID) (int64, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	var n int64
	for _, w := range l.s.workItems.rows {
		if w.Deleted() {
			continue
		}
		for _, line := range w.Lines {
			if lineRefMatches(field, line.MaterialID, line.VendorID, rid) {
				n++
			}
		}
	}
	return n, nil
}

func (l *workItemLines) PruneRefs(ctx context.Context, field string, rid id.ID) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	var n int64
	for _, w := range l.s.workItems.rows {
		if w.Deleted() {
			continue
		}
		kept := w.Lines[:0]
		for _, line := range w.Lines {
			if lineRefMatches(field, line.MaterialID, line.VendorID, rid) {
				n++
				continue
			}
			kept = append(kept, line)
		}
		w.Lines = kept
	}
	return n, nil
}

// activityLines projects the consumption lines embedded in activity
// records as a line table.
type activityLines struct {
	s *Store
}

func (l *activityLines) Owner() entity.Kind {
	return entity.KindActivityRecord
}

func (l *activityLines) CountRefs(ctx context.Context, field string, rid id.ID) (int64, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	var n int64
	for _, r := range l.s.activities.rows {
		if r.Deleted() {
			continue
		}
		for _, line := range r.Lines {
			if lineRefMatches(field, line.MaterialID, line.VendorID, rid) {
				n++
			}
		}
	}
	return n, nil
}

func (l *activityLines) PruneRefs(ctx context.Context, field string, rid id.ID) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	var n int64
	for _, r := range l.s.activities.rows {
		if r.Deleted() {
			continue
		}
		kept := r.Lines[:0]
		for _, line := range r.Lines {
			if lineRefMatches(field, line.MaterialID, line.VendorID, rid) {
				n++
				continue
			}
			kept = append(kept, line)
		}
		r.Lines = kept
	}
	return n, nil
}

// principalQueries answers the principal lookups deletion rules need.
type principalQueries struct {
	s *Store
}

func (q principalQueries) CountLiveAdmins(ctx context.Context, tenantID id.ID) (int64, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()

	var n int64
	for _, p := range q.s.principals.rows {
		if !p.Deleted() && p.TenantID == tenantID && p.IsAdmin() {
			n++
		}
	}
	return n, nil
}
