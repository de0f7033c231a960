package rules

import (
	"context"
	"fmt"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/domain/cascade"
	"workdeck/internal/domain/record"
)

// tenantMustBeSuspended vetoes deleting a tenant that is still active.
// Overridable with force.
func (r *Registry) tenantMustBeSuspended(ctx context.Context, rec entity.Record, res *cascade.ValidationResult) error {
	t, ok := rec.(*record.Tenant)
	if !ok {
		return fmt.Errorf("rules: tenant rule got %s", rec.RecordKind())
	}
	if t.Active() {
		res.Fail(cascade.CodeTenantActive, rec,
			"tenant is still active; suspend it before deleting",
			map[string]any{"status": string(t.Status)})
	}
	return nil
}

// lastAdminGuard blocks removing the last live admin of a live tenant.
// Not overridable. When the owning tenant is itself deleted (or being
// deleted higher up the same cascade) the guard stands down so the
// tenant's subtree can go down with it.
func (r *Registry) lastAdminGuard(ctx context.Context, rec entity.Record, res *cascade.ValidationResult) error {
	p, ok := rec.(*record.Principal)
	if !ok {
		return fmt.Errorf("rules: principal rule got %s", rec.RecordKind())
	}
	if !p.IsAdmin() {
		return nil
	}

	tenants, ok := r.stores.Handle(entity.KindTenant)
	if !ok {
		return fmt.Errorf("rules: no handle registered for %s", entity.KindTenant)
	}
	tenant, err := tenants.Get(ctx, p.TenantID, record.ScopeAll)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("load tenant %s: %w", p.TenantID, err)
	}
	if tenant.Deleted() {
		return nil
	}

	admins, err := r.stores.Principals().CountLiveAdmins(ctx, p.TenantID)
	if err != nil {
		return fmt.Errorf("count live admins: %w", err)
	}
	if admins <= 1 {
		res.FailHard(cascade.CodeLastAdmin, rec,
			"cannot delete the last admin of a live tenant",
			map[string]any{"liveAdmins": admins})
	}
	return nil
}

// impactWarning counts live direct descendants and warns when the
// cascade footprint reaches the configured threshold. Warnings never
// block.
func (r *Registry) impactWarning(ctx context.Context, rec entity.Record, res *cascade.ValidationResult) error {
	var total int64
	for _, edge := range r.graph.Children(rec.RecordKind()) {
		h, ok := r.stores.Handle(edge.Child)
		if !ok {
			return fmt.Errorf("rules: no handle registered for %s", edge.Child)
		}
		n, err := h.CountByRef(ctx, edge.Field, rec.RecordID(), record.ScopeLive)
		if err != nil {
			return fmt.Errorf("count %s by %s: %w", edge.Child, edge.Field, err)
		}
		total += n
	}
	if total >= r.cfg.ImpactWarnThreshold {
		res.Warn(cascade.CodeCascadeImpact, rec,
			fmt.Sprintf("deleting this %s cascades over %d live records", rec.RecordKind(), total),
			map[string]any{"liveDescendants": total})
	}
	return nil
}
