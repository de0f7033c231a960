package rules

import (
	"context"
	"fmt"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/cascade"
	"workdeck/internal/domain/record"
)

// uniqueKeyFree blocks restoring a record whose uniqueness key has
// since been taken by a live record. Not overridable; the caller must
// rename or remove the live holder first.
func (r *Registry) uniqueKeyFree(ctx context.Context, rec entity.Record, res *cascade.ValidationResult) error {
	key, keyed := rec.UniqueKey()
	if !keyed || key == "" {
		return nil
	}
	h, ok := r.stores.Handle(rec.RecordKind())
	if !ok {
		return fmt.Errorf("rules: no handle registered for %s", rec.RecordKind())
	}

	// Tenant names are unique globally, everything else per tenant.
	scope := rec.RecordTenant()
	if rec.RecordKind() == entity.KindTenant {
		scope = id.Nil()
	}

	taken, err := h.CountLiveByKey(ctx, scope, key, rec.RecordID())
	if err != nil {
		return fmt.Errorf("count live by key: %w", err)
	}
	if taken > 0 {
		code := cascade.CodeDuplicateName
		field := "name"
		if rec.RecordKind() == entity.KindPrincipal {
			code = cascade.CodeDuplicateEmail
			field = "email"
		}
		res.FailHard(code, rec,
			fmt.Sprintf("a live %s with this %s already exists", rec.RecordKind(), field),
			map[string]any{field: key})
	}
	return nil
}

// managerEligible re-checks the manager invariant before a department
// comes back: the referenced principal must still exist, be live and
// hold an elevated role. Not overridable.
func (r *Registry) managerEligible(ctx context.Context, rec entity.Record, res *cascade.ValidationResult) error {
	d, ok := rec.(*record.Department)
	if !ok {
		return fmt.Errorf("rules: department rule got %s", rec.RecordKind())
	}
	if d.ManagerID == nil {
		return nil
	}

	principals, ok := r.stores.Handle(entity.KindPrincipal)
	if !ok {
		return fmt.Errorf("rules: no handle registered for %s", entity.KindPrincipal)
	}
	mgr, err := principals.Get(ctx, *d.ManagerID, record.ScopeAll)
	if err != nil {
		if apperror.IsNotFound(err) {
			res.FailHard(cascade.CodeManagerDeleted, rec,
				"department manager no longer exists",
				map[string]any{"managerId": d.ManagerID.String()})
			return nil
		}
		return fmt.Errorf("load manager %s: %w", d.ManagerID, err)
	}
	if mgr.Deleted() {
		res.FailHard(cascade.CodeManagerDeleted, rec,
			"department manager is deleted; restore the manager first",
			map[string]any{"managerId": d.ManagerID.String()})
		return nil
	}

	p, ok := mgr.(*record.Principal)
	if !ok {
		return fmt.Errorf("rules: manager lookup returned %s", mgr.RecordKind())
	}
	if !p.Elevated() {
		res.FailHard(cascade.CodeManagerNotEligible, rec,
			"department manager must hold an elevated role",
			map[string]any{"managerId": d.ManagerID.String(), "role": p.Role})
	}
	return nil
}
