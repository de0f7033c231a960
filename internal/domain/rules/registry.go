// Package rules holds the per-kind validation run before a record is
// soft-deleted or restored. The kind-to-rules binding is resolved once
// at construction into typed tables; nothing dispatches on kind strings
// per call.
package rules

import (
	"context"

	"workdeck/internal/core/entity"
	"workdeck/internal/domain/cascade"
	"workdeck/internal/domain/graph"
	"workdeck/internal/domain/record"
)

// Config tunes the rule set.
type Config struct {
	// ImpactWarnThreshold is the live direct-descendant count at which
	// deleting an owner earns a CASCADE_IMPACT warning.
	ImpactWarnThreshold int64
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{ImpactWarnThreshold: 10}
}

type deletionRule func(ctx context.Context, rec entity.Record, res *cascade.ValidationResult) error

type restorationRule func(ctx context.Context, rec entity.Record, res *cascade.ValidationResult) error

// Registry binds kinds to their rules. Kinds absent from a table
// (leaf kinds on deletion, unkeyed kinds on restoration) validate
// trivially.
type Registry struct {
	stores record.Registry
	graph  *graph.Graph
	cfg    Config

	deletion    map[entity.Kind][]deletionRule
	restoration map[entity.Kind][]restorationRule
}

// New builds the registry over the given stores and topology.
func New(stores record.Registry, g *graph.Graph, cfg Config) *Registry {
	if cfg.ImpactWarnThreshold <= 0 {
		cfg.ImpactWarnThreshold = DefaultConfig().ImpactWarnThreshold
	}
	r := &Registry{stores: stores, graph: g, cfg: cfg}

	r.deletion = map[entity.Kind][]deletionRule{
		entity.KindTenant:     {r.tenantMustBeSuspended, r.impactWarning},
		entity.KindDepartment: {r.impactWarning},
		entity.KindPrincipal:  {r.lastAdminGuard, r.impactWarning},
		entity.KindWorkItem:   {r.impactWarning},
	}

	r.restoration = map[entity.Kind][]restorationRule{
		entity.KindTenant:        {r.uniqueKeyFree},
		entity.KindDepartment:    {r.uniqueKeyFree, r.managerEligible},
		entity.KindPrincipal:     {r.uniqueKeyFree},
		entity.KindMaterial:      {r.uniqueKeyFree},
		entity.KindExternalParty: {r.uniqueKeyFree},
	}

	return r
}

// ValidateDeletion runs the kind's deletion rules against one record.
// The returned error is infrastructure failure only; findings land in
// the result.
func (r *Registry) ValidateDeletion(ctx context.Context, rec entity.Record) (*cascade.ValidationResult, error) {
	res := &cascade.ValidationResult{}
	for _, rule := range r.deletion[rec.RecordKind()] {
		if err := rule(ctx, rec, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// ValidateRestoration runs the kind's restoration rules against one
// record.
func (r *Registry) ValidateRestoration(ctx context.Context, rec entity.Record) (*cascade.ValidationResult, error) {
	res := &cascade.ValidationResult{}
	for _, rule := range r.restoration[rec.RecordKind()] {
		if err := rule(ctx, rec, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

var _ cascade.Ruleset = (*Registry)(nil)
