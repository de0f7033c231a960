// Package purge permanently erases soft-deleted rows whose retention
// has lapsed. A scheduler runs the sweeper on a cron schedule; one
// transaction covers each multi-kind sweep, so a failing kind rolls
// back the whole pass.
package purge

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"workdeck/internal/core/entity"
)

// DefaultSchedule is the sweep cadence when the policy file sets none.
const DefaultSchedule = "@every 24h"

// ArchiveConfig controls pre-erasure archival of purge candidates.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

// Policy is the retention policy one sweep runs under. Loaded from
// retention.yaml and hot-reloaded on file change; the zero-config
// default carries the standard tiers.
type Policy struct {
	// Schedule is a cron expression (robfig/cron standard syntax,
	// descriptors like "@every 24h" included).
	Schedule string `yaml:"schedule"`

	// RetentionDays maps kind to days a soft-deleted row survives.
	// A kind absent here is never swept.
	RetentionDays map[entity.Kind]int `yaml:"retention_days"`

	// Holds maps kind to a CEL expression; candidate rows the
	// expression evaluates true for survive the sweep.
	Holds map[entity.Kind]string `yaml:"holds"`

	Archive ArchiveConfig `yaml:"archive"`
}

// DefaultPolicy returns the standard retention tiers: 30 days for the
// chatty leaf kinds, 90 for mid-weight records, 365 for the rows an
// operator is most likely to want back. Tenants are never swept.
func DefaultPolicy() *Policy {
	return &Policy{
		Schedule: DefaultSchedule,
		RetentionDays: map[entity.Kind]int{
			entity.KindNotice:     30,
			entity.KindAttachment: 30,

			entity.KindMaterial:       90,
			entity.KindExternalParty:  90,
			entity.KindActivityRecord: 90,
			entity.KindAnnotation:     90,

			entity.KindWorkItem:   365,
			entity.KindPrincipal:  365,
			entity.KindDepartment: 365,
		},
	}
}

// policyFile is the YAML shape; kinds arrive as strings and resolve
// through ParseKind so a typo fails the load instead of silently
// skipping a kind.
type policyFile struct {
	Schedule      string         `yaml:"schedule"`
	RetentionDays map[string]int `yaml:"retention_days"`
	Holds         map[string]string `yaml:"holds"`
	Archive       ArchiveConfig  `yaml:"archive"`
}

// Load reads a policy file. File values replace the corresponding
// default sections wholesale; sections absent from the file keep their
// defaults.
func Load(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var pf policyFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	p := DefaultPolicy()
	if pf.Schedule != "" {
		p.Schedule = pf.Schedule
	}
	if pf.RetentionDays != nil {
		p.RetentionDays = make(map[entity.Kind]int, len(pf.RetentionDays))
		for name, days := range pf.RetentionDays {
			kind, ok := entity.ParseKind(name)
			if !ok {
				return nil, fmt.Errorf("policy file %s: unknown kind %q in retention_days", path, name)
			}
			p.RetentionDays[kind] = days
		}
	}
	if pf.Holds != nil {
		p.Holds = make(map[entity.Kind]string, len(pf.Holds))
		for name, expr := range pf.Holds {
			kind, ok := entity.ParseKind(name)
			if !ok {
				return nil, fmt.Errorf("policy file %s: unknown kind %q in holds", path, name)
			}
			p.Holds[kind] = expr
		}
	}
	p.Archive = pf.Archive

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the policy against the sweep invariants. Tenant
// retention entries are rejected outright rather than ignored: a policy
// file claiming tenants expire is operator error.
func (p *Policy) Validate() error {
	for kind, days := range p.RetentionDays {
		if kind == entity.KindTenant {
			return fmt.Errorf("tenant is never swept; remove it from retention_days")
		}
		if days <= 0 {
			return fmt.Errorf("retention_days for %s must be positive, got %d", kind, days)
		}
	}
	for kind, expr := range p.Holds {
		if kind == entity.KindTenant {
			return fmt.Errorf("tenant is never swept; remove it from holds")
		}
		if expr == "" {
			return fmt.Errorf("empty hold expression for %s", kind)
		}
		if _, ok := p.RetentionDays[kind]; !ok {
			return fmt.Errorf("hold on %s without a retention_days entry", kind)
		}
	}
	if p.Archive.Enabled && p.Archive.Directory == "" {
		return fmt.Errorf("archive enabled without a directory")
	}
	return nil
}

// Cutoff returns the erasure cutoff of a kind at the given instant,
// false when the policy never sweeps the kind.
func (p *Policy) Cutoff(kind entity.Kind, now time.Time) (time.Time, bool) {
	if kind == entity.KindTenant {
		return time.Time{}, false
	}
	days, ok := p.RetentionDays[kind]
	if !ok {
		return time.Time{}, false
	}
	return now.UTC().Add(-time.Duration(days) * 24 * time.Hour), true
}
