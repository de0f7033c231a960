package purge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdeck/internal/core/entity"
)

func TestDefaultPolicyTiers(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())

	assert.Equal(t, 30, p.RetentionDays[entity.KindNotice])
	assert.Equal(t, 30, p.RetentionDays[entity.KindAttachment])
	assert.Equal(t, 90, p.RetentionDays[entity.KindMaterial])
	assert.Equal(t, 90, p.RetentionDays[entity.KindExternalParty])
	assert.Equal(t, 90, p.RetentionDays[entity.KindActivityRecord])
	assert.Equal(t, 90, p.RetentionDays[entity.KindAnnotation])
	assert.Equal(t, 365, p.RetentionDays[entity.KindWorkItem])
	assert.Equal(t, 365, p.RetentionDays[entity.KindPrincipal])
	assert.Equal(t, 365, p.RetentionDays[entity.KindDepartment])

	_, hasTenant := p.RetentionDays[entity.KindTenant]
	assert.False(t, hasTenant)
}

func TestPolicyCutoff(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2025, 7, 15, 9, 30, 0, 0, time.UTC)

	cutoff, ok := p.Cutoff(entity.KindNotice, now)
	require.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, -30), cutoff)

	// Tenants never expire, even if a policy sneaks an entry in.
	p.RetentionDays[entity.KindTenant] = 1
	_, ok = p.Cutoff(entity.KindTenant, now)
	assert.False(t, ok)
}

func TestPolicyValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"tenant retention", func(p *Policy) { p.RetentionDays[entity.KindTenant] = 30 }},
		{"zero days", func(p *Policy) { p.RetentionDays[entity.KindNotice] = 0 }},
		{"negative days", func(p *Policy) { p.RetentionDays[entity.KindNotice] = -5 }},
		{"empty hold", func(p *Policy) { p.Holds = map[entity.Kind]string{entity.KindNotice: ""} }},
		{"hold without retention", func(p *Policy) {
			delete(p.RetentionDays, entity.KindNotice)
			p.Holds = map[entity.Kind]string{entity.KindNotice: "age_days < 100"}
		}},
		{"archive without directory", func(p *Policy) { p.Archive = ArchiveConfig{Enabled: true} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestLoadPolicyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "retention.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schedule: "@every 6h"
retention_days:
  notice: 7
  attachment: 14
holds:
  notice: "age_days < 10"
archive:
  enabled: true
  directory: /var/lib/workdeck/archive
`), 0o644))

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "@every 6h", p.Schedule)
	// File sections replace defaults wholesale.
	assert.Equal(t, map[entity.Kind]int{
		entity.KindNotice:     7,
		entity.KindAttachment: 14,
	}, p.RetentionDays)
	assert.Equal(t, "age_days < 10", p.Holds[entity.KindNotice])
	assert.True(t, p.Archive.Enabled)
}

func TestLoadPolicyFileUnknownKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "retention.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
retention_days:
  ghost: 7
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestCompileHoldRejectsNonBool(t *testing.T) {
	_, err := compileHolds(map[entity.Kind]string{
		entity.KindNotice: `"not a bool"`,
	})
	require.Error(t, err)

	_, err = compileHolds(map[entity.Kind]string{
		entity.KindNotice: `age_days <`,
	})
	require.Error(t, err)

	hs, err := compileHolds(map[entity.Kind]string{
		entity.KindNotice: `age_days < 60 || kind == "notice"`,
	})
	require.NoError(t, err)
	assert.True(t, hs.has(entity.KindNotice))
	assert.False(t, hs.has(entity.KindAttachment))
}
