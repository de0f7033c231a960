package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

type mockRecord struct {
	entity.Scoped
	Name string `db:"name" json:"name"`
	Unit string `db:"unit" json:"unit"`
	Memo string `db:"-" json:"memo"`
}

func TestExtractDBColumnsLifecycleFields(t *testing.T) {
	cols := ExtractDBColumns[mockRecord]()

	expectedCols := []string{
		"id", "is_deleted", "deleted_at", "deleted_by", "version",
		"created_at", "updated_at", "tenant_id", "created_by",
		"name", "unit",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "memo")
}

func TestStructToMapLifecycleFields(t *testing.T) {
	now := time.Now().UTC()
	actor := id.New()

	rec := mockRecord{
		Scoped: entity.NewScoped(id.New(), actor),
		Name:   "Steel pipe DN50",
		Unit:   "m",
		Memo:   "not persisted",
	}
	rec.MarkDeleted(actor, now)

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, true, m["is_deleted"])
	assert.Equal(t, &now, m["deleted_at"])
	assert.Equal(t, &actor, m["deleted_by"])
	assert.Equal(t, rec.TenantID, m["tenant_id"])
	assert.Equal(t, "Steel pipe DN50", m["name"])
	assert.Equal(t, "m", m["unit"])
	assert.NotContains(t, m, "memo")
}
