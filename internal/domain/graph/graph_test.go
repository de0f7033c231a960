package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdeck/internal/core/entity"
)

func TestNewValidates(t *testing.T) {
	g, err := New()
	require.NoError(t, err)
	require.NotNil(t, g)
}

func TestEveryOwnershipEdgeIsGatedOnRestore(t *testing.T) {
	g := MustNew()

	for _, parent := range entity.Kinds() {
		for _, edge := range g.Children(parent) {
			refs := g.ParentRefs(edge.Child)
			found := false
			for _, r := range refs {
				if r.Field == edge.Field && r.Parent == edge.Parent {
					found = true
					break
				}
			}
			assert.True(t, found,
				"edge %s->%s via %s has no matching parent ref on %s",
				edge.Parent, edge.Child, edge.Field, edge.Child)
		}
	}
}

func TestTenantOwnsTopLevelKinds(t *testing.T) {
	g := MustNew()

	children := g.Children(entity.KindTenant)
	got := make(map[entity.Kind]bool)
	for _, e := range children {
		got[e.Child] = true
		assert.Equal(t, entity.FieldTenant, e.Field)
	}

	assert.True(t, got[entity.KindDepartment])
	assert.True(t, got[entity.KindPrincipal])
	assert.True(t, got[entity.KindWorkItem])
	assert.True(t, got[entity.KindMaterial])
	assert.True(t, got[entity.KindExternalParty])
}

func TestLeafKindsOwnNothing(t *testing.T) {
	g := MustNew()

	for _, k := range []entity.Kind{
		entity.KindAnnotation,
		entity.KindActivityRecord,
		entity.KindNotice,
		entity.KindAttachment,
		entity.KindMaterial,
		entity.KindExternalParty,
	} {
		assert.Empty(t, g.Children(k), "%s should own nothing", k)
	}
}

func TestValueRefsOnlyOnMaterialAndExternalParty(t *testing.T) {
	g := MustNew()

	require.Len(t, g.ValueRefs(entity.KindMaterial), 2)
	require.Len(t, g.ValueRefs(entity.KindExternalParty), 2)

	for _, k := range entity.Kinds() {
		if k == entity.KindMaterial || k == entity.KindExternalParty {
			continue
		}
		assert.Empty(t, g.ValueRefs(k))
	}
}

func TestPurgeOrderErasesDependentsFirst(t *testing.T) {
	g := MustNew()

	order := g.PurgeOrder()
	require.Len(t, order, len(entity.Kinds()))

	pos := make(map[entity.Kind]int, len(order))
	for i, k := range order {
		pos[k] = i
	}

	// Children must appear before the kinds they reference.
	for _, parent := range entity.Kinds() {
		for _, edge := range g.Children(parent) {
			assert.Less(t, pos[edge.Child], pos[edge.Parent],
				"%s must purge before %s", edge.Child, edge.Parent)
		}
	}

	assert.Equal(t, entity.KindTenant, order[len(order)-1], "tenant erases last (and never in practice)")
}
