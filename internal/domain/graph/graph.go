// Package graph holds the static ownership topology of the record
// kinds. It is the single source of truth for cascade traversal,
// restore gating and purge ordering; nothing outside this package
// hardcodes an edge.
package graph

import (
	"fmt"

	"workdeck/internal/core/entity"
)

// Edge is a cascade-owned parent→child relationship. Deleting the
// parent recurses into every child whose Field column holds the parent
// ID; restore walks the same direction.
type Edge struct {
	Parent entity.Kind
	Child  entity.Kind

	// Field is the child's reference column holding the parent ID
	Field string
}

// ParentRef maps one of a kind's own reference fields to the kind it
// points at. Restoration refuses to resurrect a record while any of
// these targets is soft-deleted.
type ParentRef struct {
	Field  string
	Parent entity.Kind
}

// ValueRef is a reference-only inbound edge: line items of Referrer
// point at Target through Field. Deleting the target prunes matching
// lines on live referrers instead of cascading.
type ValueRef struct {
	Target   entity.Kind
	Referrer entity.Kind
	Field    string
}

// Graph is the immutable kind topology, built once at startup.
type Graph struct {
	children  map[entity.Kind][]Edge
	parents   map[entity.Kind][]ParentRef
	valueRefs map[entity.Kind][]ValueRef
	purge     []entity.Kind
}

// New builds the topology and validates it: known kinds only, no
// self-edges, no ownership cycles.
func New() (*Graph, error) {
	g := &Graph{
		children:  make(map[entity.Kind][]Edge),
		parents:   make(map[entity.Kind][]ParentRef),
		valueRefs: make(map[entity.Kind][]ValueRef),
	}

	own := func(parent, child entity.Kind, field string) {
		g.children[parent] = append(g.children[parent], Edge{Parent: parent, Child: child, Field: field})
	}
	ref := func(kind entity.Kind, field string, parent entity.Kind) {
		g.parents[kind] = append(g.parents[kind], ParentRef{Field: field, Parent: parent})
	}
	value := func(target, referrer entity.Kind, field string) {
		g.valueRefs[target] = append(g.valueRefs[target], ValueRef{Target: target, Referrer: referrer, Field: field})
	}

	// Ownership edges.
	own(entity.KindTenant, entity.KindDepartment, entity.FieldTenant)
	own(entity.KindTenant, entity.KindPrincipal, entity.FieldTenant)
	own(entity.KindTenant, entity.KindWorkItem, entity.FieldTenant)
	own(entity.KindTenant, entity.KindMaterial, entity.FieldTenant)
	own(entity.KindTenant, entity.KindExternalParty, entity.FieldTenant)

	own(entity.KindDepartment, entity.KindPrincipal, entity.FieldDepartment)
	own(entity.KindDepartment, entity.KindWorkItem, entity.FieldDepartment)

	own(entity.KindPrincipal, entity.KindWorkItem, entity.FieldCreatedBy)
	own(entity.KindPrincipal, entity.KindAnnotation, entity.FieldCreatedBy)
	own(entity.KindPrincipal, entity.KindActivityRecord, entity.FieldCreatedBy)
	own(entity.KindPrincipal, entity.KindNotice, entity.FieldRecipient)

	own(entity.KindWorkItem, entity.KindAnnotation, entity.FieldWorkItem)
	own(entity.KindWorkItem, entity.KindActivityRecord, entity.FieldWorkItem)
	own(entity.KindWorkItem, entity.KindAttachment, entity.FieldWorkItem)

	// Parent references gating restore. Every ownership edge shows up
	// here inverted; optional fields are skipped at runtime when unset.
	ref(entity.KindDepartment, entity.FieldTenant, entity.KindTenant)

	ref(entity.KindPrincipal, entity.FieldTenant, entity.KindTenant)
	ref(entity.KindPrincipal, entity.FieldDepartment, entity.KindDepartment)

	ref(entity.KindWorkItem, entity.FieldTenant, entity.KindTenant)
	ref(entity.KindWorkItem, entity.FieldDepartment, entity.KindDepartment)
	ref(entity.KindWorkItem, entity.FieldCreatedBy, entity.KindPrincipal)

	ref(entity.KindMaterial, entity.FieldTenant, entity.KindTenant)
	ref(entity.KindExternalParty, entity.FieldTenant, entity.KindTenant)

	ref(entity.KindAnnotation, entity.FieldTenant, entity.KindTenant)
	ref(entity.KindAnnotation, entity.FieldWorkItem, entity.KindWorkItem)
	ref(entity.KindAnnotation, entity.FieldCreatedBy, entity.KindPrincipal)

	ref(entity.KindActivityRecord, entity.FieldTenant, entity.KindTenant)
	ref(entity.KindActivityRecord, entity.FieldWorkItem, entity.KindWorkItem)
	ref(entity.KindActivityRecord, entity.FieldCreatedBy, entity.KindPrincipal)

	ref(entity.KindNotice, entity.FieldTenant, entity.KindTenant)
	ref(entity.KindNotice, entity.FieldRecipient, entity.KindPrincipal)

	ref(entity.KindAttachment, entity.FieldTenant, entity.KindTenant)
	ref(entity.KindAttachment, entity.FieldWorkItem, entity.KindWorkItem)

	// Reference-only edges through line tables.
	value(entity.KindMaterial, entity.KindWorkItem, entity.FieldMaterial)
	value(entity.KindMaterial, entity.KindActivityRecord, entity.FieldMaterial)
	value(entity.KindExternalParty, entity.KindWorkItem, entity.FieldVendor)
	value(entity.KindExternalParty, entity.KindActivityRecord, entity.FieldVendor)

	if err := g.validate(); err != nil {
		return nil, err
	}
	order, err := g.topoOrder()
	if err != nil {
		return nil, err
	}
	g.purge = order
	return g, nil
}

// MustNew builds the topology, panicking on an invalid edge table.
// Wiring code calls this once at startup.
func MustNew() *Graph {
	g, err := New()
	if err != nil {
		panic(err)
	}
	return g
}

// Children returns the cascade-owned edges out of a kind, in fixed
// declaration order.
func (g *Graph) Children(kind entity.Kind) []Edge {
	return g.children[kind]
}

// ParentRefs returns the reference fields restore gates on for a kind.
func (g *Graph) ParentRefs(kind entity.Kind) []ParentRef {
	return g.parents[kind]
}

// ValueRefs returns the reference-only inbound edges of a kind. Empty
// for every kind except Material and ExternalParty.
func (g *Graph) ValueRefs(kind entity.Kind) []ValueRef {
	return g.valueRefs[kind]
}

// PurgeOrder returns all kinds children-first, so a sweep erases
// dependents before the rows they reference.
func (g *Graph) PurgeOrder() []entity.Kind {
	out := make([]entity.Kind, len(g.purge))
	copy(out, g.purge)
	return out
}

func (g *Graph) validate() error {
	known := make(map[entity.Kind]bool)
	for _, k := range entity.Kinds() {
		known[k] = true
	}
	for parent, edges := range g.children {
		if !known[parent] {
			return fmt.Errorf("graph: unknown parent kind %q", parent)
		}
		for _, e := range edges {
			if !known[e.Child] {
				return fmt.Errorf("graph: unknown child kind %q", e.Child)
			}
			if e.Parent == e.Child {
				return fmt.Errorf("graph: self edge on %q", e.Parent)
			}
			if e.Field == "" {
				return fmt.Errorf("graph: edge %s->%s without field", e.Parent, e.Child)
			}
		}
	}
	for kind, refs := range g.parents {
		if !known[kind] {
			return fmt.Errorf("graph: unknown kind %q in parent refs", kind)
		}
		for _, r := range refs {
			if !known[r.Parent] {
				return fmt.Errorf("graph: unknown parent kind %q in refs of %q", r.Parent, kind)
			}
		}
	}
	return nil
}

// topoOrder runs Kahn's algorithm over the ownership edges and returns
// kinds children-first. Fails on a cycle, which would make cascade
// termination depend on the visited set alone.
func (g *Graph) topoOrder() ([]entity.Kind, error) {
	kinds := entity.Kinds()
	inDegree := make(map[entity.Kind]int, len(kinds))
	for _, k := range kinds {
		inDegree[k] = 0
	}
	for _, edges := range g.children {
		for _, e := range edges {
			inDegree[e.Child]++
		}
	}

	// Queue seeded in canonical order for deterministic output.
	var queue []entity.Kind
	for _, k := range kinds {
		if inDegree[k] == 0 {
			queue = append(queue, k)
		}
	}

	parentFirst := make([]entity.Kind, 0, len(kinds))
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		parentFirst = append(parentFirst, k)
		for _, e := range g.children[k] {
			inDegree[e.Child]--
			if inDegree[e.Child] == 0 {
				queue = append(queue, e.Child)
			}
		}
	}
	if len(parentFirst) != len(kinds) {
		return nil, fmt.Errorf("graph: ownership edges contain a cycle")
	}

	childrenFirst := make([]entity.Kind, len(parentFirst))
	for i, k := range parentFirst {
		childrenFirst[len(parentFirst)-1-i] = k
	}
	return childrenFirst, nil
}
