// Package memory backs the record stores with guarded in-process maps.
// It serves tests and ephemeral environments; the production backend is
// storage/postgres.
package memory

import (
	"sync"

	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/record"
)

// Store holds one table per kind behind a shared lock and implements
// record.Registry over them.
type Store struct {
	mu sync.RWMutex

	tenants     *table[*record.Tenant]
	departments *table[*record.Department]
	principals  *table[*record.Principal]
	workItems   *table[*record.WorkItem]
	materials   *table[*record.Material]
	parties     *table[*record.ExternalParty]
	annotations *table[*record.Annotation]
	activities  *table[*record.ActivityRecord]
	notices     *table[*record.Notice]
	attachments *table[*record.Attachment]

	handles map[entity.Kind]record.Handle
	lines   map[entity.Kind]record.LineStore
}

// NewStore builds an empty store with every kind registered.
func NewStore() *Store {
	s := &Store{}
	s.tenants = newTable(&s.mu, entity.KindTenant, cloneTenant)
	s.departments = newTable(&s.mu, entity.KindDepartment, cloneDepartment)
	s.principals = newTable(&s.mu, entity.KindPrincipal, clonePrincipal)
	s.workItems = newTable(&s.mu, entity.KindWorkItem, cloneWorkItem)
	s.materials = newTable(&s.mu, entity.KindMaterial, cloneMaterial)
	s.parties = newTable(&s.mu, entity.KindExternalParty, cloneExternalParty)
	s.annotations = newTable(&s.mu, entity.KindAnnotation, cloneAnnotation)
	s.activities = newTable(&s.mu, entity.KindActivityRecord, cloneActivityRecord)
	s.notices = newTable(&s.mu, entity.KindNotice, cloneNotice)
	s.attachments = newTable(&s.mu, entity.KindAttachment, cloneAttachment)

	s.handles = map[entity.Kind]record.Handle{
		entity.KindTenant:         s.tenants,
		entity.KindDepartment:     s.departments,
		entity.KindPrincipal:      s.principals,
		entity.KindWorkItem:       s.workItems,
		entity.KindMaterial:       s.materials,
		entity.KindExternalParty:  s.parties,
		entity.KindAnnotation:     s.annotations,
		entity.KindActivityRecord: s.activities,
		entity.KindNotice:         s.notices,
		entity.KindAttachment:     s.attachments,
	}
	s.lines = map[entity.Kind]record.LineStore{
		entity.KindWorkItem:       &workItemLines{s: s},
		entity.KindActivityRecord: &activityLines{s: s},
	}
	return s
}

// Handle resolves the kind-generic storage surface of a kind.
func (s *Store) Handle(kind entity.Kind) (record.Handle, bool) {
	h, ok := s.handles[kind]
	return h, ok
}

// LinesFor resolves the line table of a kind, for kinds that own one.
func (s *Store) LinesFor(kind entity.Kind) (record.LineStore, bool) {
	l, ok := s.lines[kind]
	return l, ok
}

// Principals returns the principal-specific lookups.
func (s *Store) Principals() record.PrincipalQueries {
	return principalQueries{s: s}
}

var _ record.Registry = (*Store)(nil)

// --- Typed CRUD accessors ---

func (s *Store) Tenants() record.Store[*record.Tenant]            { return s.tenants }
func (s *Store) Departments() record.Store[*record.Department]    { return s.departments }
func (s *Store) Members() record.Store[*record.Principal]         { return s.principals }
func (s *Store) WorkItems() record.Store[*record.WorkItem]        { return s.workItems }
func (s *Store) Materials() record.Store[*record.Material]        { return s.materials }
func (s *Store) Parties() record.Store[*record.ExternalParty]     { return s.parties }
func (s *Store) Annotations() record.Store[*record.Annotation]    { return s.annotations }
func (s *Store) Activities() record.Store[*record.ActivityRecord] { return s.activities }
func (s *Store) Notices() record.Store[*record.Notice]            { return s.notices }
func (s *Store) Attachments() record.Store[*record.Attachment]    { return s.attachments }

// --- Snapshotting for transaction rollback ---

type snapshot struct {
	tenants     map[id.ID]*record.Tenant
	departments map[id.ID]*record.Department
	principals  map[id.ID]*record.Principal
	workItems   map[id.ID]*record.WorkItem
	materials   map[id.ID]*record.Material
	parties     map[id.ID]*record.ExternalParty
	annotations map[id.ID]*record.Annotation
	activities  map[id.ID]*record.ActivityRecord
	notices     map[id.ID]*record.Notice
	attachments map[id.ID]*record.Attachment
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		tenants:     snapshotRows(s.tenants),
		departments: snapshotRows(s.departments),
		principals:  snapshotRows(s.principals),
		workItems:   snapshotRows(s.workItems),
		materials:   snapshotRows(s.materials),
		parties:     snapshotRows(s.parties),
		annotations: snapshotRows(s.annotations),
		activities:  snapshotRows(s.activities),
		notices:     snapshotRows(s.notices),
		attachments: snapshotRows(s.attachments),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	restoreRows(s.tenants, snap.tenants)
	restoreRows(s.departments, snap.departments)
	restoreRows(s.principals, snap.principals)
	restoreRows(s.workItems, snap.workItems)
	restoreRows(s.materials, snap.materials)
	restoreRows(s.parties, snap.parties)
	restoreRows(s.annotations, snap.annotations)
	restoreRows(s.activities, snap.activities)
	restoreRows(s.notices, snap.notices)
	restoreRows(s.attachments, snap.attachments)
}
