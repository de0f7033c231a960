package record_repo

import (
	"context"
	"fmt"

	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/record"
	"workdeck/internal/infrastructure/storage/postgres"
)

// Registry wires one store per kind and implements record.Registry
// over them. Built once at startup; the engines never see kind strings
// that did not resolve here.
type Registry struct {
	tenants     *store[*record.Tenant]
	departments *store[*record.Department]
	principals  *store[*record.Principal]
	workItems   *workItemStore
	materials   *store[*record.Material]
	parties     *store[*record.ExternalParty]
	annotations *store[*record.Annotation]
	activities  *activityRecordStore
	notices     *store[*record.Notice]
	attachments *store[*record.Attachment]

	handles map[entity.Kind]record.Handle
	lines   map[entity.Kind]record.LineStore

	txManager *postgres.TxManager
}

// New builds the registry over the shared transaction manager.
func New(txManager *postgres.TxManager) *Registry {
	r := &Registry{txManager: txManager}

	r.tenants = newStore(txManager, entity.KindTenant, "tenants", "name",
		nil,
		func() *record.Tenant { return &record.Tenant{} })
	r.departments = newStore(txManager, entity.KindDepartment, "departments", "name",
		[]string{entity.FieldTenant, entity.FieldCreatedBy, entity.FieldManager},
		func() *record.Department { return &record.Department{} })
	r.principals = newStore(txManager, entity.KindPrincipal, "principals", "email",
		[]string{entity.FieldTenant, entity.FieldCreatedBy, entity.FieldDepartment},
		func() *record.Principal { return &record.Principal{} })
	r.workItems = newWorkItemStore(txManager)
	r.materials = newStore(txManager, entity.KindMaterial, "materials", "name",
		[]string{entity.FieldTenant, entity.FieldCreatedBy},
		func() *record.Material { return &record.Material{} })
	r.parties = newStore(txManager, entity.KindExternalParty, "external_parties", "name",
		[]string{entity.FieldTenant, entity.FieldCreatedBy},
		func() *record.ExternalParty { return &record.ExternalParty{} })
	r.annotations = newStore(txManager, entity.KindAnnotation, "annotations", "",
		[]string{entity.FieldTenant, entity.FieldCreatedBy, entity.FieldWorkItem},
		func() *record.Annotation { return &record.Annotation{} })
	r.activities = newActivityRecordStore(txManager)
	r.notices = newStore(txManager, entity.KindNotice, "notices", "",
		[]string{entity.FieldTenant, entity.FieldCreatedBy, entity.FieldRecipient},
		func() *record.Notice { return &record.Notice{} })
	r.attachments = newStore(txManager, entity.KindAttachment, "attachments", "",
		[]string{entity.FieldTenant, entity.FieldCreatedBy, entity.FieldWorkItem},
		func() *record.Attachment { return &record.Attachment{} })

	r.handles = map[entity.Kind]record.Handle{
		entity.KindTenant:         r.tenants,
		entity.KindDepartment:     r.departments,
		entity.KindPrincipal:      r.principals,
		entity.KindWorkItem:       r.workItems,
		entity.KindMaterial:       r.materials,
		entity.KindExternalParty:  r.parties,
		entity.KindAnnotation:     r.annotations,
		entity.KindActivityRecord: r.activities,
		entity.KindNotice:         r.notices,
		entity.KindAttachment:     r.attachments,
	}
	r.lines = map[entity.Kind]record.LineStore{
		entity.KindWorkItem:       r.workItems.lines,
		entity.KindActivityRecord: r.activities.lines,
	}
	return r
}

// Handle resolves the kind-generic storage surface of a kind.
func (r *Registry) Handle(kind entity.Kind) (record.Handle, bool) {
	h, ok := r.handles[kind]
	return h, ok
}

// LinesFor resolves the line table of a kind, for kinds that own one.
func (r *Registry) LinesFor(kind entity.Kind) (record.LineStore, bool) {
	l, ok := r.lines[kind]
	return l, ok
}

// Principals returns the principal-specific lookups.
func (r *Registry) Principals() record.PrincipalQueries {
	return principalQueries{txManager: r.txManager}
}

var _ record.Registry = (*Registry)(nil)

// --- Typed CRUD accessors ---

func (r *Registry) Tenants() record.Store[*record.Tenant]            { return r.tenants }
func (r *Registry) Departments() record.Store[*record.Department]    { return r.departments }
func (r *Registry) Members() record.Store[*record.Principal]         { return r.principals }
func (r *Registry) WorkItems() record.Store[*record.WorkItem]        { return r.workItems }
func (r *Registry) Materials() record.Store[*record.Material]        { return r.materials }
func (r *Registry) Parties() record.Store[*record.ExternalParty]     { return r.parties }
func (r *Registry) Annotations() record.Store[*record.Annotation]    { return r.annotations }
func (r *Registry) Activities() record.Store[*record.ActivityRecord] { return r.activities }
func (r *Registry) Notices() record.Store[*record.Notice]            { return r.notices }
func (r *Registry) Attachments() record.Store[*record.Attachment]    { return r.attachments }

// --- Principal lookups ---

type principalQueries struct {
	txManager *postgres.TxManager
}

func (q principalQueries) CountLiveAdmins(ctx context.Context, tenantID id.ID) (int64, error) {
	sql := `
		SELECT COUNT(*)
		FROM principals
		WHERE tenant_id = $1 AND is_deleted = false AND role = 'admin'
	`

	var n int64
	if err := q.txManager.GetQuerier(ctx).QueryRow(ctx, sql, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count live admins: %w", err)
	}
	return n, nil
}
