package memory

import (
	"workdeck/internal/core/entity"
	"workdeck/internal/domain/record"
)

// Rows never leave a table by reference: every insert and every read
// goes through the kind's clone so callers cannot alias store state.

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBase(b *entity.Base) {
	b.DeletedAt = clonePtr(b.DeletedAt)
	b.DeletedBy = clonePtr(b.DeletedBy)
}

func cloneTenant(t *record.Tenant) *record.Tenant {
	c := *t
	cloneBase(&c.Base)
	return &c
}

func cloneDepartment(d *record.Department) *record.Department {
	c := *d
	cloneBase(&c.Base)
	c.ManagerID = clonePtr(c.ManagerID)
	return &c
}

func clonePrincipal(p *record.Principal) *record.Principal {
	c := *p
	cloneBase(&c.Base)
	c.DepartmentID = clonePtr(c.DepartmentID)
	return &c
}

func cloneWorkItem(w *record.WorkItem) *record.WorkItem {
	c := *w
	cloneBase(&c.Base)
	c.DepartmentID = clonePtr(c.DepartmentID)
	c.AssigneeID = clonePtr(c.AssigneeID)
	c.DueAt = clonePtr(c.DueAt)
	c.Lines = make([]record.WorkItemLine, len(w.Lines))
	for i, line := range w.Lines {
		line.MaterialID = clonePtr(line.MaterialID)
		line.VendorID = clonePtr(line.VendorID)
		c.Lines[i] = line
	}
	return &c
}

func cloneMaterial(m *record.Material) *record.Material {
	c := *m
	cloneBase(&c.Base)
	c.SKU = clonePtr(c.SKU)
	return &c
}

func cloneExternalParty(p *record.ExternalParty) *record.ExternalParty {
	c := *p
	cloneBase(&c.Base)
	c.ContactEmail = clonePtr(c.ContactEmail)
	return &c
}

func cloneAnnotation(a *record.Annotation) *record.Annotation {
	c := *a
	cloneBase(&c.Base)
	return &c
}

func cloneActivityRecord(r *record.ActivityRecord) *record.ActivityRecord {
	c := *r
	cloneBase(&c.Base)
	c.Detail = clonePtr(c.Detail)
	c.Lines = make([]record.ActivityLine, len(r.Lines))
	for i, line := range r.Lines {
		line.MaterialID = clonePtr(line.MaterialID)
		line.VendorID = clonePtr(line.VendorID)
		c.Lines[i] = line
	}
	return &c
}

func cloneNotice(n *record.Notice) *record.Notice {
	c := *n
	cloneBase(&c.Base)
	c.ReadAt = clonePtr(c.ReadAt)
	return &c
}

func cloneAttachment(a *record.Attachment) *record.Attachment {
	c := *a
	cloneBase(&c.Base)
	return &c
}
