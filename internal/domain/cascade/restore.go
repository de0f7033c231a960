package cascade

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"workdeck/internal/core/apperror"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/record"
	"workdeck/pkg/logger"
)

// restoreTraversal is the per-call state of one cascade restore.
type restoreTraversal struct {
	visited map[nodeKey]bool
	opts    RestoreOptions
	res     *RestoreResult

	// skipped holds nodes whose parent gate failed mid-cascade. They
	// are retried when another path reaches them after the blocking
	// parent came back; whatever is still deleted at the end surfaces
	// as a warning.
	skipped map[nodeKey]Issue
}

// Restore walks the same graph as Delete in the same direction, parent
// before children, returning soft-deleted rows to live state. The
// record named in the call cannot come back while any of its parent
// references points at a soft-deleted row (unless ValidateParents is
// off); deeper nodes in the same position are left deleted instead of
// failing the whole operation, since their missing parent may simply
// sit outside the restored subtree. All blocking findings on restore
// are structural; there is no force.
func (e *Engine) Restore(ctx context.Context, kind entity.Kind, rid id.ID, opts RestoreOptions) (*RestoreResult, error) {
	t := &restoreTraversal{
		visited: make(map[nodeKey]bool),
		opts:    opts.normalized(),
		res:     newRestoreResult(),
		skipped: make(map[nodeKey]Issue),
	}

	err := e.restoreNode(ctx, t, kind, rid, 0)
	if err != nil && !errors.Is(err, errBlocked) {
		return nil, err
	}
	if err == nil {
		if werr := e.warnStillDeleted(ctx, t); werr != nil {
			return nil, werr
		}
	}
	t.res.Success = err == nil
	return t.res, nil
}

func (e *Engine) restoreNode(ctx context.Context, t *restoreTraversal, kind entity.Kind, rid id.ID, depth int) error {
	if depth > t.opts.MaxDepth {
		t.res.block(hardIssue(CodeMaxDepthExceeded, kind, rid,
			fmt.Sprintf("cascade depth %d exceeds limit %d", depth, t.opts.MaxDepth),
			map[string]any{"depth": depth, "maxDepth": t.opts.MaxDepth}))
		return errBlocked
	}

	key := nodeKey{kind: kind, id: rid}
	if t.visited[key] {
		return nil
	}
	t.visited[key] = true

	h, ok := e.stores.Handle(kind)
	if !ok {
		t.res.block(hardIssue(CodeUnknownKind, kind, rid,
			fmt.Sprintf("unknown record kind %q", kind), nil))
		return errBlocked
	}

	rec, err := h.Get(ctx, rid, record.ScopeAll)
	if err != nil {
		if apperror.IsNotFound(err) {
			t.res.block(hardIssue(CodeNotFound, kind, rid,
				fmt.Sprintf("%s not found", kind), nil))
			return errBlocked
		}
		return err
	}

	if t.opts.ValidateParents {
		gate, err := e.parentGate(ctx, rec)
		if err != nil {
			return err
		}
		if gate != nil {
			if depth == 0 {
				t.res.block(*gate)
				return errBlocked
			}
			// A later path may restore the blocking parent first;
			// unmark so that path gets another attempt at this node.
			delete(t.visited, key)
			t.skipped[key] = *gate
			return nil
		}
	}
	delete(t.skipped, key)

	if !t.opts.SkipValidation {
		vres, err := e.rules.ValidateRestoration(ctx, rec)
		if err != nil {
			return err
		}
		t.res.Warnings = append(t.res.Warnings, vres.Warnings...)
		if !vres.Valid() {
			t.res.Errors = append(t.res.Errors, vres.Errors...)
			return errBlocked
		}
	}

	// Rows already live are left alone; the walk still descends so a
	// partially restored subtree converges.
	if rec.Deleted() {
		if err := h.Restore(ctx, rid); err != nil {
			return err
		}
		t.res.RestoredCount++
		logger.Info(ctx, "record restored", "kind", kind, "id", rid, "depth", depth)
	}

	// Restore only children that are currently soft-deleted. The engine
	// cannot tell which cascade deleted them; restoring the subtree
	// wholesale is the contract.
	for _, edge := range e.graph.Children(kind) {
		ch, err := e.handle(edge.Child)
		if err != nil {
			return err
		}
		children, err := ch.ListByRef(ctx, edge.Field, rid, record.ScopeDeleted)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := e.restoreNode(ctx, t, edge.Child, child.RecordID(), depth+1); err != nil {
				return err
			}
		}
	}

	// Line references pruned when this record was deleted are gone for
	// good; the operator reattaches by hand.
	if len(e.graph.ValueRefs(kind)) > 0 {
		t.res.warn(Issue{
			Code:    CodeManualReattach,
			Message: "line-item references removed at deletion are not restored; reattach manually",
			Kind:    kind,
			ID:      rid,
		})
	}

	return nil
}

// parentGate reports the first parent reference that resolves to a
// soft-deleted or missing row, nil when every reference is live.
func (e *Engine) parentGate(ctx context.Context, rec entity.Record) (*Issue, error) {
	kind := rec.RecordKind()
	for _, pref := range e.graph.ParentRefs(kind) {
		pid, set := rec.Ref(pref.Field)
		if !set || id.IsNil(pid) {
			continue
		}
		ph, err := e.handle(pref.Parent)
		if err != nil {
			return nil, err
		}
		parent, err := ph.Get(ctx, pid, record.ScopeAll)
		if err != nil {
			if apperror.IsNotFound(err) {
				issue := hardIssue(CodeAncestorMissing, kind, rec.RecordID(),
					fmt.Sprintf("%s %s referenced through %s no longer exists", pref.Parent, pid, pref.Field),
					map[string]any{"parentKind": pref.Parent, "parentId": pid, "field": pref.Field})
				return &issue, nil
			}
			return nil, err
		}
		if parent.Deleted() {
			issue := hardIssue(CodeAncestorDeleted, kind, rec.RecordID(),
				fmt.Sprintf("cannot restore while %s %s is deleted", pref.Parent, pid),
				map[string]any{"parentKind": pref.Parent, "parentId": pid, "field": pref.Field})
			return &issue, nil
		}
	}
	return nil, nil
}

// warnStillDeleted turns gate skips that never resolved into warnings.
// Skips are transient when another path restored the blocking parent
// later in the walk; only nodes still deleted at the end are reported.
func (e *Engine) warnStillDeleted(ctx context.Context, t *restoreTraversal) error {
	if len(t.skipped) == 0 {
		return nil
	}

	keys := make([]nodeKey, 0, len(t.skipped))
	for key := range t.skipped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		a, b := keys[i].id, keys[j].id
		return bytes.Compare(a[:], b[:]) < 0
	})

	for _, key := range keys {
		h, err := e.handle(key.kind)
		if err != nil {
			return err
		}
		rec, err := h.Get(ctx, key.id, record.ScopeAll)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if err == nil && !rec.Deleted() {
			continue
		}
		gate := t.skipped[key]
		t.res.warn(Issue{
			Code:    gate.Code,
			Message: "left deleted: " + gate.Message,
			Kind:    gate.Kind,
			ID:      gate.ID,
			Details: gate.Details,
		})
		logger.Info(ctx, "record left deleted by restore cascade",
			"kind", key.kind, "id", key.id, "reason", gate.Code)
	}
	return nil
}
