package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workdeck/internal/core/apperror"
	appctx "workdeck/internal/core/context"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/record"
	"workdeck/pkg/logger"
)

// deleteTraversal is the per-call state of one cascade delete: fresh
// for every top-level call, threaded explicitly through the recursion.
type deleteTraversal struct {
	visited map[nodeKey]bool
	opts    DeleteOptions
	actor   *appctx.Actor
	now     time.Time
	res     *DeleteResult
}

// Delete soft-deletes the record and everything it transitively owns,
// depth-first, parent before children. It must run inside a
// transaction: on a blocked result the caller rolls back, so a partial
// cascade never persists.
//
// Returned errors are infrastructure failures only. Validation and
// structural findings land in the result with Success=false.
func (e *Engine) Delete(ctx context.Context, kind entity.Kind, rid id.ID, actor *appctx.Actor, opts DeleteOptions) (*DeleteResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	t := &deleteTraversal{
		visited: make(map[nodeKey]bool),
		opts:    opts.normalized(),
		actor:   actor,
		now:     e.now().UTC(),
		res:     newDeleteResult(),
	}

	err := e.deleteNode(ctx, t, kind, rid, 0)
	if err != nil && !errors.Is(err, errBlocked) {
		return nil, err
	}
	t.res.Success = err == nil
	return t.res, nil
}

func (e *Engine) deleteNode(ctx context.Context, t *deleteTraversal, kind entity.Kind, rid id.ID, depth int) error {
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

	// Load including deleted so re-entrant calls can sweep up the
	// stragglers of an earlier partial delete.
	rec, err := h.Get(ctx, rid, record.ScopeAll)
	if err != nil {
		if apperror.IsNotFound(err) {
			t.res.block(hardIssue(CodeNotFound, kind, rid,
				fmt.Sprintf("%s not found", kind), nil))
			return errBlocked
		}
		return err
	}

	if !t.opts.SkipValidation {
		vres, err := e.rules.ValidateDeletion(ctx, rec)
		if err != nil {
			return err
		}
		t.res.Warnings = append(t.res.Warnings, vres.Warnings...)
		if !vres.Valid() {
			if t.opts.Force && !vres.HasHard() {
				logger.Warn(ctx, "deletion validation overridden by force",
					"kind", kind, "id", rid, "overridden", len(vres.Errors))
			} else {
				t.res.Errors = append(t.res.Errors, vres.Errors...)
				return errBlocked
			}
		}
	}

	// Mark before recursing so children validated inside this cascade
	// observe the parent as deleted (read-your-writes within the tx).
	// Already-deleted rows keep their original attribution and do not
	// count.
	if !rec.Deleted() {
		if err := h.MarkDeleted(ctx, rid, t.actor.ID, t.now); err != nil {
			return err
		}
		t.res.DeletedCount++
		logger.Info(ctx, "record soft-deleted",
			"kind", kind, "id", rid, "depth", depth, "actor", t.actor.ID)
	}

	for _, edge := range e.graph.Children(kind) {
		ch, err := e.handle(edge.Child)
		if err != nil {
			return err
		}
		children, err := ch.ListByRef(ctx, edge.Field, rid, record.ScopeLive)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := e.deleteNode(ctx, t, edge.Child, child.RecordID(), depth+1); err != nil {
				return err
			}
		}
	}

	// Reference-only inbound edges: pull dangling line entries out of
	// live referrers instead of cascading into them.
	for _, vref := range e.graph.ValueRefs(kind) {
		ls, err := e.lines(vref.Referrer)
		if err != nil {
			return err
		}
		pruned, err := ls.PruneRefs(ctx, vref.Field, rid)
		if err != nil {
			return err
		}
		if pruned > 0 {
			t.res.warn(Issue{
				Code:    CodeReferencePruned,
				Message: fmt.Sprintf("used in %d items", pruned),
				Kind:    kind,
				ID:      rid,
				Details: map[string]any{
					"referrerKind": vref.Referrer,
					"field":        vref.Field,
					"prunedCount":  pruned,
				},
			})
			logger.Info(ctx, "value references pruned",
				"kind", kind, "id", rid, "referrer", vref.Referrer, "count", pruned)
		}
	}

	return nil
}
