package cascade

import (
	"context"
	"errors"
	"time"

	appctx "workdeck/internal/core/context"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/core/tx"
	"workdeck/pkg/logger"
)

// Auditor persists an audit row for a completed operation. Optional;
// failures are logged, never escalated.
type Auditor interface {
	LogCascade(ctx context.Context, op string, kind entity.Kind, rid id.ID, actorID id.ID, payload any) error
}

// Stats records operational metrics. Optional.
type Stats interface {
	CascadeDone(op string, kind entity.Kind, success bool, affected int, d time.Duration)
}

// Service is the transaction coordinator around the engine: one
// storage transaction per top-level call, covering the entire
// recursion. Commit only on success; a blocked result or any
// infrastructure error rolls every mark back. The transaction handle
// travels in the context and is released on every exit path by the
// transaction manager.
type Service struct {
	tx     tx.Manager
	engine *Engine
	audit  Auditor
	stats  Stats
}

// NewService wires the coordinator. audit and stats may be nil.
func NewService(txm tx.Manager, engine *Engine, audit Auditor, stats Stats) *Service {
	return &Service{tx: txm, engine: engine, audit: audit, stats: stats}
}

// Delete runs one cascade delete in its own transaction.
// Validation failures come back as an unsuccessful result with a nil
// error; only infrastructure failures surface as errors. Either way a
// failed call leaves storage untouched.
func (s *Service) Delete(ctx context.Context, kind entity.Kind, rid id.ID, actor *appctx.Actor, opts DeleteOptions) (*DeleteResult, error) {
	start := time.Now()

	var res *DeleteResult
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		out, err := s.engine.Delete(ctx, kind, rid, actor, opts)
		if err != nil {
			return err
		}
		res = out
		if !out.Success {
			return errBlocked
		}
		if s.audit != nil {
			if err := s.audit.LogCascade(ctx, "cascade_delete", kind, rid, actor.ID, out); err != nil {
				logger.Warn(ctx, "cascade audit write failed", "kind", kind, "id", rid, "error", err)
			}
		}
		return nil
	})

	duration := time.Since(start)
	switch {
	case err == nil, errors.Is(err, errBlocked):
	default:
		logger.Error(ctx, "cascade delete failed",
			"kind", kind, "id", rid, "error", err, "durationMs", duration.Milliseconds())
		if s.stats != nil {
			s.stats.CascadeDone("delete", kind, false, 0, duration)
		}
		return nil, err
	}

	// A blocked result rolled back, so nothing was affected.
	affected := 0
	if res.Success {
		affected = res.DeletedCount
	}
	if s.stats != nil {
		s.stats.CascadeDone("delete", kind, res.Success, affected, duration)
	}
	logger.Info(ctx, "cascade delete finished",
		"kind", kind, "id", rid,
		"success", res.Success, "deleted", res.DeletedCount,
		"warnings", len(res.Warnings), "errors", len(res.Errors),
		"durationMs", duration.Milliseconds())
	return res, nil
}

// Restore runs one cascade restore in its own transaction, with the
// same commit/rollback discipline as Delete. Parent gating is strict
// only for the record named in the call: a deeper node whose parent
// reference still points at a soft-deleted row outside the restored
// subtree is left deleted with a warning rather than blocking the
// whole call. See Engine.Restore.
func (s *Service) Restore(ctx context.Context, kind entity.Kind, rid id.ID, opts RestoreOptions) (*RestoreResult, error) {
	start := time.Now()

	var res *RestoreResult
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		out, err := s.engine.Restore(ctx, kind, rid, opts)
		if err != nil {
			return err
		}
		res = out
		if !out.Success {
			return errBlocked
		}
		if s.audit != nil {
			if err := s.audit.LogCascade(ctx, "cascade_restore", kind, rid, appctx.GetActorID(ctx), out); err != nil {
				logger.Warn(ctx, "cascade audit write failed", "kind", kind, "id", rid, "error", err)
			}
		}
		return nil
	})

	duration := time.Since(start)
	switch {
	case err == nil, errors.Is(err, errBlocked):
	default:
		logger.Error(ctx, "cascade restore failed",
			"kind", kind, "id", rid, "error", err, "durationMs", duration.Milliseconds())
		if s.stats != nil {
			s.stats.CascadeDone("restore", kind, false, 0, duration)
		}
		return nil, err
	}

	affected := 0
	if res.Success {
		affected = res.RestoredCount
	}
	if s.stats != nil {
		s.stats.CascadeDone("restore", kind, res.Success, affected, duration)
	}
	logger.Info(ctx, "cascade restore finished",
		"kind", kind, "id", rid,
		"success", res.Success, "restored", res.RestoredCount,
		"warnings", len(res.Warnings), "errors", len(res.Errors),
		"durationMs", duration.Milliseconds())
	return res, nil
}
