package purge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/core/tx"
	"workdeck/internal/domain/graph"
	"workdeck/internal/domain/record"
	"workdeck/internal/infrastructure/blob"
	"workdeck/pkg/logger"
)

// Auditor persists an audit row for a completed sweep. Optional;
// failures are logged, never escalated.
type Auditor interface {
	LogSweep(ctx context.Context, payload any) error
}

// Stats records sweep metrics. Optional.
type Stats interface {
	SweepDone(success bool, purged int64, d time.Duration)
	KindPurged(kind entity.Kind, n int64)
	BlobReleaseFailed()
}

// SweepResult reports one sweep pass.
type SweepResult struct {
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	PurgedByKind map[entity.Kind]int64 `json:"purgedByKind"`
	TotalPurged  int64                 `json:"totalPurged"`

	// HeldCount is how many expired rows legal holds kept alive.
	HeldCount int64 `json:"heldCount"`

	// ArchiveFiles lists the archives written before erasure.
	ArchiveFiles []string `json:"archiveFiles,omitempty"`

	// BlobFailures counts attachment blobs that could not be released;
	// their metadata rows were purged anyway.
	BlobFailures int `json:"blobFailures"`
}

// Sweeper erases expired soft-deleted rows kind by kind, leaf-first.
// One transaction covers the whole pass: a failure on any kind rolls
// back every kind already processed. Tenants are never swept.
type Sweeper struct {
	tx     tx.Manager
	stores record.Registry
	graph  *graph.Graph
	blobs  blob.Store
	audit  Auditor
	stats  Stats
	now    func() time.Time

	mu     sync.RWMutex
	policy *Policy
	holds  *holdSet
}

// NewSweeper wires a sweeper under the given policy. Hold expressions
// compile here; a policy with a bad expression never becomes active.
func NewSweeper(txm tx.Manager, stores record.Registry, g *graph.Graph, policy *Policy) (*Sweeper, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	holds, err := compileHolds(policy.Holds)
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		tx:     txm,
		stores: stores,
		graph:  g,
		now:    time.Now,
		policy: policy,
		holds:  holds,
	}, nil
}

// SetBlobStore enables attachment blob release before metadata erasure.
func (s *Sweeper) SetBlobStore(store blob.Store) { s.blobs = store }

// SetAuditor enables sweep audit rows.
func (s *Sweeper) SetAuditor(a Auditor) { s.audit = a }

// SetStats enables sweep metrics.
func (s *Sweeper) SetStats(st Stats) { s.stats = st }

// SetClock overrides the time source; tests freeze it.
func (s *Sweeper) SetClock(now func() time.Time) { s.now = now }

// SetPolicy swaps the active policy atomically. The running sweep, if
// any, finishes under the policy it started with.
func (s *Sweeper) SetPolicy(policy *Policy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	holds, err := compileHolds(policy.Holds)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.policy = policy
	s.holds = holds
	s.mu.Unlock()
	return nil
}

// Policy returns the active policy.
func (s *Sweeper) Policy() *Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Sweep runs one pass over every kind the policy covers.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	s.mu.RLock()
	pol, holds := s.policy, s.holds
	s.mu.RUnlock()

	start := s.now()
	res := &SweepResult{
		StartedAt:    start.UTC(),
		PurgedByKind: make(map[entity.Kind]int64),
	}

	var arch *archiver
	if pol.Archive.Enabled {
		arch = newArchiver(pol.Archive.Directory)
	}

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, kind := range s.graph.PurgeOrder() {
			if kind == entity.KindTenant {
				continue
			}
			cutoff, ok := pol.Cutoff(kind, start)
			if !ok {
				continue
			}

			h, ok := s.stores.Handle(kind)
			if !ok {
				return fmt.Errorf("no storage handle for kind %s", kind)
			}

			var n int64
			var err error
			if s.needsRowScan(kind, holds, arch) {
				n, err = s.sweepRows(ctx, h, kind, cutoff, holds, arch, res)
			} else {
				n, err = h.PurgeExpired(ctx, cutoff)
			}
			if err != nil {
				return fmt.Errorf("sweep %s: %w", kind, err)
			}

			if n > 0 {
				res.PurgedByKind[kind] = n
				res.TotalPurged += n
				logger.Info(ctx, "purged expired records",
					"kind", kind, "count", n, "cutoff", cutoff)
			}
		}

		res.FinishedAt = s.now().UTC()
		if s.audit != nil {
			if err := s.audit.LogSweep(ctx, res); err != nil {
				logger.Warn(ctx, "sweep audit write failed", "error", err)
			}
		}
		return nil
	})

	duration := s.now().Sub(start)
	if err != nil {
		logger.Error(ctx, "purge sweep failed", "error", err,
			"durationMs", duration.Milliseconds())
		if s.stats != nil {
			s.stats.SweepDone(false, 0, duration)
		}
		return nil, err
	}

	if s.stats != nil {
		for kind, n := range res.PurgedByKind {
			s.stats.KindPurged(kind, n)
		}
		s.stats.SweepDone(true, res.TotalPurged, duration)
	}
	logger.Info(ctx, "purge sweep finished",
		"purged", res.TotalPurged, "held", res.HeldCount,
		"blobFailures", res.BlobFailures,
		"durationMs", duration.Milliseconds())
	return res, nil
}

// needsRowScan decides between the bulk DELETE path and materializing
// candidate rows. Holds and archives need the rows; attachments need
// their storage keys for blob release.
func (s *Sweeper) needsRowScan(kind entity.Kind, holds *holdSet, arch *archiver) bool {
	if holds.has(kind) || arch != nil {
		return true
	}
	return kind == entity.KindAttachment && s.blobs != nil
}

// sweepRows is the row-scan path: list candidates, drop held rows,
// archive the rest, release attachment blobs, erase by ID.
func (s *Sweeper) sweepRows(
	ctx context.Context,
	h record.Handle,
	kind entity.Kind,
	cutoff time.Time,
	holds *holdSet,
	arch *archiver,
	res *SweepResult,
) (int64, error) {
	recs, err := h.ListExpired(ctx, cutoff, 0)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}

	candidates := recs[:0]
	for _, rec := range recs {
		held, err := holds.held(rec, s.now())
		if err != nil {
			return 0, err
		}
		if held {
			res.HeldCount++
			logger.Debug(ctx, "record held from purge",
				"kind", kind, "id", rec.RecordID())
			continue
		}
		candidates = append(candidates, rec)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	if arch != nil {
		path, err := arch.writeKind(kind, candidates, s.now())
		if err != nil {
			return 0, err
		}
		if path != "" {
			res.ArchiveFiles = append(res.ArchiveFiles, path)
		}
	}

	if kind == entity.KindAttachment && s.blobs != nil {
		s.releaseBlobs(ctx, candidates, res)
	}

	ids := make([]id.ID, len(candidates))
	for i, rec := range candidates {
		ids[i] = rec.RecordID()
	}
	return h.PurgeByIDs(ctx, ids)
}

// releaseBlobs deletes attachment objects best-effort. A failed release
// is logged and counted but never blocks the row purge: the stray
// object is recoverable garbage, a dangling metadata row is not.
func (s *Sweeper) releaseBlobs(ctx context.Context, candidates []entity.Record, res *SweepResult) {
	for _, rec := range candidates {
		att, ok := rec.(*record.Attachment)
		if !ok || att.StorageKey == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, att.StorageKey); err != nil {
			res.BlobFailures++
			if s.stats != nil {
				s.stats.BlobReleaseFailed()
			}
			logger.Warn(ctx, "attachment blob release failed",
				"id", att.ID, "storageKey", att.StorageKey, "error", err)
		}
	}
}
