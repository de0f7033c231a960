// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "workdeck/internal/core/context"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
)

// AuditAction represents the type of audited operation.
type AuditAction string

const (
	AuditActionCascadeDelete  AuditAction = "cascade_delete"
	AuditActionCascadeRestore AuditAction = "cascade_restore"
	AuditActionPurgeSweep     AuditAction = "purge_sweep"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry is one row of the sys_audit trail: a top-level cascade
// call or a purge sweep, with its full result as payload. Large
// payloads (a cascade over a big subtree) are stored zstd-compressed.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	EntityKind        string          `db:"entity_kind"`
	EntityID          id.ID           `db:"entity_id"`
	Action            AuditAction     `db:"action"`
	ActorID           id.ID           `db:"actor_id"`
	ActorEmail        string          `db:"actor_email"`
	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditService writes the sys_audit trail. It joins whatever
// transaction is in the context, so a rolled-back cascade leaves no
// audit row behind.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes, default 10KB
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// Log records an audit entry.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	// Attribute to the acting principal when the caller did not
	if actor := appctx.GetActor(ctx); actor != nil {
		if id.IsNil(entry.ActorID) {
			entry.ActorID = actor.ID
		}
		if entry.ActorEmail == "" {
			entry.ActorEmail = actor.Email
		}
	}

	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	// Compress large payloads
	entry.CompressionAlgo = CompressionNone
	if len(entry.Payload) > s.compressThreshold {
		compressed := s.encoder.EncodeAll(entry.Payload, nil)
		entry.PayloadCompressed = compressed
		entry.Payload = nil
		entry.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO sys_audit (
			id, entity_kind, entity_id, action, actor_id, actor_email,
			payload, payload_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		entry.ID, entry.EntityKind, entry.EntityID, entry.Action,
		entry.ActorID, entry.ActorEmail,
		entry.Payload, entry.PayloadCompressed, entry.CompressionAlgo,
		entry.CreatedAt,
	)

	return err
}

// LogCascade records one top-level cascade call with its result.
// Implements the cascade engine's Auditor surface.
func (s *AuditService) LogCascade(ctx context.Context, op string, kind entity.Kind, rid id.ID, actorID id.ID, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal cascade payload: %w", err)
	}

	return s.Log(ctx, AuditEntry{
		EntityKind: string(kind),
		EntityID:   rid,
		Action:     AuditAction(op),
		ActorID:    actorID,
		Payload:    body,
	})
}

// LogSweep records one purge sweep with its per-kind counts.
// Implements the purge scheduler's Auditor surface.
func (s *AuditService) LogSweep(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sweep payload: %w", err)
	}

	return s.Log(ctx, AuditEntry{
		Action:  AuditActionPurgeSweep,
		Payload: body,
	})
}

// History retrieves the audit trail of one record, newest first.
func (s *AuditService) History(ctx context.Context, kind entity.Kind, rid id.ID, limit int) ([]AuditEntry, error) {
	sql := `
		SELECT id, entity_kind, entity_id, action, actor_id, actor_email,
			   payload, payload_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, string(kind), rid, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(
			&e.ID, &e.EntityKind, &e.EntityID, &e.Action, &e.ActorID, &e.ActorEmail,
			&e.Payload, &e.PayloadCompressed, &e.CompressionAlgo,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		// Decompress if needed
		if e.CompressionAlgo == CompressionZstd && len(e.PayloadCompressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(e.PayloadCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress payload: %w", err)
			}
			e.Payload = decompressed
			e.PayloadCompressed = nil
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
