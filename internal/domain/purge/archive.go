package purge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"workdeck/internal/core/entity"
)

// archiver appends purge candidates to zstd-compressed JSONL files, one
// file per kind per sweep, before the rows are erased. A stray archive
// from a rolled-back sweep is recoverable garbage; a purged row without
// an archive is not, so writing happens first.
type archiver struct {
	dir string
}

func newArchiver(dir string) *archiver {
	return &archiver{dir: dir}
}

// writeKind archives the candidate rows of one kind and returns the
// file path. No file is created for an empty batch.
func (a *archiver) writeKind(kind entity.Kind, recs []entity.Record, at time.Time) (string, error) {
	if len(recs) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.jsonl.zst", kind, at.UTC().Format("20060102T150405"))
	path := filepath.Join(a.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create archive %s: %w", path, err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return "", fmt.Errorf("create zstd writer: %w", err)
	}

	enc := json.NewEncoder(zw)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			zw.Close()
			return "", fmt.Errorf("archive %s %s: %w", kind, rec.RecordID(), err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("close archive %s: %w", path, err)
	}
	return path, nil
}
