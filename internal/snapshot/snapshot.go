// Package snapshot dumps each cycle's raw API payloads to disk for replay and
// debugging, optionally archiving them to S3.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/copilot-pulse/backend/pkg/storage"
)

// Archiver uploads one snapshot blob; *storage.S3 implements it.
type Archiver interface {
	UploadSnapshot(ctx context.Context, key string, body []byte) (string, error)
}

// Writer dumps named JSON payloads under logPath/<date>/<org>/.
type Writer struct {
	enabled  bool
	logPath  string
	archiver Archiver
	logger   *zap.Logger
	now      func() time.Time
}

// NewWriter creates a snapshot writer. A nil archiver disables S3 archival;
// enabled=false turns the writer into a no-op.
func NewWriter(enabled bool, logPath string, archiver Archiver, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		enabled:  enabled,
		logPath:  logPath,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

// Dump writes one payload as indented JSON. Snapshot failures are logged and
// swallowed; a broken dump must never fail the cycle.
func (w *Writer) Dump(ctx context.Context, orgSlug, name string, payload any) {
	if w == nil || !w.enabled {
		return
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		w.logger.Warn("snapshot encode failed", zap.String("name", name), zap.Error(err))
		return
	}

	date := w.now().UTC().Format("2006-01-02")
	dir := filepath.Join(w.logPath, date, orgSlug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.logger.Warn("snapshot mkdir failed", zap.String("dir", dir), zap.Error(err))
		return
	}
	file := filepath.Join(dir, fmt.Sprintf("%s.json", name))
	if err := os.WriteFile(file, body, 0o644); err != nil {
		w.logger.Warn("snapshot write failed", zap.String("file", file), zap.Error(err))
		return
	}

	if w.archiver != nil {
		key := storage.SnapshotKey(date, orgSlug, name)
		if _, err := w.archiver.UploadSnapshot(ctx, key, body); err != nil {
			w.logger.Warn("snapshot archive failed", zap.String("key", key), zap.Error(err))
		}
	}
}
