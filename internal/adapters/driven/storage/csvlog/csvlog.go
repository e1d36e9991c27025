// Package csvlog implements the fallback post log: an append-only
// delimited local file, one row per post, created with a header row on
// first write. Posts routed here are never pruned and never lost.
package csvlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driven"
)

// Ensure Log implements the interface.
var _ driven.FallbackLog = (*Log)(nil)

var header = []string{"id", "post", "image", "image_description", "image_index", "created_at"}

// Log appends post records to a dated CSV file under dir. Appends are
// safe to interleave within one process; concurrent processes are not
// supported (single-writer assumption, same as the ledger).
type Log struct {
	mu  sync.Mutex
	dir string

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// New creates a fallback log writing under dir. If dir is empty,
// defaults to the system temp directory.
func New(dir string) *Log {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Log{dir: dir, now: time.Now}
}

// Path returns the file the next append would write to. The file is
// dated so an operator can find a run's fallback output at a glance.
func (l *Log) Path() string {
	return filepath.Join(l.dir, fmt.Sprintf("posts_%s.csv", l.now().Format("20060102")))
}

// Append writes one post row, creating the file with a header row on
// first write.
func (l *Log) Append(ctx context.Context, rec driven.PostRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(l.dir, 0700); err != nil {
		return fmt.Errorf("creating fallback directory: %w", err)
	}

	path := l.Path()
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening fallback log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	row := []string{
		rec.ID,
		rec.Text,
		rec.ImagePath,
		rec.Description,
		fmt.Sprintf("%d", rec.FigureIndex),
		rec.CreatedAt.Format(time.RFC3339),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("writing post row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing fallback log: %w", err)
	}
	return nil
}
