// Package sqlite implements the processing ledger on a local SQLite
// database, the durable idempotency state that survives restarts.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/paperpost-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.ProcessingLedger = (*Ledger)(nil)

// Ledger is a SQLite-backed ProcessingLedger. It assumes a single
// writer process at a time; concurrent runs over the same document
// must be serialized by the operator.
type Ledger struct {
	db   *sql.DB
	path string
}

// NewLedger opens (or creates) the ledger database under dataDir.
// If dataDir is empty, defaults to ~/.paperpost/data/state.db.
func NewLedger(dataDir string) (*Ledger, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".paperpost", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	l := &Ledger{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := l.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// migrate runs all pending migrations.
func (l *Ledger) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := l.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_processing_state.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := l.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := l.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// MarkProcessed records a figure as fully processed. The upsert makes
// the call idempotent: marking the same pair twice is a no-op.
func (l *Ledger) MarkProcessed(ctx context.Context, doc domain.DocumentID, index int) error {
	if doc == "" || index < 0 {
		return domain.ErrInvalidInput
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO processing_state (doc_sha256, figure_index, processed)
		VALUES (?, ?, TRUE)
		ON CONFLICT(doc_sha256, figure_index) DO UPDATE SET
			processed = TRUE
	`, string(doc), index)

	if err != nil {
		return fmt.Errorf("marking figure processed: %w", err)
	}
	return nil
}

// Processed returns the sorted indices already marked processed.
func (l *Ledger) Processed(ctx context.Context, doc domain.DocumentID) ([]int, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT figure_index FROM processing_state
		WHERE doc_sha256 = ? AND processed = TRUE
		ORDER BY figure_index
	`, string(doc))
	if err != nil {
		return nil, fmt.Errorf("querying processed figures: %w", err)
	}
	defer rows.Close()

	var indices []int //nolint:prealloc // size unknown from query
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("scanning figure index: %w", err)
		}
		indices = append(indices, idx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating processed figures: %w", err)
	}

	return indices, nil
}

// Unprocessed returns the sorted indices in [0, total) with no
// processed record for the document.
func (l *Ledger) Unprocessed(ctx context.Context, doc domain.DocumentID, total int) ([]int, error) {
	processed, err := l.Processed(ctx, doc)
	if err != nil {
		return nil, err
	}

	done := make(map[int]struct{}, len(processed))
	for _, idx := range processed {
		done[idx] = struct{}{}
	}

	var remaining []int
	for i := 0; i < total; i++ {
		if _, ok := done[i]; !ok {
			remaining = append(remaining, i)
		}
	}
	return remaining, nil
}
