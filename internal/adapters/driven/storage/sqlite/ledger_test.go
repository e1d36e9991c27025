package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
)

// setupTestLedger creates a temporary SQLite ledger for testing.
func setupTestLedger(t *testing.T) (*Ledger, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "paperpost-test-*")
	require.NoError(t, err)

	ledger, err := NewLedger(tempDir)
	require.NoError(t, err)
	require.NotNil(t, ledger)

	cleanup := func() {
		assert.NoError(t, ledger.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return ledger, cleanup
}

const testDoc = domain.DocumentID("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

func TestLedger_Path(t *testing.T) {
	ledger, cleanup := setupTestLedger(t)
	defer cleanup()

	assert.Equal(t, "state.db", filepath.Base(ledger.Path()))
}

func TestLedger_MarkProcessed(t *testing.T) {
	ledger, cleanup := setupTestLedger(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, ledger.MarkProcessed(ctx, testDoc, 0))
	require.NoError(t, ledger.MarkProcessed(ctx, testDoc, 2))

	processed, err := ledger.Processed(ctx, testDoc)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, processed)
}

func TestLedger_MarkProcessed_Idempotent(t *testing.T) {
	ledger, cleanup := setupTestLedger(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, ledger.MarkProcessed(ctx, testDoc, 1))
	require.NoError(t, ledger.MarkProcessed(ctx, testDoc, 1))
	require.NoError(t, ledger.MarkProcessed(ctx, testDoc, 1))

	processed, err := ledger.Processed(ctx, testDoc)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, processed)
}

func TestLedger_MarkProcessed_InvalidInput(t *testing.T) {
	ledger, cleanup := setupTestLedger(t)
	defer cleanup()
	ctx := context.Background()

	assert.ErrorIs(t, ledger.MarkProcessed(ctx, "", 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, ledger.MarkProcessed(ctx, testDoc, -1), domain.ErrInvalidInput)
}

func TestLedger_Processed_EmptyLedger(t *testing.T) {
	ledger, cleanup := setupTestLedger(t)
	defer cleanup()

	processed, err := ledger.Processed(context.Background(), testDoc)
	require.NoError(t, err)
	assert.Empty(t, processed)
}

func TestLedger_Unprocessed(t *testing.T) {
	ledger, cleanup := setupTestLedger(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, ledger.MarkProcessed(ctx, testDoc, 1))
	require.NoError(t, ledger.MarkProcessed(ctx, testDoc, 3))

	remaining, err := ledger.Unprocessed(ctx, testDoc, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, remaining)
}

func TestLedger_Unprocessed_AllDone(t *testing.T) {
	ledger, cleanup := setupTestLedger(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, ledger.MarkProcessed(ctx, testDoc, i))
	}

	remaining, err := ledger.Unprocessed(ctx, testDoc, 3)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestLedger_Unprocessed_StaleMarksIgnored(t *testing.T) {
	ledger, cleanup := setupTestLedger(t)
	defer cleanup()
	ctx := context.Background()

	// Marks beyond the current figure count do not disturb the range.
	require.NoError(t, ledger.MarkProcessed(ctx, testDoc, 9))

	remaining, err := ledger.Unprocessed(ctx, testDoc, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, remaining)
}

func TestLedger_DocumentsIsolated(t *testing.T) {
	ledger, cleanup := setupTestLedger(t)
	defer cleanup()
	ctx := context.Background()

	other := domain.DocumentID("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	require.NoError(t, ledger.MarkProcessed(ctx, testDoc, 0))

	processed, err := ledger.Processed(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, processed)
}

func TestLedger_ReopenPersists(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "paperpost-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)
	ctx := context.Background()

	ledger, err := NewLedger(tempDir)
	require.NoError(t, err)
	require.NoError(t, ledger.MarkProcessed(ctx, testDoc, 0))
	require.NoError(t, ledger.MarkProcessed(ctx, testDoc, 1))
	require.NoError(t, ledger.Close())

	reopened, err := NewLedger(tempDir)
	require.NoError(t, err)
	defer reopened.Close()

	processed, err := reopened.Processed(ctx, testDoc)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, processed)
}
