package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wodwiki/internal/testutil"
)

// createTestStore opens a journal in a temp dir with deterministic ids and
// timestamps.
func createTestStore(t *testing.T) (*Store, *testutil.ManualClock) {
	t.Helper()
	clock := testutil.NewManualClock(time.Time{})
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(testutil.NewSequentialIDs("")),
		WithNow(clock.Now),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"sessions", "cycles", "exports"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q missing after repeated opens", table)
	}

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Pragmas(t *testing.T) {
	s, _ := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
}

func TestClose_NilDB(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}

func TestDefaultIDsAreTimeOrdered(t *testing.T) {
	g := uuidV7{}
	a, b := g.NewID(), g.NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
