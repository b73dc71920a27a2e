package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lifemap/memorymap/database"
)

var seq atomic.Int64

// NewDB returns a migrated in-memory SQLite database private to the test.
// It is closed when the test ends.
func NewDB(t testing.TB) *database.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := database.Config{
		Enabled:  true,
		Driver:   database.DriverSQLite,
		DSN:      fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1)),
		LogLevel: "silent",
	}
	db, err := database.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}
