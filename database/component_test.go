package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"gorm.io/gorm"

	"github.com/lifemap/memorymap/component"
	"github.com/lifemap/memorymap/database/migration"
	apperrors "github.com/lifemap/memorymap/errors"
	"github.com/lifemap/memorymap/logger"
)

func memoryConfig(name string) Config {
	return Config{
		Enabled:     true,
		Driver:      DriverSQLite,
		DSN:         fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		AutoMigrate: true,
		LogLevel:    "silent",
	}
}

func TestComponentLifecycle(t *testing.T) {
	comp := NewComponent(memoryConfig("component_lifecycle"), logger.NewNop())
	ctx := context.Background()

	if comp.DB() != nil {
		t.Fatal("DB() should be nil before Start")
	}
	if h := comp.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("Health before start = %s, want unhealthy", h.Status)
	}

	if err := comp.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	db := comp.DB()
	if db == nil {
		t.Fatal("DB() should be set after Start")
	}
	for _, table := range []string{"memories", "audio_recordings", "voice_records"} {
		if !db.GormDB.Migrator().HasTable(table) {
			t.Errorf("expected table %s after migration", table)
		}
	}
	if h := comp.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("Health = %s (%s), want healthy", h.Status, h.Message)
	}

	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("second Stop() failed: %v", err)
	}
	if h := comp.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("Health after stop = %s, want unhealthy", h.Status)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := New(context.Background(), memoryConfig("migrate_idempotent"), logger.NewNop())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("first Migrate() failed: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate() failed: %v", err)
	}
	sqlDB, _ := db.GormDB.DB()
	version, dirty, err := migration.Version(sqlDB, db.Driver())
	if err != nil {
		t.Fatalf("Version() failed: %v", err)
	}
	if version != 3 || dirty {
		t.Errorf("version = %d dirty = %v, want 3 clean", version, dirty)
	}

	if err := migration.Down(sqlDB, db.Driver()); err != nil {
		t.Fatalf("Down() failed: %v", err)
	}
	if db.GormDB.Migrator().HasTable("memories") {
		t.Error("memories should be dropped after Down")
	}
}

func TestMigrationStepsRollsBackOne(t *testing.T) {
	db, err := New(context.Background(), memoryConfig("migrate_steps"), logger.NewNop())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	sqlDB, _ := db.GormDB.DB()

	if err := migration.Steps(sqlDB, db.Driver(), -1); err != nil {
		t.Fatalf("Steps(-1) failed: %v", err)
	}
	if version, _, _ := migration.Version(sqlDB, db.Driver()); version != 2 {
		t.Errorf("version after Steps(-1) = %d, want 2", version)
	}
	if db.GormDB.Migrator().HasTable("voice_records") {
		t.Error("voice_records should be dropped after one step down")
	}
	if !db.GormDB.Migrator().HasTable("memories") {
		t.Error("memories should survive one step down")
	}

	if err := migration.Steps(sqlDB, db.Driver(), 1); err != nil {
		t.Fatalf("Steps(1) failed: %v", err)
	}
	if version, _, _ := migration.Version(sqlDB, db.Driver()); version != 3 {
		t.Errorf("version after Steps(1) = %d, want 3", version)
	}
}

func TestNewCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(ctx, memoryConfig("canceled"), logger.NewNop()); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	db, err := New(context.Background(), memoryConfig("tx_rollback"), logger.NewNop())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	boom := errors.New("boom")
	err = db.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Exec(`INSERT INTO memories (id, text, created_at, updated_at) VALUES ('m1', 'x', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var count int64
	db.GormDB.Table("memories").Count(&count)
	if count != 0 {
		t.Errorf("expected rollback, found %d rows", count)
	}
}

func TestFromDatabase(t *testing.T) {
	if FromDatabase(nil, "memory") != nil {
		t.Error("nil error should map to nil")
	}

	notFound := FromDatabase(fmt.Errorf("find: %w", gorm.ErrRecordNotFound), "memory")
	if notFound.Code != apperrors.ErrCodeNotFound || notFound.HTTPStatus != http.StatusNotFound {
		t.Errorf("unexpected not-found mapping: %+v", notFound)
	}

	dup := FromDatabase(errors.New("UNIQUE constraint failed: memories.id"), "memory")
	if dup.Code != apperrors.ErrCodeAlreadyExists || dup.HTTPStatus != http.StatusConflict {
		t.Errorf("unexpected duplicate mapping: %+v", dup)
	}

	locked := FromDatabase(errors.New("database is locked"), "memory")
	if !locked.Retryable || locked.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("unexpected locked mapping: %+v", locked)
	}

	existing := apperrors.MissingField("text")
	if got := FromDatabase(existing, "memory"); got != existing {
		t.Errorf("AppError should pass through, got %+v", got)
	}
}
