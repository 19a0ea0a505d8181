package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestNewSQLiteUsesSingleConnection(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          "file:db_client_test?mode=memory&cache=shared",
		MaxOpenConns: 20,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("sqlite pool should be capped at 1, got %d", got)
	}
	if client.Driver() != config.DriverSQLite {
		t.Fatalf("unexpected driver %q", client.Driver())
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{Driver: config.DriverSQLite}, nil); err == nil {
		t.Fatal("expected missing DSN error")
	}
}

func TestPing(t *testing.T) {
	client := NewFromGorm(newTestDB(t), config.DriverSQLite)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	if client.Driver() != config.DriverSQLite {
		t.Fatalf("unexpected driver %q", client.Driver())
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{DSN: "x", Driver: "mysql"}, nil)
	if err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&testModel{Name: "dup"}).Error; err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	err := db.Create(&testModel{Name: "dup"}).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected sqlite unique violation, got %v", err)
	}
	if !IsUniqueViolation(err, "test_models.name") || IsUniqueViolation(err, "orders.order_id") {
		t.Fatalf("sqlite constraint match should use the reported column, got %v", err)
	}

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_pkey"}
	if !IsUniqueViolation(pgErr, "orders_pkey") {
		t.Fatal("expected pg unique violation on orders_pkey")
	}
	if IsUniqueViolation(pgErr, "products_pkey") {
		t.Fatal("constraint name should be matched")
	}
	if IsUniqueViolation(errors.New("timeout"), "") || IsUniqueViolation(nil, "") {
		t.Fatal("unexpected match")
	}
}

func TestSlowQueriesReachServiceLogger(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Format: "json", Output: &buf})

	client, err := New(context.Background(), config.DBConfig{
		Driver:    config.DriverSQLite,
		DSN:       "file:db_slow_query_test?mode=memory&cache=shared",
		SlowQuery: time.Nanosecond,
	}, logg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	var n int
	if err := client.DB().Raw("SELECT 1").Scan(&n).Error; err != nil {
		t.Fatalf("select: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "db.slow_query") || !strings.Contains(out, "SELECT 1") {
		t.Fatalf("expected slow query log, got %s", out)
	}
}

func TestQueryLoggerDisabled(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	if queryLogger(logg, config.DBConfig{}) != gormlogger.Discard {
		t.Fatal("zero threshold should discard")
	}
	if queryLogger(nil, config.DBConfig{SlowQuery: time.Second}) != gormlogger.Discard {
		t.Fatal("nil logger should discard")
	}
}
