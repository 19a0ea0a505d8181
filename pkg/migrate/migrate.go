package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

const (
	DefaultDir = "pkg/migrate/migrations"
	// EmbeddedDir is the directory name inside Embedded.
	EmbeddedDir = "migrations"
)

// Embedded carries the SQL migrations compiled into the binary.
//
//go:embed migrations/*.sql
var Embedded embed.FS

// EmbeddedSource is the migration set shipped with the binary.
var EmbeddedSource = Source{FS: Embedded, Dir: EmbeddedDir}

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

// Source locates a set of goose migrations. A nil FS means Dir is on disk.
type Source struct {
	FS  fs.FS
	Dir string
}

// DirSource reads migrations from dir, or from the binary when dir is empty.
func DirSource(dir string) Source {
	if dir == "" {
		return EmbeddedSource
	}
	return Source{Dir: dir}
}

func (s Source) String() string {
	if s.FS != nil {
		return "embedded"
	}
	return s.Dir
}

// Dialect maps a configured database driver to its goose dialect.
func Dialect(driver string) (string, error) {
	switch driver {
	case "", config.DriverPostgres:
		return "postgres", nil
	case config.DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("no goose dialect for driver %q", driver)
	}
}

// Validate checks the migration files without touching a database.
func (s Source) Validate() error {
	if s.FS == nil {
		return ValidateDir(s.Dir)
	}
	return ValidateFS(s.FS, s.Dir)
}

// Run executes a goose command (up, down, status, ...).
func (s Source) Run(ctx context.Context, db *sql.DB, driver, command string, args ...string) error {
	return s.withGoose(db, driver, func() error {
		if err := goose.RunContext(ctx, command, db, s.Dir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// MigrateTo moves the schema up or down until it sits at version.
func (s Source) MigrateTo(ctx context.Context, db *sql.DB, driver, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return fmt.Errorf("version %q is not a YYYYMMDDHHMMSS stamp: %w", version, err)
	}

	return s.withGoose(db, driver, func() error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read db version: %w", err)
		}
		switch {
		case current < target:
			err = goose.UpToContext(ctx, db, s.Dir, target)
		case current > target:
			err = goose.DownToContext(ctx, db, s.Dir, target)
		}
		if err != nil {
			return fmt.Errorf("goose migrate %d -> %d: %w", current, target, err)
		}
		return nil
	})
}

func (s Source) withGoose(db *sql.DB, driver string, fn func() error) error {
	if db == nil {
		return errors.New("db is required")
	}
	if s.Dir == "" {
		return errors.New("migration dir is required")
	}
	dialect, err := Dialect(driver)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(s.FS)
	defer goose.SetBaseFS(nil)

	return fn()
}
