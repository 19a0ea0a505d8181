package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// postgresOnly lists constructs that break the sqlite local mode. Migrations
// run unchanged on both drivers, so none of these may appear.
var postgresOnly = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)\b(big)?serial\b`), "use an explicit BIGINT key"},
	{regexp.MustCompile(`(?i)\bjsonb\b`), "store JSON as TEXT"},
	{regexp.MustCompile(`(?i)\btimestamptz\b`), "use TIMESTAMP and write UTC"},
	{regexp.MustCompile(`(?i)\bgen_random_uuid\s*\(`), "generate ids in Go"},
	{regexp.MustCompile(`::\s*[a-z]`), "drop the postgres cast"},
}

// ValidateDir validates migration files on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateFS checks every .sql file under dir in fsys: filename shape, unique
// version and name, goose Up before Down, and no postgres-only SQL. All
// problems are reported together.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	versions := map[string]string{}
	labels := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		version, label := m[1], m[2]
		if prev, ok := versions[version]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name))
		}
		versions[version] = name
		if prev, ok := labels[label]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration name %q in %q and %q", label, prev, name))
		}
		labels[label] = name

		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read file %q: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkBody(name, string(body)))
	}
	return errs
}

func checkBody(name, sql string) error {
	up := strings.Index(sql, "-- +goose Up")
	down := strings.Index(sql, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	case down < up:
		return fmt.Errorf("migration %q has \"-- +goose Down\" before \"-- +goose Up\"", name)
	}

	var errs error
	for _, rule := range postgresOnly {
		if loc := rule.re.FindStringIndex(sql); loc != nil {
			errs = multierr.Append(errs, fmt.Errorf("migration %q uses %q which sqlite cannot run: %s", name, sql[loc[0]:loc[1]], rule.hint))
		}
	}
	return errs
}
