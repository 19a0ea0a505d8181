package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nonIdentRe = regexp.MustCompile(`[^a-z0-9]+`)

// skeleton is written for new migrations. Keep statements portable so the
// sqlite dev database can apply them too.
const skeleton = `-- +goose Up
-- +goose StatementBegin
-- {{name}}
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback {{name}}
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<version>_<slug>.sql and returns its path.
// Two migrations may not share a slug.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", errors.New("migration dir is required")
	}
	slug := slugify(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	clash, err := filepath.Glob(filepath.Join(dir, "*_"+slug+".sql"))
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(clash) > 0 {
		return "", fmt.Errorf("migration %q already exists at %s", slug, clash[0])
	}

	path := filepath.Join(dir, time.Now().UTC().Format(versionLayout)+"_"+slug+".sql")
	body := strings.ReplaceAll(skeleton, "{{name}}", slug)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// slugify lowercases name and folds every run of other characters into '_'.
func slugify(name string) string {
	return strings.Trim(nonIdentRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}
