package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var migrationNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin

-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin

-- +goose StatementEnd
`

// CreateSQLMigration writes an empty timestamped goose migration file.
func CreateSQLMigration(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if !migrationNamePattern.MatchString(name) {
		return "", fmt.Errorf("migration name must match %s", migrationNamePattern)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create migrations dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format("20060102150405"), name)
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(migrationTemplate), 0o644); err != nil {
		return "", fmt.Errorf("write migration file: %w", err)
	}
	return path, nil
}
