package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/pressly/goose/v3"
)

var slugDisallowed = regexp.MustCompile(`[^a-z0-9]+`)

var sqlTemplate = template.Must(template.New("wholesale.sql").Parse(`-- +goose Up
-- +goose StatementBegin
-- {{.CamelName}} ({{.Version}})
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert {{.CamelName}}
-- +goose StatementEnd
`))

// CreateSQLMigration writes an empty timestamped goose migration named after
// name and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", errors.New("migrations dir is required")
	}
	slug := strings.Trim(slugDisallowed.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	goose.SetSequential(false)
	if err := goose.CreateWithTemplate(nil, dir, sqlTemplate, slug, "sql"); err != nil {
		return "", err
	}
	created, err := filepath.Glob(filepath.Join(dir, "*_"+slug+".sql"))
	if err != nil || len(created) == 0 {
		return "", fmt.Errorf("migration %s was not written to %s", slug, dir)
	}
	// Timestamps sort lexically, so the last match is the file just written.
	return created[len(created)-1], nil
}
