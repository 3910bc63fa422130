package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed clickhouse/*.sql
var clickhouseFS embed.FS

// Migration is one versioned SQL file. Version is the file name without
// ".sql" (e.g. "001_init") and is what schema_migrations records.
type Migration struct {
	Version string
	SQL     string
}

// Postgres returns the embedded PostgreSQL migrations in version order.
func Postgres() ([]Migration, error) {
	return Load(postgresFS, "postgres")
}

// Clickhouse returns the embedded ClickHouse migrations in version order.
func Clickhouse() ([]Migration, error) {
	return Load(clickhouseFS, "clickhouse")
}

// Load reads the .sql files of dir, skipping blank ones, ordered by version.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations %s: %w", dir, err)
	}

	var out []Migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, Migration{Version: strings.TrimSuffix(name, ".sql"), SQL: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Pending returns the migrations whose version is not in applied, keeping order.
func Pending(all []Migration, applied map[string]struct{}) []Migration {
	var out []Migration
	for _, m := range all {
		if _, ok := applied[m.Version]; !ok {
			out = append(out, m)
		}
	}
	return out
}
