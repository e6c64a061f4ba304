package store

import (
	"fmt"
	"regexp"
	"strings"

	"extract-catalog/internal/config"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// queries holds the statements for one table in one SQL dialect.
type queries struct {
	exists string
	insert string
}

type dialect struct {
	quote       func(string) string
	placeholder func(n int) string
	// exact wraps a quoted column so that = compares bytes. Default MySQL
	// collations fold case and accents.
	exact func(col string) string
}

func asIs(col string) string { return col }

var (
	mysqlDialect = dialect{
		quote:       func(s string) string { return "`" + s + "`" },
		placeholder: func(int) string { return "?" },
		exact:       func(col string) string { return "BINARY " + col },
	}
	sqliteDialect = dialect{
		quote:       func(s string) string { return `"` + s + `"` },
		placeholder: func(int) string { return "?" },
		exact:       asIs,
	}
	postgresDialect = dialect{
		quote:       func(s string) string { return `"` + s + `"` },
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		exact:       asIs,
	}
)

func buildQueries(d dialect, cfg config.Store) (queries, error) {
	for _, name := range []string{cfg.Table, cfg.KeyColumn, cfg.DescriptionColumn} {
		if !identifier.MatchString(name) {
			return queries{}, fmt.Errorf("invalid identifier %q", name)
		}
	}

	table := d.quote(cfg.Table)
	key := d.quote(cfg.KeyColumn)
	desc := d.quote(cfg.DescriptionColumn)

	return queries{
		exists: strings.Join([]string{
			"SELECT COUNT(*) FROM", table, "WHERE", d.exact(key), "=", d.placeholder(1),
		}, " "),
		insert: fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s, %s)",
			table, key, desc, d.placeholder(1), d.placeholder(2)),
	}, nil
}
