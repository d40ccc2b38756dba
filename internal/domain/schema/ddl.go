package schema

import (
	"fmt"
	"strings"
)

// Postgres type names per column type.
func (t ColumnType) pgType() string {
	switch t {
	case Text:
		return "text"
	case Integer:
		return "bigint"
	case Double:
		return "double precision"
	case Boolean:
		return "boolean"
	case Timestamp:
		return "timestamptz"
	case JSON:
		return "jsonb"
	default:
		return "text"
	}
}

// QuoteIdent double-quotes a SQL identifier, escaping embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateTableSQL renders a CREATE TABLE IF NOT EXISTS statement for the
// collection. The key column is always text and the primary key.
func (c Collection) CreateTableSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdent(c.Name))
	fmt.Fprintf(&b, "\t%s text PRIMARY KEY", QuoteIdent(c.Key))
	for _, col := range c.Columns {
		fmt.Fprintf(&b, ",\n\t%s %s", QuoteIdent(col.Name), col.Type.pgType())
		if !col.Nullable {
			b.WriteString(" NOT NULL")
		}
		if col.Unique {
			b.WriteString(" UNIQUE")
		}
	}
	b.WriteString("\n)")
	return b.String()
}

// CreateIndexSQL renders one CREATE INDEX statement per indexed column,
// named idx_<table>_<column>.
func (c Collection) CreateIndexSQL() []string {
	var stmts []string
	for _, col := range c.Columns {
		if !col.Indexed {
			continue
		}
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			QuoteIdent("idx_"+c.Name+"_"+col.Name),
			QuoteIdent(c.Name),
			QuoteIdent(col.Name),
		))
	}
	return stmts
}
