package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Dialect captures what differs between the supported SQL engines.
type Dialect struct {
	Name string
	// Numbered placeholders ($1, $2, ...) instead of ?.
	Numbered bool
	// Returning fetches generated ids with INSERT ... RETURNING id.
	Returning bool
	// Schema statements, executed one at a time by Migrate.
	Schema []string
}

// Rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) Rebind(q string) string {
	if !d.Numbered {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// Migrate creates the tables and indexes when missing.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range d.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "%s: migrate", d.Name)
		}
	}
	return nil
}
