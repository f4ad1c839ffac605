package store

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect captures the differences between the supported SQL backends.
type Dialect struct {
	Name       string // name accepted by Open
	DriverName string // database/sql driver
	Schema     string
	positional bool // $1, $2 ... instead of ?
	singleConn bool
}

var (
	// Postgres is the production backend (lib/pq).
	Postgres = Dialect{
		Name:       "postgres",
		DriverName: "postgres",
		Schema:     postgresSchema,
		positional: true,
	}

	// SQLite is the embedded backend (modernc.org/sqlite), used for
	// single-node deployments and tests.
	SQLite = Dialect{
		Name:       "sqlite",
		DriverName: "sqlite",
		Schema:     sqliteSchema,
		singleConn: true,
	}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver: %s", name)
	}
}

// Rebind rewrites ? placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if !d.positional {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}
