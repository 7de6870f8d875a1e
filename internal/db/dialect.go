package db

import (
	"strconv"
	"strings"
)

// Dialect captures the few places where the supported SQL engines differ.
// Queries are written with '?' placeholders and rebound per dialect.
type Dialect struct {
	Name string
	// Returning is true when INSERT/UPDATE ... RETURNING is available.
	Returning bool
	numbered  bool
}

var (
	Postgres = Dialect{Name: "postgres", Returning: true, numbered: true}
	MySQL    = Dialect{Name: "mysql"}
)

// Rebind rewrites '?' placeholders into the dialect's bind variables.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a LIKE pattern matching any value that contains
// text literally. Both engines use backslash as the default LIKE escape.
func ContainsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
