package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var ErrInvalidIdentifier = errors.New("invalid_identifier")

// Identifier sanitizes a table name into lower snake case.
func Identifier(name string) (string, error) {
	id := strings.ReplaceAll(slug.Make(name), "-", "_")
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return id, nil
}

type quoter struct {
	db *gorm.DB
}

func (q quoter) ident(name string) string {
	var b strings.Builder
	q.db.Dialector.QuoteTo(&b, name)
	return b.String()
}

func (q quoter) idents(prefix string, names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = prefix + q.ident(n)
	}
	return strings.Join(parts, ", ")
}

// updateSQL overwrites every non-key column of target rows that have a staged twin.
func (q quoter) updateSQL(target, staging, key string, columns []string) string {
	t, s, k := q.ident(target), q.ident(staging), q.ident(key)
	sets := make([]string, 0, len(columns))
	if q.db.Dialector.Name() == "mysql" {
		for _, c := range columns {
			if c == key {
				continue
			}
			sets = append(sets, fmt.Sprintf("t.%s = s.%s", q.ident(c), q.ident(c)))
		}
		return fmt.Sprintf("UPDATE %s AS t JOIN %s AS s ON t.%s = s.%s SET %s",
			t, s, k, k, strings.Join(sets, ", "))
	}
	for _, c := range columns {
		if c == key {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = s.%s", q.ident(c), q.ident(c)))
	}
	return fmt.Sprintf("UPDATE %s AS t SET %s FROM %s AS s WHERE t.%s = s.%s",
		t, strings.Join(sets, ", "), s, k, k)
}

// insertSQL copies staged rows whose key is not in target yet.
func (q quoter) insertSQL(target, staging, key string, columns []string) string {
	t, s, k := q.ident(target), q.ident(staging), q.ident(key)
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s AS s WHERE s.%s NOT IN (SELECT %s FROM %s)",
		t, q.idents("", columns), q.idents("s.", columns), s, k, k, t)
}

// softDeleteSQL flags target rows missing from staging. It takes one bind parameter
// per boolean: the new value, then the current value to match.
func (q quoter) softDeleteSQL(target, staging, key, deleted string) string {
	t, s, k, d := q.ident(target), q.ident(staging), q.ident(key), q.ident(deleted)
	return fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ? AND %s NOT IN (SELECT DISTINCT %s FROM %s)",
		t, d, d, k, k, s)
}
