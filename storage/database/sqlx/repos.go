// Package sqlxrepos implements the domain repositories against PostgreSQL.
// Writes that race (seat-limited enrolls, submit vs grade) are single
// conditional statements so the database serializes them.
package sqlxrepos

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// uniqueViolation is the pq error code raised by unique indexes.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}

func pqStringArray(vals []string) interface{} { return pq.Array(vals) }

func nullTime(t time.Time) null.Time { return null.NewTime(t.UTC(), !t.IsZero()) }

func argN(format string, n int) string { return fmt.Sprintf(format, n) }

func argPair(format string, a, b int) string { return fmt.Sprintf(format, a, b) }

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func orderClause(ordering []core.DBOrdering, deflt string) string {
	if len(ordering) == 0 {
		if deflt == "" {
			return ""
		}
		return " ORDER BY " + deflt
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
