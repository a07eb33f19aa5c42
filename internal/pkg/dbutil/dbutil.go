package dbutil

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// gendry renders _limit as the mysql form "LIMIT ?,?" (offset first).
var limitOffsetRe = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

// Finalize turns a '?'-placeholder query from gendry or sqlx.In into a
// postgres query, rewriting "LIMIT offset,count" into "LIMIT count OFFSET offset".
func Finalize(query string, args []interface{}) (string, []interface{}) {
	if loc := limitOffsetRe.FindStringIndex(query); loc != nil {
		idx := strings.Count(query[:loc[0]], "?")
		if idx+1 < len(args) {
			args[idx], args[idx+1] = args[idx+1], args[idx]
			query = query[:loc[0]] + "LIMIT ? OFFSET ?" + query[loc[1]:]
		}
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}

// ExpandIn expands slice args for IN (?) clauses, then finalizes for postgres.
func ExpandIn(query string, args ...interface{}) (string, []interface{}, error) {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	q, a := Finalize(expanded, expandedArgs)
	return q, a, nil
}

// IsConflict reports a unique constraint violation.
func IsConflict(err error) bool {
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == pqUniqueViolation
}
