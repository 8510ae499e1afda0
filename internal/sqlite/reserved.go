package sqlite

import "strings"

// reservedWords holds the SQLite keywords that must be quoted when used as
// an identifier. Lookups use the upper-cased identifier.
var reservedWords = func() map[string]struct{} {
	words := strings.Fields(`
		ABORT ACTION ADD AFTER ALL ALTER ANALYZE AND AS ASC ATTACH AUTOINCREMENT
		BEFORE BEGIN BETWEEN BY CASCADE CASE CAST CHECK COLLATE COLUMN COMMIT
		CONFLICT CONSTRAINT CREATE CROSS CURRENT_DATE CURRENT_TIME
		CURRENT_TIMESTAMP DATABASE DEFAULT DEFERRABLE DEFERRED DELETE DESC
		DETACH DISTINCT DROP EACH ELSE END ESCAPE EXCEPT EXCLUSIVE EXISTS
		EXPLAIN FAIL FOR FOREIGN FROM FULL GLOB GROUP HAVING IF IGNORE
		IMMEDIATE IN INDEX INDEXED INITIALLY INNER INSERT INSTEAD INTERSECT
		INTO IS ISNULL JOIN KEY LEFT LIKE LIMIT MATCH NATURAL NO NOT NOTNULL
		NULL OF OFFSET ON OR ORDER OUTER PLAN PRAGMA PRIMARY QUERY RAISE
		RECURSIVE REFERENCES REGEXP REINDEX RELEASE RENAME REPLACE RESTRICT
		RIGHT ROLLBACK ROW SAVEPOINT SELECT SET TABLE TEMP TEMPORARY THEN TO
		TRANSACTION TRIGGER UNION UNIQUE UPDATE USING VACUUM VALUES VIEW
		VIRTUAL WHEN WHERE WITH WITHOUT`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// isReserved reports whether name collides with a SQLite keyword.
func isReserved(name string) bool {
	_, ok := reservedWords[strings.ToUpper(name)]
	return ok
}

// quoteIdent double-quotes name when it is a reserved word and returns it
// unchanged otherwise.
func quoteIdent(name string) string {
	if !isReserved(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
