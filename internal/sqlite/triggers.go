package sqlite

import (
	"fmt"
	"strings"
)

// rowCheck renders a BEFORE trigger on table that aborts the statement
// when cond holds for the NEW row. event is "INSERT" or "UPDATE OF ...".
func rowCheck(name, table, event, rule, cond string) string {
	op := strings.ToLower(strings.Fields(event)[0])
	return fmt.Sprintf(`CREATE TRIGGER %s
BEFORE %s ON %s
FOR EACH ROW BEGIN
SELECT RAISE(ABORT, '%s on table ''%s'' violates constraint: %s')
WHERE (%s);
END`, quoteName(name), event, quoteName(table), op, table, strings.ReplaceAll(rule, "'", "''"), cond)
}

// checkPair renders the insert and update variants of one row check. The
// update variant fires only when one of cols changes.
func checkPair(table string, n int, cols []string, rule, cond string) []string {
	return []string{
		rowCheck(fmt.Sprintf("%s_insert%d", table, n), table, "INSERT", rule, cond),
		rowCheck(fmt.Sprintf("%s_update%d", table, n), table, "UPDATE OF "+strings.Join(cols, ", "), rule, cond),
	}
}

// quoteName always double-quotes an identifier.
func quoteName(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
