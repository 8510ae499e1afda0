package sqlite

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"
)

// SchemaDigest returns a digest of the file's schema: every table, index,
// trigger and view definition, in name order, with whitespace collapsed.
// Two files with the same DDL have the same digest whatever their
// content.
func (d *Database) SchemaDigest() (string, error) {
	h := murmur3.New128()
	err := d.Query(
		"SELECT type, name, sql FROM sqlite_master WHERE sql IS NOT NULL AND name NOT LIKE 'sqlite_%' ORDER BY type, name",
		func(rec *Record) error {
			fmt.Fprintf(h, "%s\x00%s\x00%s\x00", rec.String("type"), strings.ToLower(rec.String("name")),
				strings.Join(strings.Fields(rec.String("sql")), " "))
			return nil
		})
	if err != nil {
		return "", fmt.Errorf("digesting schema: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
