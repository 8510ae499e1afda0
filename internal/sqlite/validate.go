package sqlite

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/opentnf/tnfpkg/pkg/types"
)

var sqliteMagic = []byte("SQLite format 3\x00")

// Application ids accepted in the SQLite header: "GP10" as written by
// this package and "GPKG" as written by GeoPackage 1.2 tools.
var applicationIDs = [][]byte{[]byte("GP10"), []byte("GPKG")}

// ValidateFile checks the container requirements of a GeoPackage: a
// SQLite 3 header, a GeoPackage application id and a .gpkg or .gpkx
// extension. It reports findings rather than failing; the error return is
// reserved for files that cannot be read.
func ValidateFile(path string) (types.ValidationResult, error) {
	res := types.ValidationResult{Path: path}

	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("validating %s: %w", path, err)
	}
	defer f.Close()
	header := make([]byte, 100)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return res, fmt.Errorf("validating %s: %w", path, err)
	}
	header = header[:n]

	if !bytes.HasPrefix(header, sqliteMagic) {
		res.Errorf("file is not a SQLite 3 database")
	}
	if len(header) < 72 || !knownApplicationID(header[68:72]) {
		res.Errorf("application id is not a GeoPackage application id")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpkg", ".gpkx":
	default:
		res.Errorf("file extension must be .gpkg or .gpkx")
	}
	return res, nil
}

func knownApplicationID(id []byte) bool {
	for _, a := range applicationIDs {
		if bytes.Equal(id, a) {
			return true
		}
	}
	return false
}
