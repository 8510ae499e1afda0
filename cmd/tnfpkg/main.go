// Command tnfpkg creates and inspects OpenTNF GeoPackage datasets.
package main

import (
	"os"

	"github.com/opentnf/tnfpkg/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
