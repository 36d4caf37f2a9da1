// Command synapse operates a local knowledge-marketplace engine: credit
// accounts, contributor pools and expert payments, persisted in a bbolt
// database under the data directory.
package main

import (
	"os"

	"github.com/pterm/pterm"

	"github.com/bitfsorg/libsynapse-go/cmd/synapse/commands"
	"github.com/bitfsorg/libsynapse-go/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		pterm.Error.Printfln("%s (%s)", err, errors.Kind(err))
		if hint := errors.FlattenHints(err); hint != "" {
			pterm.Info.Println(hint)
		}
		os.Exit(1)
	}
}
