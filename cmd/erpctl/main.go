// Command erpctl runs one-shot maintenance tasks against the ERP database:
// migrations, seeding, diagnostics and cascading deletes.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "erpctl: %v\n", err)
		os.Exit(1)
	}
}
