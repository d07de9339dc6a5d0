// Command migrate converts CSV exports into JSON payloads for the
// destination platform's bulk API.
//
// Usage:
//
//	migrate run teams Teams.csv --lookup projects=LookupProjectIdForTeams.csv
//	migrate list
//	migrate template users_insert > users.csv
//	migrate serve
//
// The payload is written to stdout; logs go to stderr. A batch-level failure
// writes an error document to stdout and exits with status 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	_ "github.com/JonMunkholm/csvmigrate/internal/core/adapters" // Register all adapters
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
