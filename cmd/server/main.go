// Command server runs the EcoGuardian API and its maintenance commands.
//
//	server            start the HTTP server (same as "server serve")
//	server migrate    create or update the SQL schema and exit
//	server report     print one user's stats, analytics and goal progress
//
// Settings come from the environment, optionally seeded from a .env file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
