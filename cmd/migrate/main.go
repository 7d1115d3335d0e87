// Command migrate applies or rolls back the broker's database schema.
//
// Usage:
//
//	migrate up
//	migrate down
package main

import (
	"fmt"
	"os"

	"github.com/zenwallet/authbroker/internal/config"
	"github.com/zenwallet/authbroker/internal/db/migrate"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate [up|down]")
		os.Exit(2)
	}
	direction := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabaseURL, direction); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", direction, err)
		os.Exit(1)
	}
	fmt.Printf("migrate %s: ok\n", direction)
}
