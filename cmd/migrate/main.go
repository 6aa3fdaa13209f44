// Command migrate runs the embedded schema migrations standalone, for
// operators who want to migrate the database without starting the server
// (mirrors the teacher's separate migration CLI).
package main

import (
	"fmt"
	"os"

	"github.com/lipish/xtrace/internal/config"
	"github.com/lipish/xtrace/internal/core/store"
	"github.com/lipish/xtrace/internal/migration"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	sqlDB, err := st.DB.DB()
	if err != nil {
		return err
	}

	mgr, err := migration.NewManager(sqlDB)
	if err != nil {
		return err
	}
	defer mgr.Close()

	return mgr.Up()
}
