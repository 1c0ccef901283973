package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/misha1235000/SpikeServer/migrate"
	"github.com/misha1235000/SpikeServer/server"
)

func newMigrateCmd() *cobra.Command {
	var (
		driver string
		dsn    string
	)
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status|version|up-to|down-to|redo|reset] [target]",
		Short:     "Run team directory migrations",
		Args:      cobra.RangeArgs(0, 2),
		ValidArgs: []string{"up", "down", "status", "version", "up-to", "down-to", "redo", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := migrate.OptionsFromEnv(dsn)
			if opts.DSN == "" {
				cfg, err := server.LoadConfig()
				if err != nil {
					return err
				}
				opts.DSN = cfg.TeamsDSN()
			}
			if opts.DSN == "" {
				return fmt.Errorf("no team directory dsn: set --dsn, SPIKE_DATABASE__TEAMS__DSN or MIGRATE_DSN")
			}
			if driver != "" {
				opts.Driver = driver
			}
			if len(args) > 0 {
				opts.Command = args[0]
			}
			if len(args) > 1 {
				n, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid target %q: %w", args[1], err)
				}
				opts.Target = n
			}
			opts.Logger = log.New(os.Stdout, "[migrate] ", log.LstdFlags)
			return migrate.Run(opts)
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "postgres or sqlite (default from MIGRATE_DRIVER, else postgres)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database connection string")
	return cmd
}
