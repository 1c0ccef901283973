package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/misha1235000/SpikeServer/seed"
	"github.com/misha1235000/SpikeServer/server"
	"github.com/misha1235000/SpikeServer/store"
)

func newSeedCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load teams and members from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = os.Getenv("SEED_FILE")
			}
			if path == "" {
				return fmt.Errorf("no seed file: set --file or SEED_FILE")
			}
			cfg, err := server.LoadConfig()
			if err != nil {
				return err
			}
			dsn := cfg.TeamsDSN()
			if dsn == "" {
				return fmt.Errorf("no team directory dsn: set SPIKE_DATABASE__TEAMS__DSN or MIGRATE_DSN")
			}
			gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
			if err != nil {
				return fmt.Errorf("open team directory: %w", err)
			}
			res, err := seed.Run(cmd.Context(), store.NewTeamStore(gdb), seed.Options{
				Path:   path,
				Logger: log.New(os.Stdout, "[seed] ", log.LstdFlags),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d teams (%d existing), %d members\n", res.Created, res.Existing, res.Members)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "seed file (default from SEED_FILE)")
	return cmd
}
