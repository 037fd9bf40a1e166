package commands

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/iota-uz/presence/pkg/configuration"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply database schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()

			db, err := sql.Open("postgres", conf.Database.ConnectionString())
			if err != nil {
				return errors.Wrap(err, "failed to open database")
			}
			defer func() { _ = db.Close() }()

			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}

			switch args[0] {
			case "up":
				return goose.Up(db, conf.MigrationsDir)
			case "down":
				return goose.Down(db, conf.MigrationsDir)
			case "status":
				return goose.Status(db, conf.MigrationsDir)
			default:
				return fmt.Errorf("unknown migrate action %q", args[0])
			}
		},
	}
}
