package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/pullcheck/internal/database"
)

// MigrateCommand manages the database schema
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply pending schema migrations",
				Action: func(c *cli.Context) error {
					if err := database.MigrateUp(); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "Migrations applied")
					return nil
				},
			},
			{
				Name:  "down",
				Usage: "Roll back all schema migrations",
				Action: func(c *cli.Context) error {
					if err := database.MigrateDown(); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "Migrations rolled back")
					return nil
				},
			},
		},
	}
}
