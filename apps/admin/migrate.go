package main

import (
	"github.com/spf13/cobra"

	"github.com/lajunglaworkout/jungla-iberica-sub004/storage/database"
)

var gooseRunFunc = database.RunMigration // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS]",
		Short: "Run goose migrations: up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status, version, fix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return gooseRunFunc(cli.db, args[0], args[1:]...)
		},
	}
}
