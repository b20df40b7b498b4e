package commands

import "github.com/thoreinstein/apm/cmd/apm/commands/backup"

func init() {
	rootCmd.AddCommand(backup.Cmd)
}
