package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-punch-clock/internal/config"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change tpc settings",
}

var setDefaultCmd = &cobra.Command{
	Use:   "default <id>",
	Short: "Set the charge code punched when no id is given",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetDefault,
}

func init() {
	setCmd.AddCommand(setDefaultCmd)
}

func runSetDefault(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStore()
	if err != nil {
		return err
	}
	code, err := mustLookup(store, args[0])
	if err != nil {
		return err
	}

	if err := config.SetDefault(cfg.File, code.ID); err != nil {
		return storageError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Default charge code is now %d (%s).\n", code.ID, code.Name)
	return nil
}
