package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-punch-clock/internal/storage"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a charge code and all of its punch data",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := storage.ParseID(args[0])
	if err != nil {
		return userError(err)
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}

	if err := store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return userError(err)
		}
		return storageError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed charge code %d and its punch data.\n", id)
	return nil
}
