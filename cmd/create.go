package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-punch-clock/internal/model"
)

var (
	createName        string
	createDescription string
	createID          int
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new charge code",
	Args:  cobra.NoArgs,
	RunE:  runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "Name for the charge code")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Description for the charge code")
	createCmd.Flags().IntVar(&createID, "id", -1, "Unique integer identifier for the code")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("id")
}

func runCreate(cmd *cobra.Command, args []string) error {
	meta := model.Metadata{Name: createName, Description: createDescription, ID: createID}
	if err := meta.Validate(); err != nil {
		return userError(err)
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}

	code, err := store.NewChargeCode(meta.Name, meta.Description, meta.ID)
	if err != nil {
		return storageError(err)
	}
	written, err := store.WriteRegistry(code)
	if err != nil {
		return storageError(err)
	}
	if !written {
		return userErrorf("charge code %d already exists; existing name and description were kept", meta.ID)
	}
	// Give the code a ledger entry right away so it can be deleted before
	// it is ever punched.
	if err := store.WriteLedger(code); err != nil {
		return storageError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote charge code %d (%s) to %s\n", code.ID, code.Name, store.RegistryPath())
	return nil
}
