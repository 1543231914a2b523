package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-punch-clock/internal/model"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all charge codes",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}

	codes, err := store.Codes()
	if err != nil {
		return storageError(err)
	}

	return printList(cmd.OutOrStdout(), codes)
}

// printList prints codes as an aligned table, in the order given.
func printList(out io.Writer, codes []*model.ChargeCode) error {
	if len(codes) == 0 {
		fmt.Fprintln(out, "No charge codes found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION\tACTIVE")
	for _, c := range codes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Description, activeLabel(c))
	}
	return tw.Flush()
}
