package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-punch-clock/internal/timecalc"
)

var (
	entryDate string
	entryIn   string
	entryOut  string
)

var entryCmd = &cobra.Command{
	Use:   "entry <id>",
	Short: "Enter a worked interval by hand",
	Long: `Instead of punching in and out, record a finished interval directly.
The code must not be punched in.`,
	Args: cobra.ExactArgs(1),
	RunE: runEntry,
}

func init() {
	entryCmd.Flags().StringVar(&entryDate, "date", "", "Date as YYYYMMDD (default today)")
	entryCmd.Flags().StringVar(&entryIn, "in", "", "Clock-in time as HHMM")
	entryCmd.Flags().StringVar(&entryOut, "out", "", "Clock-out time as HHMM")
	_ = entryCmd.MarkFlagRequired("in")
	_ = entryCmd.MarkFlagRequired("out")
}

func runEntry(cmd *cobra.Command, args []string) error {
	date := entryDate
	if date == "" {
		date = now().Format("20060102")
	}
	in, err := timecalc.ParseDayClock(date, entryIn, nil)
	if err != nil {
		return userError(err)
	}
	out, err := timecalc.ParseDayClock(date, entryOut, nil)
	if err != nil {
		return userError(err)
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	code, err := mustLookup(store, args[0])
	if err != nil {
		return err
	}

	if err := code.AddInterval(in, out); err != nil {
		return userError(err)
	}
	if err := store.WriteLedger(code); err != nil {
		return storageError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Entered %s %s-%s for charge code %d (%s).\n",
		in.Format("2006-01-02"), in.Format("15:04"), out.Format("15:04"), code.ID, code.Name)
	return nil
}
