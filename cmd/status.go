package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-punch-clock/internal/model"
	"github.com/Tiliavir/trivial-punch-clock/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show which charge codes are punched in",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	t := now()

	store, _, err := openStore()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		code, err := mustLookup(store, args[0])
		if err != nil {
			return err
		}
		printCodeStatus(out, code, t)
		return nil
	}

	codes, err := store.Codes()
	if err != nil {
		return storageError(err)
	}

	var running int
	for _, c := range codes {
		if c.State() != model.Open {
			continue
		}
		if running == 0 {
			fmt.Fprintln(out, "Running:")
		}
		running++
		start := c.Intervals[len(c.Intervals)-1].In
		fmt.Fprintf(out, "  %d %s since %s (%s)\n", c.ID, c.Name, start.Format("15:04"),
			timecalc.FormatDurationHHMMSS(int64(t.Sub(start).Seconds())))
	}
	if running == 0 {
		fmt.Fprintln(out, "No active charge code.")
	}
	return nil
}

func printCodeStatus(out io.Writer, code *model.ChargeCode, t time.Time) {
	fmt.Fprintf(out, "Charge code %d: %s\n", code.ID, code.Name)
	if code.Description != "" {
		fmt.Fprintf(out, "  Description: %s\n", code.Description)
	}
	fmt.Fprintf(out, "  State: %s\n", activeLabel(code))
	if code.State() == model.Open {
		start := code.Intervals[len(code.Intervals)-1].In
		fmt.Fprintf(out, "  Since: %s\n", start.Format("2006-01-02 15:04"))
		fmt.Fprintf(out, "  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(int64(t.Sub(start).Seconds())))
	}

	var today, week time.Duration
	monday, sunday := timecalc.WeekRange(t)
	for _, iv := range code.Intervals {
		if iv.IsOpen() || iv.In.Before(monday) || iv.In.After(sunday) {
			continue
		}
		week += iv.Duration()
		if timecalc.SameDay(iv.In, t) {
			today += iv.Duration()
		}
	}
	fmt.Fprintf(out, "  Today: %s logged.\n", timecalc.FormatDuration(int64(today.Seconds())))
	fmt.Fprintf(out, "  Week %s: %s logged.\n", timecalc.ISOWeekLabel(t), timecalc.FormatDuration(int64(week.Seconds())))
}
