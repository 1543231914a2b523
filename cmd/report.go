package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-punch-clock/internal/export"
	"github.com/Tiliavir/trivial-punch-clock/internal/model"
	"github.com/Tiliavir/trivial-punch-clock/internal/timecalc"
	"github.com/Tiliavir/trivial-punch-clock/internal/timecard"
)

var (
	reportPeriod string
	reportToday  bool
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report <id>",
	Short: "Show hours worked on a charge code",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportPeriod, "period", "week", "Window: week (7 days), period (14 days), month (28 days)")
	reportCmd.Flags().BoolVar(&reportToday, "today", false, "Report on today only (overrides --period)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

type jsonDay struct {
	Date  string `json:"date"`
	Hours string `json:"hours"`
}

type jsonReport struct {
	ID     int       `json:"id"`
	Name   string    `json:"name"`
	Period string    `json:"period"`
	Days   []jsonDay `json:"days"`
	Total  string    `json:"total_hours"`
}

func runReport(cmd *cobra.Command, args []string) error {
	period, err := timecard.ParsePeriod(reportPeriod)
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

	rows, err := timecardRows(code, reportToday, period)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s (%d days)", period, period.Days())
	switch {
	case reportToday:
		title = "Today " + now().Format("2006-01-02")
	case period == timecard.Week:
		title = "Week " + timecalc.ISOWeekLabel(now())
	}

	out := cmd.OutOrStdout()
	switch reportFormat {
	case "csv":
		return export.CSV(out, slices.Collect(rows))
	case "json":
		rep := jsonReport{
			ID:     code.ID,
			Name:   code.Name,
			Period: periodLabel(reportToday, period),
			Days:   []jsonDay{},
			Total:  timecard.Total(rows).StringFixed(1),
		}
		for _, d := range timecard.DailyTotals(rows) {
			rep.Days = append(rep.Days, jsonDay{Date: d.Date, Hours: d.Hours.StringFixed(1)})
		}
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "md":
		printMarkdown(out, code.Name, title, rows)
	default:
		return userErrorf("unknown format %q (want md, csv or json)", reportFormat)
	}
	return nil
}

func periodLabel(today bool, period timecard.Period) string {
	if today {
		return "today"
	}
	return period.String()
}

// timecardRows filters code over today or over the period ending now. An
// open interval is a usage error: the code has to be punched out first.
func timecardRows(code *model.ChargeCode, today bool, period timecard.Period) (iter.Seq[timecard.Row], error) {
	tc := timecard.New(code, timecard.WithClock(now))
	var rows iter.Seq[timecard.Row]
	var err error
	if today {
		rows, err = tc.Today()
	} else {
		rows, err = tc.Report(period)
	}
	if errors.Is(err, timecard.ErrIncompleteInterval) {
		return nil, userErrorf("%v\nPunch out of charge code %d before reporting on it.", err, code.ID)
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func printMarkdown(out io.Writer, name, title string, rows iter.Seq[timecard.Row]) {
	fmt.Fprintf(out, "%s - %s\n", name, title)
	fmt.Fprintln(out, "--------------------------------")
	for _, d := range timecard.DailyTotals(rows) {
		fmt.Fprintf(out, "%-20s%sh\n", d.Date, d.Hours.StringFixed(1))
	}
	fmt.Fprintln(out, "--------------------------------")
	fmt.Fprintf(out, "%-20s%sh\n", "Total", timecard.Total(rows).StringFixed(1))
}
