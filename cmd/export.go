package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-punch-clock/internal/export"
	"github.com/Tiliavir/trivial-punch-clock/internal/timecard"
)

// sqliteFile collects the timecards of every exported code.
const sqliteFile = "timecards.db"

var (
	exportPeriod string
	exportToday  bool
	exportFormat string
	exportDir    string
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a charge code's timecard to a file",
	Long: `Write the timecard of the given period to a file in --dir.
csv and xlsx produce timecard_<name>.<ext>; sqlite appends to timecards.db,
replacing earlier rows of the same code.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportPeriod, "period", "week", "Window: week, period, month")
	exportCmd.Flags().BoolVar(&exportToday, "today", false, "Export today only (overrides --period)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, xlsx, sqlite")
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "Directory to write to")
}

func runExport(cmd *cobra.Command, args []string) error {
	period, err := timecard.ParsePeriod(exportPeriod)
	if err != nil {
		return userError(err)
	}
	switch exportFormat {
	case "csv", "xlsx", "sqlite":
	default:
		return userErrorf("unknown format %q (want csv, xlsx or sqlite)", exportFormat)
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	code, err := mustLookup(store, args[0])
	if err != nil {
		return err
	}

	seq, err := timecardRows(code, exportToday, period)
	if err != nil {
		return err
	}
	rows := slices.Collect(seq)

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return storageError(fmt.Errorf("creating export directory: %w", err))
	}

	var path string
	switch exportFormat {
	case "xlsx":
		path = filepath.Join(exportDir, export.FileName(code.Name, "xlsx"))
		err = export.XLSX(path, code.Name, rows)
	case "sqlite":
		path = filepath.Join(exportDir, sqliteFile)
		err = export.SQLite(context.Background(), path, code, rows)
	default:
		path = filepath.Join(exportDir, export.FileName(code.Name, "csv"))
		err = writeCSVFile(path, rows)
	}
	if err != nil {
		return storageError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d interval(s) of charge code %d to %s\n", len(rows), code.ID, path)
	return nil
}

func writeCSVFile(path string, rows []timecard.Row) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return export.CSV(f, rows)
}
