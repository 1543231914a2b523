package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Tiliavir/trivial-punch-clock/internal/timecard"
)

const maxSheetName = 31

// badSheetChars are rejected by spreadsheet applications in sheet names.
var badSheetChars = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")

// SheetName turns a charge code name into a valid worksheet name: no
// reserved characters, no leading or trailing quote, at most 31 characters.
func SheetName(name string) string {
	name = strings.Trim(strings.TrimSpace(badSheetChars.Replace(name)), "'")
	if r := []rune(name); len(r) > maxSheetName {
		name = strings.TrimRight(string(r[:maxSheetName]), "'")
	}
	if strings.TrimSpace(name) == "" {
		return "Timecard"
	}
	return name
}

// XLSX writes rows to a new workbook at path with a single sheet. Hours and
// week numbers are stored as numbers so they can be summed in the sheet.
func XLSX(path, sheet string, rows []timecard.Row) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing workbook: %w", cerr)
		}
	}()

	sheet = SheetName(sheet)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet %q: %w", sheet, err)
	}

	for col, h := range Header {
		if err := setCell(f, sheet, col, 1, h); err != nil {
			return err
		}
	}
	for i, r := range rows {
		row := i + 2
		hours, _ := r.Hours.Float64()
		values := []any{
			r.ClockIn.Format("2006-01-02 15:04:05"),
			r.ClockOut.Format("2006-01-02 15:04:05"),
			record(r)[2],
			hours,
			r.Week,
			r.Weekday,
			r.DayName,
			r.Date,
		}
		for col, v := range values {
			if err := setCell(f, sheet, col, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("writing cell %s: %w", cell, err)
	}
	return nil
}
