// Package export writes timecard rows to files outside the stores.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/Tiliavir/trivial-punch-clock/internal/timecalc"
	"github.com/Tiliavir/trivial-punch-clock/internal/timecard"
)

// Header lists the export columns in order.
var Header = []string{"clock_in", "clock_out", "duration", "hours", "week", "weekday", "dayname", "date"}

// record renders r in Header order.
func record(r timecard.Row) []string {
	return []string{
		timecalc.FormatISO(r.ClockIn),
		timecalc.FormatISO(r.ClockOut),
		timecalc.FormatDurationHHMMSS(int64(r.Duration.Seconds())),
		r.Hours.StringFixed(1),
		strconv.Itoa(r.Week),
		strconv.Itoa(r.Weekday),
		r.DayName,
		r.Date,
	}
}

// CSV writes rows with a header line.
func CSV(w io.Writer, rows []timecard.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName returns "timecard_<name>.<ext>" with characters that are awkward
// in file names replaced by underscores.
func FileName(codeName, ext string) string {
	name := strings.Trim(unsafeName.ReplaceAllString(codeName, "_"), "_")
	if name == "" {
		name = "code"
	}
	return "timecard_" + name + "." + strings.TrimPrefix(ext, ".")
}
