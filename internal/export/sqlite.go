package export

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Tiliavir/trivial-punch-clock/internal/model"
	"github.com/Tiliavir/trivial-punch-clock/internal/timecalc"
	"github.com/Tiliavir/trivial-punch-clock/internal/timecard"
)

const timecardSchema = `
CREATE TABLE IF NOT EXISTS timecard (
	code_id    INTEGER NOT NULL,
	code_name  TEXT    NOT NULL,
	clock_in   TEXT    NOT NULL,
	clock_out  TEXT    NOT NULL,
	seconds    INTEGER NOT NULL,
	hours      TEXT    NOT NULL,
	week       INTEGER NOT NULL,
	weekday    INTEGER NOT NULL,
	dayname    TEXT    NOT NULL,
	date       TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_timecard_code_date ON timecard (code_id, date);`

// SQLite stores rows in the timecard table of the database at path. Rows
// previously exported for the same code are replaced, so re-exporting a
// period is safe. Other codes' rows are kept.
func SQLite(ctx context.Context, path string, code *model.ChargeCode, rows []timecard.Row) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, timecardSchema); err != nil {
		return fmt.Errorf("creating timecard table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM timecard WHERE code_id = ?`, code.ID); err != nil {
		return fmt.Errorf("clearing rows for code %d: %w", code.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO timecard (code_id, code_name, clock_in, clock_out, seconds, hours, week, weekday, dayname, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			code.ID,
			code.Name,
			timecalc.FormatISO(r.ClockIn),
			timecalc.FormatISO(r.ClockOut),
			int64(r.Duration.Seconds()),
			r.Hours.StringFixed(1),
			r.Week,
			r.Weekday,
			r.DayName,
			r.Date,
		)
		if err != nil {
			return fmt.Errorf("inserting row %s: %w", timecalc.FormatISO(r.ClockIn), err)
		}
	}
	return tx.Commit()
}
