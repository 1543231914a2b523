// Package timecard derives reporting rows from one charge code's punch
// history.
package timecard

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tiliavir/trivial-punch-clock/internal/model"
	"github.com/Tiliavir/trivial-punch-clock/internal/timecalc"
)

// ErrIncompleteInterval matches every *IncompleteIntervalError.
var ErrIncompleteInterval = errors.New("incomplete interval data")

// IncompleteIntervalError is returned when a report is requested for a code
// that still has an open interval.
type IncompleteIntervalError struct {
	CodeID  int
	Index   int
	ClockIn time.Time
}

func (e *IncompleteIntervalError) Error() string {
	return fmt.Sprintf("incomplete interval data: code %d interval %d (in %s) has no clock-out",
		e.CodeID, e.Index, timecalc.FormatISO(e.ClockIn))
}

func (e *IncompleteIntervalError) Is(target error) bool {
	return target == ErrIncompleteInterval
}

// Row is one closed interval with its derived reporting fields.
type Row struct {
	ClockIn  time.Time
	ClockOut time.Time
	Duration time.Duration
	Hours    decimal.Decimal
	Week     int
	Weekday  int // Monday=0
	DayName  string
	Date     string
}

var sixty = decimal.NewFromInt(60)

// Hours converts d to fractional hours from its whole hours and minutes,
// rounded to one decimal.
func Hours(d time.Duration) decimal.Decimal {
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)
	return decimal.NewFromInt(h).Add(decimal.NewFromInt(m).Div(sixty)).Round(1)
}

// NewRow derives a Row from a closed interval.
func NewRow(in, out time.Time) Row {
	d := out.Sub(in)
	_, week := in.ISOWeek()
	return Row{
		ClockIn:  in,
		ClockOut: out,
		Duration: d,
		Hours:    Hours(d),
		Week:     week,
		Weekday:  timecalc.MondayIndex(in),
		DayName:  in.Weekday().String(),
		Date:     in.Format("2006-01-02"),
	}
}

// TimeCard is a reporting view bound to one charge code.
type TimeCard struct {
	code *model.ChargeCode
	now  func() time.Time
}

// Option configures a TimeCard.
type Option func(*TimeCard)

// WithClock replaces time.Now for the period windows.
func WithClock(now func() time.Time) Option {
	return func(tc *TimeCard) { tc.now = now }
}

// New returns a TimeCard for code.
func New(code *model.ChargeCode, opts ...Option) *TimeCard {
	tc := &TimeCard{code: code, now: time.Now}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

// Filter returns the closed intervals whose clock-in lies in [start, end].
// Every interval of the code must be closed. The sequence is computed on
// iteration and can be ranged over more than once.
func (tc *TimeCard) Filter(start, end time.Time) (iter.Seq[Row], error) {
	snapshot := tc.code.Clone().Intervals
	for i, iv := range snapshot {
		if iv.IsOpen() {
			return nil, &IncompleteIntervalError{CodeID: tc.code.ID, Index: i, ClockIn: iv.In}
		}
	}

	return func(yield func(Row) bool) {
		for _, iv := range snapshot {
			if iv.In.Before(start) || iv.In.After(end) {
				continue
			}
			if !yield(NewRow(iv.In, *iv.Out)) {
				return
			}
		}
	}, nil
}

// Last filters the window of the given number of days ending now.
func (tc *TimeCard) Last(days int) (iter.Seq[Row], error) {
	end := tc.now()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)
	return tc.Filter(start, end)
}

// Day filters the calendar day containing t.
func (tc *TimeCard) Day(t time.Time) (iter.Seq[Row], error) {
	return tc.Filter(timecalc.StartOfDay(t), timecalc.EndOfDay(t))
}

// Today is Day for the current date.
func (tc *TimeCard) Today() (iter.Seq[Row], error) { return tc.Day(tc.now()) }

// Weekly covers the last 7 days.
func (tc *TimeCard) Weekly() (iter.Seq[Row], error) { return tc.Last(7) }

// PayPeriod covers the last 14 days.
func (tc *TimeCard) PayPeriod() (iter.Seq[Row], error) { return tc.Last(14) }

// Monthly covers the last 28 days.
func (tc *TimeCard) Monthly() (iter.Seq[Row], error) { return tc.Last(28) }

// Report dispatches to the window for p.
func (tc *TimeCard) Report(p Period) (iter.Seq[Row], error) {
	return tc.Last(p.Days())
}

// Period is a named reporting window.
type Period int

const (
	Week Period = iota
	PayPeriod
	Month
)

var periodNames = map[Period]string{
	Week:      "week",
	PayPeriod: "period",
	Month:     "month",
}

func (p Period) String() string {
	if name, ok := periodNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Period(%d)", int(p))
}

// Days returns the window length.
func (p Period) Days() int {
	switch p {
	case PayPeriod:
		return 14
	case Month:
		return 28
	default:
		return 7
	}
}

// ParsePeriod accepts "week", "period" (or "biweek") and "month".
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "week", "weekly":
		return Week, nil
	case "period", "biweek", "payperiod":
		return PayPeriod, nil
	case "month", "monthly":
		return Month, nil
	}
	return Week, fmt.Errorf("unknown period %q (want week, period or month)", s)
}

// DayTotal is the hours worked on one date.
type DayTotal struct {
	Date  string
	Hours decimal.Decimal
}

// DailyTotals sums hours per date, sorted by date.
func DailyTotals(rows iter.Seq[Row]) []DayTotal {
	sums := map[string]decimal.Decimal{}
	for r := range rows {
		sums[r.Date] = sums[r.Date].Add(r.Hours)
	}
	out := make([]DayTotal, 0, len(sums))
	for date, h := range sums {
		out = append(out, DayTotal{Date: date, Hours: h})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Total sums the hours of all rows.
func Total(rows iter.Seq[Row]) decimal.Decimal {
	total := decimal.Zero
	for r := range rows {
		total = total.Add(r.Hours)
	}
	return total
}
