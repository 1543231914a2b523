package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Tiliavir/trivial-punch-clock/internal/timecalc"
)

var (
	// ErrClockOutBeforeClockIn is returned when closing an interval would
	// give it a negative length.
	ErrClockOutBeforeClockIn = errors.New("clock-out is before clock-in")
	// ErrActive is returned when a closed interval is added while the code
	// still has an open one.
	ErrActive = errors.New("charge code is punched in")
)

// State describes where a ChargeCode is in its punch cycle.
type State int

const (
	// Uninitialized means no punches were ever recorded.
	Uninitialized State = iota
	// Closed means the last interval has both clock-in and clock-out.
	Closed
	// Open means the last interval is still waiting for its clock-out.
	Open
)

func (s State) String() string {
	switch s {
	case Open:
		return "Open"
	case Closed:
		return "Closed"
	default:
		return "Uninitialized"
	}
}

// Interval is one clock-in with an optional clock-out.
type Interval struct {
	In  time.Time
	Out *time.Time
}

// IsOpen reports whether the interval is still waiting for its clock-out.
func (iv Interval) IsOpen() bool {
	return iv.Out == nil
}

// Duration returns Out-In for a closed interval and zero for an open one.
func (iv Interval) Duration() time.Duration {
	if iv.Out == nil {
		return 0
	}
	return iv.Out.Sub(iv.In)
}

// ChargeCode is a named category of work that time is punched against.
// Intervals are kept in punch order; only the last one may be open.
type ChargeCode struct {
	Name        string
	Description string
	ID          int
	Intervals   []Interval
}

// New returns a ChargeCode without any intervals.
func New(name, description string, id int) *ChargeCode {
	return &ChargeCode{Name: name, Description: description, ID: id}
}

// Key is the registry and ledger key for the code.
func (c *ChargeCode) Key() string {
	return Key(c.ID)
}

// Key formats an id as a store key.
func Key(id int) string {
	return strconv.Itoa(id)
}

// State returns the current punch state.
func (c *ChargeCode) State() State {
	if len(c.Intervals) == 0 {
		return Uninitialized
	}
	if c.Intervals[len(c.Intervals)-1].IsOpen() {
		return Open
	}
	return Closed
}

// IsActive reports whether the code is punched in. known is false when the
// code has never been punched.
func (c *ChargeCode) IsActive() (active, known bool) {
	switch c.State() {
	case Open:
		return true, true
	case Closed:
		return false, true
	default:
		return false, false
	}
}

// Punch toggles the code at the current time.
func (c *ChargeCode) Punch() error {
	return c.PunchAt(time.Now())
}

// PunchAt closes the open interval at t, or opens a new one at t.
func (c *ChargeCode) PunchAt(t time.Time) error {
	t = timecalc.Truncate(t)
	if c.State() != Open {
		c.Intervals = append(c.Intervals, Interval{In: t})
		return nil
	}
	last := &c.Intervals[len(c.Intervals)-1]
	if t.Before(last.In) {
		return fmt.Errorf("punching code %d at %s: %w", c.ID, timecalc.FormatISO(t), ErrClockOutBeforeClockIn)
	}
	last.Out = &t
	return nil
}

// AddInterval appends an already closed interval, e.g. one entered by hand.
func (c *ChargeCode) AddInterval(in, out time.Time) error {
	if c.State() == Open {
		return fmt.Errorf("adding interval to code %d: %w", c.ID, ErrActive)
	}
	in, out = timecalc.Truncate(in), timecalc.Truncate(out)
	if out.Before(in) {
		return fmt.Errorf("adding interval to code %d: %w", c.ID, ErrClockOutBeforeClockIn)
	}
	c.Intervals = append(c.Intervals, Interval{In: in, Out: &out})
	return nil
}

// Clone returns a deep copy of c.
func (c *ChargeCode) Clone() *ChargeCode {
	out := *c
	out.Intervals = make([]Interval, len(c.Intervals))
	for i, iv := range c.Intervals {
		out.Intervals[i] = Interval{In: iv.In}
		if iv.Out != nil {
			end := *iv.Out
			out.Intervals[i].Out = &end
		}
	}
	return &out
}

// Metadata is the registry view of a ChargeCode (intervals excluded).
type Metadata struct {
	Name        string `validate:"required,max=80"`
	Description string `validate:"max=255"`
	ID          int    `validate:"gte=0"`
}

var validate = validator.New()

// Metadata returns the registry view of c.
func (c *ChargeCode) Metadata() Metadata {
	return Metadata{Name: c.Name, Description: c.Description, ID: c.ID}
}

// Validate checks user supplied metadata for a new charge code.
func (m Metadata) Validate() error {
	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid charge code: field %s failed %q", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("invalid charge code: %w", err)
	}
	return nil
}
