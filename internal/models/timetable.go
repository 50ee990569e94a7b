package models

import "fmt"

// Day is a weekday of the fixed five-day grid. Display labels and JSON keys
// use the Spanish names carried over from the snapshot format.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

var dayLabels = [...]string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes"}

// Days returns the weekdays in grid order.
func Days() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday}
}

// Label returns the Spanish display name.
func (d Day) Label() string {
	if d < Monday || d > Friday {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayLabels[d]
}

func (d Day) String() string { return d.Label() }

// Valid reports whether d is one of the five grid days.
func (d Day) Valid() bool { return d >= Monday && d <= Friday }

// ParseDay resolves a Spanish day label.
func ParseDay(label string) (Day, error) {
	for i, l := range dayLabels {
		if l == label {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", label)
}

// MarshalText lets Day serve as a JSON map key matching the snapshot format.
func (d Day) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid day %d", int(d))
	}
	return []byte(dayLabels[d]), nil
}

// UnmarshalText parses a Spanish day label.
func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Period is an index into the fixed ordered period list. Index 3 is the
// break and never schedulable.
type Period int

var periodLabels = [...]string{"1º", "2º", "3º", "Recreo", "4º", "5º", "6º"}

// BreakPeriod is the fixed non-schedulable slot in every day.
const BreakPeriod Period = 3

// PeriodCount is the number of rows in the grid, break included.
const PeriodCount = len(periodLabels)

// Periods returns all periods in grid order, break included.
func Periods() []Period {
	out := make([]Period, PeriodCount)
	for i := range out {
		out[i] = Period(i)
	}
	return out
}

// Label returns the display name for the period row.
func (p Period) Label() string {
	if !p.Valid() {
		return fmt.Sprintf("Period(%d)", int(p))
	}
	return periodLabels[p]
}

func (p Period) String() string { return p.Label() }

// Valid reports whether p is inside the grid.
func (p Period) Valid() bool { return p >= 0 && int(p) < PeriodCount }

// Schedulable reports whether the period can hold an assignment.
func (p Period) Schedulable() bool { return p.Valid() && p != BreakPeriod }

// ParsePeriod resolves a numeric period index.
func ParsePeriod(raw string) (Period, error) {
	var idx int
	if _, err := fmt.Sscanf(raw, "%d", &idx); err != nil {
		return 0, fmt.Errorf("invalid period %q", raw)
	}
	p := Period(idx)
	if !p.Valid() {
		return 0, fmt.Errorf("period %d out of range", idx)
	}
	return p, nil
}
