package models

import "errors"

// Shift identifies the half of the school day a group belongs to.
type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
)

// Valid reports whether the shift is one of the two known values.
func (s Shift) Valid() bool { return s == ShiftMorning || s == ShiftAfternoon }

// Subject is one teachable unit within a group. Assignments reference it by
// ID so renames survive; name and teacher are denormalized into placed cells
// and refreshed on every update.
type Subject struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Teacher string `json:"teacher"`
	Hours   int    `json:"hours"`
}

// ErrHoursTooLow is reported when a subject's weekly hour target is below 1.
var ErrHoursTooLow = errors.New("subject hours must be at least 1")

// Validate checks the structural invariants of the subject.
func (s Subject) Validate() error {
	if s.Hours < 1 {
		return ErrHoursTooLow
	}
	return nil
}

// Assignment is the value placed into one group's grid cell. SubjectID is
// the authoritative reference; Name and Teacher are display caches kept in
// sync by the mutation path.
type Assignment struct {
	SubjectID string `json:"id"`
	Name      string `json:"name"`
	Teacher   string `json:"teacher"`
}

// Schedule maps occupied slots to their assignment. Absent key means empty;
// there is no null cell state.
type Schedule map[Day]map[Period]Assignment

// Get returns the assignment at the slot, if any.
func (s Schedule) Get(day Day, period Period) (Assignment, bool) {
	if s == nil {
		return Assignment{}, false
	}
	a, ok := s[day][period]
	return a, ok
}

// Set places an assignment, allocating the day map on first use.
func (s Schedule) Set(day Day, period Period, a Assignment) {
	if s[day] == nil {
		s[day] = make(map[Period]Assignment)
	}
	s[day][period] = a
}

// Clear empties the slot and drops the day map once its last cell is gone.
func (s Schedule) Clear(day Day, period Period) {
	if s[day] == nil {
		return
	}
	delete(s[day], period)
	if len(s[day]) == 0 {
		delete(s, day)
	}
}

// ForEach visits occupied cells in day-then-period grid order.
func (s Schedule) ForEach(visit func(day Day, period Period, a Assignment)) {
	for _, day := range Days() {
		periods, ok := s[day]
		if !ok {
			continue
		}
		for _, period := range Periods() {
			if a, ok := periods[period]; ok {
				visit(day, period, a)
			}
		}
	}
}

// Group is a class section with its own subject list and weekly grid.
type Group struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Shift        Shift     `json:"shift"`
	Course       string    `json:"course"`
	TeachingName string    `json:"teachingName"`
	Subjects     []Subject `json:"subjects"`
	Schedule     Schedule  `json:"schedule"`
}

// SubjectByID resolves a subject owned by the group.
func (g *Group) SubjectByID(id string) (Subject, bool) {
	for _, s := range g.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

// Violation marks a schedule cell whose assignment no longer resolves to a
// subject of the owning group.
type Violation struct {
	Day       Day    `json:"day"`
	Period    Period `json:"period"`
	SubjectID string `json:"subject_id"`
}

// Validate reports every assignment whose subject reference is unresolved.
// The caller decides whether to prune or keep the orphans.
func (g *Group) Validate() []Violation {
	var violations []Violation
	g.Schedule.ForEach(func(day Day, period Period, a Assignment) {
		if _, ok := g.SubjectByID(a.SubjectID); !ok {
			violations = append(violations, Violation{Day: day, Period: period, SubjectID: a.SubjectID})
		}
	})
	return violations
}

// Prune clears every unresolved assignment and returns how many cells were
// emptied.
func (g *Group) Prune() int {
	violations := g.Validate()
	for _, v := range violations {
		g.Schedule.Clear(v.Day, v.Period)
	}
	return len(violations)
}

// Clone returns a deep copy, used to hand callers data detached from the
// store's graph.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}
	cp := *g
	cp.Subjects = append([]Subject(nil), g.Subjects...)
	cp.Schedule = make(Schedule, len(g.Schedule))
	for day, periods := range g.Schedule {
		cp.Schedule[day] = make(map[Period]Assignment, len(periods))
		for period, a := range periods {
			cp.Schedule[day][period] = a
		}
	}
	return &cp
}
