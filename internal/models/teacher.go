package models

// TeacherCellKind tags what occupies a slot in the derived teacher view.
type TeacherCellKind string

const (
	TeacherCellAssignment TeacherCellKind = "ASSIGNMENT"
	TeacherCellBlocked    TeacherCellKind = "BLOCKED"
)

// TeacherCell is one occupied slot of a teacher's derived schedule: either a
// group assignment found by projection, or a declared block.
type TeacherCell struct {
	Kind        TeacherCellKind `json:"kind"`
	GroupID     string          `json:"group_id,omitempty"`
	GroupName   string          `json:"group_name,omitempty"`
	SubjectID   string          `json:"subject_id,omitempty"`
	SubjectName string          `json:"subject_name,omitempty"`
	Shift       Shift           `json:"shift,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Type        BlockType       `json:"type,omitempty"`
}

// TeacherSchedule is the teacher-centric weekly view. It is always computed
// from group data plus blocks, never stored.
type TeacherSchedule map[Day]map[Period]TeacherCell

// Set places a cell, allocating the day map on first use.
func (s TeacherSchedule) Set(day Day, period Period, cell TeacherCell) {
	if s[day] == nil {
		s[day] = make(map[Period]TeacherCell)
	}
	s[day][period] = cell
}

// Get returns the cell at the slot, if any.
func (s TeacherSchedule) Get(day Day, period Period) (TeacherCell, bool) {
	cell, ok := s[day][period]
	return cell, ok
}

// HourStatus compares assigned hours against the weekly target. Over- and
// under-assignment are warnings for display, never errors.
type HourStatus string

const (
	HoursIncomplete HourStatus = "incomplete"
	HoursComplete   HourStatus = "complete"
	HoursExceeded   HourStatus = "exceeded"
)

// HourSummaryItem is one subject's assigned-versus-target hour count.
type HourSummaryItem struct {
	Subject  string     `json:"subject"`
	Assigned int        `json:"assigned"`
	Target   int        `json:"target"`
	Status   HourStatus `json:"status"`
}

// SummaryStatus derives the display status for an assigned/target pair.
func SummaryStatus(assigned, target int) HourStatus {
	switch {
	case assigned > target:
		return HoursExceeded
	case assigned == target:
		return HoursComplete
	default:
		return HoursIncomplete
	}
}
