package models

// SlotConflict reports one slot where more than one distinct teacher is
// assigned across groups.
type SlotConflict struct {
	Day      Day      `json:"day"`
	Period   Period   `json:"period"`
	Teachers []string `json:"teachers"`
}

// ConflictKind classifies what a proposed placement would collide with.
type ConflictKind string

const (
	// ConflictTeacher: the teacher is already assigned in another group at
	// the slot.
	ConflictTeacher ConflictKind = "TEACHER"
	// ConflictBlock: the teacher has declared the slot unavailable.
	ConflictBlock ConflictKind = "BLOCK"
	// ConflictGroup: the group's slot is already occupied by another
	// teacher's subject (teacher-grid placement check).
	ConflictGroup ConflictKind = "GROUP"
)

// PlacementConflict describes the single conflict a proposed placement would
// create. Exactly one conflict is reported per check; resolution happens one
// at a time.
type PlacementConflict struct {
	Kind        ConflictKind `json:"kind"`
	Teacher     string       `json:"teacher"`
	Day         Day          `json:"day"`
	Period      Period       `json:"period"`
	GroupID     string       `json:"group_id,omitempty"`
	GroupName   string       `json:"group_name,omitempty"`
	SubjectName string       `json:"subject_name,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

// PlacementConflictError is returned when an unconfirmed placement collides
// with existing data. It is advisory: confirming the same placement commits
// it together with the compensating clear.
type PlacementConflictError struct {
	Message  string            `json:"message"`
	Conflict PlacementConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *PlacementConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
