package models

// ColorList carries the subject-name to display-color pairs in insertion
// order. It round-trips the snapshot's array-of-entries encoding.
type ColorList [][2]string

// Color looks up the color token for a subject name.
func (l ColorList) Color(name string) (string, bool) {
	for _, entry := range l {
		if entry[0] == name {
			return entry[1], true
		}
	}
	return "", false
}

// Snapshot is the full persisted/exported state: every group, the teacher
// block table and the subject color registry. It is the only serialized form
// of the dataset; cell values are stored as structured assignments, never as
// nested JSON strings.
type Snapshot struct {
	Groups        map[string]*Group `json:"groups"`
	SubjectColors ColorList         `json:"subjectColors"`
	TeacherBlocks TeacherBlocks     `json:"teacherBlocks"`
}

// NewSnapshot returns an empty snapshot with allocated containers.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Groups:        make(map[string]*Group),
		SubjectColors: ColorList{},
		TeacherBlocks: make(TeacherBlocks),
	}
}

// Normalize fills nil containers after decoding, keys groups by their map
// slot and guarantees every group has a usable schedule. Tolerates snapshots
// written before block support existed.
func (s *Snapshot) Normalize() {
	if s.Groups == nil {
		s.Groups = make(map[string]*Group)
	}
	if s.TeacherBlocks == nil {
		s.TeacherBlocks = make(TeacherBlocks)
	}
	if s.SubjectColors == nil {
		s.SubjectColors = ColorList{}
	}
	for id, group := range s.Groups {
		if group == nil {
			delete(s.Groups, id)
			continue
		}
		group.ID = id
		if group.Schedule == nil {
			group.Schedule = make(Schedule)
		}
		if group.Subjects == nil {
			group.Subjects = []Subject{}
		}
		if !group.Shift.Valid() {
			group.Shift = ShiftMorning
		}
	}
}

// Clone returns a deep copy detached from the live graph.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := NewSnapshot()
	for id, group := range s.Groups {
		cp.Groups[id] = group.Clone()
	}
	cp.SubjectColors = append(ColorList{}, s.SubjectColors...)
	for teacher, blocks := range s.TeacherBlocks {
		cp.TeacherBlocks[teacher] = make(map[string]TeacherBlock, len(blocks))
		for key, block := range blocks {
			cp.TeacherBlocks[teacher][key] = block
		}
	}
	return cp
}

// PruneOrphans clears every assignment that does not resolve to a subject of
// its owning group and returns the number of cells emptied.
func (s *Snapshot) PruneOrphans() int {
	pruned := 0
	for _, group := range s.Groups {
		pruned += group.Prune()
	}
	return pruned
}
