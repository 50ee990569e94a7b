package models

import "fmt"

// BlockType governs how a blocked slot counts toward the teacher's hour
// totals.
type BlockType string

const (
	BlockLectivo       BlockType = "lectivo"
	BlockComplementaria BlockType = "complementaria"
)

// Valid reports whether the block type is known.
func (t BlockType) Valid() bool { return t == BlockLectivo || t == BlockComplementaria }

// TeacherBlock marks a teacher unavailable at one slot for a reason
// unrelated to any group. At most one block exists per teacher and slot.
type TeacherBlock struct {
	Reason string    `json:"reason"`
	Type   BlockType `json:"type"`
	Shift  Shift     `json:"shift"`
}

// TeacherBlocks maps teacher name to that teacher's blocks keyed by BlockKey.
type TeacherBlocks map[string]map[string]TeacherBlock

// BlockKey builds the snapshot key for one teacher/slot block.
func BlockKey(teacher string, day Day, period Period) string {
	return fmt.Sprintf("%s-%s-%d", teacher, day.Label(), int(period))
}

// Get returns the block for a teacher at the slot, if any.
func (b TeacherBlocks) Get(teacher string, day Day, period Period) (TeacherBlock, bool) {
	block, ok := b[teacher][BlockKey(teacher, day, period)]
	return block, ok
}

// Set stores a block, allocating the per-teacher map on first use.
func (b TeacherBlocks) Set(teacher string, day Day, period Period, block TeacherBlock) {
	if b[teacher] == nil {
		b[teacher] = make(map[string]TeacherBlock)
	}
	b[teacher][BlockKey(teacher, day, period)] = block
}

// Delete removes a block and drops the per-teacher map once empty.
func (b TeacherBlocks) Delete(teacher string, day Day, period Period) {
	if b[teacher] == nil {
		return
	}
	delete(b[teacher], BlockKey(teacher, day, period))
	if len(b[teacher]) == 0 {
		delete(b, teacher)
	}
}
