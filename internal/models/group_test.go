package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleSetGetClear(t *testing.T) {
	schedule := make(Schedule)
	schedule.Set(Monday, 0, Assignment{SubjectID: "subj-1", Name: "Lengua", Teacher: "Ana"})

	a, ok := schedule.Get(Monday, 0)
	require.True(t, ok)
	assert.Equal(t, "Lengua", a.Name)

	_, ok = schedule.Get(Monday, 1)
	assert.False(t, ok)

	schedule.Clear(Monday, 0)
	_, ok = schedule.Get(Monday, 0)
	assert.False(t, ok)
	assert.Empty(t, schedule)
}

func TestScheduleForEachOrder(t *testing.T) {
	schedule := make(Schedule)
	schedule.Set(Friday, 1, Assignment{SubjectID: "c"})
	schedule.Set(Monday, 5, Assignment{SubjectID: "b"})
	schedule.Set(Monday, 0, Assignment{SubjectID: "a"})

	var visited []string
	schedule.ForEach(func(_ Day, _ Period, a Assignment) {
		visited = append(visited, a.SubjectID)
	})
	assert.Equal(t, []string{"a", "b", "c"}, visited)
}

func TestGroupValidateAndPrune(t *testing.T) {
	group := &Group{
		ID:       "group-1",
		Name:     "1º A",
		Subjects: []Subject{{ID: "subj-1", Name: "Lengua", Teacher: "Ana", Hours: 4}},
		Schedule: make(Schedule),
	}
	group.Schedule.Set(Monday, 0, Assignment{SubjectID: "subj-1", Name: "Lengua", Teacher: "Ana"})
	group.Schedule.Set(Tuesday, 2, Assignment{SubjectID: "subj-gone", Name: "Plástica"})

	violations := group.Validate()
	require.Len(t, violations, 1)
	assert.Equal(t, "subj-gone", violations[0].SubjectID)
	assert.Equal(t, Tuesday, violations[0].Day)

	pruned := group.Prune()
	assert.Equal(t, 1, pruned)
	assert.Empty(t, group.Validate())

	_, ok := group.Schedule.Get(Monday, 0)
	assert.True(t, ok)
	_, ok = group.Schedule.Get(Tuesday, 2)
	assert.False(t, ok)
}

func TestGroupCloneIsDetached(t *testing.T) {
	group := &Group{
		ID:       "group-1",
		Subjects: []Subject{{ID: "subj-1", Name: "Lengua", Hours: 4}},
		Schedule: make(Schedule),
	}
	group.Schedule.Set(Monday, 0, Assignment{SubjectID: "subj-1"})

	cp := group.Clone()
	cp.Subjects[0].Name = "changed"
	cp.Schedule.Set(Monday, 1, Assignment{SubjectID: "subj-2"})

	assert.Equal(t, "Lengua", group.Subjects[0].Name)
	_, ok := group.Schedule.Get(Monday, 1)
	assert.False(t, ok)
}

func TestSubjectValidateHours(t *testing.T) {
	assert.ErrorIs(t, Subject{Hours: 0}.Validate(), ErrHoursTooLow)
	assert.NoError(t, Subject{Hours: 1}.Validate())
}
