package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type scheduleFixture struct {
	repo     *repository.StateRepository
	groups   *GroupService
	schedule *ScheduleService

	groupA *models.Group
	groupB *models.Group
	anaA   *models.Subject
	anaB   *models.Subject
}

// two groups sharing the teacher Ana, so placements can collide
func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	repo := newTestRepo(t)
	groups := NewGroupService(repo, nil, nil)
	schedule := NewScheduleService(repo, nil, nil, nil)

	groupA := mustCreateGroup(t, groups, "1º A")
	groupB := mustCreateGroup(t, groups, "1º B")
	anaA := mustAddSubject(t, groups, groupA.ID, AddSubjectRequest{Name: "Lengua", Teacher: "Ana", Hours: 4})
	anaB := mustAddSubject(t, groups, groupB.ID, AddSubjectRequest{Name: "Matemáticas", Teacher: "Ana", Hours: 4})

	return &scheduleFixture{repo: repo, groups: groups, schedule: schedule, groupA: groupA, groupB: groupB, anaA: anaA, anaB: anaB}
}

func TestSetAssignmentPlacesSubject(t *testing.T) {
	f := newScheduleFixture(t)

	placed, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaA.ID})
	require.NoError(t, err)
	require.NotNil(t, placed)
	assert.Equal(t, "Lengua", placed.Name)
	assert.Equal(t, "Ana", placed.Teacher)

	group, ok := f.repo.Group(f.groupA.ID)
	require.True(t, ok)
	a, ok := group.Schedule.Get(models.Monday, 0)
	require.True(t, ok)
	assert.Equal(t, f.anaA.ID, a.SubjectID)
}

func TestSetAssignmentRejectsBreakPeriod(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, models.BreakPeriod, SetAssignmentRequest{SubjectID: f.anaA.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotSchedulable.Code, appErrors.FromError(err).Code)
}

func TestSetAssignmentRejectsUnknownSubject(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaB.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownSubject.Code, appErrors.FromError(err).Code)
}

func TestSetAssignmentRejectsIncompleteSubject(t *testing.T) {
	f := newScheduleFixture(t)
	empty := mustAddSubject(t, f.groups, f.groupA.ID, AddSubjectRequest{Hours: 2})

	_, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: empty.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSetAssignmentUnconfirmedConflictLeavesStateUntouched(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaA.ID})
	require.NoError(t, err)
	before := f.repo.Revision()

	_, err = f.schedule.SetAssignment(context.Background(), f.groupB.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaB.ID})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	var conflictErr *models.PlacementConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, models.ConflictTeacher, conflictErr.Conflict.Kind)
	assert.Equal(t, f.groupA.ID, conflictErr.Conflict.GroupID)
	assert.Equal(t, "Ana", conflictErr.Conflict.Teacher)

	assert.Equal(t, before, f.repo.Revision())
	groupB, _ := f.repo.Group(f.groupB.ID)
	_, ok := groupB.Schedule.Get(models.Monday, 0)
	assert.False(t, ok)
}

func TestSetAssignmentConfirmedConflictMovesTeacher(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaA.ID})
	require.NoError(t, err)

	placed, err := f.schedule.SetAssignment(context.Background(), f.groupB.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaB.ID, Confirm: true})
	require.NoError(t, err)
	require.NotNil(t, placed)

	groupA, _ := f.repo.Group(f.groupA.ID)
	_, ok := groupA.Schedule.Get(models.Monday, 0)
	assert.False(t, ok, "the colliding cell must be cleared in the same commit")

	groupB, _ := f.repo.Group(f.groupB.ID)
	a, ok := groupB.Schedule.Get(models.Monday, 0)
	require.True(t, ok)
	assert.Equal(t, "Matemáticas", a.Name)
}

func TestSetAssignmentConfirmedBlockConflictRemovesBlock(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.schedule.SetTeacherBlock(context.Background(), "Ana", models.Monday, 0, SetTeacherBlockRequest{Reason: "Guardia"})
	require.NoError(t, err)

	_, err = f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaA.ID})
	require.Error(t, err)
	var conflictErr *models.PlacementConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, models.ConflictBlock, conflictErr.Conflict.Kind)
	assert.Equal(t, "Guardia", conflictErr.Conflict.Reason)

	_, err = f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaA.ID, Confirm: true})
	require.NoError(t, err)

	snap := f.repo.Export()
	_, ok := snap.TeacherBlocks.Get("Ana", models.Monday, 0)
	assert.False(t, ok)
}

func TestSetAssignmentEmptySubjectClearsCell(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaA.ID})
	require.NoError(t, err)

	placed, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{})
	require.NoError(t, err)
	assert.Nil(t, placed)

	group, _ := f.repo.Group(f.groupA.ID)
	_, ok := group.Schedule.Get(models.Monday, 0)
	assert.False(t, ok)
}

func TestSetTeacherBlockClearsAssignments(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaA.ID})
	require.NoError(t, err)

	result, err := f.schedule.SetTeacherBlock(context.Background(), "Ana", models.Monday, 0, SetTeacherBlockRequest{Reason: "Reunión", Type: "complementaria", Shift: "morning"})
	require.NoError(t, err)
	require.NotNil(t, result.Block)
	assert.Equal(t, models.BlockComplementaria, result.Block.Type)

	group, _ := f.repo.Group(f.groupA.ID)
	_, ok := group.Schedule.Get(models.Monday, 0)
	assert.False(t, ok, "a block and an assignment cannot share the slot")
}

func TestSetTeacherBlockEmptyReasonRemoves(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.schedule.SetTeacherBlock(context.Background(), "Ana", models.Monday, 0, SetTeacherBlockRequest{Reason: "Guardia"})
	require.NoError(t, err)

	result, err := f.schedule.SetTeacherBlock(context.Background(), "Ana", models.Monday, 0, SetTeacherBlockRequest{Reason: "   "})
	require.NoError(t, err)
	assert.True(t, result.Removed)

	snap := f.repo.Export()
	_, ok := snap.TeacherBlocks.Get("Ana", models.Monday, 0)
	assert.False(t, ok)
}

func TestSetTeacherBlockDefaults(t *testing.T) {
	f := newScheduleFixture(t)

	result, err := f.schedule.SetTeacherBlock(context.Background(), "Ana", models.Friday, 6, SetTeacherBlockRequest{Reason: "Tutoría"})
	require.NoError(t, err)
	require.NotNil(t, result.Block)
	assert.Equal(t, models.BlockLectivo, result.Block.Type)
	assert.Equal(t, models.ShiftMorning, result.Block.Shift)
}

func TestSetTeacherBlockRejectsBreakPeriod(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.schedule.SetTeacherBlock(context.Background(), "Ana", models.Monday, models.BreakPeriod, SetTeacherBlockRequest{Reason: "Guardia"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotSchedulable.Code, appErrors.FromError(err).Code)
}
