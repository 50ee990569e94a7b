package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/models"
)

func TestFindAllReportsDoubleBookings(t *testing.T) {
	f := newScheduleFixture(t)
	conflicts := NewConflictService(f.repo, time.Minute, nil, nil)

	// same teacher in two groups at the same slot, committed with confirm
	_, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaA.ID})
	require.NoError(t, err)
	require.NoError(t, f.repo.Update(context.Background(), func(snap *models.Snapshot) error {
		snap.Groups[f.groupB.ID].Schedule.Set(models.Monday, 0, models.Assignment{SubjectID: f.anaB.ID, Name: "Matemáticas", Teacher: "Ana"})
		return nil
	}))

	found := conflicts.FindAll(context.Background())
	require.Len(t, found, 1)
	assert.Equal(t, models.Monday, found[0].Day)
	assert.Equal(t, models.Period(0), found[0].Period)
	assert.Equal(t, []string{"Ana"}, found[0].Teachers)
}

func TestFindAllEmptyDatasetYieldsEmptySlice(t *testing.T) {
	f := newScheduleFixture(t)
	conflicts := NewConflictService(f.repo, time.Minute, nil, nil)

	found := conflicts.FindAll(context.Background())
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestFindAllOrderedByDayThenPeriod(t *testing.T) {
	f := newScheduleFixture(t)
	conflicts := NewConflictService(f.repo, time.Minute, nil, nil)

	place := func(day models.Day, period models.Period) {
		require.NoError(t, f.repo.Update(context.Background(), func(snap *models.Snapshot) error {
			snap.Groups[f.groupA.ID].Schedule.Set(day, period, models.Assignment{SubjectID: f.anaA.ID, Name: "Lengua", Teacher: "Ana"})
			snap.Groups[f.groupB.ID].Schedule.Set(day, period, models.Assignment{SubjectID: f.anaB.ID, Name: "Matemáticas", Teacher: "Ana"})
			return nil
		}))
	}
	place(models.Friday, 2)
	place(models.Monday, 5)
	place(models.Monday, 1)

	found := conflicts.FindAll(context.Background())
	require.Len(t, found, 3)
	assert.Equal(t, models.Monday, found[0].Day)
	assert.Equal(t, models.Period(1), found[0].Period)
	assert.Equal(t, models.Monday, found[1].Day)
	assert.Equal(t, models.Period(5), found[1].Period)
	assert.Equal(t, models.Friday, found[2].Day)
}

func TestFindAllMemoizedPerRevision(t *testing.T) {
	f := newScheduleFixture(t)
	metrics := NewMetricsService()
	conflicts := NewConflictService(f.repo, time.Minute, metrics, nil)

	first := conflicts.FindAll(context.Background())
	second := conflicts.FindAll(context.Background())
	assert.Equal(t, first, second)

	summary := metrics.Summary()
	assert.Equal(t, uint64(2), summary.ConflictScans)
	assert.Equal(t, 0.5, summary.ConflictScanCacheRatio)

	// a committed mutation invalidates the memoized result
	_, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaA.ID})
	require.NoError(t, err)
	require.NoError(t, f.repo.Update(context.Background(), func(snap *models.Snapshot) error {
		snap.Groups[f.groupB.ID].Schedule.Set(models.Monday, 0, models.Assignment{SubjectID: f.anaB.ID, Name: "Matemáticas", Teacher: "Ana"})
		return nil
	}))

	assert.Len(t, conflicts.FindAll(context.Background()), 1)
}

func TestCheckTeacherPlacementPrecedence(t *testing.T) {
	f := newScheduleFixture(t)
	conflicts := NewConflictService(f.repo, time.Minute, nil, nil)

	_, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaA.ID})
	require.NoError(t, err)

	conflict := conflicts.CheckTeacherPlacement(context.Background(), "Ana", models.Monday, 0, f.groupB.ID)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictTeacher, conflict.Kind)
	assert.Equal(t, f.groupA.ID, conflict.GroupID)

	// excluding the occupying group leaves the slot free
	assert.Nil(t, conflicts.CheckTeacherPlacement(context.Background(), "Ana", models.Monday, 0, f.groupA.ID))
	assert.Nil(t, conflicts.CheckTeacherPlacement(context.Background(), "Luis", models.Monday, 0, ""))
}

func TestCheckGroupPlacement(t *testing.T) {
	f := newScheduleFixture(t)
	conflicts := NewConflictService(f.repo, time.Minute, nil, nil)

	_, err := f.schedule.SetAssignment(context.Background(), f.groupA.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: f.anaA.ID})
	require.NoError(t, err)

	conflict := conflicts.CheckGroupPlacement(context.Background(), f.groupA.ID, models.Monday, 0, "Luis")
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictGroup, conflict.Kind)
	assert.Equal(t, "Ana", conflict.Teacher)

	assert.Nil(t, conflicts.CheckGroupPlacement(context.Background(), f.groupA.ID, models.Monday, 0, "Ana"))
}
