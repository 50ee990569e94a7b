package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/storage"
)

func newTestRepo(t *testing.T) *repository.StateRepository {
	t.Helper()
	return repository.NewStateRepository(storage.NewMemoryBlobStore(), nil)
}

func mustCreateGroup(t *testing.T, svc *GroupService, name string) *models.Group {
	t.Helper()
	group, err := svc.Create(context.Background(), CreateGroupRequest{Name: name})
	require.NoError(t, err)
	return group
}

func mustAddSubject(t *testing.T, svc *GroupService, groupID string, req AddSubjectRequest) *models.Subject {
	t.Helper()
	subject, err := svc.AddSubject(context.Background(), groupID, req)
	require.NoError(t, err)
	return subject
}

func TestGroupServiceCreateDefaults(t *testing.T) {
	svc := NewGroupService(newTestRepo(t), nil, nil)
	group := mustCreateGroup(t, svc, "1º A")

	assert.Contains(t, group.ID, "group-")
	assert.Equal(t, models.ShiftMorning, group.Shift)
	assert.Empty(t, group.Subjects)

	_, err := svc.Create(context.Background(), CreateGroupRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceListSorted(t *testing.T) {
	svc := NewGroupService(newTestRepo(t), nil, nil)
	mustCreateGroup(t, svc, "2º B")
	mustCreateGroup(t, svc, "1º A")

	groups := svc.List(context.Background())
	require.Len(t, groups, 2)
	assert.Equal(t, "1º A", groups[0].Name)
	assert.Equal(t, "2º B", groups[1].Name)
}

func TestGroupServiceDelete(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewGroupService(repo, nil, nil)
	group := mustCreateGroup(t, svc, "1º A")

	require.NoError(t, svc.Delete(context.Background(), group.ID))
	_, err := svc.Get(context.Background(), group.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), "group-missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceAddSubjectAssignsColor(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewGroupService(repo, nil, nil)
	group := mustCreateGroup(t, svc, "1º A")

	subject := mustAddSubject(t, svc, group.ID, AddSubjectRequest{Name: "Lengua", Teacher: "Ana", Hours: 4})
	assert.Contains(t, subject.ID, "subj-")

	snap := repo.Export()
	color, ok := snap.SubjectColors.Color("Lengua")
	require.True(t, ok)
	assert.Equal(t, "subject-color-0", color)

	mustAddSubject(t, svc, group.ID, AddSubjectRequest{Name: "Inglés", Teacher: "Luis", Hours: 3})
	color, ok = repo.Export().SubjectColors.Color("Inglés")
	require.True(t, ok)
	assert.Equal(t, "subject-color-1", color)
}

func TestGroupServiceAddSubjectRejectsZeroHours(t *testing.T) {
	svc := NewGroupService(newTestRepo(t), nil, nil)
	group := mustCreateGroup(t, svc, "1º A")

	_, err := svc.AddSubject(context.Background(), group.ID, AddSubjectRequest{Name: "Lengua", Hours: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidHours.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceUpdateSubjectRefreshesAssignments(t *testing.T) {
	repo := newTestRepo(t)
	groups := NewGroupService(repo, nil, nil)
	schedule := NewScheduleService(repo, nil, nil, nil)

	group := mustCreateGroup(t, groups, "1º A")
	subject := mustAddSubject(t, groups, group.ID, AddSubjectRequest{Name: "Lengua", Teacher: "Ana", Hours: 4})

	_, err := schedule.SetAssignment(context.Background(), group.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: subject.ID})
	require.NoError(t, err)

	_, err = groups.UpdateSubject(context.Background(), group.ID, subject.ID, UpdateSubjectRequest{Name: "Lengua Castellana", Teacher: "Marta", Hours: 4})
	require.NoError(t, err)

	updated, ok := repo.Group(group.ID)
	require.True(t, ok)
	a, ok := updated.Schedule.Get(models.Monday, 0)
	require.True(t, ok)
	assert.Equal(t, "Lengua Castellana", a.Name)
	assert.Equal(t, "Marta", a.Teacher)
	assert.Equal(t, subject.ID, a.SubjectID)
}

func TestGroupServiceDeleteSubjectClearsCells(t *testing.T) {
	repo := newTestRepo(t)
	groups := NewGroupService(repo, nil, nil)
	schedule := NewScheduleService(repo, nil, nil, nil)

	group := mustCreateGroup(t, groups, "1º A")
	subject := mustAddSubject(t, groups, group.ID, AddSubjectRequest{Name: "Lengua", Teacher: "Ana", Hours: 4})

	_, err := schedule.SetAssignment(context.Background(), group.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: subject.ID})
	require.NoError(t, err)
	_, err = schedule.SetAssignment(context.Background(), group.ID, models.Tuesday, 2, SetAssignmentRequest{SubjectID: subject.ID})
	require.NoError(t, err)

	require.NoError(t, groups.DeleteSubject(context.Background(), group.ID, subject.ID))

	updated, ok := repo.Group(group.ID)
	require.True(t, ok)
	assert.Empty(t, updated.Subjects)
	_, ok = updated.Schedule.Get(models.Monday, 0)
	assert.False(t, ok)
	_, ok = updated.Schedule.Get(models.Tuesday, 2)
	assert.False(t, ok)
}

func TestGroupServiceSummary(t *testing.T) {
	repo := newTestRepo(t)
	groups := NewGroupService(repo, nil, nil)
	schedule := NewScheduleService(repo, nil, nil, nil)

	group := mustCreateGroup(t, groups, "1º A")
	lengua := mustAddSubject(t, groups, group.ID, AddSubjectRequest{Name: "Lengua", Teacher: "Ana", Hours: 2})
	mustAddSubject(t, groups, group.ID, AddSubjectRequest{Name: "Inglés", Teacher: "Luis", Hours: 3})

	_, err := schedule.SetAssignment(context.Background(), group.ID, models.Monday, 0, SetAssignmentRequest{SubjectID: lengua.ID})
	require.NoError(t, err)
	_, err = schedule.SetAssignment(context.Background(), group.ID, models.Tuesday, 1, SetAssignmentRequest{SubjectID: lengua.ID})
	require.NoError(t, err)

	items, err := groups.Summary(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Inglés", items[0].Subject)
	assert.Equal(t, models.HoursIncomplete, items[0].Status)
	assert.Equal(t, "Lengua", items[1].Subject)
	assert.Equal(t, 2, items[1].Assigned)
	assert.Equal(t, models.HoursComplete, items[1].Status)
}
