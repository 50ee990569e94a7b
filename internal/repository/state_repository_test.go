package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/pkg/storage"
)

func seedGroup(t *testing.T, repo *StateRepository, id, name string) {
	t.Helper()
	err := repo.Update(context.Background(), func(snap *models.Snapshot) error {
		snap.Groups[id] = &models.Group{
			ID:       id,
			Name:     name,
			Shift:    models.ShiftMorning,
			Subjects: []models.Subject{{ID: "subj-1", Name: "Lengua", Teacher: "Ana", Hours: 4}},
			Schedule: make(models.Schedule),
		}
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateCommitsAndPersists(t *testing.T) {
	blobs := storage.NewMemoryBlobStore()
	repo := NewStateRepository(blobs, nil)

	seedGroup(t, repo, "group-1", "1º A")
	assert.Equal(t, uint64(1), repo.Revision())

	group, ok := repo.Group("group-1")
	require.True(t, ok)
	assert.Equal(t, "1º A", group.Name)

	data, ok, err := blobs.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	persisted := models.NewSnapshot()
	require.NoError(t, json.Unmarshal(data, persisted))
	assert.Contains(t, persisted.Groups, "group-1")
}

func TestUpdateFailureLeavesStateUntouched(t *testing.T) {
	repo := NewStateRepository(storage.NewMemoryBlobStore(), nil)
	seedGroup(t, repo, "group-1", "1º A")
	before := repo.Revision()

	err := repo.Update(context.Background(), func(snap *models.Snapshot) error {
		snap.Groups["group-1"].Name = "mutated"
		return errors.New("boom")
	})
	require.Error(t, err)

	assert.Equal(t, before, repo.Revision())
	group, ok := repo.Group("group-1")
	require.True(t, ok)
	assert.Equal(t, "1º A", group.Name)
}

type failingBlobStore struct{}

func (failingBlobStore) Save(context.Context, []byte) error        { return errors.New("disk full") }
func (failingBlobStore) Load(context.Context) ([]byte, bool, error) { return nil, false, nil }

func TestUpdatePersistFailureRollsBack(t *testing.T) {
	repo := NewStateRepository(failingBlobStore{}, nil)

	err := repo.Update(context.Background(), func(snap *models.Snapshot) error {
		snap.Groups["group-1"] = &models.Group{ID: "group-1", Schedule: make(models.Schedule)}
		return nil
	})
	require.Error(t, err)

	_, ok := repo.Group("group-1")
	assert.False(t, ok)
	assert.Equal(t, uint64(0), repo.Revision())
}

func TestLoadPrunesOrphanedAssignments(t *testing.T) {
	blobs := storage.NewMemoryBlobStore()

	seeded := NewStateRepository(blobs, nil)
	seedGroup(t, seeded, "group-1", "1º A")
	require.NoError(t, seeded.Update(context.Background(), func(snap *models.Snapshot) error {
		snap.Groups["group-1"].Schedule.Set(models.Monday, 0, models.Assignment{SubjectID: "subj-1", Name: "Lengua", Teacher: "Ana"})
		snap.Groups["group-1"].Schedule.Set(models.Tuesday, 1, models.Assignment{SubjectID: "subj-gone"})
		return nil
	}))

	repo := NewStateRepository(blobs, nil)
	require.NoError(t, repo.Load(context.Background()))

	group, ok := repo.Group("group-1")
	require.True(t, ok)
	_, ok = group.Schedule.Get(models.Monday, 0)
	assert.True(t, ok)
	_, ok = group.Schedule.Get(models.Tuesday, 1)
	assert.False(t, ok)
}

func TestLoadRejectsMalformedSnapshot(t *testing.T) {
	blobs := storage.NewMemoryBlobStore()
	require.NoError(t, blobs.Save(context.Background(), []byte("{not json")))

	repo := NewStateRepository(blobs, nil)
	assert.Error(t, repo.Load(context.Background()))
}

func TestReplaceSwapsWholeGraph(t *testing.T) {
	repo := NewStateRepository(storage.NewMemoryBlobStore(), nil)
	seedGroup(t, repo, "group-1", "1º A")

	next := models.NewSnapshot()
	next.Groups["group-2"] = &models.Group{ID: "group-2", Name: "2º B", Shift: models.ShiftAfternoon, Schedule: make(models.Schedule)}
	require.NoError(t, repo.Replace(context.Background(), next))

	_, ok := repo.Group("group-1")
	assert.False(t, ok)
	group, ok := repo.Group("group-2")
	require.True(t, ok)
	assert.Equal(t, "2º B", group.Name)
	assert.Equal(t, uint64(2), repo.Revision())
}

func TestViewSeesLiveGraph(t *testing.T) {
	repo := NewStateRepository(storage.NewMemoryBlobStore(), nil)
	seedGroup(t, repo, "group-1", "1º A")

	var names []string
	repo.View(func(snap *models.Snapshot) {
		for _, group := range snap.Groups {
			names = append(names, group.Name)
		}
	})
	assert.Equal(t, []string{"1º A"}, names)
}
