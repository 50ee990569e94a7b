package repository

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/models"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/storage"
)

// StateRepository is the single owner of the in-memory timetable graph:
// every group, the teacher block table and the subject color registry. All
// reads and mutations go through it; mutations are applied under one lock
// and persisted as a whole-snapshot blob before they are acknowledged, so no
// partial state is ever observable or stored.
type StateRepository struct {
	mu       sync.RWMutex
	blobs    storage.BlobStore
	logger   *zap.Logger
	snapshot *models.Snapshot
	revision uint64
}

// NewStateRepository builds an empty repository backed by the given blob
// store.
func NewStateRepository(blobs storage.BlobStore, logger *zap.Logger) *StateRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateRepository{
		blobs:    blobs,
		logger:   logger,
		snapshot: models.NewSnapshot(),
	}
}

// Load restores the persisted snapshot, if any. Assignments that no longer
// resolve to a subject of their group are pruned deterministically.
func (r *StateRepository) Load(ctx context.Context) error {
	data, ok, err := r.blobs.Load(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load snapshot")
	}
	if !ok {
		r.logger.Info("no persisted snapshot, starting empty")
		return nil
	}

	snapshot := models.NewSnapshot()
	if err := json.Unmarshal(data, snapshot); err != nil {
		return appErrors.Wrap(err, appErrors.ErrSnapshotParse.Code, appErrors.ErrSnapshotParse.Status, "persisted snapshot is malformed")
	}
	snapshot.Normalize()
	if pruned := snapshot.PruneOrphans(); pruned > 0 {
		r.logger.Warn("pruned orphaned assignments from persisted snapshot", zap.Int("cells", pruned))
	}

	r.mu.Lock()
	r.snapshot = snapshot
	r.revision++
	r.mu.Unlock()

	r.logger.Info("snapshot loaded", zap.Int("groups", len(snapshot.Groups)))
	return nil
}

// Revision returns a counter bumped on every committed mutation. Derived
// results cached against a revision can never be stale.
func (r *StateRepository) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

// View runs fn with read access to the live graph. fn must not retain or
// mutate what it sees; callers clone anything they hand out.
func (r *StateRepository) View(fn func(*models.Snapshot)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.snapshot)
}

// Update applies fn atomically. When fn succeeds the whole graph is
// persisted and the revision advances; when it fails nothing changes.
func (r *StateRepository) Update(ctx context.Context, fn func(*models.Snapshot) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := r.snapshot.Clone()
	if err := fn(staged); err != nil {
		return err
	}
	if err := r.persist(ctx, staged); err != nil {
		return err
	}
	r.snapshot = staged
	r.revision++
	return nil
}

// Replace swaps the entire graph, used by snapshot import. The incoming
// snapshot must already be normalized and pruned.
func (r *StateRepository) Replace(ctx context.Context, snapshot *models.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.persist(ctx, snapshot); err != nil {
		return err
	}
	r.snapshot = snapshot
	r.revision++
	return nil
}

// Export returns a deep copy of the entire graph.
func (r *StateRepository) Export() *models.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot.Clone()
}

// Group returns a deep copy of one group.
func (r *StateRepository) Group(id string) (*models.Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.snapshot.Groups[id]
	if !ok {
		return nil, false
	}
	return group.Clone(), true
}

func (r *StateRepository) persist(ctx context.Context, snapshot *models.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode snapshot")
	}
	if err := r.blobs.Save(ctx, data); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist snapshot")
	}
	return nil
}
