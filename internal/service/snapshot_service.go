package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

// SnapshotFilename is the download name for exported datasets.
const SnapshotFilename = "horario.json"

// ImportResult reports what an accepted import did to the dataset.
type ImportResult struct {
	Groups        int `json:"groups"`
	PrunedCells   int `json:"pruned_cells"`
	TeacherBlocks int `json:"teacher_blocks"`
}

// SnapshotService handles whole-dataset export, import and reset. Import is
// all-or-nothing: the incoming document is decoded and repaired off to the
// side and only then swapped in, so a malformed file never damages the live
// data.
type SnapshotService struct {
	repo    *repository.StateRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSnapshotService instantiates SnapshotService.
func NewSnapshotService(repo *repository.StateRepository, metrics *MetricsService, logger *zap.Logger) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{repo: repo, metrics: metrics, logger: logger}
}

// Export serializes the full dataset.
func (s *SnapshotService) Export(ctx context.Context) ([]byte, error) {
	data, err := json.MarshalIndent(s.repo.Export(), "", "  ")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode snapshot")
	}
	s.metrics.RecordSnapshot("export")
	return data, nil
}

// Import replaces the entire dataset with the decoded document. Assignments
// that reference subjects missing from their group are pruned before the
// swap; the count is reported back so the caller can surface it.
func (s *SnapshotService) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	snapshot := models.NewSnapshot()
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSnapshotParse.Code, appErrors.ErrSnapshotParse.Status, "snapshot is not valid JSON")
	}
	snapshot.Normalize()
	pruned := snapshot.PruneOrphans()

	if err := s.repo.Replace(ctx, snapshot); err != nil {
		return nil, err
	}

	blocks := 0
	for _, perTeacher := range snapshot.TeacherBlocks {
		blocks += len(perTeacher)
	}
	if pruned > 0 {
		s.logger.Warn("import pruned orphaned assignments", zap.Int("cells", pruned))
	}
	s.logger.Info("snapshot imported", zap.Int("groups", len(snapshot.Groups)), zap.Int("pruned", pruned))
	s.metrics.RecordSnapshot("import")

	return &ImportResult{Groups: len(snapshot.Groups), PrunedCells: pruned, TeacherBlocks: blocks}, nil
}

// Reset wipes the dataset back to empty.
func (s *SnapshotService) Reset(ctx context.Context) error {
	if err := s.repo.Replace(ctx, models.NewSnapshot()); err != nil {
		return err
	}
	s.logger.Info("dataset reset")
	s.metrics.RecordSnapshot("reset")
	return nil
}
