package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/export"
	"github.com/noah-isme/horario-api/pkg/jobs"
	"github.com/noah-isme/horario-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type gridRenderer interface {
	Render(grid export.Grid) ([]byte, error)
}

// ExportRequest asks for a rendered timetable file.
type ExportRequest struct {
	Kind   models.ExportKind   `json:"kind" validate:"required,oneof=group teacher"`
	Target string              `json:"target" validate:"required"`
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportServiceConfig tunes export behaviour.
type ExportServiceConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders group and teacher timetables to CSV or PDF in the
// background. Jobs are tracked in memory; rendered files land in local
// storage and are handed out via signed download tokens.
type ExportService struct {
	repo    *repository.StateRepository
	storage fileStorage
	csv     gridRenderer
	pdf     gridRenderer
	signer  *storage.SignedURLSigner
	queue   jobDispatcher
	logger  *zap.Logger
	cfg     ExportServiceConfig

	mu      sync.RWMutex
	records map[string]*models.ExportJob
}

// NewExportService constructs an ExportService. The queue is attached
// afterwards with SetQueue because the queue handler needs the service.
func NewExportService(repo *repository.StateRepository, files fileStorage, signer *storage.SignedURLSigner, cfg ExportServiceConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		repo:    repo,
		storage: files,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		records: make(map[string]*models.ExportJob),
	}
}

// SetQueue attaches the dispatcher once it has been built around Handle.
func (s *ExportService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob validates the request, registers the job and enqueues rendering.
func (s *ExportService) CreateJob(ctx context.Context, req ExportRequest) (*models.ExportJob, error) {
	if req.Kind != models.ExportKindGroup && req.Kind != models.ExportKindTeacher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export kind")
	}
	if req.Format != models.ExportFormatCSV && req.Format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if req.Target == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target is required")
	}
	if req.Kind == models.ExportKindGroup {
		if _, ok := s.repo.Group(req.Target); !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue not running")
	}

	job := &models.ExportJob{
		ID:        "export-" + uuid.NewString(),
		Kind:      req.Kind,
		Target:    req.Target,
		Format:    req.Format,
		Status:    models.ExportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.records[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Kind)}); err != nil {
		s.finishJob(job.ID, "", fmt.Sprintf("failed to enqueue: %v", err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return s.snapshotJob(job.ID), nil
}

// GetStatus returns a copy of the job record.
func (s *ExportService) GetStatus(id string) (*models.ExportJob, error) {
	record := s.snapshotJob(id)
	if record == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return record, nil
}

// Handle renders one queued job. Wired as the queue handler.
func (s *ExportService) Handle(ctx context.Context, job jobs.Job) error {
	s.mu.Lock()
	record, ok := s.records[job.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown export job %s", job.ID)
	}
	record.Status = models.ExportStatusProcessing
	record.Progress = 10
	kind, target, format := record.Kind, record.Target, record.Format
	s.mu.Unlock()

	grid, err := s.buildGrid(kind, target)
	if err == nil {
		var payload []byte
		switch format {
		case models.ExportFormatPDF:
			payload, err = s.pdf.Render(grid)
		default:
			payload, err = s.csv.Render(grid)
		}
		if err == nil {
			err = s.store(job.ID, grid.Title, format, payload)
		}
	}
	if err != nil {
		s.failJob(job.ID, err)
		return err
	}
	return nil
}

func (s *ExportService) store(jobID, title string, format models.ExportFormat, payload []byte) error {
	filename := filepath.Join("timetables", fmt.Sprintf("%s-%s.%s", sanitizeFilename(title), jobID, format))
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return fmt.Errorf("store export: %w", err)
	}
	token, _, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return fmt.Errorf("sign export url: %w", err)
	}
	s.finishJob(jobID, fmt.Sprintf("%s/exports/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token), "")
	return nil
}

// ResolveDownload validates the token and opens the stored file.
func (s *ExportService) ResolveDownload(token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid or expired download token")
	}
	record := s.snapshotJob(jobID)
	if record == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if record.Status != models.ExportStatusFinished || !strings.HasSuffix(record.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    record.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired()
			}
		}
	}()
}

func (s *ExportService) cleanupExpired() {
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Sugar().Warnw("export cleanup failed", "error", err)
		return
	}
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	s.mu.Lock()
	for id, record := range s.records {
		if record.FinishedAt != nil && record.FinishedAt.Before(cutoff) {
			delete(s.records, id)
		}
	}
	s.mu.Unlock()
	if len(removed) > 0 {
		s.logger.Sugar().Infow("expired exports removed", "files", len(removed))
	}
}

// buildGrid projects the requested timetable into the renderer's layout.
func (s *ExportService) buildGrid(kind models.ExportKind, target string) (export.Grid, error) {
	if kind == models.ExportKindGroup {
		return s.buildGroupGrid(target)
	}
	return s.buildTeacherGrid(target)
}

func (s *ExportService) buildGroupGrid(groupID string) (export.Grid, error) {
	group, ok := s.repo.Group(groupID)
	if !ok {
		return export.Grid{}, fmt.Errorf("group %s not found", groupID)
	}
	grid := newGridSkeleton(group.Name)
	group.Schedule.ForEach(func(day models.Day, period models.Period, a models.Assignment) {
		cell := a.Name
		if a.Teacher != "" {
			cell = fmt.Sprintf("%s (%s)", a.Name, a.Teacher)
		}
		grid.Rows[int(period)].Cells[int(day)] = cell
	})
	return grid, nil
}

func (s *ExportService) buildTeacherGrid(teacher string) (export.Grid, error) {
	grid := newGridSkeleton(teacher)
	snap := s.repo.Export()
	groupIDs := make([]string, 0, len(snap.Groups))
	for id := range snap.Groups {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)
	for _, id := range groupIDs {
		group := snap.Groups[id]
		group.Schedule.ForEach(func(day models.Day, period models.Period, a models.Assignment) {
			if a.Teacher == teacher {
				grid.Rows[int(period)].Cells[int(day)] = fmt.Sprintf("%s: %s", group.Name, a.Name)
			}
		})
	}
	for _, day := range models.Days() {
		for _, period := range models.Periods() {
			if block, ok := snap.TeacherBlocks.Get(teacher, day, period); ok {
				grid.Rows[int(period)].Cells[int(day)] = block.Reason
			}
		}
	}
	return grid, nil
}

func newGridSkeleton(title string) export.Grid {
	grid := export.Grid{
		Title:   title,
		Corner:  "Hora",
		Columns: make([]string, 0, len(models.Days())),
		Rows:    make([]export.GridRow, 0, models.PeriodCount),
	}
	for _, day := range models.Days() {
		grid.Columns = append(grid.Columns, day.Label())
	}
	for _, period := range models.Periods() {
		grid.Rows = append(grid.Rows, export.GridRow{
			Label: period.Label(),
			Cells: make([]string, len(grid.Columns)),
		})
	}
	return grid
}

func (s *ExportService) snapshotJob(id string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil
	}
	cp := *record
	return &cp
}

func (s *ExportService) finishJob(id, resultURL, errMsg string) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return
	}
	record.Progress = 100
	record.FinishedAt = &now
	if errMsg != "" {
		record.Status = models.ExportStatusFailed
		record.Error = errMsg
		return
	}
	record.Status = models.ExportStatusFinished
	record.ResultURL = resultURL
	record.Error = ""
}

func (s *ExportService) failJob(id string, err error) {
	s.finishJob(id, "", err.Error())
	s.logger.Sugar().Warnw("export job failed", "job_id", id, "error", err)
}

func sanitizeFilename(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, raw)
	if cleaned == "" {
		cleaned = "horario"
	}
	return strings.ToLower(cleaned)
}
