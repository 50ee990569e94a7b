package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

// SetAssignmentRequest places a subject into one cell of the group's grid.
// An empty SubjectID clears the cell. Confirm commits a placement the caller
// was warned about, together with its compensating clear.
type SetAssignmentRequest struct {
	SubjectID string `json:"subject_id"`
	Confirm   bool   `json:"confirm"`
}

// SetTeacherBlockRequest creates or removes a teacher's block at one slot.
// An empty reason means removal.
type SetTeacherBlockRequest struct {
	Reason string `json:"reason"`
	Type   string `json:"type" validate:"omitempty,oneof=lectivo complementaria"`
	Shift  string `json:"shift" validate:"omitempty,oneof=morning afternoon"`
}

// SetBlockResult reports the outcome of a block mutation.
type SetBlockResult struct {
	Removed bool                 `json:"removed"`
	Block   *models.TeacherBlock `json:"block,omitempty"`
}

// ScheduleService is the only write path into grid cells and the teacher
// block table. Every transition either fully commits, including any
// compensating clear, or leaves the dataset untouched.
type ScheduleService struct {
	repo      *repository.StateRepository
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo *repository.StateRepository, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, validator: validate, metrics: metrics, logger: logger}
}

// SetAssignment applies one cell transition.
//
// Empty -> Assigned requires a clean placement check; a reported conflict
// turns into an error unless confirm is set, in which case the other
// group's cell is cleared (or the colliding block deleted) in the same
// commit. Assigned -> Empty is unconditional. Replacing goes through the
// same conflict check as a fresh placement.
func (s *ScheduleService) SetAssignment(ctx context.Context, groupID string, day models.Day, period models.Period, req SetAssignmentRequest) (*models.Assignment, error) {
	if !day.Valid() || !period.Schedulable() {
		return nil, appErrors.Clone(appErrors.ErrNotSchedulable, "")
	}

	var placed *models.Assignment
	err := s.repo.Update(ctx, func(snap *models.Snapshot) error {
		group, ok := snap.Groups[groupID]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}

		if req.SubjectID == "" {
			group.Schedule.Clear(day, period)
			return nil
		}

		subject, ok := group.SubjectByID(req.SubjectID)
		if !ok {
			return appErrors.Clone(appErrors.ErrUnknownSubject, "")
		}
		if subject.Name == "" || subject.Teacher == "" {
			return appErrors.Clone(appErrors.ErrValidation, "subject needs a name and a teacher before it can be placed")
		}

		if conflict := teacherPlacementConflict(snap, subject.Teacher, day, period, groupID); conflict != nil {
			if !req.Confirm {
				s.metrics.RecordPlacement(false)
				return appErrors.Wrap(
					&models.PlacementConflictError{Message: "placement conflicts with existing data", Conflict: *conflict},
					appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "placement conflict",
				)
			}
			s.resolve(snap, conflict)
		}

		assignment := models.Assignment{SubjectID: subject.ID, Name: subject.Name, Teacher: subject.Teacher}
		group.Schedule.Set(day, period, assignment)
		ensureSubjectColor(snap, subject.Name)
		placed = &assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	if placed != nil {
		s.metrics.RecordPlacement(true)
	}
	return placed, nil
}

// resolve performs the compensating clear for a confirmed placement: the
// conflicting group's cell is emptied, or the colliding block deleted. The
// two cases cannot coexist for one teacher and slot.
func (s *ScheduleService) resolve(snap *models.Snapshot, conflict *models.PlacementConflict) {
	switch conflict.Kind {
	case models.ConflictTeacher:
		if other, ok := snap.Groups[conflict.GroupID]; ok {
			other.Schedule.Clear(conflict.Day, conflict.Period)
		}
	case models.ConflictBlock:
		snap.TeacherBlocks.Delete(conflict.Teacher, conflict.Day, conflict.Period)
	}
	s.logger.Info("placement conflict resolved",
		zap.String("kind", string(conflict.Kind)),
		zap.String("teacher", conflict.Teacher),
		zap.String("day", conflict.Day.Label()),
		zap.Int("period", int(conflict.Period)),
	)
}

// SetTeacherBlock creates, updates or removes a block. Either way the
// teacher's assignments at that exact slot are cleared first across all
// groups: a block and an assignment for the same teacher and slot are
// mutually exclusive.
func (s *ScheduleService) SetTeacherBlock(ctx context.Context, teacher string, day models.Day, period models.Period, req SetTeacherBlockRequest) (*SetBlockResult, error) {
	if teacher == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	if !day.Valid() || !period.Schedulable() {
		return nil, appErrors.Clone(appErrors.ErrNotSchedulable, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid block payload")
	}

	reason := strings.TrimSpace(req.Reason)
	result := &SetBlockResult{}

	err := s.repo.Update(ctx, func(snap *models.Snapshot) error {
		clearTeacherAssignments(snap, teacher, day, period)

		if reason == "" {
			snap.TeacherBlocks.Delete(teacher, day, period)
			result.Removed = true
			return nil
		}

		blockType := models.BlockType(req.Type)
		if !blockType.Valid() {
			blockType = models.BlockLectivo
		}
		shift := models.Shift(req.Shift)
		if !shift.Valid() {
			shift = models.ShiftMorning
		}
		block := models.TeacherBlock{Reason: reason, Type: blockType, Shift: shift}
		snap.TeacherBlocks.Set(teacher, day, period, block)
		result.Block = &block
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// clearTeacherAssignments empties every group cell holding the teacher at
// the slot.
func clearTeacherAssignments(snap *models.Snapshot, teacher string, day models.Day, period models.Period) {
	for _, group := range snap.Groups {
		if a, ok := group.Schedule.Get(day, period); ok && a.Teacher == teacher {
			group.Schedule.Clear(day, period)
		}
	}
}
