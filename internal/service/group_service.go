package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

// CreateGroupRequest describes payload for creating a group.
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required"`
}

// UpdateGroupRequest updates a group's configuration fields.
type UpdateGroupRequest struct {
	Name         string `json:"name" validate:"required"`
	Shift        string `json:"shift" validate:"required,oneof=morning afternoon"`
	Course       string `json:"course"`
	TeachingName string `json:"teachingName"`
}

// AddSubjectRequest adds one subject to a group. Name and teacher may stay
// empty until the user fills them in; such subjects cannot be placed yet.
type AddSubjectRequest struct {
	Name    string `json:"name"`
	Teacher string `json:"teacher"`
	Hours   int    `json:"hours" validate:"required,min=1"`
}

// UpdateSubjectRequest edits a subject in place. Renames propagate into
// every placed assignment referencing the subject.
type UpdateSubjectRequest struct {
	Name    string `json:"name"`
	Teacher string `json:"teacher"`
	Hours   int    `json:"hours" validate:"required,min=1"`
}

// GroupService owns group and subject lifecycle operations.
type GroupService struct {
	repo      *repository.StateRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService instantiates GroupService.
func NewGroupService(repo *repository.StateRepository, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, validator: validate, logger: logger}
}

// Create adds an empty group with default morning shift.
func (s *GroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	group := &models.Group{
		ID:       "group-" + uuid.NewString(),
		Name:     req.Name,
		Shift:    models.ShiftMorning,
		Subjects: []models.Subject{},
		Schedule: make(models.Schedule),
	}

	err := s.repo.Update(ctx, func(snap *models.Snapshot) error {
		snap.Groups[group.ID] = group.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("group created", zap.String("group_id", group.ID), zap.String("name", group.Name))
	return group, nil
}

// List returns all groups ordered by name, then ID for stability.
func (s *GroupService) List(ctx context.Context) []models.Group {
	var groups []models.Group
	s.repo.View(func(snap *models.Snapshot) {
		for _, group := range snap.Groups {
			groups = append(groups, *group.Clone())
		}
	})
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].ID < groups[j].ID
	})
	return groups
}

// Get returns one group.
func (s *GroupService) Get(ctx context.Context, id string) (*models.Group, error) {
	group, ok := s.repo.Group(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	return group, nil
}

// UpdateConfig edits the group's descriptive fields.
func (s *GroupService) UpdateConfig(ctx context.Context, id string, req UpdateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	var updated *models.Group
	err := s.repo.Update(ctx, func(snap *models.Snapshot) error {
		group, ok := snap.Groups[id]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		group.Name = req.Name
		group.Shift = models.Shift(req.Shift)
		group.Course = req.Course
		group.TeachingName = req.TeachingName
		updated = group.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the group and, with it, every assignment it contained.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	err := s.repo.Update(ctx, func(snap *models.Snapshot) error {
		if _, ok := snap.Groups[id]; !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		delete(snap.Groups, id)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("group deleted", zap.String("group_id", id))
	return nil
}

// AddSubject appends a subject to the group.
func (s *GroupService) AddSubject(ctx context.Context, groupID string, req AddSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidHours.Code, appErrors.ErrInvalidHours.Status, "invalid subject payload")
	}

	subject := models.Subject{
		ID:      "subj-" + uuid.NewString(),
		Name:    req.Name,
		Teacher: req.Teacher,
		Hours:   req.Hours,
	}
	if err := subject.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidHours.Code, appErrors.ErrInvalidHours.Status, err.Error())
	}

	err := s.repo.Update(ctx, func(snap *models.Snapshot) error {
		group, ok := snap.Groups[groupID]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		group.Subjects = append(group.Subjects, subject)
		ensureSubjectColor(snap, subject.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// UpdateSubject edits a subject and refreshes the denormalized name/teacher
// caches of every assignment in the owning group that references it. Which
// cells are populated never changes.
func (s *GroupService) UpdateSubject(ctx context.Context, groupID, subjectID string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidHours.Code, appErrors.ErrInvalidHours.Status, "invalid subject payload")
	}

	var updated models.Subject
	err := s.repo.Update(ctx, func(snap *models.Snapshot) error {
		group, ok := snap.Groups[groupID]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		idx := -1
		for i := range group.Subjects {
			if group.Subjects[i].ID == subjectID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrUnknownSubject, "subject not found in group")
		}

		group.Subjects[idx].Name = req.Name
		group.Subjects[idx].Teacher = req.Teacher
		group.Subjects[idx].Hours = req.Hours
		updated = group.Subjects[idx]

		refreshAssignments(group, updated)
		ensureSubjectColor(snap, updated.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSubject removes the subject and empties every cell in the owning
// group's schedule that referenced it.
func (s *GroupService) DeleteSubject(ctx context.Context, groupID, subjectID string) error {
	return s.repo.Update(ctx, func(snap *models.Snapshot) error {
		group, ok := snap.Groups[groupID]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		idx := -1
		for i := range group.Subjects {
			if group.Subjects[i].ID == subjectID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrUnknownSubject, "subject not found in group")
		}
		group.Subjects = append(group.Subjects[:idx], group.Subjects[idx+1:]...)

		var cleared []struct {
			day    models.Day
			period models.Period
		}
		group.Schedule.ForEach(func(day models.Day, period models.Period, a models.Assignment) {
			if a.SubjectID == subjectID {
				cleared = append(cleared, struct {
					day    models.Day
					period models.Period
				}{day, period})
			}
		})
		for _, slot := range cleared {
			group.Schedule.Clear(slot.day, slot.period)
		}
		return nil
	})
}

// Summary reports assigned-versus-target hours for every named subject of
// the group.
func (s *GroupService) Summary(ctx context.Context, groupID string) ([]models.HourSummaryItem, error) {
	group, ok := s.repo.Group(groupID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}

	assigned := make(map[string]int)
	group.Schedule.ForEach(func(_ models.Day, _ models.Period, a models.Assignment) {
		assigned[a.SubjectID]++
	})

	items := make([]models.HourSummaryItem, 0, len(group.Subjects))
	for _, subject := range group.Subjects {
		if subject.Name == "" {
			continue
		}
		items = append(items, models.HourSummaryItem{
			Subject:  subject.Name,
			Assigned: assigned[subject.ID],
			Target:   subject.Hours,
			Status:   models.SummaryStatus(assigned[subject.ID], subject.Hours),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Subject < items[j].Subject })
	return items, nil
}

// refreshAssignments rewrites the cached name/teacher of every cell in the
// group referencing the subject.
func refreshAssignments(group *models.Group, subject models.Subject) {
	group.Schedule.ForEach(func(day models.Day, period models.Period, a models.Assignment) {
		if a.SubjectID == subject.ID {
			group.Schedule.Set(day, period, models.Assignment{
				SubjectID: subject.ID,
				Name:      subject.Name,
				Teacher:   subject.Teacher,
			})
		}
	})
}

// ensureSubjectColor registers a display color for a subject name on first
// sight, cycling through eight color tokens.
func ensureSubjectColor(snap *models.Snapshot, name string) {
	if name == "" {
		return
	}
	if _, ok := snap.SubjectColors.Color(name); ok {
		return
	}
	token := fmt.Sprintf("subject-color-%d", len(snap.SubjectColors)%8)
	snap.SubjectColors = append(snap.SubjectColors, [2]string{name, token})
}
