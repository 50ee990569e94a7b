package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

// TeacherView bundles the derived weekly grid for one teacher.
type TeacherView struct {
	Teacher  string                 `json:"teacher"`
	Schedule models.TeacherSchedule `json:"schedule"`
}

// TeacherSummary carries the per-subject hour totals for one teacher.
type TeacherSummary struct {
	Teacher string                   `json:"teacher"`
	Items   []models.HourSummaryItem `json:"items"`
}

// TeacherService exposes the teacher-centric read side. Everything here is a
// projection over group schedules and the block table; nothing is stored per
// teacher, so the views can never drift from the group grids.
type TeacherService struct {
	repo   *repository.StateRepository
	logger *zap.Logger
}

// NewTeacherService instantiates TeacherService.
func NewTeacherService(repo *repository.StateRepository, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, logger: logger}
}

// Teachers returns the distinct teacher names referenced by any subject,
// sorted for stable output. Teachers who only appear in the block table are
// included too.
func (s *TeacherService) Teachers(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	s.repo.View(func(snap *models.Snapshot) {
		for _, group := range snap.Groups {
			for _, subject := range group.Subjects {
				if subject.Teacher != "" {
					seen[subject.Teacher] = struct{}{}
				}
			}
		}
		for teacher := range snap.TeacherBlocks {
			seen[teacher] = struct{}{}
		}
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Schedule computes the teacher's weekly view by scanning every group cell
// for the teacher's assignments and overlaying declared blocks.
func (s *TeacherService) Schedule(ctx context.Context, teacher string) (*TeacherView, error) {
	if teacher == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	view := &TeacherView{Teacher: teacher, Schedule: make(models.TeacherSchedule)}
	s.repo.View(func(snap *models.Snapshot) {
		for _, groupID := range sortedGroupIDs(snap) {
			group := snap.Groups[groupID]
			group.Schedule.ForEach(func(day models.Day, period models.Period, a models.Assignment) {
				if a.Teacher != teacher {
					return
				}
				view.Schedule.Set(day, period, models.TeacherCell{
					Kind:        models.TeacherCellAssignment,
					GroupID:     group.ID,
					GroupName:   group.Name,
					SubjectID:   a.SubjectID,
					SubjectName: a.Name,
					Shift:       group.Shift,
				})
			})
		}
		for _, day := range models.Days() {
			for _, period := range models.Periods() {
				block, ok := snap.TeacherBlocks.Get(teacher, day, period)
				if !ok {
					continue
				}
				view.Schedule.Set(day, period, models.TeacherCell{
					Kind:   models.TeacherCellBlocked,
					Shift:  block.Shift,
					Reason: block.Reason,
					Type:   block.Type,
				})
			}
		}
	})
	return view, nil
}

// Summary totals the teacher's assigned cells per subject name across all
// groups and compares them against the combined weekly targets. Matching is
// by subject name so the same subject taught to several groups aggregates.
func (s *TeacherService) Summary(ctx context.Context, teacher string) (*TeacherSummary, error) {
	if teacher == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	assigned := make(map[string]int)
	target := make(map[string]int)
	s.repo.View(func(snap *models.Snapshot) {
		for _, group := range snap.Groups {
			for _, subject := range group.Subjects {
				if subject.Teacher == teacher {
					target[subject.Name] += subject.Hours
				}
			}
			group.Schedule.ForEach(func(_ models.Day, _ models.Period, a models.Assignment) {
				if a.Teacher == teacher {
					assigned[a.Name]++
				}
			})
		}
	})

	names := make([]string, 0, len(target))
	for name := range target {
		names = append(names, name)
	}
	for name := range assigned {
		if _, ok := target[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	summary := &TeacherSummary{Teacher: teacher, Items: make([]models.HourSummaryItem, 0, len(names))}
	for _, name := range names {
		summary.Items = append(summary.Items, models.HourSummaryItem{
			Subject:  name,
			Assigned: assigned[name],
			Target:   target[name],
			Status:   models.SummaryStatus(assigned[name], target[name]),
		})
	}
	return summary, nil
}
