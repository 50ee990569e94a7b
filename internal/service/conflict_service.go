package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
)

// ConflictService answers read-only conflict questions over the current
// dataset: the whole-grid double-booking scan and the advisory placement
// checks the mutator consults before committing.
type ConflictService struct {
	repo    *repository.StateRepository
	cache   *gocache.Cache
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewConflictService instantiates ConflictService.
func NewConflictService(repo *repository.StateRepository, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *ConflictService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		repo:    repo,
		cache:   gocache.New(ttl, 2*ttl),
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// FindAll scans every slot for distinct-teacher double-bookings, ordered by
// day then period. The scan is memoized per store revision, so a cached
// result is by construction identical to a fresh one.
func (s *ConflictService) FindAll(ctx context.Context) []models.SlotConflict {
	key := fmt.Sprintf("conflicts:%d", s.repo.Revision())
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.RecordConflictScan(true)
		return cached.([]models.SlotConflict)
	}
	s.metrics.RecordConflictScan(false)

	var conflicts []models.SlotConflict
	s.repo.View(func(snap *models.Snapshot) {
		conflicts = scanConflicts(snap)
	})

	s.cache.Set(key, conflicts, s.ttl)
	s.metrics.SetConflictCount(len(conflicts))
	return conflicts
}

// CheckTeacherPlacement reports the conflict placing the teacher at the slot
// would create, ignoring the given group's own cell. Nil means the placement
// is free.
func (s *ConflictService) CheckTeacherPlacement(ctx context.Context, teacher string, day models.Day, period models.Period, excludeGroupID string) *models.PlacementConflict {
	var conflict *models.PlacementConflict
	s.repo.View(func(snap *models.Snapshot) {
		conflict = teacherPlacementConflict(snap, teacher, day, period, excludeGroupID)
	})
	return conflict
}

// CheckGroupPlacement reports whether the group's slot is already occupied
// by a different teacher's subject.
func (s *ConflictService) CheckGroupPlacement(ctx context.Context, groupID string, day models.Day, period models.Period, excludeTeacher string) *models.PlacementConflict {
	var conflict *models.PlacementConflict
	s.repo.View(func(snap *models.Snapshot) {
		conflict = groupPlacementConflict(snap, groupID, day, period, excludeTeacher)
	})
	return conflict
}

// scanConflicts builds the teacher occupancy index and emits one record per
// slot holding more than one distinct teacher. Teacher order within a record
// is first-seen scan order.
func scanConflicts(snap *models.Snapshot) []models.SlotConflict {
	type slot struct {
		day    models.Day
		period models.Period
	}
	occupancy := make(map[slot][]string)

	groupIDs := sortedGroupIDs(snap)
	for _, id := range groupIDs {
		snap.Groups[id].Schedule.ForEach(func(day models.Day, period models.Period, a models.Assignment) {
			if a.Teacher == "" {
				return
			}
			key := slot{day, period}
			if !containsString(occupancy[key], a.Teacher) {
				occupancy[key] = append(occupancy[key], a.Teacher)
			}
		})
	}

	conflicts := []models.SlotConflict{}
	for _, day := range models.Days() {
		for _, period := range models.Periods() {
			if !period.Schedulable() {
				continue
			}
			teachers := occupancy[slot{day, period}]
			if len(teachers) > 1 {
				conflicts = append(conflicts, models.SlotConflict{Day: day, Period: period, Teachers: teachers})
			}
		}
	}
	return conflicts
}

// teacherPlacementConflict checks assignment collisions first and blocks
// second; a block only matters when no live assignment conflict exists.
// Exactly one conflict is returned.
func teacherPlacementConflict(snap *models.Snapshot, teacher string, day models.Day, period models.Period, excludeGroupID string) *models.PlacementConflict {
	for _, id := range sortedGroupIDs(snap) {
		if id == excludeGroupID {
			continue
		}
		group := snap.Groups[id]
		if a, ok := group.Schedule.Get(day, period); ok && a.Teacher == teacher {
			return &models.PlacementConflict{
				Kind:        models.ConflictTeacher,
				Teacher:     teacher,
				Day:         day,
				Period:      period,
				GroupID:     id,
				GroupName:   group.Name,
				SubjectName: a.Name,
			}
		}
	}

	if block, ok := snap.TeacherBlocks.Get(teacher, day, period); ok {
		return &models.PlacementConflict{
			Kind:    models.ConflictBlock,
			Teacher: teacher,
			Day:     day,
			Period:  period,
			Reason:  block.Reason,
		}
	}
	return nil
}

// groupPlacementConflict is the symmetric check used when placing from the
// teacher grid: is the group's slot held by a different teacher already?
func groupPlacementConflict(snap *models.Snapshot, groupID string, day models.Day, period models.Period, excludeTeacher string) *models.PlacementConflict {
	group, ok := snap.Groups[groupID]
	if !ok {
		return nil
	}
	if a, ok := group.Schedule.Get(day, period); ok && a.Teacher != excludeTeacher {
		return &models.PlacementConflict{
			Kind:        models.ConflictGroup,
			Teacher:     a.Teacher,
			Day:         day,
			Period:      period,
			GroupID:     groupID,
			GroupName:   group.Name,
			SubjectName: a.Name,
		}
	}
	return nil
}

func sortedGroupIDs(snap *models.Snapshot) []string {
	ids := make([]string, 0, len(snap.Groups))
	for id := range snap.Groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
