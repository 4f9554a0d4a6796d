package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/submission"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

// callers must hold at least a read lock
func (repo *assignmentRepository) courseTitle(courseID string) string {
	if crs, ok := repo.db.courses[courseID]; ok {
		return crs.Title
	}
	return ""
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignment(_ context.Context, id string) (assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	a, ok := repo.db.assignments[id]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	got := *a
	got.CourseTitle = repo.courseTitle(a.CourseID)
	return got, nil
}

func (repo *assignmentRepository) QueryPublishedByCourses(_ context.Context, courseIDs []string) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}

	asgs := make([]assignment.Assignment, 0)
	for _, a := range repo.db.assignments {
		if !a.IsPublished || !wanted[a.CourseID] {
			continue
		}
		got := *a
		got.CourseTitle = repo.courseTitle(a.CourseID)
		asgs = append(asgs, got)
	}
	sort.Slice(asgs, func(i, j int) bool {
		if asgs[i].DueDate.Equal(asgs[j].DueDate) {
			return asgs[i].CreatedAt.Before(asgs[j].CreatedAt)
		}
		return asgs[i].DueDate.Before(asgs[j].DueDate)
	})
	return asgs, nil
}

func (repo *assignmentRepository) QueryAssignmentsByTeacher(_ context.Context, teacherID string) ([]assignment.Info, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	infos := make([]assignment.Info, 0)
	for _, a := range repo.db.assignments {
		if a.CreatedBy != teacherID {
			continue
		}
		got := *a
		got.CourseTitle = repo.courseTitle(a.CourseID)
		info := assignment.Info{Assignment: got}
		for _, sub := range repo.db.submissions {
			if sub.AssignmentID != a.ID {
				continue
			}
			switch sub.Status {
			case submission.StatusSubmitted:
				info.SubmissionCount++
				info.UngradedCount++
			case submission.StatusGraded:
				info.SubmissionCount++
			}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return infos, nil
}
