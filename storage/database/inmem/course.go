package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

// callers must hold at least a read lock
func (repo *courseRepository) activeCount(courseID string) int {
	var count int
	for _, enr := range repo.db.enrollments {
		if enr.CourseID == courseID && enr.Status == enrollment.StatusActive {
			count++
		}
	}
	return count
}

// callers must hold at least a read lock
func (repo *courseRepository) teacherName(teacherID string) string {
	if usr, ok := repo.db.users[teacherID]; ok {
		return usr.Name
	}
	return ""
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs.ID = uuid.New().String()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	crs, ok := repo.db.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	got := *crs
	got.TeacherName = repo.teacherName(crs.CreatedBy)
	return got, nil
}

func (repo *courseRepository) QueryCoursesByTeacher(_ context.Context, teacherID string) ([]course.Info, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	infos := make([]course.Info, 0)
	for _, crs := range repo.db.courses {
		if crs.CreatedBy != teacherID || !crs.IsActive {
			continue
		}
		infos = append(infos, repo.info(*crs))
	}
	sortInfosNewestFirst(infos)
	return infos, nil
}

func (repo *courseRepository) QueryOpenCourses(_ context.Context, studentID string) ([]course.Info, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enrolled := make(map[string]bool)
	for _, enr := range repo.db.enrollments {
		if enr.StudentID == studentID && enr.Status == enrollment.StatusActive {
			enrolled[enr.CourseID] = true
		}
	}

	infos := make([]course.Info, 0)
	for _, crs := range repo.db.courses {
		if !crs.IsActive || enrolled[crs.ID] {
			continue
		}
		infos = append(infos, repo.info(*crs))
	}
	sortInfosNewestFirst(infos)
	return infos, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	orig.Title = crs.Title
	orig.Description = crs.Description
	orig.Duration = crs.Duration
	orig.MaxStudents = crs.MaxStudents
	orig.IsActive = crs.IsActive
	orig.UpdatedAt = crs.UpdatedAt
	return *orig, nil
}

// callers must hold at least a read lock
func (repo *courseRepository) info(crs course.Course) course.Info {
	crs.TeacherName = repo.teacherName(crs.CreatedBy)
	return course.Info{Course: crs, EnrolledCount: repo.activeCount(crs.ID)}
}

func sortInfosNewestFirst(infos []course.Info) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
}
