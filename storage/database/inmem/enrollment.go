package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

// CreateEnrollment performs the duplicate and capacity checks under the write
// lock together with the insert, matching the single-statement SQL semantics.
func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, enr enrollment.Enrollment, maxStudents int) (enrollment.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var active int
	for _, e := range repo.db.enrollments {
		if e.CourseID != enr.CourseID || e.Status != enrollment.StatusActive {
			continue
		}
		if e.StudentID == enr.StudentID {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		active++
	}
	if active >= maxStudents {
		return enrollment.Enrollment{}, enrollment.ErrCourseFull
	}

	enr.ID = uuid.New().String()
	stored := enr
	stored.Course = nil
	repo.db.enrollments[enr.ID] = &stored
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, id string) (enrollment.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enr, ok := repo.db.enrollments[id]
	if !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	got := *enr
	if usr, ok := repo.db.users[enr.StudentID]; ok {
		got.StudentName = usr.Name
		got.StudentEmail = usr.Email
	}
	return got, nil
}

func (repo *enrollmentRepository) QueryEnrollmentsByStudent(_ context.Context, studentID string, status enrollment.Status) ([]enrollment.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enrs := make([]enrollment.Enrollment, 0)
	for _, enr := range repo.db.enrollments {
		if enr.StudentID != studentID {
			continue
		}
		if status != "" && enr.Status != status {
			continue
		}
		got := *enr
		if crs, ok := repo.db.courses[enr.CourseID]; ok {
			c := *crs
			if usr, ok := repo.db.users[c.CreatedBy]; ok {
				c.TeacherName = usr.Name
			}
			got.Course = &c
		}
		enrs = append(enrs, got)
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].EnrolledAt.After(enrs[j].EnrolledAt) })
	return enrs, nil
}

func (repo *enrollmentRepository) HasActiveEnrollment(_ context.Context, studentID, courseID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, enr := range repo.db.enrollments {
		if enr.StudentID == studentID && enr.CourseID == courseID && enr.Status == enrollment.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (repo *enrollmentRepository) CountActiveEnrollments(_ context.Context, courseID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, enr := range repo.db.enrollments {
		if enr.CourseID == courseID && enr.Status == enrollment.StatusActive {
			count++
		}
	}
	return count, nil
}

func (repo *enrollmentRepository) UpdateEnrollmentStatus(_ context.Context, id string, from, to enrollment.Status) (enrollment.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	enr, ok := repo.db.enrollments[id]
	if !ok || enr.Status != from {
		return enrollment.Enrollment{}, enrollment.ErrNotActive
	}
	enr.Status = to
	return *enr, nil
}
