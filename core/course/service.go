package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("course not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCoursesByTeacher returns the teacher's active courses with live
		// active-enrollment counts, newest first.
		QueryCoursesByTeacher(ctx context.Context, teacherID string) ([]Info, error)
		// QueryOpenCourses returns active courses the student holds no active
		// enrollment in, with current/capacity counts for seat display.
		QueryOpenCourses(ctx context.Context, studentID string) ([]Info, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, caller user.User, nc NewCourse) (Course, error) {
	if err := access.Authorize(caller, access.CreateCourse, access.Target{}); err != nil {
		return Course{}, err
	}
	if err := nc.Validate(); err != nil {
		return Course{}, err
	}

	now := time.Now().UTC()
	crs := Course{
		Title:       nc.Title,
		Description: nc.Description,
		Duration:    nc.Duration,
		MaxStudents: nc.MaxStudents,
		IsActive:    true,
		CreatedBy:   caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) QueryForTeacher(ctx context.Context, caller user.User) ([]Info, error) {
	if err := access.Authorize(caller, access.ListOwnCourses, access.Target{}); err != nil {
		return nil, err
	}
	return svc.repo.QueryCoursesByTeacher(ctx, caller.ID)
}

func (svc *Service) QueryOpen(ctx context.Context, caller user.User) ([]Info, error) {
	if err := access.Authorize(caller, access.ListOpenCourses, access.Target{}); err != nil {
		return nil, err
	}
	return svc.repo.QueryOpenCourses(ctx, caller.ID)
}

// Deactivate soft-deletes a course; it stops accepting enrollments and drops
// out of listings. There is no reactivation path.
func (svc *Service) Deactivate(ctx context.Context, caller user.User, id string) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err = access.Authorize(caller, access.DeactivateCourse, access.Target{OwnerID: crs.CreatedBy}); err != nil {
		return Course{}, err
	}
	crs.IsActive = false
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}
