package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("assignment not found")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		// QueryPublishedByCourses returns published assignments for the given
		// courses ordered by due date ascending, ties broken by creation order.
		QueryPublishedByCourses(ctx context.Context, courseIDs []string) ([]Assignment, error)
		// QueryAssignmentsByTeacher returns all of the teacher's assignments with
		// submission counts, newest first.
		QueryAssignmentsByTeacher(ctx context.Context, teacherID string) ([]Info, error)
	}

	// CourseDirectory is the slice of course.Repository the catalog needs.
	CourseDirectory interface {
		GetCourse(ctx context.Context, id string) (course.Course, error)
	}

	Service struct {
		repo    Repository
		courses CourseDirectory
	}
)

func NewService(repo Repository, courses CourseDirectory) *Service {
	return &Service{repo: repo, courses: courses}
}

// Create produces a published Assignment scoped to one of the caller's courses.
// Publication is set at creation; there is no separate draft-then-publish step.
func (svc *Service) Create(ctx context.Context, caller user.User, na NewAssignment) (Assignment, error) {
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}

	crs, err := svc.courses.GetCourse(ctx, na.CourseID)
	if err != nil {
		return Assignment{}, err
	}
	if err = access.Authorize(caller, access.CreateAssignment, access.Target{OwnerID: crs.CreatedBy}); err != nil {
		return Assignment{}, err
	}

	now := time.Now().UTC()
	a := Assignment{
		CourseID:    crs.ID,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueAt,
		MaxPoints:   na.MaxPoints,
		IsPublished: true,
		CreatedBy:   caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

// QueryPublishedForCourses lists the coursework students see: published
// assignments only, soonest due first.
func (svc *Service) QueryPublishedForCourses(ctx context.Context, courseIDs []string) ([]Assignment, error) {
	if len(courseIDs) == 0 {
		return []Assignment{}, nil
	}
	return svc.repo.QueryPublishedByCourses(ctx, courseIDs)
}

func (svc *Service) QueryForTeacher(ctx context.Context, caller user.User) ([]Info, error) {
	if err := access.Authorize(caller, access.ListOwnAssignments, access.Target{}); err != nil {
		return nil, err
	}
	return svc.repo.QueryAssignmentsByTeacher(ctx, caller.ID)
}
