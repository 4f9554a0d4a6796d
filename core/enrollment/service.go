package enrollment

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("enrollment not found")
	ErrAlreadyEnrolled = errors.New("you are already enrolled in this course")
	ErrCourseFull      = errors.New("course is full")
	ErrCourseInactive  = errors.New("course is no longer accepting enrollments")
	ErrNotActive       = errors.New("enrollment is not active")
)

type (
	Repository interface {
		// CreateEnrollment atomically inserts an active enrollment for the pair,
		// re-validating capacity at commit. It returns ErrAlreadyEnrolled when an
		// active enrollment for (student, course) exists (including the loser of
		// a concurrent race) and ErrCourseFull when the active count has reached
		// maxStudents. The capacity check and the insert must not interleave with
		// concurrent enroll attempts for the same course.
		CreateEnrollment(ctx context.Context, enr Enrollment, maxStudents int) (Enrollment, error)
		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		// QueryEnrollmentsByStudent resolves course detail on each record.
		// A zero status matches all.
		QueryEnrollmentsByStudent(ctx context.Context, studentID string, status Status) ([]Enrollment, error)
		HasActiveEnrollment(ctx context.Context, studentID, courseID string) (bool, error)
		CountActiveEnrollments(ctx context.Context, courseID string) (int, error)
		// UpdateEnrollmentStatus transitions id from `from` to `to`; the update is
		// conditional on the current status so racing transitions cannot clash.
		// Returns ErrNotActive when no row matched.
		UpdateEnrollmentStatus(ctx context.Context, id string, from, to Status) (Enrollment, error)
	}

	// CourseDirectory is the slice of course.Repository the ledger needs.
	CourseDirectory interface {
		GetCourse(ctx context.Context, id string) (course.Course, error)
	}

	Service struct {
		repo    Repository
		courses CourseDirectory
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, courses CourseDirectory, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, courses: courses, mailSvc: mailSvc}
}

// Enroll records the caller as an active student of the course. Capacity and
// duplicate checks are enforced by the store at commit; see Repository.
func (svc *Service) Enroll(ctx context.Context, caller user.User, courseID string) (Enrollment, error) {
	if err := access.Authorize(caller, access.Enroll, access.Target{}); err != nil {
		return Enrollment{}, err
	}

	crs, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !crs.IsActive {
		return Enrollment{}, core.NewStateError(ErrCourseInactive)
	}

	enr := Enrollment{
		StudentID:  caller.ID,
		CourseID:   crs.ID,
		Status:     StatusActive,
		EnrolledAt: time.Now().UTC(),
	}
	enr, err = svc.repo.CreateEnrollment(ctx, enr, crs.MaxStudents)
	if err != nil {
		switch errors.Cause(err) {
		case ErrAlreadyEnrolled, ErrCourseFull:
			return Enrollment{}, core.NewConflictError(errors.Cause(err))
		}
		return Enrollment{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: caller.Name, Address: caller.Email}},
		Subject: "Enrollment confirmed",
		BodyStr: fmt.Sprintf("Hi %s,\n\nYou are now enrolled in %q.", caller.Name, crs.Title),
	})
	return enr, nil
}

func (svc *Service) QueryActiveForStudent(ctx context.Context, caller user.User) ([]Enrollment, error) {
	if err := access.Authorize(caller, access.ListEnrollments, access.Target{}); err != nil {
		return nil, err
	}
	return svc.repo.QueryEnrollmentsByStudent(ctx, caller.ID, StatusActive)
}

func (svc *Service) Drop(ctx context.Context, caller user.User, id string) (Enrollment, error) {
	return svc.transition(ctx, caller, id, access.DropEnrollment, StatusDropped)
}

func (svc *Service) Complete(ctx context.Context, caller user.User, id string) (Enrollment, error) {
	return svc.transition(ctx, caller, id, access.CompleteEnrollment, StatusCompleted)
}

func (svc *Service) transition(ctx context.Context, caller user.User, id string, op access.Operation, to Status) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if err = access.Authorize(caller, op, access.Target{SubjectID: enr.StudentID}); err != nil {
		return Enrollment{}, err
	}
	if enr.Status != StatusActive {
		return Enrollment{}, core.NewStateError(ErrNotActive)
	}
	enr, err = svc.repo.UpdateEnrollmentStatus(ctx, id, StatusActive, to)
	if err != nil {
		if errors.Cause(err) == ErrNotActive {
			return Enrollment{}, core.NewStateError(ErrNotActive)
		}
		return Enrollment{}, err
	}
	return enr, nil
}
