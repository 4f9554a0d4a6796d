package submission

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound        = errors.New("submission not found")
	ErrNotEnrolled     = errors.New("you are not enrolled in this course")
	ErrPastDue         = errors.New("assignment is past its due date")
	ErrEmptySubmission = errors.New("provide text content or attach a file")
	ErrAlreadyGraded   = errors.New("submission has already been graded")
	ErrNotSubmitted    = errors.New("submission has not been submitted yet")
)

type (
	Repository interface {
		// UpsertSubmission inserts or replaces the submission keyed by
		// (assignment, student): a re-submit before grading replaces content and
		// resets the submitted timestamp. A row already graded is left untouched
		// and ErrAlreadyGraded is returned; the guard is enforced by the store so
		// a racing grade cannot be overwritten.
		UpsertSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		GetSubmissionForStudent(ctx context.Context, assignmentID, studentID string) (Submission, error)
		QuerySubmissionsByStudent(ctx context.Context, studentID string) ([]Submission, error)
		QuerySubmissionsByAssignment(ctx context.Context, assignmentID string) ([]Submission, error)
		// GradeSubmission conditionally sets grade, feedback, graded timestamp and
		// the graded status together on a submitted or graded row (re-grading is a
		// correction that overwrites). Returns ErrNotSubmitted when no row matched.
		GradeSubmission(ctx context.Context, id string, grade int, feedback string, gradedAt time.Time) (Submission, error)
	}

	// AssignmentDirectory is the slice of assignment.Repository the workflow needs.
	AssignmentDirectory interface {
		GetAssignment(ctx context.Context, id string) (assignment.Assignment, error)
	}

	// EnrollmentChecker answers whether a student actively belongs to a course.
	EnrollmentChecker interface {
		HasActiveEnrollment(ctx context.Context, studentID, courseID string) (bool, error)
	}

	// UserDirectory resolves students for grading notifications.
	UserDirectory interface {
		GetUser(ctx context.Context, filter user.GetFilter) (user.User, error)
	}

	Service struct {
		repo        Repository
		assignments AssignmentDirectory
		enrollments EnrollmentChecker
		users       UserDirectory
		mailSvc     core.EmailService
		logger      core.Logger
		allowLate   bool
	}
)

func NewService(
	repo Repository,
	assignments AssignmentDirectory,
	enrollments EnrollmentChecker,
	users UserDirectory,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		repo:        repo,
		assignments: assignments,
		enrollments: enrollments,
		users:       users,
		mailSvc:     mailSvc,
		logger:      logger,
		allowLate:   core.Conf.Submission.AllowLate,
	}
}

// Submit upserts the caller's work for an assignment, moving it to `submitted`.
// A second call before grading replaces the previous content; a call after
// grading is a conflict.
func (svc *Service) Submit(ctx context.Context, caller user.User, ns NewSubmission) (Submission, error) {
	if err := access.Authorize(caller, access.SubmitAssignment, access.Target{}); err != nil {
		return Submission{}, err
	}
	if err := ns.Validate(); err != nil {
		return Submission{}, err
	}
	if ns.Content == "" && ns.FileURL == "" {
		return Submission{}, core.NewValidationError(ErrEmptySubmission, core.FieldError{
			Field: "content", Error: ErrEmptySubmission.Error(),
		})
	}

	a, err := svc.assignments.GetAssignment(ctx, ns.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	enrolled, err := svc.enrollments.HasActiveEnrollment(ctx, caller.ID, a.CourseID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Submission{}, core.NewStateError(ErrNotEnrolled)
	}

	now := NowFunc().UTC()
	if now.After(a.DueDate) {
		if !svc.allowLate {
			return Submission{}, core.NewStateError(ErrPastDue)
		}
		svc.logger.Warn(fmt.Sprintf("late submission accepted: assignment %s", a.ID), caller)
	}

	sub := Submission{
		AssignmentID: a.ID,
		StudentID:    caller.ID,
		Content:      null.NewString(ns.Content, ns.Content != ""),
		FileURL:      null.NewString(ns.FileURL, ns.FileURL != ""),
		Status:       StatusSubmitted,
		SubmittedAt:  now,
	}
	sub, err = svc.repo.UpsertSubmission(ctx, sub)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyGraded {
			return Submission{}, core.NewConflictError(ErrAlreadyGraded)
		}
		return Submission{}, err
	}
	return sub, nil
}

// Grade records the owning teacher's grade and feedback, moving the submission
// to `graded`. Re-grading an already graded submission is an allowed correction
// that overwrites the previous grade and feedback.
func (svc *Service) Grade(ctx context.Context, caller user.User, id string, gs GradeSubmission) (Submission, error) {
	if err := gs.Validate(); err != nil {
		return Submission{}, err
	}

	sub, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	a, err := svc.assignments.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "resolving parent assignment")
	}
	if err = access.Authorize(caller, access.GradeSubmission, access.Target{OwnerID: a.CreatedBy}); err != nil {
		return Submission{}, err
	}
	if !(sub.Status == StatusSubmitted || sub.Status == StatusGraded) {
		return Submission{}, core.NewStateError(ErrNotSubmitted)
	}

	sub, err = svc.repo.GradeSubmission(ctx, id, *gs.Grade, gs.Feedback, NowFunc().UTC())
	if err != nil {
		if errors.Cause(err) == ErrNotSubmitted {
			return Submission{}, core.NewStateError(ErrNotSubmitted)
		}
		return Submission{}, err
	}

	svc.notifyStudent(ctx, sub, a)
	return sub, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, id)
}

func (svc *Service) QueryForStudent(ctx context.Context, caller user.User) ([]Submission, error) {
	if err := access.Authorize(caller, access.ListSubmissions, access.Target{}); err != nil {
		return nil, err
	}
	return svc.repo.QuerySubmissionsByStudent(ctx, caller.ID)
}

// QueryForAssignment lists a teacher's incoming submissions for one assignment.
func (svc *Service) QueryForAssignment(ctx context.Context, caller user.User, assignmentID string) ([]Submission, error) {
	a, err := svc.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err = access.Authorize(caller, access.ListSubmissions, access.Target{OwnerID: a.CreatedBy}); err != nil {
		return nil, err
	}
	return svc.repo.QuerySubmissionsByAssignment(ctx, assignmentID)
}

func (svc *Service) notifyStudent(ctx context.Context, sub Submission, a assignment.Assignment) {
	student, err := svc.users.GetUser(ctx, user.GetFilter{ID: sub.StudentID})
	if err != nil {
		svc.logger.Error(fmt.Sprintf("resolving student for grade notification: %v", err), err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: "Your submission has been graded",
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYour submission for %q was graded: %d/100.",
			student.Name, a.Title, sub.Grade.Int,
		),
	})
}
