package submission_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

func setup(t *testing.T) (*submission.Service, *inmemdb.DB) {
	db := testutil.OpenDB(t)
	emailsvc.ClearSentMessages()
	svc := submission.NewService(
		inmemdb.NewSubmissionRepository(db),
		inmemdb.NewAssignmentRepository(db),
		inmemdb.NewEnrollmentRepository(db),
		inmemdb.NewUserRepository(db),
		emailsvc.NewConsoleServiceMock(),
		logsvc.NewStdLogger(log.New(io.Discard, "", 0)),
	)
	return svc, db
}

type fixture struct {
	teacher, student user.User
	assignment       assignment.Assignment
}

func seed(t *testing.T, db *inmemdb.DB, due time.Time) fixture {
	t.Helper()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)

	teacher := testutil.CreateUser(t, usrRepo, "Teach", "teach@test.cd", user.RoleTeacher, "", true)
	student := testutil.CreateUser(t, usrRepo, "Stud", "stud@test.cd", user.RoleStudent, "", true)
	crs := testutil.CreateCourse(t, crsRepo, teacher, "Go 101", 30)
	testutil.CreateEnrollment(t, inmemdb.NewEnrollmentRepository(db), student, crs)
	a := testutil.CreateAssignment(t, inmemdb.NewAssignmentRepository(db), crs, teacher, "Homework 1", due)
	return fixture{teacher: teacher, student: student, assignment: a}
}

func intPtr(i int) *int { return &i }

func TestService_Submit(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	fix := seed(t, db, time.Now().UTC().Add(24*time.Hour))

	// text content or an attachment is required
	_, err := svc.Submit(ctx, fix.student, submission.NewSubmission{AssignmentID: fix.assignment.ID})
	vErr, ok := err.(*core.ValidationError)
	if !ok || vErr.Err != submission.ErrEmptySubmission {
		t.Errorf("Submit() with no content error = %v, want %v", err, submission.ErrEmptySubmission)
	}

	sub, err := svc.Submit(ctx, fix.student, submission.NewSubmission{
		AssignmentID: fix.assignment.ID,
		Content:      "my answer",
	})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if sub.Status != submission.StatusSubmitted || sub.Content.String != "my answer" {
		t.Errorf("Submit() = %+v; want submitted with content", sub)
	}

	// file-only submits are fine too, and replace the previous one
	resub, err := svc.Submit(ctx, fix.student, submission.NewSubmission{
		AssignmentID: fix.assignment.ID,
		FileURL:      "/media/stud/homework1.pdf",
	})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if resub.ID != sub.ID {
		t.Errorf("re-submit created a new record %q, want %q", resub.ID, sub.ID)
	}
	if resub.Content.Valid || resub.FileURL.String != "/media/stud/homework1.pdf" {
		t.Errorf("re-submit = %+v; want content replaced by the file", resub)
	}

	subs, err := svc.QueryForStudent(ctx, fix.student)
	if err != nil {
		t.Fatalf("QueryForStudent() failed: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("QueryForStudent() = %d submissions, want 1", len(subs))
	}
}

func TestService_Submit_notEnrolled(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	fix := seed(t, db, time.Now().UTC().Add(24*time.Hour))

	outsider := testutil.CreateUser(
		t, inmemdb.NewUserRepository(db), "Out", "out@test.cd", user.RoleStudent, "", true)

	_, err := svc.Submit(ctx, outsider, submission.NewSubmission{
		AssignmentID: fix.assignment.ID,
		Content:      "sneaky",
	})
	stateErr, ok := err.(*core.StateError)
	if !ok || stateErr.Err != submission.ErrNotEnrolled {
		t.Errorf("Submit() error = %v, want StateError(%v)", err, submission.ErrNotEnrolled)
	}
}

func TestService_Submit_pastDue(t *testing.T) {
	prev := core.Conf.Submission.AllowLate
	t.Cleanup(func() { core.Conf.Submission.AllowLate = prev })

	ctx := context.Background()
	ns := func(id string) submission.NewSubmission {
		return submission.NewSubmission{AssignmentID: id, Content: "late answer"}
	}

	// late submits rejected when the policy forbids them
	core.Conf.Submission.AllowLate = false
	svc, db := setup(t)
	fix := seed(t, db, time.Now().UTC().Add(-time.Hour))
	_, err := svc.Submit(ctx, fix.student, ns(fix.assignment.ID))
	stateErr, ok := err.(*core.StateError)
	if !ok || stateErr.Err != submission.ErrPastDue {
		t.Errorf("Submit() past due error = %v, want StateError(%v)", err, submission.ErrPastDue)
	}

	// accepted (and logged) when allowed
	core.Conf.Submission.AllowLate = true
	svc, db = setup(t)
	fix = seed(t, db, time.Now().UTC().Add(-time.Hour))
	if _, err = svc.Submit(ctx, fix.student, ns(fix.assignment.ID)); err != nil {
		t.Errorf("Submit() past due with late policy failed: %v", err)
	}
}

func TestService_Grade(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	fix := seed(t, db, time.Now().UTC().Add(24*time.Hour))

	sub, err := svc.Submit(ctx, fix.student, submission.NewSubmission{
		AssignmentID: fix.assignment.ID,
		Content:      "my answer",
	})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	// bounds
	for _, grade := range []int{-1, 101} {
		if _, err = svc.Grade(ctx, fix.teacher, sub.ID, submission.GradeSubmission{Grade: intPtr(grade)}); err == nil {
			t.Errorf("Grade(%d) succeeded, want validation error", grade)
		}
	}

	// only the assignment's teacher may grade
	other := testutil.CreateUser(
		t, inmemdb.NewUserRepository(db), "Other", "other@test.cd", user.RoleTeacher, "", true)
	if _, err = svc.Grade(ctx, other, sub.ID, submission.GradeSubmission{Grade: intPtr(80)}); err == nil {
		t.Error("Grade() by another teacher succeeded, want authorization error")
	} else if authzErr, ok := err.(*core.AuthorizationError); !ok || authzErr.Reason != core.NotOwner {
		t.Errorf("Grade() error = %v, want NotOwner", err)
	}

	// zero is a real grade
	graded, err := svc.Grade(ctx, fix.teacher, sub.ID, submission.GradeSubmission{Grade: intPtr(0), Feedback: "see me"})
	if err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}
	if graded.Status != submission.StatusGraded || !graded.Grade.Valid || graded.Grade.Int != 0 {
		t.Errorf("Grade(0) = %+v; want graded with grade 0", graded)
	}
	if graded.Feedback.String != "see me" || !graded.GradedAt.Valid {
		t.Errorf("Grade() = %+v; want feedback and graded timestamp set", graded)
	}

	// the student is notified
	if len(emailsvc.SentMessages) != 1 || emailsvc.SentMessages[0].Subject != "Your submission has been graded" {
		t.Errorf("sent messages = %+v, want one grade notification", emailsvc.SentMessages)
	}

	// re-grading overwrites
	regraded, err := svc.Grade(ctx, fix.teacher, sub.ID, submission.GradeSubmission{Grade: intPtr(100)})
	if err != nil {
		t.Fatalf("Grade() twice failed: %v", err)
	}
	if regraded.Grade.Int != 100 {
		t.Errorf("re-grade = %d, want 100", regraded.Grade.Int)
	}

	// grading locks the submission against further submits
	_, err = svc.Submit(ctx, fix.student, submission.NewSubmission{
		AssignmentID: fix.assignment.ID,
		Content:      "second try",
	})
	conflictErr, ok := err.(*core.ConflictError)
	if !ok || conflictErr.Err != submission.ErrAlreadyGraded {
		t.Errorf("Submit() after grading error = %v, want ConflictError(%v)", err, submission.ErrAlreadyGraded)
	}
}

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2021, 5, 10, 12, 0, 0, 0, time.UTC)
	a := assignment.Assignment{DueDate: now.Add(time.Hour)}

	if got := submission.DeriveStatus(a, nil, now); got != submission.DisplayPending {
		t.Errorf("DeriveStatus() = %q, want %q", got, submission.DisplayPending)
	}
	if got := submission.DeriveStatus(a, nil, now.Add(2*time.Hour)); got != submission.DisplayOverdue {
		t.Errorf("DeriveStatus() = %q, want %q", got, submission.DisplayOverdue)
	}
	sub := &submission.Submission{Status: submission.StatusGraded}
	if got := submission.DeriveStatus(a, sub, now); got != string(submission.StatusGraded) {
		t.Errorf("DeriveStatus() = %q, want %q", got, submission.StatusGraded)
	}
}

func TestValidateArtifact(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  bool
	}{
		{"pdf ok", "essay.pdf", 1 << 20, false},
		{"zip ok", "project.ZIP", 5 << 20, false},
		{"exe rejected", "virus.exe", 1 << 10, true},
		{"no extension rejected", "README", 1 << 10, true},
		{"too large", "essay.pdf", 11 << 20, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := submission.ValidateArtifact(tt.filename, tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArtifact(%q, %d) error = %v, wantErr %v", tt.filename, tt.size, err, tt.wantErr)
			}
		})
	}
}
