package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/dashboard"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

func setup(t *testing.T) (*dashboard.Service, *inmemdb.DB) {
	db := testutil.OpenDB(t)
	svc := dashboard.NewService(
		inmemdb.NewCourseRepository(db),
		inmemdb.NewEnrollmentRepository(db),
		inmemdb.NewAssignmentRepository(db),
		inmemdb.NewSubmissionRepository(db),
	)
	return svc, db
}

func TestService_TeacherStats(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	enrRepo := inmemdb.NewEnrollmentRepository(db)
	asgRepo := inmemdb.NewAssignmentRepository(db)
	subRepo := inmemdb.NewSubmissionRepository(db)

	teacher := testutil.CreateUser(t, usrRepo, "Teach", "teach@test.cd", user.RoleTeacher, "", true)
	stud1 := testutil.CreateUser(t, usrRepo, "One", "one@test.cd", user.RoleStudent, "", true)
	stud2 := testutil.CreateUser(t, usrRepo, "Two", "two@test.cd", user.RoleStudent, "", true)

	due := time.Now().UTC().Add(24 * time.Hour)
	crs1 := testutil.CreateCourse(t, crsRepo, teacher, "Go 101", 30)
	crs2 := testutil.CreateCourse(t, crsRepo, teacher, "Go 201", 30)
	testutil.CreateEnrollment(t, enrRepo, stud1, crs1)
	testutil.CreateEnrollment(t, enrRepo, stud2, crs1)
	testutil.CreateEnrollment(t, enrRepo, stud1, crs2)

	a1 := testutil.CreateAssignment(t, asgRepo, crs1, teacher, "HW 1", due)
	a2 := testutil.CreateAssignment(t, asgRepo, crs1, teacher, "HW 2", due)
	testutil.CreateAssignment(t, asgRepo, crs2, teacher, "HW 3", due)

	// one graded, two awaiting grading
	sub := testutil.CreateSubmission(t, subRepo, a1, stud1, "answer")
	if _, err := subRepo.GradeSubmission(ctx, sub.ID, 80, "", time.Now().UTC()); err != nil {
		t.Fatalf("GradeSubmission() failed: %v", err)
	}
	testutil.CreateSubmission(t, subRepo, a1, stud2, "answer")
	testutil.CreateSubmission(t, subRepo, a2, stud1, "answer")

	got, err := svc.TeacherStats(ctx, teacher)
	if err != nil {
		t.Fatalf("TeacherStats() failed: %v", err)
	}
	want := dashboard.TeacherStats{TotalCourses: 2, TotalStudents: 3, TotalAssignments: 3, PendingGrading: 2}
	if got != want {
		t.Errorf("TeacherStats() = %+v, want %+v", got, want)
	}

	// the teacher view is off limits to students
	if _, err = svc.TeacherStats(ctx, stud1); err == nil {
		t.Error("TeacherStats() by student succeeded, want authorization error")
	} else if authzErr, ok := err.(*core.AuthorizationError); !ok || authzErr.Reason != core.RoleMismatch {
		t.Errorf("TeacherStats() error = %v, want RoleMismatch", err)
	}
}

func TestService_StudentStats(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	enrRepo := inmemdb.NewEnrollmentRepository(db)
	asgRepo := inmemdb.NewAssignmentRepository(db)
	subRepo := inmemdb.NewSubmissionRepository(db)

	teacher := testutil.CreateUser(t, usrRepo, "Teach", "teach@test.cd", user.RoleTeacher, "", true)
	student := testutil.CreateUser(t, usrRepo, "Stud", "stud@test.cd", user.RoleStudent, "", true)

	due := time.Now().UTC().Add(24 * time.Hour)
	crs := testutil.CreateCourse(t, crsRepo, teacher, "Go 101", 30)
	testutil.CreateEnrollment(t, enrRepo, student, crs)

	graded0 := testutil.CreateAssignment(t, asgRepo, crs, teacher, "HW 1", due)
	graded90 := testutil.CreateAssignment(t, asgRepo, crs, teacher, "HW 2", due)
	submitted := testutil.CreateAssignment(t, asgRepo, crs, teacher, "HW 3", due)
	testutil.CreateAssignment(t, asgRepo, crs, teacher, "HW 4", due) // untouched

	sub := testutil.CreateSubmission(t, subRepo, graded0, student, "answer")
	if _, err := subRepo.GradeSubmission(ctx, sub.ID, 0, "", time.Now().UTC()); err != nil {
		t.Fatalf("GradeSubmission() failed: %v", err)
	}
	sub = testutil.CreateSubmission(t, subRepo, graded90, student, "answer")
	if _, err := subRepo.GradeSubmission(ctx, sub.ID, 90, "", time.Now().UTC()); err != nil {
		t.Fatalf("GradeSubmission() failed: %v", err)
	}
	testutil.CreateSubmission(t, subRepo, submitted, student, "answer")

	got, err := svc.StudentStats(ctx, student)
	if err != nil {
		t.Fatalf("StudentStats() failed: %v", err)
	}
	// the zero grade drags the average down: (0 + 90) / 2 = 45
	want := dashboard.StudentStats{
		EnrolledCourses:      1,
		PendingAssignments:   1,
		CompletedAssignments: 3,
		AverageGrade:         45,
	}
	if got != want {
		t.Errorf("StudentStats() = %+v, want %+v", got, want)
	}
}

func TestService_StudentStats_drafts(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	subRepo := inmemdb.NewSubmissionRepository(db)

	teacher := testutil.CreateUser(t, usrRepo, "Teach", "teach@test.cd", user.RoleTeacher, "", true)
	student := testutil.CreateUser(t, usrRepo, "Stud", "stud@test.cd", user.RoleStudent, "", true)
	crs := testutil.CreateCourse(t, crsRepo, teacher, "Go 101", 30)
	testutil.CreateEnrollment(t, inmemdb.NewEnrollmentRepository(db), student, crs)
	a := testutil.CreateAssignment(
		t, inmemdb.NewAssignmentRepository(db), crs, teacher, "HW 1", time.Now().UTC().Add(24*time.Hour))

	// a draft is saved work, not a completed submission
	if _, err := subRepo.UpsertSubmission(ctx, submission.Submission{
		AssignmentID: a.ID,
		StudentID:    student.ID,
		Status:       submission.StatusDraft,
		SubmittedAt:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("UpsertSubmission() failed: %v", err)
	}

	got, err := svc.StudentStats(ctx, student)
	if err != nil {
		t.Fatalf("StudentStats() failed: %v", err)
	}
	if got.CompletedAssignments != 0 || got.PendingAssignments != 1 {
		t.Errorf("StudentStats() = %+v; want the draft still pending", got)
	}
}
