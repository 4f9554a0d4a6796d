package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/dashboard"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_dashboardApi_retrieve(t *testing.T) {
	testutil.ResetDB(t, db)

	teacher := createTeacher(t, "Teach", "teach@test.cd")
	student := createStudent(t, "Stud", "stud@test.cd")
	crs := testutil.CreateCourse(t, crsRepo, teacher, "Go 101", 30)
	testutil.CreateEnrollment(t, enrRepo, student, crs)
	a := testutil.CreateAssignment(t, asgRepo, crs, teacher, "Homework 1", time.Now().UTC().Add(24*time.Hour))
	sub := testutil.CreateSubmission(t, subRepo, a, student, "answer")
	if _, err := subRepo.GradeSubmission(ctxBG, sub.ID, 70, "", time.Now().UTC()); err != nil {
		t.Fatalf("GradeSubmission() failed: %v", err)
	}

	tests := []httpTest{
		{
			name: "auth required", path: "/v1/dashboard",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "teacher stats", path: "/v1/dashboard", token: getToken(t, teacher),
			wantData: marchallObj(t, dashboard.TeacherStats{
				TotalCourses:     1,
				TotalStudents:    1,
				TotalAssignments: 1,
				PendingGrading:   0,
			}),
		},
		{
			name: "student stats", path: "/v1/dashboard", token: getToken(t, student),
			wantData: marchallObj(t, dashboard.StudentStats{
				EnrolledCourses:      1,
				PendingAssignments:   0,
				CompletedAssignments: 1,
				AverageGrade:         70,
			}),
		},
	}
	runHTTPTests(t, tests)
}
