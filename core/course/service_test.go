package course_test

import (
	"context"
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

func setup(t *testing.T) (*course.Service, *inmemdb.DB) {
	db := testutil.OpenDB(t)
	return course.NewService(inmemdb.NewCourseRepository(db)), db
}

func TestService_Create(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, inmemdb.NewUserRepository(db), "Teach", "teach@test.cd", user.RoleTeacher, "", true)
	student := testutil.CreateUser(t, inmemdb.NewUserRepository(db), "Stud", "stud@test.cd", user.RoleStudent, "", true)

	nc := course.NewCourse{Title: "Go 101", Description: "Intro", Duration: "8 weeks", MaxStudents: 30}

	crs, err := svc.Create(ctx, teacher, nc)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if crs.ID == "" || !crs.IsActive || crs.CreatedBy != teacher.ID {
		t.Errorf("Create() = %+v; want active course owned by teacher", crs)
	}

	// students may not create courses
	if _, err = svc.Create(ctx, student, nc); err == nil {
		t.Error("Create() by student succeeded, want authorization error")
	} else if authzErr, ok := err.(*core.AuthorizationError); !ok || authzErr.Reason != core.RoleMismatch {
		t.Errorf("Create() error = %v, want RoleMismatch", err)
	}

	// capacity bounds
	for _, max := range []int{0, 101} {
		bad := nc
		bad.MaxStudents = max
		if _, err = svc.Create(ctx, teacher, bad); err == nil {
			t.Errorf("Create() with max_students=%d succeeded, want validation error", max)
		}
	}
}

func TestService_Deactivate(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)

	owner := testutil.CreateUser(t, usrRepo, "Owner", "owner@test.cd", user.RoleTeacher, "", true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", user.RoleTeacher, "", true)
	crs := testutil.CreateCourse(t, crsRepo, owner, "Go 101", 30)

	// only the owning teacher may deactivate
	if _, err := svc.Deactivate(ctx, other, crs.ID); err == nil {
		t.Error("Deactivate() by non-owner succeeded, want authorization error")
	} else if authzErr, ok := err.(*core.AuthorizationError); !ok || authzErr.Reason != core.NotOwner {
		t.Errorf("Deactivate() error = %v, want NotOwner", err)
	}

	got, err := svc.Deactivate(ctx, owner, crs.ID)
	if err != nil {
		t.Fatalf("Deactivate() failed: %v", err)
	}
	if got.IsActive {
		t.Error("Deactivate() left course active")
	}

	// deactivated courses drop out of both listings
	teacherCourses, err := svc.QueryForTeacher(ctx, owner)
	if err != nil {
		t.Fatalf("QueryForTeacher() failed: %v", err)
	}
	if len(teacherCourses) != 0 {
		t.Errorf("QueryForTeacher() = %d courses, want 0", len(teacherCourses))
	}

	if _, err = svc.Deactivate(ctx, owner, "03a0d5a5-bc34-44b9-b6b8-b9a1ad1076cc"); err != course.ErrNotFound {
		t.Errorf("Deactivate() error = %v, want %v", err, course.ErrNotFound)
	}
}

func TestService_QueryOpen(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	enrRepo := inmemdb.NewEnrollmentRepository(db)

	teacher := testutil.CreateUser(t, usrRepo, "Teach", "teach@test.cd", user.RoleTeacher, "", true)
	student := testutil.CreateUser(t, usrRepo, "Stud", "stud@test.cd", user.RoleStudent, "", true)

	open := testutil.CreateCourse(t, crsRepo, teacher, "Open", 30)
	enrolled := testutil.CreateCourse(t, crsRepo, teacher, "Enrolled", 30)
	testutil.CreateEnrollment(t, enrRepo, student, enrolled)

	inactive := testutil.CreateCourse(t, crsRepo, teacher, "Inactive", 30)
	if _, err := svc.Deactivate(ctx, teacher, inactive.ID); err != nil {
		t.Fatalf("Deactivate() failed: %v", err)
	}

	infos, err := svc.QueryOpen(ctx, student)
	if err != nil {
		t.Fatalf("QueryOpen() failed: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != open.ID {
		t.Fatalf("QueryOpen() = %+v, want only %q", infos, open.Title)
	}
	if infos[0].EnrolledCount != 0 || infos[0].SeatsLeft() != 30 {
		t.Errorf("QueryOpen() counts = %d/%d seats left, want 0/30", infos[0].EnrolledCount, infos[0].SeatsLeft())
	}
}
