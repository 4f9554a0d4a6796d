// Package testutil provides in-memory fixtures shared by the test suites.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func OpenDB(t *testing.T) *inmemdb.DB {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	return db
}

func ResetDB(t *testing.T, db *inmemdb.DB) {
	t.Helper()
	db.Reset()
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email string,
	role user.Role,
	pwd string,
	verified bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:          name,
		Email:         email,
		Role:          role,
		EmailVerified: verified,
		IsActive:      true,
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	teacher user.User,
	title string,
	maxStudents int,
	createdAt ...time.Time,
) course.Course {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Title:       title,
		Description: title + " description",
		Duration:    "8 weeks",
		MaxStudents: maxStudents,
		IsActive:    true,
		CreatedBy:   teacher.ID,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateEnrollment(
	t *testing.T,
	repo enrollment.Repository,
	student user.User,
	crs course.Course,
) enrollment.Enrollment {
	t.Helper()

	enr, err := repo.CreateEnrollment(context.Background(), enrollment.Enrollment{
		StudentID:  student.ID,
		CourseID:   crs.ID,
		Status:     enrollment.StatusActive,
		EnrolledAt: time.Now().UTC(),
	}, crs.MaxStudents)
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}
	return enr
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	crs course.Course,
	teacher user.User,
	title string,
	due time.Time,
	createdAt ...time.Time,
) assignment.Assignment {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	a, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		CourseID:    crs.ID,
		Title:       title,
		Description: title + " description",
		DueDate:     due.UTC(),
		MaxPoints:   100,
		IsPublished: true,
		CreatedBy:   teacher.ID,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}

func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	a assignment.Assignment,
	student user.User,
	content string,
) submission.Submission {
	t.Helper()

	sub, err := repo.UpsertSubmission(context.Background(), submission.Submission{
		AssignmentID: a.ID,
		StudentID:    student.ID,
		Content:      null.NewString(content, content != ""),
		Status:       submission.StatusSubmitted,
		SubmittedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}
