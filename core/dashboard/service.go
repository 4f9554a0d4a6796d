// Package dashboard computes derived read views by re-querying the stores.
// Nothing here is persisted; counts and averages are recomputed per request.
package dashboard

import (
	"context"
	"math"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

type (
	TeacherStats struct {
		TotalCourses     int `json:"total_courses"`
		TotalStudents    int `json:"total_students"`
		TotalAssignments int `json:"total_assignments"`
		PendingGrading   int `json:"pending_grading"`
	}

	StudentStats struct {
		EnrolledCourses      int `json:"enrolled_courses"`
		PendingAssignments   int `json:"pending_assignments"`
		CompletedAssignments int `json:"completed_assignments"`
		// AverageGrade is rounded over graded submissions only; a grade of 0
		// counts, an absent grade does not.
		AverageGrade int `json:"average_grade"`
	}

	CourseDirectory interface {
		QueryCoursesByTeacher(ctx context.Context, teacherID string) ([]course.Info, error)
	}

	EnrollmentDirectory interface {
		QueryEnrollmentsByStudent(ctx context.Context, studentID string, status enrollment.Status) ([]enrollment.Enrollment, error)
	}

	AssignmentDirectory interface {
		QueryPublishedByCourses(ctx context.Context, courseIDs []string) ([]assignment.Assignment, error)
		QueryAssignmentsByTeacher(ctx context.Context, teacherID string) ([]assignment.Info, error)
	}

	SubmissionDirectory interface {
		QuerySubmissionsByStudent(ctx context.Context, studentID string) ([]submission.Submission, error)
	}

	Service struct {
		courses     CourseDirectory
		enrollments EnrollmentDirectory
		assignments AssignmentDirectory
		submissions SubmissionDirectory
	}
)

func NewService(
	courses CourseDirectory,
	enrollments EnrollmentDirectory,
	assignments AssignmentDirectory,
	submissions SubmissionDirectory,
) *Service {
	return &Service{
		courses:     courses,
		enrollments: enrollments,
		assignments: assignments,
		submissions: submissions,
	}
}

func (svc *Service) TeacherStats(ctx context.Context, caller user.User) (TeacherStats, error) {
	if err := access.Authorize(caller, access.TeacherDashboard, access.Target{}); err != nil {
		return TeacherStats{}, err
	}

	courses, err := svc.courses.QueryCoursesByTeacher(ctx, caller.ID)
	if err != nil {
		return TeacherStats{}, err
	}
	assignments, err := svc.assignments.QueryAssignmentsByTeacher(ctx, caller.ID)
	if err != nil {
		return TeacherStats{}, err
	}

	stats := TeacherStats{
		TotalCourses:     len(courses),
		TotalAssignments: len(assignments),
	}
	for _, crs := range courses {
		stats.TotalStudents += crs.EnrolledCount
	}
	for _, a := range assignments {
		stats.PendingGrading += a.UngradedCount
	}
	return stats, nil
}

func (svc *Service) StudentStats(ctx context.Context, caller user.User) (StudentStats, error) {
	if err := access.Authorize(caller, access.StudentDashboard, access.Target{}); err != nil {
		return StudentStats{}, err
	}

	enrollments, err := svc.enrollments.QueryEnrollmentsByStudent(ctx, caller.ID, enrollment.StatusActive)
	if err != nil {
		return StudentStats{}, err
	}
	courseIDs := make([]string, 0, len(enrollments))
	for _, enr := range enrollments {
		courseIDs = append(courseIDs, enr.CourseID)
	}

	var assignments []assignment.Assignment
	if len(courseIDs) > 0 {
		if assignments, err = svc.assignments.QueryPublishedByCourses(ctx, courseIDs); err != nil {
			return StudentStats{}, err
		}
	}
	submissions, err := svc.submissions.QuerySubmissionsByStudent(ctx, caller.ID)
	if err != nil {
		return StudentStats{}, err
	}

	stats := StudentStats{EnrolledCourses: len(enrollments)}

	submitted := make(map[string]bool, len(submissions))
	var gradeSum, gradeCount int
	for _, sub := range submissions {
		if sub.Status == submission.StatusDraft {
			continue
		}
		submitted[sub.AssignmentID] = true
		stats.CompletedAssignments++
		if sub.Grade.Valid {
			gradeSum += sub.Grade.Int
			gradeCount++
		}
	}
	for _, a := range assignments {
		if !submitted[a.ID] {
			stats.PendingAssignments++
		}
	}
	if gradeCount > 0 {
		stats.AverageGrade = int(math.Round(float64(gradeSum) / float64(gradeCount)))
	}
	return stats, nil
}
