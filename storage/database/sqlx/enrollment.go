package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
)

type enrollmentRow struct {
	ID         string    `db:"id"`
	StudentID  string    `db:"student_id"`
	CourseID   string    `db:"course_id"`
	Status     string    `db:"status"`
	EnrolledAt time.Time `db:"enrolled_at"`

	StudentName  null.String `db:"student_name"`
	StudentEmail null.String `db:"student_email"`

	CourseTitle       null.String `db:"course_title"`
	CourseDescription null.String `db:"course_description"`
	CourseDuration    null.String `db:"course_duration"`
	CourseMaxStudents null.Int    `db:"course_max_students"`
	CourseIsActive    null.Bool   `db:"course_is_active"`
	CourseCreatedBy   null.String `db:"course_created_by"`
	TeacherName       null.String `db:"teacher_name"`
}

func (r enrollmentRow) toDomain() enrollment.Enrollment {
	enr := enrollment.Enrollment{
		ID:           r.ID,
		StudentID:    r.StudentID,
		CourseID:     r.CourseID,
		Status:       enrollment.Status(r.Status),
		EnrolledAt:   r.EnrolledAt,
		StudentName:  r.StudentName.String,
		StudentEmail: r.StudentEmail.String,
	}
	if r.CourseTitle.Valid {
		enr.Course = &course.Course{
			ID:          r.CourseID,
			Title:       r.CourseTitle.String,
			Description: r.CourseDescription.String,
			Duration:    r.CourseDuration.String,
			MaxStudents: r.CourseMaxStudents.Int,
			IsActive:    r.CourseIsActive.Bool,
			CreatedBy:   r.CourseCreatedBy.String,
			TeacherName: r.TeacherName.String,
		}
	}
	return enr
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo enrollmentRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return enrollment.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// CreateEnrollment re-checks capacity inside the INSERT itself so two racing
// enrolls for the last seat cannot both commit; the partial unique index on
// (student_id, course_id) WHERE status = 'active' rejects duplicates.
func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment, maxStudents int) (enrollment.Enrollment, error) {
	enr.ID = uuid.New().String()

	q := `
		INSERT INTO enrollment (id, student_id, course_id, status, enrolled_at)
		SELECT $1, $2, $3, $4, $5
		WHERE (SELECT COUNT(*) FROM enrollment WHERE course_id = $3 AND status = 'active') < $6`
	res, err := repo.db.ExecContext(ctx, q,
		enr.ID, enr.StudentID, enr.CourseID, enr.Status, enr.EnrolledAt.UTC(), maxStudents,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	if n, err := res.RowsAffected(); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	} else if n == 0 {
		return enrollment.Enrollment{}, enrollment.ErrCourseFull
	}
	return enr, nil
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, id string) (enrollment.Enrollment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}

	q := `
		SELECT e.*, s.name AS student_name, s.email AS student_email
		FROM enrollment e
		JOIN "user" s ON s.id = e.student_id
		WHERE e.id = $1`
	var row enrollmentRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return enrollment.Enrollment{}, repo.trapNoRowsErr(err, "getting enrollment")
	}
	return row.toDomain(), nil
}

func (repo enrollmentRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID string, status enrollment.Status) ([]enrollment.Enrollment, error) {
	q := `
		SELECT e.*,
		       c.title AS course_title, c.description AS course_description,
		       c.duration AS course_duration, c.max_students AS course_max_students,
		       c.is_active AS course_is_active, c.created_by AS course_created_by,
		       t.name AS teacher_name
		FROM enrollment e
		JOIN course c ON c.id = e.course_id
		JOIN "user" t ON t.id = c.created_by
		WHERE e.student_id = $1 AND ($2 = '' OR e.status = $2)
		ORDER BY e.enrolled_at DESC`
	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID, string(status)); err != nil {
		return nil, errors.Wrap(err, "querying student enrollments")
	}

	enrs := make([]enrollment.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrs = append(enrs, r.toDomain())
	}
	return enrs, nil
}

func (repo enrollmentRepository) HasActiveEnrollment(ctx context.Context, studentID, courseID string) (bool, error) {
	q := `
		SELECT EXISTS (
		    SELECT 1 FROM enrollment
		    WHERE student_id = $1 AND course_id = $2 AND status = 'active')`
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, studentID, courseID); err != nil {
		return false, errors.Wrap(err, "checking active enrollment")
	}
	return exists, nil
}

func (repo enrollmentRepository) CountActiveEnrollments(ctx context.Context, courseID string) (int, error) {
	var count int
	q := `SELECT COUNT(*) FROM enrollment WHERE course_id = $1 AND status = 'active'`
	if err := repo.db.GetContext(ctx, &count, q, courseID); err != nil {
		return 0, errors.Wrap(err, "counting active enrollments")
	}
	return count, nil
}

func (repo enrollmentRepository) UpdateEnrollmentStatus(ctx context.Context, id string, from, to enrollment.Status) (enrollment.Enrollment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}

	q := `
		UPDATE enrollment
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING *, '' AS student_name, '' AS student_email`
	var row enrollmentRow
	if err := repo.db.GetContext(ctx, &row, q, id, from, to); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotActive
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment status")
	}
	return row.toDomain(), nil
}
