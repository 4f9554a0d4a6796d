package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
)

type courseRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Duration    string    `db:"duration"`
	MaxStudents int       `db:"max_students"`
	IsActive    bool      `db:"is_active"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	TeacherName   string `db:"teacher_name"`
	EnrolledCount int    `db:"enrolled_count"`
}

func (r courseRow) toDomain() course.Course {
	return course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Duration:    r.Duration,
		MaxStudents: r.MaxStudents,
		IsActive:    r.IsActive,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		TeacherName: r.TeacherName,
	}
}

func (r courseRow) toInfo() course.Info {
	return course.Info{Course: r.toDomain(), EnrolledCount: r.EnrolledCount}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return course.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()

	q := `
		INSERT INTO course (id, title, description, duration, max_students, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q,
		crs.ID, crs.Title, crs.Description, crs.Duration, crs.MaxStudents, crs.IsActive,
		crs.CreatedBy, crs.CreatedAt.UTC(), crs.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}

	q := `
		SELECT c.*, u.name AS teacher_name, 0 AS enrolled_count
		FROM course c
		JOIN "user" u ON u.id = c.created_by
		WHERE c.id = $1`
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "getting course")
	}
	return row.toDomain(), nil
}

func (repo courseRepository) QueryCoursesByTeacher(ctx context.Context, teacherID string) ([]course.Info, error) {
	q := `
		SELECT c.*, u.name AS teacher_name,
		       COUNT(e.id) FILTER (WHERE e.status = 'active') AS enrolled_count
		FROM course c
		JOIN "user" u ON u.id = c.created_by
		LEFT JOIN enrollment e ON e.course_id = c.id
		WHERE c.created_by = $1 AND c.is_active
		GROUP BY c.id, u.name
		ORDER BY c.created_at DESC`
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying teacher courses")
	}
	return toInfoSlice(rows), nil
}

func (repo courseRepository) QueryOpenCourses(ctx context.Context, studentID string) ([]course.Info, error) {
	q := `
		SELECT c.*, u.name AS teacher_name,
		       COUNT(e.id) FILTER (WHERE e.status = 'active') AS enrolled_count
		FROM course c
		JOIN "user" u ON u.id = c.created_by
		LEFT JOIN enrollment e ON e.course_id = c.id
		WHERE c.is_active
		  AND NOT EXISTS (
		      SELECT 1 FROM enrollment
		      WHERE course_id = c.id AND student_id = $1 AND status = 'active')
		GROUP BY c.id, u.name
		ORDER BY c.created_at DESC`
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying open courses")
	}
	return toInfoSlice(rows), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	q := `
		UPDATE course
		SET title = $2, description = $3, duration = $4, max_students = $5, is_active = $6, updated_at = $7
		WHERE id = $1
		RETURNING *, '' AS teacher_name, 0 AS enrolled_count`
	var row courseRow
	err := repo.db.GetContext(ctx, &row, q,
		crs.ID, crs.Title, crs.Description, crs.Duration, crs.MaxStudents, crs.IsActive, crs.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "updating course")
	}
	return row.toDomain(), nil
}

func toInfoSlice(rows []courseRow) []course.Info {
	infos := make([]course.Info, 0, len(rows))
	for _, r := range rows {
		infos = append(infos, r.toInfo())
	}
	return infos
}
