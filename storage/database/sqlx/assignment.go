package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/assignment"
)

type assignmentRow struct {
	ID          string    `db:"id"`
	CourseID    string    `db:"course_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	DueDate     time.Time `db:"due_date"`
	MaxPoints   int       `db:"max_points"`
	IsPublished bool      `db:"is_published"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	CourseTitle     null.String `db:"course_title"`
	SubmissionCount int         `db:"submission_count"`
	UngradedCount   int         `db:"ungraded_count"`
}

func (r assignmentRow) toDomain() assignment.Assignment {
	return assignment.Assignment{
		ID:          r.ID,
		CourseID:    r.CourseID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		MaxPoints:   r.MaxPoints,
		IsPublished: r.IsPublished,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CourseTitle: r.CourseTitle.String,
	}
}

func (r assignmentRow) toInfo() assignment.Info {
	return assignment.Info{
		Assignment:      r.toDomain(),
		SubmissionCount: r.SubmissionCount,
		UngradedCount:   r.UngradedCount,
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return assignment.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = uuid.New().String()

	q := `
		INSERT INTO assignment (id, course_id, title, description, due_date, max_points, is_published, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, q,
		a.ID, a.CourseID, a.Title, a.Description, a.DueDate.UTC(), a.MaxPoints, a.IsPublished,
		a.CreatedBy, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}

	q := `
		SELECT a.*, c.title AS course_title, 0 AS submission_count, 0 AS ungraded_count
		FROM assignment a
		JOIN course c ON c.id = a.course_id
		WHERE a.id = $1`
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return assignment.Assignment{}, repo.trapNoRowsErr(err, "getting assignment")
	}
	return row.toDomain(), nil
}

func (repo assignmentRepository) QueryPublishedByCourses(ctx context.Context, courseIDs []string) ([]assignment.Assignment, error) {
	if len(courseIDs) == 0 {
		return []assignment.Assignment{}, nil
	}

	q := `
		SELECT a.*, c.title AS course_title, 0 AS submission_count, 0 AS ungraded_count
		FROM assignment a
		JOIN course c ON c.id = a.course_id
		WHERE a.course_id = ANY ($1) AND a.is_published
		ORDER BY a.due_date ASC, a.created_at ASC`
	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, pqStringArray(courseIDs)); err != nil {
		return nil, errors.Wrap(err, "querying published assignments")
	}

	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		asgs = append(asgs, r.toDomain())
	}
	return asgs, nil
}

func (repo assignmentRepository) QueryAssignmentsByTeacher(ctx context.Context, teacherID string) ([]assignment.Info, error) {
	q := `
		SELECT a.*, c.title AS course_title,
		       COUNT(s.id) FILTER (WHERE s.status IN ('submitted', 'graded')) AS submission_count,
		       COUNT(s.id) FILTER (WHERE s.status = 'submitted') AS ungraded_count
		FROM assignment a
		JOIN course c ON c.id = a.course_id
		LEFT JOIN submission s ON s.assignment_id = a.id
		WHERE a.created_by = $1
		GROUP BY a.id, c.title
		ORDER BY a.created_at DESC`
	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying teacher assignments")
	}

	infos := make([]assignment.Info, 0, len(rows))
	for _, r := range rows {
		infos = append(infos, r.toInfo())
	}
	return infos, nil
}
