package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/submission"
)

type submissionRow struct {
	ID           string      `db:"id"`
	AssignmentID string      `db:"assignment_id"`
	StudentID    string      `db:"student_id"`
	Content      null.String `db:"content"`
	FileURL      null.String `db:"file_url"`
	Grade        null.Int    `db:"grade"`
	Feedback     null.String `db:"feedback"`
	Status       string      `db:"status"`
	SubmittedAt  time.Time   `db:"submitted_at"`
	GradedAt     null.Time   `db:"graded_at"`

	StudentName     null.String `db:"student_name"`
	StudentEmail    null.String `db:"student_email"`
	AssignmentTitle null.String `db:"assignment_title"`
	CourseTitle     null.String `db:"course_title"`
}

func (r submissionRow) toDomain() submission.Submission {
	return submission.Submission{
		ID:              r.ID,
		AssignmentID:    r.AssignmentID,
		StudentID:       r.StudentID,
		Content:         r.Content,
		FileURL:         r.FileURL,
		Grade:           r.Grade,
		Feedback:        r.Feedback,
		Status:          submission.Status(r.Status),
		SubmittedAt:     r.SubmittedAt,
		GradedAt:        r.GradedAt,
		StudentName:     r.StudentName.String,
		StudentEmail:    r.StudentEmail.String,
		AssignmentTitle: r.AssignmentTitle.String,
		CourseTitle:     r.CourseTitle.String,
	}
}

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func (repo submissionRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return submission.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// UpsertSubmission replaces a prior ungraded submission in the same statement
// that inserts a first one. The DO UPDATE is conditional on the row not being
// graded yet, so a grade that lands first wins and the upsert returns no row.
func (repo submissionRepository) UpsertSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	sub.ID = uuid.New().String()

	q := `
		INSERT INTO submission (id, assignment_id, student_id, content, file_url, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (assignment_id, student_id) DO UPDATE
		SET content = EXCLUDED.content, file_url = EXCLUDED.file_url,
		    status = EXCLUDED.status, submitted_at = EXCLUDED.submitted_at
		WHERE submission.status <> 'graded'
		RETURNING *, '' AS student_name, '' AS student_email, '' AS assignment_title, '' AS course_title`
	var row submissionRow
	err := repo.db.GetContext(ctx, &row, q,
		sub.ID, sub.AssignmentID, sub.StudentID, sub.Content, sub.FileURL, sub.Status, sub.SubmittedAt.UTC(),
	)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrAlreadyGraded
		}
		return submission.Submission{}, errors.Wrap(err, "upserting submission")
	}
	return row.toDomain(), nil
}

func (repo submissionRepository) GetSubmission(ctx context.Context, id string) (submission.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return submission.Submission{}, submission.ErrNotFound
	}

	q := `
		SELECT s.*, u.name AS student_name, u.email AS student_email,
		       a.title AS assignment_title, c.title AS course_title
		FROM submission s
		JOIN "user" u ON u.id = s.student_id
		JOIN assignment a ON a.id = s.assignment_id
		JOIN course c ON c.id = a.course_id
		WHERE s.id = $1`
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return submission.Submission{}, repo.trapNoRowsErr(err, "getting submission")
	}
	return row.toDomain(), nil
}

func (repo submissionRepository) GetSubmissionForStudent(ctx context.Context, assignmentID, studentID string) (submission.Submission, error) {
	q := `
		SELECT s.*, '' AS student_name, '' AS student_email,
		       a.title AS assignment_title, c.title AS course_title
		FROM submission s
		JOIN assignment a ON a.id = s.assignment_id
		JOIN course c ON c.id = a.course_id
		WHERE s.assignment_id = $1 AND s.student_id = $2`
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, q, assignmentID, studentID); err != nil {
		return submission.Submission{}, repo.trapNoRowsErr(err, "getting student submission")
	}
	return row.toDomain(), nil
}

func (repo submissionRepository) QuerySubmissionsByStudent(ctx context.Context, studentID string) ([]submission.Submission, error) {
	q := `
		SELECT s.*, '' AS student_name, '' AS student_email,
		       a.title AS assignment_title, c.title AS course_title
		FROM submission s
		JOIN assignment a ON a.id = s.assignment_id
		JOIN course c ON c.id = a.course_id
		WHERE s.student_id = $1
		ORDER BY s.submitted_at DESC`
	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student submissions")
	}
	return toSubmissionSlice(rows), nil
}

func (repo submissionRepository) QuerySubmissionsByAssignment(ctx context.Context, assignmentID string) ([]submission.Submission, error) {
	q := `
		SELECT s.*, u.name AS student_name, u.email AS student_email,
		       a.title AS assignment_title, c.title AS course_title
		FROM submission s
		JOIN "user" u ON u.id = s.student_id
		JOIN assignment a ON a.id = s.assignment_id
		JOIN course c ON c.id = a.course_id
		WHERE s.assignment_id = $1
		ORDER BY s.submitted_at ASC`
	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, q, assignmentID); err != nil {
		return nil, errors.Wrap(err, "querying assignment submissions")
	}
	return toSubmissionSlice(rows), nil
}

// GradeSubmission is conditional on the row being submitted or graded so a
// racing re-submit cannot slip between the read and the write; re-grading a
// graded row overwrites as a correction.
func (repo submissionRepository) GradeSubmission(ctx context.Context, id string, grade int, feedback string, gradedAt time.Time) (submission.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return submission.Submission{}, submission.ErrNotFound
	}

	q := `
		UPDATE submission
		SET grade = $2, feedback = $3, graded_at = $4, status = 'graded'
		WHERE id = $1 AND status IN ('submitted', 'graded')
		RETURNING *, '' AS student_name, '' AS student_email, '' AS assignment_title, '' AS course_title`
	var row submissionRow
	err := repo.db.GetContext(ctx, &row, q, id, grade, null.NewString(feedback, feedback != ""), gradedAt.UTC())
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotSubmitted
		}
		return submission.Submission{}, errors.Wrap(err, "grading submission")
	}
	return row.toDomain(), nil
}

func toSubmissionSlice(rows []submissionRow) []submission.Submission {
	subs := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toDomain())
	}
	return subs
}
