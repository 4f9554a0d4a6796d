package assignment

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type Assignment struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"` // UTC
	MaxPoints   int       `json:"max_points"`
	IsPublished bool      `json:"is_published"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC

	// CourseTitle is resolved on read views; never written back.
	CourseTitle string `json:"course_title,omitempty"`
}

// Info annotates an Assignment with live submission counts for the owning
// teacher's views; counts are computed from the submission store.
type Info struct {
	Assignment
	SubmissionCount int `json:"submission_count"`
	UngradedCount   int `json:"ungraded_count"`
}

// NewAssignment contains information needed to create a new Assignment.
// DueDate must be RFC 3339; the parsed value is carried in DueAt.
type NewAssignment struct {
	CourseID    string `json:"course_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	DueDate     string `json:"due_date" validate:"required"`
	MaxPoints   int    `json:"max_points" validate:"required,min=1,max=1000"`

	DueAt time.Time `json:"-"`
}

var errBadDueDate = errors.New("due date must be a valid RFC 3339 timestamp")

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.DueDate = core.CleanString(na.DueDate)

	if err := core.Validate.Struct(na); err != nil {
		return err
	}

	due, err := time.Parse(time.RFC3339, na.DueDate)
	if err != nil {
		return core.NewValidationError(errBadDueDate, core.FieldError{Field: "due_date", Error: errBadDueDate.Error()})
	}
	na.DueAt = due.UTC()
	return nil
}
