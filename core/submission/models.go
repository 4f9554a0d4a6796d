package submission

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
)

// Status is monotonic: draft -> submitted -> graded. Once graded a submission
// never reverts.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusGraded    Status = "graded"
)

// Display statuses derived for assignments without a submission; never persisted.
const (
	DisplayPending = "pending"
	DisplayOverdue = "overdue"
)

type Submission struct {
	ID           string      `json:"id"`
	AssignmentID string      `json:"assignment_id"`
	StudentID    string      `json:"student_id"`
	Content      null.String `json:"content,omitempty"`
	FileURL      null.String `json:"file_url,omitempty"`
	// Grade is nullable and distinct from zero: a grade of 0 is a recorded
	// grade, an absent grade is not.
	Grade       null.Int    `json:"grade,omitempty"`
	Feedback    null.String `json:"feedback,omitempty"`
	Status      Status      `json:"status"`
	SubmittedAt time.Time   `json:"submitted_at"` // UTC
	GradedAt    null.Time   `json:"graded_at,omitempty"`

	// read-view joins
	StudentName     string `json:"student_name,omitempty"`
	StudentEmail    string `json:"student_email,omitempty"`
	AssignmentTitle string `json:"assignment_title,omitempty"`
	CourseTitle     string `json:"course_title,omitempty"`
}

// NewSubmission contains a student's work for an assignment. At least one of
// Content or FileURL must be provided.
type NewSubmission struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	Content      string `json:"content"`
	FileURL      string `json:"file_url"`
}

func (ns *NewSubmission) Validate() error {
	ns.Content = core.CleanString(ns.Content)
	ns.FileURL = core.CleanString(ns.FileURL)
	return core.Validate.Struct(ns)
}

// GradeSubmission carries a teacher's grading action. Grade is a pointer so
// that a grade of 0 passes `required`.
type GradeSubmission struct {
	Grade    *int   `json:"grade" validate:"required,min=0,max=100"`
	Feedback string `json:"feedback"`
}

func (gs *GradeSubmission) Validate() error {
	gs.Feedback = core.CleanString(gs.Feedback)
	return core.Validate.Struct(gs)
}

// DeriveStatus classifies an assignment for display: the stored submission
// status when one exists, otherwise pending or overdue relative to `now`.
func DeriveStatus(a assignment.Assignment, sub *Submission, now time.Time) string {
	if sub != nil {
		return string(sub.Status)
	}
	if now.After(a.DueDate) {
		return DisplayOverdue
	}
	return DisplayPending
}

// Artifact constraints, enforced before the ArtifactStore is invoked.
var (
	ErrArtifactRejected = errors.New("file type not allowed or file too large")

	maxArtifactSize    = int64(10 << 20) // 10 MiB
	allowedExtensions  = map[string]bool{".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".zip": true, ".rar": true}
	allowedExtsDisplay = "pdf, doc, docx, txt, zip, rar"
)

// ValidateArtifact checks an upload's extension and size against the artifact
// policy; violations fail before the store is ever called.
func ValidateArtifact(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return core.NewValidationError(ErrArtifactRejected, core.FieldError{
			Field: "file", Error: fmt.Sprintf("only %s files are allowed", allowedExtsDisplay),
		})
	}
	if size > maxArtifactSize {
		return core.NewValidationError(ErrArtifactRejected, core.FieldError{
			Field: "file", Error: "file may not exceed 10 MB",
		})
	}
	return nil
}
