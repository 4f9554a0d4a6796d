package enrollment

import (
	"time"

	"github.com/trezcool/darasa/core/course"
)

// Status transitions are one-directional: active -> completed | dropped.
// Re-enrollment after a drop is a new record.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDropped   Status = "dropped"
)

type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	Status     Status    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC

	// read-view joins
	Course       *course.Course `json:"course,omitempty"`
	StudentName  string         `json:"student_name,omitempty"`
	StudentEmail string         `json:"student_email,omitempty"`
}
