package course

import (
	"time"

	"github.com/trezcool/darasa/core"
)

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    string    `json:"duration"`
	MaxStudents int       `json:"max_students"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC

	// TeacherName is resolved on read views; never written back.
	TeacherName string `json:"teacher_name,omitempty"`
}

// Info annotates a Course with its live active-enrollment count. The count is
// always computed from the enrollment store, never persisted.
type Info struct {
	Course
	EnrolledCount int `json:"enrolled_count"`
}

func (i Info) SeatsLeft() int {
	if left := i.MaxStudents - i.EnrolledCount; left > 0 {
		return left
	}
	return 0
}

func (i Info) IsFull() bool { return i.EnrolledCount >= i.MaxStudents }

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Duration    string `json:"duration" validate:"required"`
	MaxStudents int    `json:"max_students" validate:"required,min=1,max=100"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Duration = core.CleanString(nc.Duration)
	return core.Validate.Struct(nc)
}
