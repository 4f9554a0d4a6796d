// Package access gates every workflow operation against the caller's role,
// verification state and ownership relations. Authorize is a pure decision
// function; it never touches storage.
package access

import (
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// Operation describes a workflow operation being authorized.
type Operation struct {
	Name string
	// Role scopes the operation to a single role; empty allows any.
	Role user.Role
	// Mutating operations require a verified email address.
	Mutating bool
}

var (
	CreateCourse     = Operation{Name: "course:create", Role: user.RoleTeacher, Mutating: true}
	DeactivateCourse = Operation{Name: "course:deactivate", Role: user.RoleTeacher, Mutating: true}
	ListOwnCourses   = Operation{Name: "course:list", Role: user.RoleTeacher}
	ListOpenCourses  = Operation{Name: "course:browse", Role: user.RoleStudent}

	Enroll             = Operation{Name: "enrollment:enroll", Role: user.RoleStudent, Mutating: true}
	DropEnrollment     = Operation{Name: "enrollment:drop", Role: user.RoleStudent, Mutating: true}
	CompleteEnrollment = Operation{Name: "enrollment:complete", Role: user.RoleStudent, Mutating: true}
	ListEnrollments    = Operation{Name: "enrollment:list", Role: user.RoleStudent}

	CreateAssignment   = Operation{Name: "assignment:create", Role: user.RoleTeacher, Mutating: true}
	ListOwnAssignments = Operation{Name: "assignment:list", Role: user.RoleTeacher}
	ListCourseWork     = Operation{Name: "assignment:coursework", Role: user.RoleStudent}

	SubmitAssignment = Operation{Name: "submission:submit", Role: user.RoleStudent, Mutating: true}
	GradeSubmission  = Operation{Name: "submission:grade", Role: user.RoleTeacher, Mutating: true}
	ListSubmissions  = Operation{Name: "submission:list"}

	TeacherDashboard = Operation{Name: "dashboard:teacher", Role: user.RoleTeacher}
	StudentDashboard = Operation{Name: "dashboard:student", Role: user.RoleStudent}

	ListUsers = Operation{Name: "user:list", Role: user.RoleTeacher}
)

// Target is the resource an Operation acts on. OwnerID is the teacher who
// owns the resource; SubjectID is the student the record belongs to.
// A zero Target means the operation targets no owned resource.
type Target struct {
	OwnerID   string
	SubjectID string
}

func (t Target) owned() bool { return t.OwnerID != "" || t.SubjectID != "" }

// Authorize evaluates the access rules in order and returns the first violation
// as a core.AuthorizationError, or nil when the operation is allowed.
func Authorize(caller user.User, op Operation, target Target) error {
	if caller.ID == "" {
		return core.NewAuthorizationError(core.Unauthenticated)
	}
	if op.Mutating && !caller.EmailVerified {
		return core.NewAuthorizationError(core.UnverifiedIdentity)
	}
	if op.Role != "" && caller.Role != op.Role {
		return core.NewAuthorizationError(core.RoleMismatch)
	}
	if target.owned() {
		switch caller.Role {
		case user.RoleTeacher:
			if caller.ID != target.OwnerID {
				return core.NewAuthorizationError(core.NotOwner)
			}
		case user.RoleStudent:
			if caller.ID != target.SubjectID {
				return core.NewAuthorizationError(core.NotOwner)
			}
		}
	}
	return nil
}
