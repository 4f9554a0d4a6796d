package access

import (
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

func TestAuthorize(t *testing.T) {
	teacher := user.User{ID: "t1", Role: user.RoleTeacher, EmailVerified: true}
	student := user.User{ID: "s1", Role: user.RoleStudent, EmailVerified: true}
	unverified := user.User{ID: "s2", Role: user.RoleStudent}

	tests := []struct {
		name       string
		caller     user.User
		op         Operation
		target     Target
		wantReason core.AuthzReason
		wantOK     bool
	}{
		{name: "anonymous caller", caller: user.User{}, op: ListOpenCourses, wantReason: core.Unauthenticated},
		{name: "unverified cannot mutate", caller: unverified, op: Enroll, wantReason: core.UnverifiedIdentity},
		{name: "unverified can read", caller: unverified, op: ListOpenCourses, wantOK: true},
		{name: "student cannot create course", caller: student, op: CreateCourse, wantReason: core.RoleMismatch},
		{name: "teacher cannot enroll", caller: teacher, op: Enroll, wantReason: core.RoleMismatch},
		{name: "teacher creates course", caller: teacher, op: CreateCourse, wantOK: true},
		{name: "teacher owns resource", caller: teacher, op: GradeSubmission, target: Target{OwnerID: "t1"}, wantOK: true},
		{name: "teacher does not own resource", caller: teacher, op: GradeSubmission, target: Target{OwnerID: "t2"}, wantReason: core.NotOwner},
		{name: "student owns record", caller: student, op: DropEnrollment, target: Target{SubjectID: "s1"}, wantOK: true},
		{name: "student does not own record", caller: student, op: DropEnrollment, target: Target{SubjectID: "s9"}, wantReason: core.NotOwner},
		{name: "any role lists own submissions", caller: student, op: ListSubmissions, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.caller, tt.op, tt.target)
			if tt.wantOK {
				if err != nil {
					t.Errorf("Authorize() error = %v, want nil", err)
				}
				return
			}
			authzErr, ok := err.(*core.AuthorizationError)
			if !ok {
				t.Fatalf("Authorize() error = %v, want *core.AuthorizationError", err)
			}
			if authzErr.Reason != tt.wantReason {
				t.Errorf("Authorize() reason = %v, want %v", authzErr.Reason, tt.wantReason)
			}
		})
	}
}

// rule order: authentication outranks verification outranks role outranks ownership
func TestAuthorizeRuleOrder(t *testing.T) {
	unverifiedTeacher := user.User{ID: "t1", Role: user.RoleTeacher}

	// wrong role AND unverified: verification is reported first
	err := Authorize(unverifiedTeacher, Enroll, Target{SubjectID: "s1"})
	authzErr, ok := err.(*core.AuthorizationError)
	if !ok {
		t.Fatalf("Authorize() error = %v, want *core.AuthorizationError", err)
	}
	if authzErr.Reason != core.UnverifiedIdentity {
		t.Errorf("Authorize() reason = %v, want %v", authzErr.Reason, core.UnverifiedIdentity)
	}
}
