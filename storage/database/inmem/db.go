// Package inmemdb backs the repositories with in-process maps for tests and
// local development. A single lock guards all tables so multi-table checks
// (seat capacity, submit vs grade) are as atomic as their SQL counterparts.
package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users       map[string]*user.User
	courses     map[string]*course.Course
	enrollments map[string]*enrollment.Enrollment
	assignments map[string]*assignment.Assignment
	submissions map[string]*submission.Submission
}

// Reset drops all records; used to isolate tests sharing a DB.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.users = make(map[string]*user.User)
	db.courses = make(map[string]*course.Course)
	db.enrollments = make(map[string]*enrollment.Enrollment)
	db.assignments = make(map[string]*assignment.Assignment)
	db.submissions = make(map[string]*submission.Submission)
}

func Open() (*DB, error) {
	db := &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[string]*course.Course),
		enrollments: make(map[string]*enrollment.Enrollment),
		assignments: make(map[string]*assignment.Assignment),
		submissions: make(map[string]*submission.Submission),
	}
	return db, nil
}
