package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/submission"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db}
}

// callers must hold at least a read lock
func (repo *submissionRepository) withJoins(sub submission.Submission) submission.Submission {
	if usr, ok := repo.db.users[sub.StudentID]; ok {
		sub.StudentName = usr.Name
		sub.StudentEmail = usr.Email
	}
	if a, ok := repo.db.assignments[sub.AssignmentID]; ok {
		sub.AssignmentTitle = a.Title
		if crs, ok := repo.db.courses[a.CourseID]; ok {
			sub.CourseTitle = crs.Title
		}
	}
	return sub
}

func (repo *submissionRepository) UpsertSubmission(_ context.Context, sub submission.Submission) (submission.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.AssignmentID != sub.AssignmentID || existing.StudentID != sub.StudentID {
			continue
		}
		if existing.Status == submission.StatusGraded {
			return submission.Submission{}, submission.ErrAlreadyGraded
		}
		existing.Content = sub.Content
		existing.FileURL = sub.FileURL
		existing.Status = sub.Status
		existing.SubmittedAt = sub.SubmittedAt
		return *existing, nil
	}

	sub.ID = uuid.New().String()
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *submissionRepository) GetSubmission(_ context.Context, id string) (submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sub, ok := repo.db.submissions[id]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	return repo.withJoins(*sub), nil
}

func (repo *submissionRepository) GetSubmissionForStudent(_ context.Context, assignmentID, studentID string) (submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return repo.withJoins(*sub), nil
		}
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) QuerySubmissionsByStudent(_ context.Context, studentID string) ([]submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]submission.Submission, 0)
	for _, sub := range repo.db.submissions {
		if sub.StudentID == studentID {
			subs = append(subs, repo.withJoins(*sub))
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *submissionRepository) QuerySubmissionsByAssignment(_ context.Context, assignmentID string) ([]submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]submission.Submission, 0)
	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID {
			subs = append(subs, repo.withJoins(*sub))
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.Before(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *submissionRepository) GradeSubmission(_ context.Context, id string, grade int, feedback string, gradedAt time.Time) (submission.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sub, ok := repo.db.submissions[id]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	if sub.Status != submission.StatusSubmitted && sub.Status != submission.StatusGraded {
		return submission.Submission{}, submission.ErrNotSubmitted
	}
	sub.Grade = null.IntFrom(grade)
	sub.Feedback = null.NewString(feedback, feedback != "")
	sub.GradedAt = null.TimeFrom(gradedAt.UTC())
	sub.Status = submission.StatusGraded
	return *sub, nil
}
