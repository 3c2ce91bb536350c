package repository

// ==========================================================================
// Candidate repository tests
// ==========================================================================

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ats-workers/internal/common/errors"
	"ats-workers/internal/common/logger"
	"ats-workers/internal/models"
)

func newCandidateRepo(t *testing.T) (*CandidateRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	repo := NewCandidateRepository(db, logger.NewTestLogger(t))
	return repo, mock, func() { db.Close() }
}

func TestExistsByJobAndEmail(t *testing.T) {
	repo, mock, cleanup := newCandidateRepo(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("job-1", "Amara@Example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByJobAndEmail(context.Background(), "job-1", "Amara@Example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateWithAnswers_CommitsCandidateAndAnswers(t *testing.T) {
	repo, mock, cleanup := newCandidateRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO candidates`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO answers`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	score := 85
	candidate := &models.Candidate{
		JobID:      "job-1",
		Name:       "Amara Singh",
		Email:      "amara@example.com",
		Phone:      "+15551234567",
		ResumeURL:  "https://bucket.s3.us-east-1.amazonaws.com/ats/cvs/amara.pdf",
		MatchScore: &score,
		Analysis: &models.AIAnalysis{
			Recommendation: models.RecommendationStrong,
			Strengths:      []string{"Go"},
		},
	}

	id, err := repo.CreateWithAnswers(context.Background(), candidate, map[string]string{
		"q-1": "5 years",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithAnswers_UniqueViolationIsDuplicate(t *testing.T) {
	repo, mock, cleanup := newCandidateRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO candidates`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "candidates_job_email_key"})
	mock.ExpectRollback()

	_, err := repo.CreateWithAnswers(context.Background(), &models.Candidate{
		JobID: "job-1",
		Name:  "Amara Singh",
		Email: "amara@example.com",
	}, nil)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDuplicateApplication, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithAnswers_AnswerFailureRollsBack(t *testing.T) {
	repo, mock, cleanup := newCandidateRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO candidates`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO answers`).
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	_, err := repo.CreateWithAnswers(context.Background(), &models.Candidate{
		JobID: "job-1", Name: "A", Email: "a@example.com",
	}, map[string]string{"q-1": "text"})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDatabaseFailure, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func detailRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "job_id", "name", "email", "phone", "resume_url",
		"status", "rejection_reason", "match_score", "analysis", "applied_at",
		"j_id", "j_company_id", "j_title", "j_description", "j_status", "j_form_token", "j_hr_email", "j_created_at",
		"c_id", "c_name", "c_email", "c_logo_url",
	}).AddRow(
		"cand-1", "job-1", "Amara Singh", "amara@example.com", "", "https://bucket/cv.pdf",
		"PENDING", nil, 85, []byte(`{"recommendation":"Strong Match","strengths":["Go"]}`), now,
		"job-1", "comp-1", "Platform Engineer", "Build things", "ACTIVE", "tok-abc", "hr@acme.example.com", now,
		"comp-1", "Acme", "talent@acme.example.com", "",
	)
}

func TestFindDetail_ScopedLookup(t *testing.T) {
	repo, mock, cleanup := newCandidateRepo(t)
	defer cleanup()

	mock.ExpectQuery(`FROM candidates cd`).
		WithArgs("cand-1", "comp-1").
		WillReturnRows(detailRows())

	detail, err := repo.FindDetail(context.Background(), "cand-1", "comp-1")
	require.NoError(t, err)

	assert.Equal(t, "Amara Singh", detail.Candidate.Name)
	require.NotNil(t, detail.Candidate.Analysis)
	assert.Equal(t, models.RecommendationStrong, detail.Candidate.Analysis.Recommendation)
	assert.Equal(t, "Platform Engineer", detail.Job.Title)
	assert.Equal(t, "Acme", detail.Company.Name)
}

func TestFindDetail_OtherCompanyIsNotFound(t *testing.T) {
	repo, mock, cleanup := newCandidateRepo(t)
	defer cleanup()

	mock.ExpectQuery(`FROM candidates cd`).
		WithArgs("cand-1", "comp-other").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindDetail(context.Background(), "cand-1", "comp-other")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestFindDetails_OutOfScopeIDsAbsent(t *testing.T) {
	repo, mock, cleanup := newCandidateRepo(t)
	defer cleanup()

	mock.ExpectQuery(`FROM candidates cd`).
		WithArgs(pq.Array([]string{"cand-1", "cand-foreign"}), "comp-1").
		WillReturnRows(detailRows())

	details, err := repo.FindDetails(context.Background(), []string{"cand-1", "cand-foreign"}, "comp-1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "cand-1", details[0].Candidate.ID)
}

func TestUpdateStatus_RejectedStoresReason(t *testing.T) {
	repo, mock, cleanup := newCandidateRepo(t)
	defer cleanup()

	reason := "Missing required certification"
	mock.ExpectExec(`UPDATE candidates cd`).
		WithArgs(models.CandidateStatusRejected, reason, "comp-1", pq.Array([]string{"cand-1"})).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.UpdateStatus(context.Background(), []string{"cand-1"}, models.CandidateStatusRejected, &reason, "comp-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestUpdateStatus_NonRejectedClearsReason(t *testing.T) {
	repo, mock, cleanup := newCandidateRepo(t)
	defer cleanup()

	// Reason provided but the target is APPROVED: the stored value must be NULL.
	reason := "should be ignored"
	mock.ExpectExec(`UPDATE candidates cd`).
		WithArgs(models.CandidateStatusApproved, nil, "comp-1", pq.Array([]string{"cand-1", "cand-2"})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.UpdateStatus(context.Background(), []string{"cand-1", "cand-2"}, models.CandidateStatusApproved, &reason, "comp-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
}

func TestUpdateStatus_ScopeJoinExcludesForeignRows(t *testing.T) {
	repo, mock, cleanup := newCandidateRepo(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE candidates cd`).
		WithArgs(models.CandidateStatusApproved, nil, "comp-1", pq.Array([]string{"cand-1", "cand-foreign"})).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.UpdateStatus(context.Background(), []string{"cand-1", "cand-foreign"}, models.CandidateStatusApproved, nil, "comp-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestInsertRecording(t *testing.T) {
	repo, mock, cleanup := newCandidateRepo(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO interview_recordings`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.InsertRecording(context.Background(), &models.InterviewRecording{
		CandidateID: "cand-1",
		AudioURL:    "https://bucket/recordings/interview.mp3",
		Transcript:  "Strong communicator.",
		DraftReply:  "Dear Amara...",
		RecordedBy:  "user-7",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
