package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "ats-workers/internal/common/errors"
	"ats-workers/internal/common/logger"
	"ats-workers/internal/models"
)

// uniqueViolation is the postgres error code raised by the
// (job_id, lower(email)) unique index on candidates.
const uniqueViolation = "23505"

// CandidateDetail is a candidate joined with the job and company the
// notification templates need.
type CandidateDetail struct {
	Candidate models.Candidate
	Job       models.Job
	Company   models.Company
}

type CandidateRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewCandidateRepository(db *sql.DB, log logger.Logger) *CandidateRepository {
	return &CandidateRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "candidate-repository"}),
	}
}

// ExistsByJobAndEmail is the cheap duplicate pre-check. The unique index is
// still the authority; a concurrent insert can pass this check and fail at
// CreateWithAnswers.
func (r *CandidateRepository) ExistsByJobAndEmail(ctx context.Context, jobID, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM candidates WHERE job_id = $1 AND lower(email) = lower($2))`,
		jobID, email,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.NewDatabaseFailureError(fmt.Errorf("duplicate pre-check: %w", err))
	}
	return exists, nil
}

// CreateWithAnswers inserts the candidate and all screening answers in one
// transaction and returns the new candidate id. A unique-index violation
// maps to DuplicateApplication.
func (r *CandidateRepository) CreateWithAnswers(ctx context.Context, candidate *models.Candidate, answers map[string]string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", apperrors.NewDatabaseFailureError(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	candidateID := uuid.New().String()

	var analysisJSON interface{}
	if candidate.Analysis != nil {
		raw, err := json.Marshal(candidate.Analysis)
		if err != nil {
			return "", apperrors.NewDatabaseFailureError(fmt.Errorf("encode analysis: %w", err))
		}
		analysisJSON = raw
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidates (id, job_id, name, email, phone, resume_url, status, match_score, analysis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		candidateID, candidate.JobID, candidate.Name, candidate.Email, candidate.Phone,
		candidate.ResumeURL, models.CandidateStatusPending, candidate.MatchScore, analysisJSON,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return "", apperrors.NewDuplicateApplicationError(candidate.JobID, candidate.Email)
		}
		return "", apperrors.NewDatabaseFailureError(fmt.Errorf("insert candidate: %w", err))
	}

	for questionID, text := range answers {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO answers (id, candidate_id, question_id, answer_text)
			VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), candidateID, questionID, text,
		)
		if err != nil {
			return "", apperrors.NewDatabaseFailureError(fmt.Errorf("insert answer for question %s: %w", questionID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return "", apperrors.NewDatabaseFailureError(fmt.Errorf("commit candidate transaction: %w", err))
	}

	r.logger.Info("candidate created", map[string]interface{}{
		"candidateId": candidateID,
		"jobId":       candidate.JobID,
		"answers":     len(answers),
	})
	return candidateID, nil
}

const detailColumns = `
	cd.id, cd.job_id, cd.name, cd.email, COALESCE(cd.phone, ''), cd.resume_url,
	cd.status, cd.rejection_reason, cd.match_score, cd.analysis, cd.applied_at,
	j.id, j.company_id, j.title, j.description, j.status, j.form_token, j.hr_email, j.created_at,
	c.id, c.name, c.email, COALESCE(c.logo_url, '')`

// FindDetail loads one candidate with job and company, scoped to the caller's
// company. A candidate under another company is NotFound, not Forbidden.
func (r *CandidateRepository) FindDetail(ctx context.Context, candidateID, companyID string) (*CandidateDetail, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM candidates cd
		JOIN jobs j ON j.id = cd.job_id
		JOIN companies c ON c.id = j.company_id
		WHERE cd.id = $1 AND j.company_id = $2`

	row := r.db.QueryRowContext(ctx, query, candidateID, companyID)
	detail, err := scanDetail(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("candidate", fmt.Sprintf("candidate %s not visible to company %s", candidateID, companyID))
	}
	if err != nil {
		return nil, apperrors.NewDatabaseFailureError(fmt.Errorf("load candidate detail: %w", err))
	}
	return detail, nil
}

// FindDetails loads the candidates from ids that are visible to the company.
// Unknown and out-of-scope ids are silently absent from the result.
func (r *CandidateRepository) FindDetails(ctx context.Context, candidateIDs []string, companyID string) ([]*CandidateDetail, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM candidates cd
		JOIN jobs j ON j.id = cd.job_id
		JOIN companies c ON c.id = j.company_id
		WHERE cd.id = ANY($1) AND j.company_id = $2`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(candidateIDs), companyID)
	if err != nil {
		return nil, apperrors.NewDatabaseFailureError(fmt.Errorf("load candidate details: %w", err))
	}
	defer rows.Close()

	var details []*CandidateDetail
	for rows.Next() {
		detail, err := scanDetail(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseFailureError(fmt.Errorf("scan candidate detail: %w", err))
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseFailureError(fmt.Errorf("iterate candidate details: %w", err))
	}
	return details, nil
}

// UpdateStatus transitions every in-scope candidate in ids to status and
// returns the number of rows touched. The rejection reason is stored only
// for REJECTED and overwritten with NULL otherwise. The scope join means
// ids belonging to other companies simply do not match.
func (r *CandidateRepository) UpdateStatus(ctx context.Context, candidateIDs []string, status string, reason *string, companyID string) (int64, error) {
	var storedReason interface{}
	if status == models.CandidateStatusRejected && reason != nil {
		storedReason = *reason
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE candidates cd
		SET status = $1, rejection_reason = $2
		FROM jobs j
		WHERE j.id = cd.job_id
		  AND j.company_id = $3
		  AND cd.id = ANY($4)`,
		status, storedReason, companyID, pq.Array(candidateIDs),
	)
	if err != nil {
		return 0, apperrors.NewDatabaseFailureError(fmt.Errorf("update candidate status: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewDatabaseFailureError(fmt.Errorf("count updated candidates: %w", err))
	}

	r.logger.Info("candidate status updated", map[string]interface{}{
		"requested": len(candidateIDs),
		"affected":  affected,
		"status":    status,
	})
	return affected, nil
}

// InsertRecording appends an interview recording row. Recordings are
// append-only; there is no update path.
func (r *CandidateRepository) InsertRecording(ctx context.Context, rec *models.InterviewRecording) (string, error) {
	recordingID := uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO interview_recordings (id, candidate_id, audio_url, transcript, draft_reply, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		recordingID, rec.CandidateID, rec.AudioURL, rec.Transcript, rec.DraftReply, rec.RecordedBy,
	)
	if err != nil {
		return "", apperrors.NewDatabaseFailureError(fmt.Errorf("insert interview recording: %w", err))
	}
	return recordingID, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDetail(row rowScanner) (*CandidateDetail, error) {
	var d CandidateDetail
	var phone string
	var analysisRaw []byte

	err := row.Scan(
		&d.Candidate.ID, &d.Candidate.JobID, &d.Candidate.Name, &d.Candidate.Email,
		&phone, &d.Candidate.ResumeURL, &d.Candidate.Status, &d.Candidate.RejectionReason,
		&d.Candidate.MatchScore, &analysisRaw, &d.Candidate.AppliedAt,
		&d.Job.ID, &d.Job.CompanyID, &d.Job.Title, &d.Job.Description, &d.Job.Status,
		&d.Job.FormToken, &d.Job.HREmail, &d.Job.CreatedAt,
		&d.Company.ID, &d.Company.Name, &d.Company.Email, &d.Company.LogoURL,
	)
	if err != nil {
		return nil, err
	}

	d.Candidate.Phone = phone
	if len(analysisRaw) > 0 {
		var analysis models.AIAnalysis
		if err := json.Unmarshal(analysisRaw, &analysis); err == nil {
			d.Candidate.Analysis = &analysis
		}
	}
	return &d, nil
}
