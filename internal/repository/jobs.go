// Package repository is the PostgreSQL persistence layer. All candidate
// visibility goes through the job's company: callers pass the company scope
// explicitly and cross-company rows are treated as absent.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "ats-workers/internal/common/errors"
	"ats-workers/internal/common/logger"
	"ats-workers/internal/models"
)

type JobRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewJobRepository(db *sql.DB, log logger.Logger) *JobRepository {
	return &JobRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "job-repository"}),
	}
}

// FormByToken resolves the public application form for a share token: the
// job, its company card, and its questions in display order. Token lookup
// is deliberately company-agnostic; the token itself is the capability.
func (r *JobRepository) FormByToken(ctx context.Context, formToken string) (*models.ApplicationForm, error) {
	query := `
		SELECT j.id, j.company_id, j.title, j.description, j.status,
		       j.form_token, j.hr_email, j.created_at,
		       c.id, c.name, c.email, COALESCE(c.logo_url, '')
		FROM jobs j
		JOIN companies c ON c.id = j.company_id
		WHERE j.form_token = $1`

	var job models.Job
	var company models.Company
	err := r.db.QueryRowContext(ctx, query, formToken).Scan(
		&job.ID, &job.CompanyID, &job.Title, &job.Description, &job.Status,
		&job.FormToken, &job.HREmail, &job.CreatedAt,
		&company.ID, &company.Name, &company.Email, &company.LogoURL,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("job", fmt.Sprintf("no job for form token %s", formToken))
	}
	if err != nil {
		return nil, apperrors.NewDatabaseFailureError(fmt.Errorf("lookup job by form token: %w", err))
	}

	questions, err := r.questionsForJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	job.Questions = questions

	return &models.ApplicationForm{
		Job:       job,
		Company:   company,
		Questions: questions,
	}, nil
}

func (r *JobRepository) questionsForJob(ctx context.Context, jobID string) ([]models.Question, error) {
	query := `
		SELECT id, job_id, question_text, question_type, required, order_index
		FROM questions
		WHERE job_id = $1
		ORDER BY order_index ASC`

	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, apperrors.NewDatabaseFailureError(fmt.Errorf("list questions: %w", err))
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.JobID, &q.Text, &q.Type, &q.Required, &q.OrderIndex); err != nil {
			return nil, apperrors.NewDatabaseFailureError(fmt.Errorf("scan question: %w", err))
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseFailureError(fmt.Errorf("iterate questions: %w", err))
	}
	return questions, nil
}
