// Package intake orchestrates application submission: validate the job and
// applicant, upload the résumé, enrich with extracted text and a match
// assessment, persist candidate plus answers in one transaction, then send
// a confirmation email. Enrichment and the email are best-effort; their
// failures are logged and never surface to the applicant.
package intake

import (
	"context"
	"strings"
	"time"

	apperrors "ats-workers/internal/common/errors"
	"ats-workers/internal/common/logger"
	"ats-workers/internal/common/observability"
	"ats-workers/internal/extract"
	"ats-workers/internal/models"
	"ats-workers/internal/notify"
	"ats-workers/internal/repository"
	"ats-workers/internal/scoring"
	"ats-workers/internal/storage"
)

// Document is an uploaded file as received from the transport layer.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

// CandidateStore is the slice of the candidate repository the pipeline uses.
type CandidateStore interface {
	ExistsByJobAndEmail(ctx context.Context, jobID, email string) (bool, error)
	CreateWithAnswers(ctx context.Context, candidate *models.Candidate, answers map[string]string) (string, error)
}

type Config struct {
	ExtractionTimeout time.Duration
	ScoringTimeout    time.Duration
}

type Pipeline struct {
	forms      repository.FormSource
	candidates CandidateStore
	documents  storage.Store
	scorer     scoring.Engine
	dispatcher notify.Dispatcher
	metrics    *observability.Observability
	config     Config
	logger     logger.Logger

	// extractText is swappable in tests.
	extractText func(content []byte) (string, error)
}

func NewPipeline(
	forms repository.FormSource,
	candidates CandidateStore,
	documents storage.Store,
	scorer scoring.Engine,
	dispatcher notify.Dispatcher,
	metrics *observability.Observability,
	config Config,
	log logger.Logger,
) *Pipeline {
	if config.ExtractionTimeout <= 0 {
		config.ExtractionTimeout = 10 * time.Second
	}
	if config.ScoringTimeout <= 0 {
		config.ScoringTimeout = 30 * time.Second
	}
	return &Pipeline{
		forms:       forms,
		candidates:  candidates,
		documents:   documents,
		scorer:      scorer,
		dispatcher:  dispatcher,
		metrics:     metrics,
		config:      config,
		logger:      log.WithFields(map[string]interface{}{"component": "intake"}),
		extractText: extract.Text,
	}
}

// enrichment carries the optional scoring result. Both fields stay nil when
// extraction or scoring failed or was skipped.
type enrichment struct {
	MatchScore *int
	Analysis   *models.AIAnalysis
}

// SubmitApplication runs the full intake sequence and returns the new
// candidate id. Validation and upload failures surface to the caller;
// everything after the upload succeeds can only fail on the transactional
// write itself.
func (p *Pipeline) SubmitApplication(ctx context.Context, formToken string, info models.CandidateInfo, answers map[string]string, resume *Document) (string, error) {
	started := time.Now()

	candidateID, err := p.submit(ctx, formToken, info, answers, resume)

	status := outcomeLabel(err)
	p.metrics.RecordApplication(ctx, status)
	p.metrics.RecordIntakeDuration(ctx, time.Since(started), status)

	return candidateID, err
}

// outcomeLabel is the status attribute recorded on intake metrics. Errors
// outside the taxonomy still need a queryable label.
func outcomeLabel(err error) string {
	if err == nil {
		return "accepted"
	}
	if code := apperrors.CodeOf(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

func (p *Pipeline) submit(ctx context.Context, formToken string, info models.CandidateInfo, answers map[string]string, resume *Document) (string, error) {
	// Cheap validation before any storage work.
	form, err := p.forms.FormByToken(ctx, formToken)
	if err != nil {
		return "", err
	}
	if form.Job.Status != models.JobStatusActive {
		return "", apperrors.NewJobNotAcceptingError(form.Job.ID, form.Job.Status)
	}

	// Fast-path duplicate check. The unique constraint discovered at insert
	// time remains the authority under concurrent submissions.
	exists, err := p.candidates.ExistsByJobAndEmail(ctx, form.Job.ID, info.Email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperrors.NewDuplicateApplicationError(form.Job.ID, info.Email)
	}

	if resume == nil || len(resume.Content) == 0 {
		return "", apperrors.NewMissingDocumentError("resume")
	}

	resumeURL, err := p.documents.Store(ctx, resume.Content, resume.Filename, storage.CategoryResume)
	if err != nil {
		return "", apperrors.NewStorageFailureError(err)
	}

	enriched, enrichErr := p.enrich(ctx, &form.Job, resume)
	if enrichErr != nil {
		p.logger.Warn("enrichment failed, continuing without assessment", map[string]interface{}{
			"jobId": form.Job.ID,
			"error": enrichErr.Error(),
		})
		enriched = &enrichment{}
	}

	candidate := &models.Candidate{
		JobID:      form.Job.ID,
		Name:       info.Name,
		Email:      info.Email,
		Phone:      info.Phone,
		ResumeURL:  resumeURL,
		MatchScore: enriched.MatchScore,
		Analysis:   enriched.Analysis,
	}

	candidateID, err := p.candidates.CreateWithAnswers(ctx, candidate, answers)
	if err != nil {
		// The uploaded document has no owning row now; reclaim it.
		p.documents.Delete(ctx, resumeURL)
		return "", err
	}
	candidate.ID = candidateID

	if err := p.dispatcher.SendApplicationReceived(ctx, candidate, &form.Job, &form.Company); err != nil {
		p.logger.Warn("confirmation email failed, submission already recorded", map[string]interface{}{
			"candidateId": candidateID,
			"error":       err.Error(),
		})
	}

	p.logger.Info("application submitted", map[string]interface{}{
		"candidateId": candidateID,
		"jobId":       form.Job.ID,
		"scored":      enriched.MatchScore != nil,
	})
	return candidateID, nil
}

// enrich extracts résumé text and scores it against the job description.
// The returned error is consumed by the caller for logging only; the
// submission never fails on it. A non-PDF upload or an empty extraction
// result is a skip, not an error.
func (p *Pipeline) enrich(ctx context.Context, job *models.Job, resume *Document) (*enrichment, error) {
	if !extract.IsPDF(resume.Content) {
		p.logger.Debug("resume is not a PDF, skipping enrichment", map[string]interface{}{
			"jobId":       job.ID,
			"contentType": resume.ContentType,
		})
		return &enrichment{}, nil
	}

	extractCtx, cancel := context.WithTimeout(ctx, p.config.ExtractionTimeout)
	defer cancel()

	text, err := p.extractWithContext(extractCtx, resume.Content)
	if err != nil {
		return nil, err
	}
	if text == "" {
		// Scanned or image-only document. Nothing to score.
		return &enrichment{}, nil
	}

	scoreCtx, cancel := context.WithTimeout(ctx, p.config.ScoringTimeout)
	defer cancel()

	assessment, err := p.scorer.Score(scoreCtx, job.Description, text)
	if err != nil {
		return nil, err
	}

	score := assessment.MatchScore
	return &enrichment{
		MatchScore: &score,
		Analysis:   assessment.Analysis(),
	}, nil
}

// extractWithContext bounds the CPU-bound extraction with the context
// deadline. A result that arrives after expiry is discarded.
func (p *Pipeline) extractWithContext(ctx context.Context, content []byte) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := p.extractText(content)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
