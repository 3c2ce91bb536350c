// Package workflow applies reviewer status decisions to candidates and
// fans out the resulting notifications. Persistence always completes before
// any notification attempt, and notification failures never affect the
// reported outcome of the status change.
package workflow

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "ats-workers/internal/common/errors"
	"ats-workers/internal/common/logger"
	"ats-workers/internal/common/observability"
	"ats-workers/internal/models"
	"ats-workers/internal/notify"
	"ats-workers/internal/repository"
)

// maxConcurrentNotifications bounds the bulk fan-out.
const maxConcurrentNotifications = 8

// CandidateStore is the slice of the candidate repository the workflow uses.
type CandidateStore interface {
	FindDetail(ctx context.Context, candidateID, companyID string) (*repository.CandidateDetail, error)
	FindDetails(ctx context.Context, candidateIDs []string, companyID string) ([]*repository.CandidateDetail, error)
	UpdateStatus(ctx context.Context, candidateIDs []string, status string, reason *string, companyID string) (int64, error)
}

type Config struct {
	NotifyTimeout time.Duration
}

type Service struct {
	candidates CandidateStore
	dispatcher notify.Dispatcher
	metrics    *observability.Observability
	config     Config
	logger     logger.Logger
}

func NewService(candidates CandidateStore, dispatcher notify.Dispatcher, metrics *observability.Observability, config Config, log logger.Logger) *Service {
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = 10 * time.Second
	}
	return &Service{
		candidates: candidates,
		dispatcher: dispatcher,
		metrics:    metrics,
		config:     config,
		logger:     log.WithFields(map[string]interface{}{"component": "workflow"}),
	}
}

// Any status is reachable from any other; only the target set is validated.
func validSingleTarget(status string) bool {
	switch status {
	case models.CandidateStatusPending, models.CandidateStatusApproved, models.CandidateStatusRejected:
		return true
	}
	return false
}

// Bulk never resets candidates to PENDING.
func validBulkTarget(status string) bool {
	return status == models.CandidateStatusApproved || status == models.CandidateStatusRejected
}

// SetStatus transitions one candidate and sends the status email. The
// candidate must be visible within companyID; otherwise NotFound.
func (s *Service) SetStatus(ctx context.Context, companyID, candidateID, target string, reason *string) (*models.Candidate, error) {
	if !validSingleTarget(target) {
		return nil, apperrors.NewInvalidStatusError(target)
	}

	detail, err := s.candidates.FindDetail(ctx, candidateID, companyID)
	if err != nil {
		return nil, err
	}

	affected, err := s.candidates.UpdateStatus(ctx, []string{candidateID}, target, reason, companyID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Deleted between lookup and update.
		return nil, apperrors.NewNotFoundError("candidate", "candidate disappeared during update")
	}

	candidate := detail.Candidate
	candidate.Status = target
	candidate.RejectionReason = nil
	if target == models.CandidateStatusRejected {
		candidate.RejectionReason = reason
	}

	s.metrics.RecordStatusChange(ctx, target)
	s.notifyStatus(ctx, &candidate, &detail.Job, &detail.Company, target)

	return &candidate, nil
}

// BulkSetStatus transitions every in-scope candidate in candidateIDs and
// returns the number of rows updated. Out-of-scope ids are silently excluded
// by the repository's scope join. Notifications run concurrently, each
// isolated and individually timed out.
func (s *Service) BulkSetStatus(ctx context.Context, companyID string, candidateIDs []string, target string, reason *string) (int64, error) {
	if len(candidateIDs) == 0 {
		return 0, apperrors.NewInvalidInputError("candidate ids are required")
	}
	if !validBulkTarget(target) {
		return 0, apperrors.NewInvalidStatusError(target)
	}

	// Pre-fetch the visible candidates for the notification fan-out. The
	// update below is still the authority on what changed.
	details, err := s.candidates.FindDetails(ctx, candidateIDs, companyID)
	if err != nil {
		return 0, err
	}

	affected, err := s.candidates.UpdateStatus(ctx, candidateIDs, target, reason, companyID)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordStatusChange(ctx, target)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentNotifications)
	for _, detail := range details {
		detail := detail
		g.Go(func() error {
			candidate := detail.Candidate
			candidate.Status = target
			s.notifyStatus(gctx, &candidate, &detail.Job, &detail.Company, target)
			return nil
		})
	}
	// Failures are logged per candidate inside notifyStatus.
	g.Wait()

	s.logger.Info("bulk status update applied", map[string]interface{}{
		"requested": len(candidateIDs),
		"affected":  affected,
		"target":    target,
	})
	return affected, nil
}

// notifyStatus sends the status email best-effort. PENDING has no
// candidate-facing message.
func (s *Service) notifyStatus(ctx context.Context, candidate *models.Candidate, job *models.Job, company *models.Company, target string) {
	if target == models.CandidateStatusPending {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.NotifyTimeout)
	defer cancel()

	if err := s.dispatcher.SendStatusUpdate(ctx, candidate, job, company, target); err != nil {
		s.logger.Warn("status notification failed", map[string]interface{}{
			"candidateId": candidate.ID,
			"target":      target,
			"error":       err.Error(),
		})
	}
}
