package workflow

// ==========================================================================
// Status workflow tests
// ==========================================================================

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ats-workers/internal/common/errors"
	"ats-workers/internal/common/logger"
	"ats-workers/internal/models"
	"ats-workers/internal/repository"
)

// ---- fakes ----

type fakeCandidates struct {
	details map[string]*repository.CandidateDetail

	updateAffected int64
	updateErr      error
	updateCalls    int
	lastIDs        []string
	lastStatus     string
	lastReason     *string
}

func (f *fakeCandidates) FindDetail(ctx context.Context, candidateID, companyID string) (*repository.CandidateDetail, error) {
	d, ok := f.details[candidateID]
	if !ok || d.Job.CompanyID != companyID {
		return nil, apperrors.NewNotFoundError("candidate", "not visible")
	}
	return d, nil
}

func (f *fakeCandidates) FindDetails(ctx context.Context, candidateIDs []string, companyID string) ([]*repository.CandidateDetail, error) {
	var out []*repository.CandidateDetail
	for _, id := range candidateIDs {
		if d, ok := f.details[id]; ok && d.Job.CompanyID == companyID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeCandidates) UpdateStatus(ctx context.Context, candidateIDs []string, status string, reason *string, companyID string) (int64, error) {
	f.updateCalls++
	f.lastIDs = candidateIDs
	f.lastStatus = status
	f.lastReason = reason
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	return f.updateAffected, nil
}

type fakeDispatcher struct {
	mu          sync.Mutex
	statusSends []string
	err         error
}

func (f *fakeDispatcher) SendApplicationReceived(ctx context.Context, candidate *models.Candidate, job *models.Job, company *models.Company) error {
	return f.err
}

func (f *fakeDispatcher) SendStatusUpdate(ctx context.Context, candidate *models.Candidate, job *models.Job, company *models.Company, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusSends = append(f.statusSends, candidate.ID)
	return f.err
}

func (f *fakeDispatcher) SendCustom(ctx context.Context, to string, cc []string, subject, body string, company *models.Company) error {
	return f.err
}

func (f *fakeDispatcher) sends() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.statusSends...)
}

// ---- fixtures ----

func detail(candidateID, companyID string) *repository.CandidateDetail {
	return &repository.CandidateDetail{
		Candidate: models.Candidate{
			ID:     candidateID,
			JobID:  "job-1",
			Name:   "Alice",
			Email:  candidateID + "@x.com",
			Status: models.CandidateStatusPending,
		},
		Job:     models.Job{ID: "job-1", CompanyID: companyID, Title: "Backend Engineer", HREmail: "hr@acme.example.com"},
		Company: models.Company{ID: companyID, Name: "Acme", Email: "talent@acme.example.com"},
	}
}

func newService(t *testing.T) (*Service, *fakeCandidates, *fakeDispatcher) {
	candidates := &fakeCandidates{
		details: map[string]*repository.CandidateDetail{
			"cand-1": detail("cand-1", "comp-1"),
			"cand-2": detail("cand-2", "comp-1"),
			"cand-x": detail("cand-x", "comp-other"),
		},
		updateAffected: 1,
	}
	dispatcher := &fakeDispatcher{}
	svc := NewService(candidates, dispatcher, nil, Config{}, logger.NewTestLogger(t))
	return svc, candidates, dispatcher
}

func strptr(s string) *string { return &s }

// ---- single tests ----

func TestSetStatus_Approve(t *testing.T) {
	svc, candidates, dispatcher := newService(t)

	candidate, err := svc.SetStatus(context.Background(), "comp-1", "cand-1", models.CandidateStatusApproved, nil)
	require.NoError(t, err)

	assert.Equal(t, models.CandidateStatusApproved, candidate.Status)
	assert.Nil(t, candidate.RejectionReason)
	assert.Equal(t, []string{"cand-1"}, candidates.lastIDs)
	assert.Equal(t, []string{"cand-1"}, dispatcher.sends())
}

func TestSetStatus_RejectKeepsReason(t *testing.T) {
	svc, candidates, _ := newService(t)

	candidate, err := svc.SetStatus(context.Background(), "comp-1", "cand-1", models.CandidateStatusRejected, strptr("insufficient experience"))
	require.NoError(t, err)

	require.NotNil(t, candidate.RejectionReason)
	assert.Equal(t, "insufficient experience", *candidate.RejectionReason)
	assert.Equal(t, models.CandidateStatusRejected, candidates.lastStatus)
}

func TestSetStatus_NonRejectedClearsReason(t *testing.T) {
	svc, _, _ := newService(t)

	// A stale reason supplied with an APPROVED target must not survive.
	candidate, err := svc.SetStatus(context.Background(), "comp-1", "cand-1", models.CandidateStatusApproved, strptr("stale"))
	require.NoError(t, err)
	assert.Nil(t, candidate.RejectionReason)
}

func TestSetStatus_InvalidTargetBeforeIO(t *testing.T) {
	svc, candidates, _ := newService(t)

	_, err := svc.SetStatus(context.Background(), "comp-1", "cand-1", "HIRED", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidStatus, apperrors.CodeOf(err))
	assert.Zero(t, candidates.updateCalls)
}

func TestSetStatus_OutOfScopeIsNotFound(t *testing.T) {
	svc, candidates, _ := newService(t)

	_, err := svc.SetStatus(context.Background(), "comp-1", "cand-x", models.CandidateStatusApproved, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
	assert.Zero(t, candidates.updateCalls)
}

func TestSetStatus_BackToPendingSendsNothing(t *testing.T) {
	svc, _, dispatcher := newService(t)

	candidate, err := svc.SetStatus(context.Background(), "comp-1", "cand-1", models.CandidateStatusPending, nil)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateStatusPending, candidate.Status)
	assert.Empty(t, dispatcher.sends())
}

func TestSetStatus_NotificationFailureDoesNotFail(t *testing.T) {
	svc, _, dispatcher := newService(t)
	dispatcher.err = errors.New("ses down")

	candidate, err := svc.SetStatus(context.Background(), "comp-1", "cand-1", models.CandidateStatusApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateStatusApproved, candidate.Status)
}

func TestSetStatus_PersistFailureSendsNothing(t *testing.T) {
	svc, candidates, dispatcher := newService(t)
	candidates.updateErr = apperrors.NewDatabaseFailureError(errors.New("connection reset"))

	_, err := svc.SetStatus(context.Background(), "comp-1", "cand-1", models.CandidateStatusApproved, nil)
	require.Error(t, err)
	assert.Empty(t, dispatcher.sends())
}

// ---- bulk tests ----

func TestBulkSetStatus_PendingRejectedBeforeIO(t *testing.T) {
	svc, candidates, _ := newService(t)

	_, err := svc.BulkSetStatus(context.Background(), "comp-1", []string{"cand-1"}, models.CandidateStatusPending, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidStatus, apperrors.CodeOf(err))
	assert.Zero(t, candidates.updateCalls)
}

func TestBulkSetStatus_EmptyIDs(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.BulkSetStatus(context.Background(), "comp-1", nil, models.CandidateStatusApproved, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))
}

func TestBulkSetStatus_MixedScope(t *testing.T) {
	svc, candidates, dispatcher := newService(t)
	candidates.updateAffected = 2

	affected, err := svc.BulkSetStatus(context.Background(), "comp-1",
		[]string{"cand-1", "cand-2", "cand-x"}, models.CandidateStatusApproved, nil)
	require.NoError(t, err)

	// The repository's scope join decides the count; the out-of-scope id is
	// excluded from notifications because it was never visible.
	assert.Equal(t, int64(2), affected)
	assert.ElementsMatch(t, []string{"cand-1", "cand-2"}, dispatcher.sends())
}

func TestBulkSetStatus_OneNotificationFailureDoesNotBlockOthers(t *testing.T) {
	svc, candidates, dispatcher := newService(t)
	candidates.updateAffected = 2
	dispatcher.err = errors.New("throttled")

	affected, err := svc.BulkSetStatus(context.Background(), "comp-1",
		[]string{"cand-1", "cand-2"}, models.CandidateStatusRejected, strptr("position filled"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.Len(t, dispatcher.sends(), 2)
}

func TestBulkSetStatus_UpdateBeforeNotify(t *testing.T) {
	svc, candidates, dispatcher := newService(t)
	candidates.updateErr = apperrors.NewDatabaseFailureError(errors.New("deadlock"))

	_, err := svc.BulkSetStatus(context.Background(), "comp-1",
		[]string{"cand-1", "cand-2"}, models.CandidateStatusApproved, nil)
	require.Error(t, err)
	assert.Empty(t, dispatcher.sends())
}
