package notify

// ==========================================================================
// Notification dispatcher tests
// ==========================================================================

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-workers/internal/common/logger"
	"ats-workers/internal/models"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{}, nil
}

func newDispatcher(mockSES *MockSESService, enabled bool, t *testing.T) *SESDispatcher {
	return NewSESDispatcher(mockSES, Config{
		Enabled:     enabled,
		FromEmail:   "hiring@example.com",
		SendTimeout: 5 * time.Second,
	}, nil, logger.NewTestLogger(t))
}

func testFixtures() (*models.Candidate, *models.Job, *models.Company) {
	candidate := &models.Candidate{
		ID:    "cand-1",
		Name:  "Amara Singh",
		Email: "amara@example.com",
	}
	job := &models.Job{
		ID:      "job-1",
		Title:   "Platform Engineer",
		HREmail: "hr@acme.example.com",
	}
	company := &models.Company{
		Name:  "Acme",
		Email: "talent@acme.example.com",
	}
	return candidate, job, company
}

func TestSendApplicationReceived(t *testing.T) {
	mockSES := &MockSESService{}
	d := newDispatcher(mockSES, true, t)
	candidate, job, company := testFixtures()

	err := d.SendApplicationReceived(context.Background(), candidate, job, company)
	require.NoError(t, err)

	require.Len(t, mockSES.calls, 1)
	input := mockSES.calls[0]
	assert.Equal(t, "hiring@example.com", *input.Source)
	assert.Equal(t, []string{"amara@example.com"}, input.Destination.ToAddresses)
	assert.Empty(t, input.Destination.CcAddresses)
	assert.Equal(t, "Application Received - Platform Engineer", *input.Message.Subject.Data)

	html := *input.Message.Body.Html.Data
	assert.Contains(t, html, "Amara Singh")
	assert.Contains(t, html, "Platform Engineer")
	assert.Contains(t, html, "Acme")
}

func TestSendStatusUpdate_Approved_CCsHRAndCompany(t *testing.T) {
	mockSES := &MockSESService{}
	d := newDispatcher(mockSES, true, t)
	candidate, job, company := testFixtures()

	err := d.SendStatusUpdate(context.Background(), candidate, job, company, models.CandidateStatusApproved)
	require.NoError(t, err)

	require.Len(t, mockSES.calls, 1)
	input := mockSES.calls[0]
	assert.Equal(t, []string{"hr@acme.example.com", "talent@acme.example.com"}, input.Destination.CcAddresses)
	assert.Equal(t, "Application Update - Platform Engineer", *input.Message.Subject.Data)
	assert.Contains(t, *input.Message.Body.Html.Data, "Great News!")
}

func TestSendStatusUpdate_Rejected(t *testing.T) {
	mockSES := &MockSESService{}
	d := newDispatcher(mockSES, true, t)
	candidate, job, company := testFixtures()

	err := d.SendStatusUpdate(context.Background(), candidate, job, company, models.CandidateStatusRejected)
	require.NoError(t, err)

	html := *mockSES.calls[0].Message.Body.Html.Data
	assert.Contains(t, html, "Application Update")
	assert.Contains(t, html, "move forward with other candidates")
	assert.NotContains(t, html, "Great News!")
}

func TestSendStatusUpdate_SkipsBlankCC(t *testing.T) {
	mockSES := &MockSESService{}
	d := newDispatcher(mockSES, true, t)
	candidate, job, company := testFixtures()
	job.HREmail = ""

	err := d.SendStatusUpdate(context.Background(), candidate, job, company, models.CandidateStatusApproved)
	require.NoError(t, err)

	assert.Equal(t, []string{"talent@acme.example.com"}, mockSES.calls[0].Destination.CcAddresses)
}

func TestSendCustom(t *testing.T) {
	mockSES := &MockSESService{}
	d := newDispatcher(mockSES, true, t)
	_, _, company := testFixtures()

	err := d.SendCustom(context.Background(),
		"amara@example.com",
		[]string{"hr@acme.example.com"},
		"Interview Feedback - Platform Engineer",
		"Thank you for your time.\nWe enjoyed our conversation.",
		company,
	)
	require.NoError(t, err)

	input := mockSES.calls[0]
	assert.Equal(t, "Interview Feedback - Platform Engineer", *input.Message.Subject.Data)

	html := *input.Message.Body.Html.Data
	assert.Contains(t, html, "<p>Thank you for your time.</p>")
	assert.Contains(t, html, "<p>We enjoyed our conversation.</p>")
	assert.Contains(t, html, "Acme")
}

func TestSend_EscapesHTMLInCandidateFields(t *testing.T) {
	mockSES := &MockSESService{}
	d := newDispatcher(mockSES, true, t)
	candidate, job, company := testFixtures()
	candidate.Name = `<script>alert("x")</script>`

	err := d.SendApplicationReceived(context.Background(), candidate, job, company)
	require.NoError(t, err)

	html := *mockSES.calls[0].Message.Body.Html.Data
	assert.NotContains(t, html, "<script>")
}

func TestSend_Disabled(t *testing.T) {
	mockSES := &MockSESService{}
	d := newDispatcher(mockSES, false, t)
	candidate, job, company := testFixtures()

	err := d.SendApplicationReceived(context.Background(), candidate, job, company)
	require.NoError(t, err)
	assert.Empty(t, mockSES.calls)
}

func TestSend_SESFailure(t *testing.T) {
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("MessageRejected")
		},
	}
	d := newDispatcher(mockSES, true, t)
	candidate, job, company := testFixtures()

	err := d.SendApplicationReceived(context.Background(), candidate, job, company)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MessageRejected")
	assert.Contains(t, err.Error(), "amara@example.com")
}
