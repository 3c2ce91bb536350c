// Package notify dispatches candidate-facing email through SES. Sends are
// best-effort from the caller's point of view: a failed send is reported as
// an error value the caller records, never as a pipeline abort.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"ats-workers/internal/common/logger"
	"ats-workers/internal/common/observability"
	"ats-workers/internal/models"
)

// SESService is the slice of the SES API the dispatcher uses.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Dispatcher renders and sends transactional email for the hiring flow.
type Dispatcher interface {
	SendApplicationReceived(ctx context.Context, candidate *models.Candidate, job *models.Job, company *models.Company) error
	SendStatusUpdate(ctx context.Context, candidate *models.Candidate, job *models.Job, company *models.Company, status string) error
	SendCustom(ctx context.Context, to string, cc []string, subject, body string, company *models.Company) error
}

type Config struct {
	Enabled     bool
	FromEmail   string
	SendTimeout time.Duration
}

type SESDispatcher struct {
	sesClient SESService
	config    Config
	metrics   *observability.Observability
	logger    logger.Logger
}

func NewSESDispatcher(sesClient SESService, config Config, metrics *observability.Observability, log logger.Logger) *SESDispatcher {
	if config.SendTimeout <= 0 {
		config.SendTimeout = 10 * time.Second
	}
	return &SESDispatcher{
		sesClient: sesClient,
		config:    config,
		metrics:   metrics,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

func (d *SESDispatcher) SendApplicationReceived(ctx context.Context, candidate *models.Candidate, job *models.Job, company *models.Company) error {
	msg, err := renderApplicationReceived(candidate, job, company)
	if err != nil {
		return err
	}
	return d.send(ctx, msg, "application_received")
}

func (d *SESDispatcher) SendStatusUpdate(ctx context.Context, candidate *models.Candidate, job *models.Job, company *models.Company, status string) error {
	msg, err := renderStatusUpdate(candidate, job, company, status)
	if err != nil {
		return err
	}
	return d.send(ctx, msg, "status_update")
}

func (d *SESDispatcher) SendCustom(ctx context.Context, to string, cc []string, subject, body string, company *models.Company) error {
	msg, err := renderCustom(to, cc, subject, body, company)
	if err != nil {
		return err
	}
	return d.send(ctx, msg, "custom")
}

func (d *SESDispatcher) send(ctx context.Context, msg *Message, kind string) error {
	if !d.config.Enabled {
		d.logger.Debug("email sending disabled, skipping", map[string]interface{}{
			"kind": kind,
			"to":   msg.To,
		})
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
	defer cancel()

	_, err := d.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(d.config.FromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
			CcAddresses: msg.CC,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTML)},
			},
		},
	})
	if err != nil {
		d.metrics.RecordNotification(ctx, kind, false)
		return fmt.Errorf("send %s email to %s: %w", kind, msg.To, err)
	}

	d.metrics.RecordNotification(ctx, kind, true)
	d.logger.Info("email sent", map[string]interface{}{
		"kind": kind,
		"to":   msg.To,
		"cc":   len(msg.CC),
	})
	return nil
}
