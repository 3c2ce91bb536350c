package notify

import (
	"fmt"
	"html/template"
	"strings"

	"ats-workers/internal/models"
)

// Message is a rendered email ready for dispatch.
type Message struct {
	To      string
	CC      []string
	Subject string
	HTML    string
}

var applicationReceivedTmpl = template.Must(template.New("applicationReceived").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #1f2937; margin-bottom: 20px;">Application Received</h2>

  <p>Dear {{.CandidateName}},</p>

  <p>Thank you for applying to the <strong>{{.JobTitle}}</strong> position at <strong>{{.CompanyName}}</strong>.</p>

  <p>We have received your application and our team will review it shortly. You will hear from us within 3-5 business days.</p>

  <div style="background-color: #f3f4f6; padding: 15px; border-radius: 8px; margin: 20px 0;">
    <p style="margin: 0; font-size: 14px; color: #6b7280;">
      <strong>What happens next?</strong><br>
      Our team will review your application and match your qualifications with the role requirements. If you're a good fit, we'll contact you to schedule an interview.
    </p>
  </div>

  <p>Best regards,<br>
  <strong>{{.CompanyName}}</strong> Hiring Team</p>

  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 30px 0;">

  <p style="font-size: 12px; color: #9ca3af;">
    This is an automated message. Please do not reply to this email.
  </p>
</div>`))

var approvedTmpl = template.Must(template.New("approved").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #10b981; color: white; padding: 20px; border-radius: 8px 8px 0 0;">
    <h2 style="margin: 0;">Great News!</h2>
  </div>

  <div style="background-color: #ffffff; padding: 20px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 8px 8px;">
    <p>Dear {{.CandidateName}},</p>

    <p>We're pleased to inform you that your application for the <strong>{{.JobTitle}}</strong> position has been approved!</p>

    <p>We were impressed by your qualifications and would like to move forward with the next steps in our hiring process.</p>

    <div style="background-color: #d1fae5; padding: 15px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #10b981;">
      <p style="margin: 0; color: #065f46;">
        <strong>Next Steps:</strong><br>
        Our team will contact you within 1-2 business days to schedule an interview. Please keep an eye on your email and phone.
      </p>
    </div>

    <p>We look forward to speaking with you soon!</p>

    <p>Best regards,<br>
    <strong>{{.CompanyName}}</strong> Hiring Team</p>
  </div>
</div>`))

var rejectedTmpl = template.Must(template.New("rejected").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #1f2937; margin-bottom: 20px;">Application Update</h2>

  <p>Dear {{.CandidateName}},</p>

  <p>Thank you for your interest in the <strong>{{.JobTitle}}</strong> position at <strong>{{.CompanyName}}</strong>.</p>

  <p>After careful review, we have decided to move forward with other candidates whose experience more closely matches our current needs.</p>

  <div style="background-color: #fef3c7; padding: 15px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #f59e0b;">
    <p style="margin: 0; color: #92400e;">
      We encourage you to apply for future openings that match your skills and experience. We wish you the best in your job search.
    </p>
  </div>

  <p>Best wishes,<br>
  <strong>{{.CompanyName}}</strong> Hiring Team</p>
</div>`))

var customTmpl = template.Must(template.New("custom").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #ffffff; padding: 20px; border: 1px solid #e5e7eb; border-radius: 8px;">
    {{range .Paragraphs}}<p>{{.}}</p>
    {{end}}
    <p style="margin-top: 30px;">Best regards,<br>
    <strong>{{.CompanyName}}</strong> Team</p>
  </div>

  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 30px 0;">

  <p style="font-size: 12px; color: #9ca3af;">
    This email was sent from {{.CompanyName}}'s applicant tracking system.
  </p>
</div>`))

type templateData struct {
	CandidateName string
	JobTitle      string
	CompanyName   string
}

func renderApplicationReceived(candidate *models.Candidate, job *models.Job, company *models.Company) (*Message, error) {
	var b strings.Builder
	err := applicationReceivedTmpl.Execute(&b, templateData{
		CandidateName: candidate.Name,
		JobTitle:      job.Title,
		CompanyName:   company.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("render application-received email: %w", err)
	}
	return &Message{
		To:      candidate.Email,
		Subject: fmt.Sprintf("Application Received - %s", job.Title),
		HTML:    b.String(),
	}, nil
}

func renderStatusUpdate(candidate *models.Candidate, job *models.Job, company *models.Company, status string) (*Message, error) {
	tmpl := approvedTmpl
	if status == models.CandidateStatusRejected {
		tmpl = rejectedTmpl
	}

	var b strings.Builder
	err := tmpl.Execute(&b, templateData{
		CandidateName: candidate.Name,
		JobTitle:      job.Title,
		CompanyName:   company.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("render status-update email: %w", err)
	}
	return &Message{
		To:      candidate.Email,
		CC:      ccAddresses(job, company),
		Subject: fmt.Sprintf("Application Update - %s", job.Title),
		HTML:    b.String(),
	}, nil
}

func renderCustom(to string, cc []string, subject, body string, company *models.Company) (*Message, error) {
	paragraphs := strings.Split(body, "\n")

	var b strings.Builder
	err := customTmpl.Execute(&b, struct {
		Paragraphs  []string
		CompanyName string
	}{Paragraphs: paragraphs, CompanyName: company.Name})
	if err != nil {
		return nil, fmt.Errorf("render custom email: %w", err)
	}
	return &Message{To: to, CC: cc, Subject: subject, HTML: b.String()}, nil
}

// ccAddresses lists the internal recipients copied on candidate-facing
// status mail, skipping blanks.
func ccAddresses(job *models.Job, company *models.Company) []string {
	var cc []string
	for _, addr := range []string{job.HREmail, company.Email} {
		if addr != "" {
			cc = append(cc, addr)
		}
	}
	return cc
}
