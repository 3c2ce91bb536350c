package api

import (
	"encoding/json"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	apperrors "ats-workers/internal/common/errors"
	"ats-workers/internal/common/logger"
	"ats-workers/internal/intake"
	"ats-workers/internal/interview"
	"ats-workers/internal/models"
	"ats-workers/internal/repository"
	"ats-workers/internal/workflow"
)

type Handler struct {
	forms     repository.FormSource
	pipeline  *intake.Pipeline
	workflow  *workflow.Service
	interview *interview.Service
	config    Config
	logger    logger.Logger
}

func NewHandler(forms repository.FormSource, pipeline *intake.Pipeline, wf *workflow.Service, iv *interview.Service, config Config, log logger.Logger) *Handler {
	if config.ScopeHeader == "" {
		config.ScopeHeader = "X-Company-ID"
	}
	if config.UserHeader == "" {
		config.UserHeader = "X-User-ID"
	}
	return &Handler{
		forms:     forms,
		pipeline:  pipeline,
		workflow:  wf,
		interview: iv,
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// GetApplicationForm serves the public form for a share token. An inactive
// job serves no form even when the token is valid.
func (h *Handler) GetApplicationForm(c *fiber.Ctx) error {
	form, err := h.forms.FormByToken(c.UserContext(), c.Params("formToken"))
	if err != nil {
		return err
	}
	if form.Job.Status != models.JobStatusActive {
		return apperrors.NewJobNotAcceptingError(form.Job.ID, form.Job.Status)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"job":     form.Job,
		"company": form.Company,
	})
}

// SubmitApplication accepts the multipart application form: name, email,
// phone, an answers JSON object, and the cv file.
func (h *Handler) SubmitApplication(c *fiber.Ctx) error {
	info := models.CandidateInfo{
		Name:  c.FormValue("name"),
		Email: c.FormValue("email"),
		Phone: c.FormValue("phone"),
	}
	if info.Name == "" || info.Email == "" {
		return apperrors.NewInvalidInputError("name and email are required")
	}

	answers := map[string]string{}
	if raw := c.FormValue("answers"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &answers); err != nil {
			return apperrors.NewInvalidInputError("answers must be a JSON object of questionId to text")
		}
	}

	resume, err := readUpload(c, "cv")
	if err != nil {
		return err
	}

	candidateID, err := h.pipeline.SubmitApplication(c.UserContext(), c.Params("formToken"), info, answers, resume)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "Application submitted successfully",
		"candidateId": candidateID,
	})
}

type updateStatusRequest struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejectionReason"`
}

func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInputError("invalid request body")
	}

	candidate, err := h.workflow.SetStatus(c.UserContext(), h.scope(c), c.Params("candidateId"), req.Status, req.RejectionReason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Candidate status updated successfully",
		"candidate": candidate,
	})
}

type bulkUpdateRequest struct {
	CandidateIDs    []string `json:"candidateIds"`
	Status          string   `json:"status"`
	RejectionReason *string  `json:"rejectionReason"`
}

func (h *Handler) BulkUpdateStatus(c *fiber.Ctx) error {
	var req bulkUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInputError("invalid request body")
	}

	affected, err := h.workflow.BulkSetStatus(c.UserContext(), h.scope(c), req.CandidateIDs, req.Status, req.RejectionReason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"updated": affected,
	})
}

func (h *Handler) ProcessRecording(c *fiber.Ctx) error {
	audio, err := readUpload(c, "audioFile")
	if err != nil {
		return err
	}
	if audio == nil {
		return apperrors.NewMissingDocumentError("audio")
	}

	result, err := h.interview.ProcessRecording(c.UserContext(), h.scope(c), c.Params("candidateId"),
		audio.Content, audio.Filename, c.Get(h.config.UserHeader))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"transcript": result.Transcript,
		"emailDraft": result.EmailDraft,
	})
}

type sendEmailRequest struct {
	EmailContent string `json:"emailContent"`
}

func (h *Handler) SendFeedbackEmail(c *fiber.Ctx) error {
	var req sendEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInputError("invalid request body")
	}

	if err := h.interview.SendFeedbackEmail(c.UserContext(), h.scope(c), c.Params("candidateId"), req.EmailContent); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Email sent successfully",
	})
}

func (h *Handler) scope(c *fiber.Ctx) string {
	return c.Get(h.config.ScopeHeader)
}

// readUpload materializes a multipart file field. A missing field is not an
// error here; the services own the "document required" rule.
func readUpload(c *fiber.Ctx, field string) (*intake.Document, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	content, err := readFile(header)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("could not read uploaded file")
	}
	return &intake.Document{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// errorHandler translates the error taxonomy into HTTP responses. Internal
// codes get a generic message; their detail stays in the logs.
func errorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"success": false,
				"message": fiberErr.Message,
			})
		}

		code := apperrors.CodeOf(err)
		status := apperrors.HTTPStatus(code)

		message := err.Error()
		if !apperrors.IsClientVisible(code) || status >= fiber.StatusInternalServerError {
			message = "internal server error"
		}

		if status >= fiber.StatusInternalServerError {
			log.Error("request failed", map[string]interface{}{
				"path":  c.Path(),
				"code":  string(code),
				"error": err.Error(),
			})
		}

		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"code":    string(code),
			"message": message,
		})
	}
}
