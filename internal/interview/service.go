// Package interview processes recorded interview audio into a transcript
// and a drafted feedback email, and sends reviewer-written feedback to
// candidates. Unlike intake enrichment, every step here is fatal on
// failure: the reviewer is present and sees the error.
package interview

import (
	"context"

	apperrors "ats-workers/internal/common/errors"
	"ats-workers/internal/common/logger"
	"ats-workers/internal/models"
	"ats-workers/internal/notify"
	"ats-workers/internal/repository"
	"ats-workers/internal/scoring"
	"ats-workers/internal/storage"
)

// CandidateStore is the slice of the candidate repository this service uses.
type CandidateStore interface {
	FindDetail(ctx context.Context, candidateID, companyID string) (*repository.CandidateDetail, error)
	InsertRecording(ctx context.Context, rec *models.InterviewRecording) (string, error)
}

// Result is what the reviewer gets back from processing a recording.
type Result struct {
	RecordingID string `json:"recordingId"`
	AudioURL    string `json:"audioUrl"`
	Transcript  string `json:"transcript"`
	EmailDraft  string `json:"emailDraft"`
}

type Service struct {
	candidates  CandidateStore
	documents   storage.Store
	transcriber scoring.Transcriber
	dispatcher  notify.Dispatcher
	logger      logger.Logger
}

func NewService(candidates CandidateStore, documents storage.Store, transcriber scoring.Transcriber, dispatcher notify.Dispatcher, log logger.Logger) *Service {
	return &Service{
		candidates:  candidates,
		documents:   documents,
		transcriber: transcriber,
		dispatcher:  dispatcher,
		logger:      log.WithFields(map[string]interface{}{"component": "interview"}),
	}
}

// ProcessRecording uploads the audio, transcribes it, drafts a feedback
// email from the transcript, and appends the recording to the candidate's
// interview history.
func (s *Service) ProcessRecording(ctx context.Context, companyID, candidateID string, audio []byte, filename, recordedBy string) (*Result, error) {
	if len(audio) == 0 {
		return nil, apperrors.NewMissingDocumentError("audio")
	}

	detail, err := s.candidates.FindDetail(ctx, candidateID, companyID)
	if err != nil {
		return nil, err
	}

	audioURL, err := s.documents.Store(ctx, audio, filename, storage.CategoryRecording)
	if err != nil {
		return nil, apperrors.NewStorageFailureError(err)
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		s.documents.Delete(ctx, audioURL)
		return nil, apperrors.NewTranscriptionFailedError(err)
	}

	draft, err := s.transcriber.DraftInterviewEmail(ctx, transcript, &detail.Candidate, &detail.Job)
	if err != nil {
		return nil, apperrors.NewScoringFailureError(err)
	}

	recordingID, err := s.candidates.InsertRecording(ctx, &models.InterviewRecording{
		CandidateID: candidateID,
		AudioURL:    audioURL,
		Transcript:  transcript,
		DraftReply:  draft,
		RecordedBy:  recordedBy,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("interview recording processed", map[string]interface{}{
		"candidateId": candidateID,
		"recordingId": recordingID,
		"recordedBy":  recordedBy,
	})
	return &Result{
		RecordingID: recordingID,
		AudioURL:    audioURL,
		Transcript:  transcript,
		EmailDraft:  draft,
	}, nil
}

// SendFeedbackEmail sends a reviewer-written message to the candidate with
// HR and the company address on CC. Send failure surfaces to the reviewer.
func (s *Service) SendFeedbackEmail(ctx context.Context, companyID, candidateID, body string) error {
	if body == "" {
		return apperrors.NewInvalidInputError("email content is required")
	}

	detail, err := s.candidates.FindDetail(ctx, candidateID, companyID)
	if err != nil {
		return err
	}

	cc := make([]string, 0, 2)
	for _, addr := range []string{detail.Job.HREmail, detail.Company.Email} {
		if addr != "" {
			cc = append(cc, addr)
		}
	}

	subject := "Interview Feedback - " + detail.Job.Title
	if err := s.dispatcher.SendCustom(ctx, detail.Candidate.Email, cc, subject, body, &detail.Company); err != nil {
		return apperrors.NewNotificationSendFailedError("custom", err)
	}
	return nil
}
