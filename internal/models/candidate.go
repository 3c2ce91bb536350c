package models

import "time"

// Candidate lifecycle statuses.
const (
	CandidateStatusPending  = "PENDING"
	CandidateStatusApproved = "APPROVED"
	CandidateStatusRejected = "REJECTED"
)

// Recommendation labels produced by the scoring engine.
const (
	RecommendationStrong   = "Strong Match"
	RecommendationModerate = "Moderate Match"
	RecommendationWeak     = "Weak Match"
)

// Candidate is one application instance for one job. At most one candidate
// exists per (jobId, email) pair; the repository's unique constraint is the
// authoritative guard.
type Candidate struct {
	ID              string      `json:"id"`
	JobID           string      `json:"jobId"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone,omitempty"`
	ResumeURL       string      `json:"resumeUrl"`
	Status          string      `json:"status"`
	RejectionReason *string     `json:"rejectionReason,omitempty"`
	MatchScore      *int        `json:"matchScore,omitempty"`
	Analysis        *AIAnalysis `json:"aiAnalysis,omitempty"`
	AppliedAt       time.Time   `json:"appliedAt"`
}

// AIAnalysis is the structured assessment captured by the intake pipeline
// when scoring succeeds. Absent on enrichment failure or skip.
type AIAnalysis struct {
	Recommendation string   `json:"recommendation"`
	Strengths      []string `json:"strengths"`
	Gaps           []string `json:"gaps"`
	KeyHighlights  []string `json:"keyHighlights"`
}

// Answer belongs to one candidate and one question. Created atomically with
// the candidate, immutable afterward.
type Answer struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidateId"`
	QuestionID  string `json:"questionId"`
	Text        string `json:"answerText"`
}

// CandidateInfo is the applicant-supplied identity portion of a submission.
type CandidateInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// InterviewRecording is an append-only interview history entry.
type InterviewRecording struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidateId"`
	AudioURL    string    `json:"audioUrl"`
	Transcript  string    `json:"transcript"`
	DraftReply  string    `json:"aiGeneratedResponse"`
	RecordedBy  string    `json:"recordedBy"`
	RecordedAt  time.Time `json:"recordedAt"`
}
