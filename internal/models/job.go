package models

import "time"

// Job lifecycle statuses.
const (
	JobStatusActive = "ACTIVE"
	JobStatusPaused = "PAUSED"
	JobStatusClosed = "CLOSED"
)

// Question types.
const (
	QuestionTypeText     = "TEXT"
	QuestionTypeRadio    = "RADIO"
	QuestionTypeCheckbox = "CHECKBOX"
)

// Job is a posting owned by a company. FormToken is the opaque public
// identifier of its application form, distinct from the internal id.
type Job struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"companyId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	FormToken   string     `json:"formToken"`
	HREmail     string     `json:"hrEmail,omitempty"`
	Questions   []Question `json:"questions,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Question belongs to exactly one job. OrderIndex gives the stable ordering
// used for form rendering and answer alignment.
type Question struct {
	ID         string `json:"id"`
	JobID      string `json:"jobId"`
	Text       string `json:"text"`
	Type       string `json:"type"`
	Required   bool   `json:"required"`
	OrderIndex int    `json:"orderIndex"`
}

// Company is the tenant that owns jobs and, through them, candidates.
type Company struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// ApplicationForm is the public view of a job served by form token.
type ApplicationForm struct {
	Job       Job        `json:"job"`
	Company   Company    `json:"company"`
	Questions []Question `json:"questions"`
}
