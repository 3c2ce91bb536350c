// Package scoring wraps the external text-classification provider behind
// the capability contracts the pipeline consumes: match assessment,
// audio transcription, and interview-feedback drafting.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/xeipuuv/gojsonschema"

	"ats-workers/internal/common/logger"
	"ats-workers/internal/models"
)

var (
	ErrScoringFailed       = errors.New("SCORING_FAILURE")
	ErrTranscriptionFailed = errors.New("TRANSCRIPTION_FAILED")
)

// Assessment is the structured match result for one candidate document.
type Assessment struct {
	MatchScore     int      `json:"match_score"`
	Recommendation string   `json:"recommendation"`
	Strengths      []string `json:"strengths"`
	Gaps           []string `json:"gaps"`
	KeyHighlights  []string `json:"key_highlights"`
}

// Analysis converts the assessment into the persisted analysis shape.
func (a *Assessment) Analysis() *models.AIAnalysis {
	return &models.AIAnalysis{
		Recommendation: a.Recommendation,
		Strengths:      a.Strengths,
		Gaps:           a.Gaps,
		KeyHighlights:  a.KeyHighlights,
	}
}

// Engine scores a candidate document against a job description. Must not
// panic for well-formed input; malformed provider output is ErrScoringFailed.
type Engine interface {
	Score(ctx context.Context, jobDescription, candidateText string) (*Assessment, error)
}

// Transcriber turns an interview audio recording into text and drafts the
// follow-up email from it.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filenameHint string) (string, error)
	DraftInterviewEmail(ctx context.Context, transcript string, candidate *models.Candidate, job *models.Job) (string, error)
}

// completionAPI is the slice of the OpenAI client the engine exercises.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// assessmentSchema rejects malformed provider payloads before they reach
// the persistence path.
const assessmentSchema = `{
	"type": "object",
	"required": ["match_score", "recommendation"],
	"properties": {
		"match_score": {"type": "integer", "minimum": 0, "maximum": 100},
		"recommendation": {"type": "string", "enum": ["Strong Match", "Moderate Match", "Weak Match"]},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"gaps": {"type": "array", "items": {"type": "string"}},
		"key_highlights": {"type": "array", "items": {"type": "string"}}
	}
}`

type Config struct {
	Model              string
	TranscriptionModel string
	Temperature        float32
	MaxTokens          int
	RequestTimeout     time.Duration
}

type Client struct {
	api    completionAPI
	config Config
	schema *gojsonschema.Schema
	logger logger.Logger
}

func NewClient(apiKey string, config Config, log logger.Logger) (*Client, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(assessmentSchema))
	if err != nil {
		return nil, fmt.Errorf("compile assessment schema: %w", err)
	}
	clientConfig := openai.DefaultConfig(apiKey)
	if config.RequestTimeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.RequestTimeout}
	}
	return &Client{
		api:    openai.NewClientWithConfig(clientConfig),
		config: config,
		schema: schema,
		logger: log.WithFields(map[string]interface{}{"component": "scoring"}),
	}, nil
}

// NewClientWithAPI injects a provider implementation. Used by tests.
func NewClientWithAPI(api completionAPI, config Config, log logger.Logger) (*Client, error) {
	c, err := NewClient("", config, log)
	if err != nil {
		return nil, err
	}
	c.api = api
	return c, nil
}

// Score analyzes the candidate document against the job description.
func (c *Client) Score(ctx context.Context, jobDescription, candidateText string) (*Assessment, error) {
	prompt := buildScoringPrompt(jobDescription, candidateText)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert technical recruiter analyzing CVs. Return only valid JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScoringFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: provider returned no choices", ErrScoringFailed)
	}

	assessment, err := c.parseAssessment(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("assessment produced", map[string]interface{}{
		"matchScore":     assessment.MatchScore,
		"recommendation": assessment.Recommendation,
	})
	return assessment, nil
}

// parseAssessment strips markdown fences, validates the payload against the
// schema, and unmarshals it.
func (c *Client) parseAssessment(raw string) (*Assessment, error) {
	cleaned := stripFences(raw)

	result, err := c.schema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSON from provider: %v", ErrScoringFailed, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("%w: malformed assessment: %s", ErrScoringFailed, strings.Join(details, "; "))
	}

	var assessment Assessment
	if err := json.Unmarshal([]byte(cleaned), &assessment); err != nil {
		return nil, fmt.Errorf("%w: decode assessment: %v", ErrScoringFailed, err)
	}
	return &assessment, nil
}

// Transcribe converts interview audio to text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filenameHint string) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.config.TranscriptionModel,
		Reader:   bytes.NewReader(audio),
		FilePath: filenameHint,
		Language: "en",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	return resp.Text, nil
}

// DraftInterviewEmail writes a candidate-facing feedback email from the
// transcribed interviewer notes.
func (c *Client) DraftInterviewEmail(ctx context.Context, transcript string, candidate *models.Candidate, job *models.Job) (string, error) {
	prompt := buildInterviewEmailPrompt(transcript, candidate, job)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a professional HR manager drafting candidate communication. Write clear, empathetic emails.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("draft interview email: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("draft interview email: provider returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildScoringPrompt(jobDescription, candidateText string) string {
	var b strings.Builder
	b.WriteString("Analyze the following CV against the job description and provide a detailed assessment.\n\n")
	b.WriteString("Job Description:\n")
	b.WriteString(jobDescription)
	b.WriteString("\n\nCandidate CV:\n")
	b.WriteString(candidateText)
	b.WriteString("\n\nProvide a JSON response with:\n")
	b.WriteString("1. match_score (0-100) - Overall match percentage\n")
	b.WriteString("2. strengths (array of strings) - Specific qualifications that align well\n")
	b.WriteString("3. gaps (array of strings) - Missing qualifications or skills\n")
	b.WriteString(`4. recommendation ("Strong Match" | "Moderate Match" | "Weak Match")` + "\n")
	b.WriteString("5. key_highlights (array of 3-5 bullet points summarizing the candidate)\n\n")
	b.WriteString("Return ONLY valid JSON, no markdown or explanation.")
	return b.String()
}

func buildInterviewEmailPrompt(transcript string, candidate *models.Candidate, job *models.Job) string {
	var b strings.Builder
	b.WriteString("Based on the following interview feedback, draft a professional email to the candidate.\n\n")
	fmt.Fprintf(&b, "Candidate: %s\n", candidate.Name)
	fmt.Fprintf(&b, "Position: %s\n\n", job.Title)
	b.WriteString("Interviewer Feedback (transcribed):\n")
	b.WriteString(transcript)
	b.WriteString("\n\nDraft an email that:\n")
	b.WriteString("- Is warm, professional, and encouraging\n")
	b.WriteString("- Provides specific, actionable feedback based on the transcript\n")
	b.WriteString("- Clearly states next steps\n")
	b.WriteString("- Maintains a positive tone regardless of outcome\n")
	b.WriteString("- Is 150-250 words\n\n")
	b.WriteString("Return only the email body text, no subject line or markdown formatting.")
	return b.String()
}

// stripFences removes markdown code fences the provider sometimes wraps
// around its JSON.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
