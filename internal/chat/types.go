// Package chat implements the HR assistant conversation pipeline and its HTTP surface.
package chat

import (
	"github.com/ashureev/hrdesk/internal/domain"
	"github.com/ashureev/hrdesk/internal/extract"
)

// Request is the JSON body accepted by every chat endpoint.
type Request struct {
	Message string           `json:"message" validate:"max=8000"`
	History []domain.Message `json:"history" validate:"max=100,dive"`
	HRID    string           `json:"hrId" validate:"max=128"`
	HREmail string           `json:"hrEmail" validate:"max=254"`
}

// callerIdentity is validated only for profiles that require an identified caller.
type callerIdentity struct {
	ID    string `validate:"required_without=Email"`
	Email string `validate:"omitempty,email"`
}

// ContextSummary describes the session memory behind a data answer.
type ContextSummary struct {
	HasHistory      bool `json:"hasHistory"`
	PreviousQueries int  `json:"previousQueries"`
}

// Response is the JSON payload of every chat endpoint.
type Response struct {
	Success        bool            `json:"success"`
	Response       string          `json:"response,omitempty"`
	Error          string          `json:"error,omitempty"`
	Count          *int            `json:"count,omitempty"`
	SQL            string          `json:"sql,omitempty"`
	IsPolicyAnswer bool            `json:"isPolicyAnswer,omitempty"`
	Source         string          `json:"source,omitempty"`
	PolicyPages    []int           `json:"policyPages,omitempty"`
	Context        *ContextSummary `json:"context,omitempty"`
	AccessLevel    string          `json:"accessLevel,omitempty"`
}

// Result pairs the response body with its HTTP status and pipeline diagnostics.
type Result struct {
	Status  int
	Body    Response
	Outcome Outcome
	Tier    extract.Tier
}

// Outcome names the exit path a request took through the pipeline.
type Outcome string

const (
	OutcomeInvalid       Outcome = "invalid"
	OutcomePolicy        Outcome = "policy"
	OutcomeProviderError Outcome = "provider_error"
	OutcomeDirect        Outcome = "direct"
	OutcomeQueryError    Outcome = "query_error"
	OutcomeEmpty         Outcome = "empty"
	OutcomeAnswered      Outcome = "answered"
)

// Fixed response texts.
const (
	msgMessageRequired  = "Message is required"
	msgIdentityRequired = "HR ID or Email is required for authentication"
	msgInvalidEmail     = "HR Email must be a valid email address"
	msgNoRecords        = "No records found matching your criteria."
	msgPolicyError      = "Error retrieving policy information"
	msgSchemaError      = "Error loading database schema"
)
