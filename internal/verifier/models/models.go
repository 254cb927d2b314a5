package models

import "encoding/json"

// VerifyInput is the presentation bundle forwarded to the verification API.
// The parts are kept as raw JSON so the verifier sees exactly what the
// wallet produced.
type VerifyInput struct {
	VerifiablePresentation json.RawMessage `json:"verifiablePresentation"`
	PresentationDefinition json.RawMessage `json:"presentationDefinition"`
	PresentationSubmission json.RawMessage `json:"presentationSubmission"`
}

// Result is the verification API's answer.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

// Outcome labels used for verification metrics.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)
