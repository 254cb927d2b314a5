package wallet

import (
	"bytes"
	"encoding/json"
	"strings"

	"vaultflow/internal/presentation/models"
	dErrors "vaultflow/pkg/domain-errors"
)

// ParseResponse interprets what the wallet delivered to the callback page.
// vp_token and presentation_submission arrive either as JSON objects or as
// strings holding JSON, depending on how the page forwards the query.
func ParseResponse(vpToken, submission json.RawMessage, errCode, errDescription string) (models.WalletResponse, error) {
	if code := strings.TrimSpace(errCode); code != "" {
		return models.WalletResponse{Error: code, ErrorDescription: strings.TrimSpace(errDescription)}, nil
	}

	rawToken, err := unwrapJSON(vpToken)
	if err != nil || rawToken == nil {
		return models.WalletResponse{}, dErrors.New(dErrors.CodeBadRequest, "vp_token is required")
	}
	rawSubmission, err := unwrapJSON(submission)
	if err != nil || rawSubmission == nil {
		return models.WalletResponse{}, dErrors.New(dErrors.CodeBadRequest, "presentation_submission is required")
	}

	var token models.VerifiablePresentation
	if err := json.Unmarshal(rawToken, &token); err != nil {
		return models.WalletResponse{}, dErrors.New(dErrors.CodeBadRequest, "vp_token is not a verifiable presentation")
	}
	var sub models.PresentationSubmission
	if err := json.Unmarshal(rawSubmission, &sub); err != nil {
		return models.WalletResponse{}, dErrors.New(dErrors.CodeBadRequest, "presentation_submission is malformed")
	}

	return models.WalletResponse{
		Token:         &token,
		RawToken:      rawToken,
		Submission:    &sub,
		RawSubmission: rawSubmission,
	}, nil
}

// unwrapJSON returns the JSON object in raw, decoding one level of string
// quoting. Absent or null input yields nil.
func unwrapJSON(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		trimmed = []byte(s)
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "expected a JSON object")
	}
	return json.RawMessage(trimmed), nil
}
