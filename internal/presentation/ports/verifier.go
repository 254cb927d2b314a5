package ports

//go:generate mockgen -source=verifier.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"

	"vaultflow/contracts/verification"
)

// VerifyRequest is the presentation bundle handed to the verifier.
type VerifyRequest struct {
	Token      json.RawMessage
	Definition json.RawMessage
	Submission json.RawMessage
}

// VerifierPort is the verification collaborator as seen by the request
// orchestration. Adapters (in-process service, mock) implement it.
type VerifierPort interface {
	// Verify returns the verdict for the bundle. An error means no verdict
	// could be obtained, not that the presentation is invalid.
	Verify(ctx context.Context, req VerifyRequest) (*verification.Verdict, error)
}
