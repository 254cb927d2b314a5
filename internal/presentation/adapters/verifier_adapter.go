package adapters

import (
	"context"

	"vaultflow/contracts/verification"
	"vaultflow/internal/presentation/ports"
	verifiermodels "vaultflow/internal/verifier/models"
)

// presentationVerifier is the part of the verifier service the adapter uses.
// Defined locally to avoid coupling to the verifier service package.
type presentationVerifier interface {
	Verify(ctx context.Context, in verifiermodels.VerifyInput) (*verifiermodels.Result, error)
}

// VerifierAdapter bridges the in-process verifier service into the
// presentation verifier port.
type VerifierAdapter struct {
	verifier presentationVerifier
}

func NewVerifierAdapter(verifier presentationVerifier) ports.VerifierPort {
	return &VerifierAdapter{verifier: verifier}
}

// Verify maps the verifier's result onto the shared verdict contract.
func (a *VerifierAdapter) Verify(ctx context.Context, req ports.VerifyRequest) (*verification.Verdict, error) {
	result, err := a.verifier.Verify(ctx, verifiermodels.VerifyInput{
		VerifiablePresentation: req.Token,
		PresentationDefinition: req.Definition,
		PresentationSubmission: req.Submission,
	})
	if err != nil {
		return nil, err
	}
	return &verification.Verdict{
		Compliant: result.IsValid,
		Errors:    result.Errors,
	}, nil
}
