// Package claims turns a verified presentation into page-visible claims.
package claims

import (
	"fmt"

	"vaultflow/internal/presentation/models"
)

// MergePolicy decides how a completed cycle combines with earlier data.
type MergePolicy string

const (
	// Accumulate merges each completed cycle onto previously published data.
	Accumulate MergePolicy = "accumulate"
	// Replace starts every completed cycle from empty data.
	Replace MergePolicy = "replace"
)

// ParseMergePolicy accepts "accumulate" and "replace"; empty means Accumulate.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case "", Accumulate:
		return Accumulate, nil
	case Replace:
		return Replace, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", s)
	}
}

// Extract shallow-merges the subjects of every credential in token order.
// Later credentials overwrite keys of earlier ones. The token is not mutated.
func Extract(token *models.VerifiablePresentation) models.Claims {
	out := models.Claims{}
	if token == nil {
		return out
	}
	for _, cred := range token.VerifiableCredential {
		for k, v := range cred.CredentialSubject {
			out[k] = v
		}
	}
	return out
}

// Merge returns prior overwritten by extracted. Neither input is mutated.
func Merge(prior, extracted models.Claims) models.Claims {
	out := make(models.Claims, len(prior)+len(extracted))
	for k, v := range prior {
		out[k] = v
	}
	for k, v := range extracted {
		out[k] = v
	}
	return out
}

// Apply combines prior data with extracted claims according to the policy.
func (p MergePolicy) Apply(prior, extracted models.Claims) models.Claims {
	if p == Replace {
		return Merge(nil, extracted)
	}
	return Merge(prior, extracted)
}
