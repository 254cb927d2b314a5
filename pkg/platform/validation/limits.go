package validation

import (
	"fmt"

	dErrors "vaultflow/pkg/domain-errors"
)

// MaxBodySize bounds every JSON request body. Wallet callbacks carry whole
// presentations, so this is larger than a plain form post needs.
const MaxBodySize = 256 * 1024

// Field limits for the issuance and webinar endpoints.
const (
	MaxDIDLength              = 512
	MaxCredentialTypeIDLength = 128
	MaxCredentialDataFields   = 50
	MaxFormFieldLength        = 512
)

// CheckCount validates that a collection does not exceed max entries.
func CheckCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
