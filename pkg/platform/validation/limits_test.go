package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "vaultflow/pkg/domain-errors"
)

// LimitsSuite tests the trust-boundary size checks: max must pass and
// max+1 must fail.
type LimitsSuite struct {
	suite.Suite
}

func TestLimitsSuite(t *testing.T) {
	suite.Run(t, new(LimitsSuite))
}

func (s *LimitsSuite) TestCheckCount() {
	s.Run("passes at max", func() {
		s.NoError(CheckCount("credential_data fields", MaxCredentialDataFields, MaxCredentialDataFields))
	})

	s.Run("passes when empty", func() {
		s.NoError(CheckCount("credential_data fields", 0, MaxCredentialDataFields))
	})

	s.Run("fails above max", func() {
		err := CheckCount("credential_data fields", MaxCredentialDataFields+1, MaxCredentialDataFields)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("too many credential_data fields: max 50 allowed", err.Error())
	})
}

func (s *LimitsSuite) TestCheckStringLength() {
	s.Run("passes at max", func() {
		s.NoError(CheckStringLength("holder_did", strings.Repeat("a", MaxDIDLength), MaxDIDLength))
	})

	s.Run("fails above max", func() {
		err := CheckStringLength("holder_did", strings.Repeat("a", MaxDIDLength+1), MaxDIDLength)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("holder_did exceeds max length of 512", err.Error())
	})
}
