package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vaultflow/contracts/issuance"
	issuancemodels "vaultflow/internal/issuance/models"
	"vaultflow/internal/webinar/catalog"
	"vaultflow/internal/webinar/models"
	"vaultflow/internal/webinar/service/mocks"
	dErrors "vaultflow/pkg/domain-errors"
	requesttime "vaultflow/pkg/platform/middleware/requesttime"
)

// =============================================================================
// Webinar Service Test Suite
// =============================================================================
// Justification for unit tests: the service owns the credential data layout
// of both webinar credentials and the visitor-facing guard messages. The
// catalog is real; the issuer is mocked to capture the credential data.

const holderDID = "did:key:z6MkAda"

type WebinarServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	mockIssuer *mocks.MockIssuer
	service    *Service
	ctx        context.Context
	now        time.Time
}

func TestWebinarServiceSuite(t *testing.T) {
	suite.Run(t, new(WebinarServiceSuite))
}

func (s *WebinarServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockIssuer = mocks.NewMockIssuer(s.ctrl)
	svc, err := New(catalog.Default(), s.mockIssuer, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.service = svc
	s.now = time.Date(2024, 6, 20, 15, 4, 5, 0, time.UTC)
	s.ctx = requesttime.WithTime(context.Background(), s.now)
}

func (s *WebinarServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *WebinarServiceSuite) offer() *issuance.Offer {
	return &issuance.Offer{CredentialOfferURI: "https://issuer.example/offers/1", IssuanceID: "iss-1", ExpiresIn: 600}
}

func (s *WebinarServiceSuite) captureStart(into *issuancemodels.StartInput) {
	s.mockIssuer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in issuancemodels.StartInput) (*issuance.Offer, error) {
			*into = in
			return s.offer(), nil
		})
}

func (s *WebinarServiceSuite) TestNewRequiresCollaborators() {
	_, err := New(nil, s.mockIssuer)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = New(catalog.Default(), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *WebinarServiceSuite) TestList() {
	s.Len(s.service.List(), 3)
}

func (s *WebinarServiceSuite) TestPrefill() {
	s.Run("maps the profile claims", func() {
		form := s.service.Prefill(map[string]any{
			"email":       "ada@example.com",
			"givenName":   "Ada",
			"familyName":  "Lovelace",
			"phoneNumber": "+44 20 7946 0000",
			"birthdate":   "1815-12-10",
			"gender":      "female",
			"address": map[string]any{
				"formatted":  "12 St James's Square",
				"postalCode": "SW1Y 4JH",
				"locality":   "London",
				"country":    "UK",
			},
		})

		s.Equal(models.RegistrationForm{
			Email:       "ada@example.com",
			Name:        "Ada Lovelace",
			PhoneNumber: "+44 20 7946 0000",
			DOB:         "1815-12-10",
			Gender:      "female",
			Address:     "12 St James's Square",
			Postcode:    "SW1Y 4JH",
			City:        "London",
			Country:     "UK",
		}, form)
	})

	s.Run("name trims a missing part", func() {
		form := s.service.Prefill(map[string]any{"familyName": "Lovelace", "address": "not an object", "gender": 7})
		s.Equal("Lovelace", form.Name)
		s.Empty(form.Address)
		s.Empty(form.Gender)
	})

	s.Run("nil claims give an empty form", func() {
		s.Equal(models.RegistrationForm{}, s.service.Prefill(nil))
	})
}

func (s *WebinarServiceSuite) TestRegister() {
	s.Run("issues the registration credential", func() {
		var got issuancemodels.StartInput
		s.captureStart(&got)

		offer, err := s.service.Register(s.ctx, models.Registration{
			HolderDID: " " + holderDID,
			WebinarID: 2,
			Form: models.RegistrationForm{
				Email: "ada@example.com",
				Name:  "Ada Lovelace",
				City:  "London",
			},
		})
		s.Require().NoError(err)
		s.Equal("iss-1", offer.IssuanceID)

		s.Equal(models.RegistrationCredentialTypeID, got.CredentialTypeID)
		s.Equal(holderDID, got.HolderDID)
		s.Equal("ada@example.com", got.CredentialData["email"])
		s.Equal("London", got.CredentialData["city"])
		s.Equal("AFFINIDI DEVELOPER WEBINAR SERIES", got.CredentialData["credtype"])
		s.Equal("Certificate Of Registration", got.CredentialData["credtitle"])
		s.Equal("23rd May 2024", got.CredentialData["webinardate"])
		s.Equal("Harnessing Cross-Platform Loyalty with Zero Party Data and Holistic Identity", got.CredentialData["webinartitle"])
		s.NotEmpty(got.CredentialData["desc"])
		s.Equal("Premium Pass", got.CredentialData["passType"])
		s.Equal("₹18,999", got.CredentialData["passAmount"])
		s.NotContains(got.CredentialData, "phoneNumber", "empty optional fields are omitted")
	})

	cases := []struct {
		name    string
		in      models.Registration
		message string
	}{
		{"not logged in", models.Registration{WebinarID: 1, Form: models.RegistrationForm{Email: "a@b.c", Name: "Ada"}}, models.MessageLogin},
		{"missing email", models.Registration{HolderDID: holderDID, WebinarID: 1, Form: models.RegistrationForm{Name: "Ada"}}, models.MessageFetchProfile},
		{"blank name", models.Registration{HolderDID: holderDID, WebinarID: 1, Form: models.RegistrationForm{Email: "a@b.c", Name: "  "}}, models.MessageFetchProfile},
		{"unknown webinar", models.Registration{HolderDID: holderDID, WebinarID: 9, Form: models.RegistrationForm{Email: "a@b.c", Name: "Ada"}}, "webinar 9 is not in the catalog"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Register(s.ctx, tc.in)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
			s.Equal(tc.message, err.Error())
		})
	}

	s.Run("issuer errors pass through", func() {
		s.mockIssuer.EXPECT().Start(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeBadRequest, "Invalid parameter: holderDid."))

		_, err := s.service.Register(s.ctx, models.Registration{
			HolderDID: holderDID,
			WebinarID: 1,
			Form:      models.RegistrationForm{Email: "a@b.c", Name: "Ada"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *WebinarServiceSuite) TestIssueAttendance() {
	s.Run("issues the attendance credential", func() {
		var got issuancemodels.StartInput
		s.captureStart(&got)

		_, err := s.service.IssueAttendance(s.ctx, models.Attendance{
			HolderDID:    holderDID,
			Email:        "ada@example.com",
			Name:         "Ada Lovelace",
			WebinarTitle: "Customer-Centric Data Management Solutions with Holistic Identity",
			WebinarDate:  "20th June 2024",
			Description:  "At Affinidi...",
		})
		s.Require().NoError(err)

		s.Equal(models.AttendanceCredentialTypeID, got.CredentialTypeID)
		s.Equal("Certificate of Attendance", got.CredentialData["credtitle"])
		s.Equal("AFFINIDI DEVELOPER WEBINAR SERIES", got.CredentialData["credtype"])
		s.Equal("2024-06-20T15:04:05Z", got.CredentialData["creddate"])
		s.Equal("20th June 2024", got.CredentialData["webinardate"])
		s.Equal("At Affinidi...", got.CredentialData["desc"])
	})

	s.Run("requires login", func() {
		_, err := s.service.IssueAttendance(s.ctx, models.Attendance{Email: "a@b.c", Name: "Ada", WebinarTitle: "t", WebinarDate: "d"})
		s.Equal(models.MessageLogin, err.Error())
	})

	s.Run("requires the shared registration details", func() {
		_, err := s.service.IssueAttendance(s.ctx, models.Attendance{HolderDID: holderDID, Email: "a@b.c", Name: "Ada"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(models.MessageFetchWebinar, err.Error())
	})
}
