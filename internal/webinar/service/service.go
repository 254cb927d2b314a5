// Package service turns webinar registrations into credential issuances.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vaultflow/contracts/issuance"
	issuancemodels "vaultflow/internal/issuance/models"
	"vaultflow/internal/webinar/models"
	dErrors "vaultflow/pkg/domain-errors"
	requesttime "vaultflow/pkg/platform/middleware/requesttime"
	str "vaultflow/pkg/string"
)

// Catalog lists the webinars visitors can register for.
type Catalog interface {
	List() []models.Webinar
	Get(id int) (models.Webinar, error)
}

// Issuer starts credential issuances.
type Issuer interface {
	Start(ctx context.Context, in issuancemodels.StartInput) (*issuance.Offer, error)
}

type Service struct {
	catalog Catalog
	issuer  Issuer
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(catalog Catalog, issuer Issuer, opts ...Option) (*Service, error) {
	if catalog == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "webinar catalog is required")
	}
	if issuer == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "issuer is required")
	}
	svc := &Service{catalog: catalog, issuer: issuer, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) List() []models.Webinar {
	return s.catalog.List()
}

// Prefill maps user-profile claims onto the registration form. Missing or
// non-string claims leave their field empty.
func (s *Service) Prefill(claims map[string]any) models.RegistrationForm {
	address, _ := claims["address"].(map[string]any)
	name := strings.TrimSpace(stringClaim(claims, "givenName") + " " + stringClaim(claims, "familyName"))
	return models.RegistrationForm{
		Email:       stringClaim(claims, "email"),
		Name:        name,
		PhoneNumber: stringClaim(claims, "phoneNumber"),
		DOB:         stringClaim(claims, "birthdate"),
		Gender:      stringClaim(claims, "gender"),
		Address:     stringClaim(address, "formatted"),
		Postcode:    stringClaim(address, "postalCode"),
		City:        stringClaim(address, "locality"),
		Country:     stringClaim(address, "country"),
	}
}

// Register issues the registration credential for the selected webinar.
func (s *Service) Register(ctx context.Context, in models.Registration) (*issuance.Offer, error) {
	f := &in.Form
	str.TrimStrings(&in.HolderDID, &f.Email, &f.Name, &f.PhoneNumber, &f.DOB, &f.Gender,
		&f.Address, &f.Postcode, &f.City, &f.Country, &in.PassType, &in.PassAmount)

	if in.HolderDID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, models.MessageLogin)
	}
	webinar, err := s.catalog.Get(in.WebinarID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("webinar %d is not in the catalog", in.WebinarID))
	}
	if f.Email == "" || f.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, models.MessageFetchProfile)
	}
	if in.PassType == "" {
		in.PassType = models.DefaultPassType
	}
	if in.PassAmount == "" {
		in.PassAmount = models.DefaultPassAmount
	}

	data := map[string]any{
		"email":        f.Email,
		"name":         f.Name,
		"credtype":     models.SeriesCredType,
		"credtitle":    models.RegistrationCredTitle,
		"webinardate":  webinar.Date,
		"desc":         webinar.Description,
		"webinartitle": webinar.Title,
		"passType":     in.PassType,
		"passAmount":   in.PassAmount,
	}
	setIfPresent(data, "phoneNumber", f.PhoneNumber)
	setIfPresent(data, "dob", f.DOB)
	setIfPresent(data, "gender", f.Gender)
	setIfPresent(data, "address", f.Address)
	setIfPresent(data, "postcode", f.Postcode)
	setIfPresent(data, "city", f.City)
	setIfPresent(data, "country", f.Country)

	offer, err := s.issuer.Start(ctx, issuancemodels.StartInput{
		CredentialTypeID: models.RegistrationCredentialTypeID,
		HolderDID:        in.HolderDID,
		CredentialData:   data,
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "webinar registration issued",
		"webinar_id", webinar.ID,
		"issuance_id", offer.IssuanceID,
	)
	return offer, nil
}

// IssueAttendance issues the attendance credential from the details of a
// previously shared registration credential.
func (s *Service) IssueAttendance(ctx context.Context, in models.Attendance) (*issuance.Offer, error) {
	str.TrimStrings(&in.HolderDID, &in.Email, &in.Name, &in.WebinarTitle, &in.WebinarDate, &in.Description)

	if in.HolderDID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, models.MessageLogin)
	}
	if in.Email == "" || in.Name == "" || in.WebinarTitle == "" || in.WebinarDate == "" {
		return nil, dErrors.New(dErrors.CodeValidation, models.MessageFetchWebinar)
	}

	data := map[string]any{
		"email":        in.Email,
		"name":         in.Name,
		"credtype":     models.SeriesCredType,
		"credtitle":    models.AttendanceCredTitle,
		"creddate":     requesttime.Now(ctx).UTC().Format(time.RFC3339),
		"webinardate":  in.WebinarDate,
		"webinartitle": in.WebinarTitle,
	}
	setIfPresent(data, "desc", in.Description)

	offer, err := s.issuer.Start(ctx, issuancemodels.StartInput{
		CredentialTypeID: models.AttendanceCredentialTypeID,
		HolderDID:        in.HolderDID,
		CredentialData:   data,
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "webinar attendance issued", "issuance_id", offer.IssuanceID)
	return offer, nil
}

func stringClaim(claims map[string]any, key string) string {
	if claims == nil {
		return ""
	}
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}

func setIfPresent(data map[string]any, key, value string) {
	if value != "" {
		data[key] = value
	}
}
