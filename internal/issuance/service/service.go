package service

import (
	"context"
	"log/slog"
	"strings"

	"vaultflow/contracts/issuance"
	"vaultflow/internal/issuance/models"
	"vaultflow/internal/platform/metrics"
	id "vaultflow/pkg/domain"
	dErrors "vaultflow/pkg/domain-errors"
	requesttime "vaultflow/pkg/platform/middleware/requesttime"
	"vaultflow/pkg/platform/tracer"
	"vaultflow/pkg/validation"
)

// Client starts issuances at the issuance API.
type Client interface {
	Start(ctx context.Context, in models.StartInput) (*issuance.Offer, error)
}

// Store records started issuances.
type Store interface {
	Save(ctx context.Context, record models.Record) error
	ListByHolder(ctx context.Context, holderDID string, limit int) ([]models.Record, error)
}

// Publisher emits issuance events.
type Publisher interface {
	PublishStarted(ctx context.Context, event models.StartedEvent) error
}

// Service starts credential issuances and keeps a local trace of them.
type Service struct {
	client    Client
	store     Store
	publisher Publisher
	claimURL  string
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClaimURL sets the wallet claim prefix used to build "Accept Offer" links.
func WithClaimURL(claimURL string) Option {
	return func(s *Service) {
		s.claimURL = strings.TrimSpace(claimURL)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(client Client, store Store, opts ...Option) (*Service, error) {
	if client == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "issuance client is required")
	}
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "issuance store is required")
	}
	svc := &Service{client: client, store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Start requests a credential offer for the holder. The offer is returned
// even when recording or publishing it fails; those failures are logged.
func (s *Service) Start(ctx context.Context, in models.StartInput) (*issuance.Offer, error) {
	in.CredentialTypeID = strings.TrimSpace(in.CredentialTypeID)
	in.HolderDID = strings.TrimSpace(in.HolderDID)
	if err := validateStart(in); err != nil {
		return nil, err
	}

	offer, err := s.client.Start(ctx, in)
	if err != nil {
		outcome := models.OutcomeFailed
		if dErrors.HasCode(err, dErrors.CodeBadRequest) {
			outcome = models.OutcomeRejected
		}
		s.metrics.IncIssuance(in.CredentialTypeID, outcome)
		s.logger.WarnContext(ctx, "issuance start failed",
			"credential_type_id", in.CredentialTypeID,
			"holder_did_hash", tracer.HashDID(in.HolderDID),
			"error", err,
		)
		return nil, err
	}
	s.metrics.IncIssuance(in.CredentialTypeID, models.OutcomeStarted)

	if s.claimURL != "" {
		offer.ClaimURL = s.claimURL + "=" + offer.CredentialOfferURI
	}

	record := models.Record{
		ID:                 id.NewIssuanceRecordID(),
		IssuanceID:         offer.IssuanceID,
		CredentialTypeID:   in.CredentialTypeID,
		HolderDID:          in.HolderDID,
		CredentialOfferURI: offer.CredentialOfferURI,
		ExpiresIn:          offer.ExpiresIn,
		CreatedAt:          requesttime.Now(ctx),
	}
	s.record(ctx, record)

	s.logger.InfoContext(ctx, "issuance started",
		"issuance_id", offer.IssuanceID,
		"credential_type_id", in.CredentialTypeID,
	)
	return offer, nil
}

func (s *Service) record(ctx context.Context, record models.Record) {
	if err := s.store.Save(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to record issuance",
			"issuance_id", record.IssuanceID,
			"error", err,
		)
	}
	if s.publisher == nil {
		return
	}
	event := models.StartedEvent{
		EventType:          models.EventTypeStarted,
		RecordID:           record.ID.String(),
		IssuanceID:         record.IssuanceID,
		CredentialTypeID:   record.CredentialTypeID,
		HolderDIDHash:      tracer.HashDID(record.HolderDID),
		CredentialOfferURI: record.CredentialOfferURI,
		ExpiresIn:          record.ExpiresIn,
		OccurredAt:         record.CreatedAt,
	}
	if err := s.publisher.PublishStarted(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish issuance event",
			"issuance_id", record.IssuanceID,
			"error", err,
		)
	}
}

// ListByHolder returns the issuances recorded for holderDID, newest first.
func (s *Service) ListByHolder(ctx context.Context, holderDID string, limit int) ([]models.Record, error) {
	holderDID = strings.TrimSpace(holderDID)
	if holderDID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "holder_did is required")
	}
	if !validation.IsDID(holderDID) {
		return nil, dErrors.New(dErrors.CodeValidation, "holder_did must be a DID")
	}
	records, err := s.store.ListByHolder(ctx, holderDID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issuances")
	}
	return records, nil
}

func validateStart(in models.StartInput) error {
	switch {
	case in.CredentialTypeID == "":
		return dErrors.New(dErrors.CodeValidation, "credential_type_id is required")
	case in.HolderDID == "":
		return dErrors.New(dErrors.CodeValidation, "holder_did is required")
	case !validation.IsDID(in.HolderDID):
		return dErrors.New(dErrors.CodeValidation, "holder_did must be a DID")
	case in.CredentialData == nil:
		return dErrors.New(dErrors.CodeValidation, "credential_data must be an object")
	}
	return nil
}
