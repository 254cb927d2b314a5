package service

import (
	"context"
	"log/slog"
	"strings"

	"vaultflow/internal/platform/metrics"
	"vaultflow/internal/verifier/models"
	dErrors "vaultflow/pkg/domain-errors"
	pstrings "vaultflow/pkg/platform/strings"
)

// Client verifies presentations against the verification API.
type Client interface {
	VerifyPresentation(ctx context.Context, in models.VerifyInput) (*models.Result, error)
}

// Option configures the verifier service.
type Option func(*Service)

// Service applies the skip-verification mode and interprets verifier results.
type Service struct {
	client  Client
	skip    bool
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// WithSkipVerification answers every presentation as valid without calling out.
func WithSkipVerification(skip bool) Option {
	return func(s *Service) {
		s.skip = skip
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

// New creates a verifier service. A client is required unless verification
// is skipped.
func New(client Client, opts ...Option) (*Service, error) {
	svc := &Service{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.client == nil && !svc.skip {
		return nil, dErrors.New(dErrors.CodeInternal, "verification client is required")
	}
	return svc, nil
}

// Skipping reports whether presentations are accepted without verification.
func (s *Service) Skipping() bool {
	return s.skip
}

// Verify returns the verifier's answer for the bundle.
func (s *Service) Verify(ctx context.Context, in models.VerifyInput) (*models.Result, error) {
	if s.skip {
		s.logger.WarnContext(ctx, "VP token is not being verified, skipping verification")
		s.metrics.IncVerification(models.OutcomeSkipped)
		return &models.Result{IsValid: true}, nil
	}

	result, err := s.client.VerifyPresentation(ctx, in)
	if err != nil {
		s.metrics.IncVerification(models.OutcomeError)
		s.logger.ErrorContext(ctx, "presentation verification failed",
			"error", err,
		)
		return nil, err
	}

	if result.IsValid {
		s.metrics.IncVerification(models.OutcomeValid)
	} else {
		s.metrics.IncVerification(models.OutcomeInvalid)
		s.logger.InfoContext(ctx, "presentation rejected by verifier",
			"error_count", len(result.Errors),
		)
	}
	return result, nil
}

// Check is Verify with a non-valid answer turned into an invalid_vp_token error.
func (s *Service) Check(ctx context.Context, in models.VerifyInput) error {
	result, err := s.Verify(ctx, in)
	if err != nil {
		return err
	}
	if !result.IsValid {
		return dErrors.New(dErrors.CodeInvalidVPToken, Describe(result.Errors))
	}
	return nil
}

// Describe renders verifier errors as one error description.
// Blank and repeated entries are dropped.
func Describe(errs []string) string {
	errs = pstrings.DedupeAndTrim(errs)
	if len(errs) == 0 {
		return "presentation is not valid"
	}
	return strings.Join(errs, "; ")
}
