// Package service drives the request cycle of each browser session: create,
// initiate the wallet round trip, accept the wallet's response and expose
// the resulting state.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"vaultflow/internal/platform/metrics"
	"vaultflow/internal/presentation/claims"
	"vaultflow/internal/presentation/cycle"
	"vaultflow/internal/presentation/models"
	"vaultflow/internal/presentation/ports"
	"vaultflow/internal/presentation/wallet"
	"vaultflow/internal/sentinel"
	id "vaultflow/pkg/domain"
	dErrors "vaultflow/pkg/domain-errors"
	requesttime "vaultflow/pkg/platform/middleware/requesttime"
	pstrings "vaultflow/pkg/platform/strings"
	platformsync "vaultflow/pkg/platform/sync"
)

// Error codes recorded on a failed cycle.
const (
	ErrorVerificationUnavailable = "verification_unavailable"
	ErrorInvalidVPToken          = "invalid_vp_token"
)

// CycleStore persists one cycle per session.
type CycleStore interface {
	Save(ctx context.Context, c *models.Cycle) error
	FindBySession(ctx context.Context, sessionID id.SessionID) (*models.Cycle, error)
}

// DefinitionRegistry resolves presentation definitions by id.
type DefinitionRegistry interface {
	Get(id string) (models.PresentationDefinition, error)
}

// WalletLauncher builds the wallet request for one round trip.
type WalletLauncher interface {
	Launch(def models.PresentationDefinition, callbackURL string, sessionID id.SessionID, extensionInstalled bool) (wallet.Launch, error)
}

// Locker serializes updates to one session's cycle. Instances that share a
// cycle store must share a Locker too.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

// localLocker serializes updates within this process only.
type localLocker struct {
	mu *platformsync.ShardedMutex
}

// NewLocalLocker returns a Locker backed by an in-process sharded mutex.
func NewLocalLocker() Locker {
	return localLocker{mu: platformsync.NewShardedMutex()}
}

func (l localLocker) WithLock(_ context.Context, key string, fn func() error) error {
	return l.mu.WithLock(key, fn)
}

// Option configures the presentation service.
type Option func(*Service)

// Service orchestrates presentation request cycles.
type Service struct {
	store       CycleStore
	definitions DefinitionRegistry
	launcher    WalletLauncher
	verifier    ports.VerifierPort
	policy      claims.MergePolicy
	locks       Locker
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// WithVerifier sets the verification collaborator used by cycles that ask
// for verification.
func WithVerifier(v ports.VerifierPort) Option {
	return func(s *Service) {
		s.verifier = v
	}
}

// WithMergePolicy sets how completed cycles combine with earlier data.
func WithMergePolicy(p claims.MergePolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithLocker replaces the in-process session lock.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locks = l
		}
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

// New creates the presentation service.
func New(store CycleStore, definitions DefinitionRegistry, launcher WalletLauncher, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("cycle store is required")
	}
	if definitions == nil {
		return nil, errors.New("definition registry is required")
	}
	if launcher == nil {
		return nil, errors.New("wallet launcher is required")
	}
	svc := &Service{
		store:       store,
		definitions: definitions,
		launcher:    launcher,
		policy:      claims.Accumulate,
		locks:       NewLocalLocker(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create opens an idle cycle for a new session.
func (s *Service) Create(ctx context.Context, req models.CreateRequest) (models.Snapshot, error) {
	if _, err := s.definitions.Get(req.DefinitionID); err != nil {
		return models.Snapshot{}, dErrors.New(dErrors.CodeBadRequest, "unknown presentation definition: "+req.DefinitionID)
	}
	if err := validateCallbackURL(req.CallbackURL); err != nil {
		return models.Snapshot{}, err
	}
	if req.DoVerification && s.verifier == nil {
		return models.Snapshot{}, dErrors.New(dErrors.CodeInternal, "verification requested but no verifier is configured")
	}

	now := requesttime.Now(ctx)
	c := &models.Cycle{
		SessionID:          id.NewSessionID(),
		DefinitionID:       req.DefinitionID,
		CallbackURL:        req.CallbackURL,
		DoVerification:     req.DoVerification,
		State:              cycle.StateIdle,
		ExtensionInstalled: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.save(ctx, c); err != nil {
		return models.Snapshot{}, err
	}
	s.metrics.IncCycleCreated(c.DefinitionID)
	s.logger.InfoContext(ctx, "request cycle created",
		"session_id", c.SessionID.String(),
		"definition_id", c.DefinitionID,
		"do_verification", c.DoVerification,
	)
	return c.Snapshot(), nil
}

// Initiate starts a wallet round trip. Without a compatible extension the
// cycle only records that fact and keeps its state. A round trip already in
// flight is overwritten, never cancelled.
func (s *Service) Initiate(ctx context.Context, sessionID id.SessionID, extensionInstalled bool) (models.Snapshot, error) {
	var snap models.Snapshot
	err := s.lock(ctx, sessionID, func() error {
		c, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		def, err := s.definitions.Get(c.DefinitionID)
		if err != nil {
			return dErrors.New(dErrors.CodeInternal, "presentation definition no longer available")
		}
		launch, err := s.launcher.Launch(def, c.CallbackURL, c.SessionID, extensionInstalled)
		if err != nil {
			return err
		}

		now := requesttime.Now(ctx)
		c.ExtensionInstalled = launch.Available
		if !launch.Available {
			c.UpdatedAt = now
			s.logger.InfoContext(ctx, "wallet extension not installed",
				"session_id", c.SessionID.String(),
			)
			if err := s.save(ctx, c); err != nil {
				return err
			}
			snap = c.Snapshot()
			return nil
		}

		if err := s.apply(ctx, c, cycle.EventInitiate); err != nil {
			return err
		}
		c.Error = ""
		c.ErrorDescription = ""
		c.RequestURL = launch.RequestURL
		c.Initiations++
		if err := s.save(ctx, c); err != nil {
			return err
		}
		snap = c.Snapshot()
		return nil
	})
	return snap, err
}

// Complete accepts the wallet's response for the session. Failures reported
// by the wallet or the verifier end in a failed cycle and are returned as
// state, not as errors. A submission for another definition sends the cycle
// back to waiting for the wallet without publishing claims.
func (s *Service) Complete(ctx context.Context, sessionID id.SessionID, resp models.WalletResponse) (models.Snapshot, error) {
	var snap models.Snapshot
	err := s.lock(ctx, sessionID, func() error {
		c, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if !cycle.CanAccept(c.State) {
			return dErrors.New(dErrors.CodeConflict, "no wallet request is outstanding for this session")
		}

		if resp.Error != "" {
			if err := s.fail(ctx, c, cycle.EventWalletFailed, resp.Error, resp.ErrorDescription); err != nil {
				return err
			}
			snap = c.Snapshot()
			return nil
		}
		if resp.Token == nil || resp.Submission == nil {
			return dErrors.New(dErrors.CodeBadRequest, "vp_token and presentation_submission are required")
		}

		if err := s.apply(ctx, c, cycle.EventTokenReceived); err != nil {
			return err
		}
		if err := s.save(ctx, c); err != nil {
			return err
		}

		if c.DoVerification {
			ok, err := s.verify(ctx, c, resp)
			if err != nil {
				return err
			}
			if !ok {
				snap = c.Snapshot()
				return nil
			}
		}

		if resp.Submission.DefinitionID != c.DefinitionID {
			s.logger.InfoContext(ctx, "presentation submission for another definition ignored",
				"session_id", c.SessionID.String(),
				"requested_definition_id", c.DefinitionID,
				"submitted_definition_id", resp.Submission.DefinitionID,
			)
			if err := s.apply(ctx, c, cycle.EventDefinitionMismatch); err != nil {
				return err
			}
			if err := s.save(ctx, c); err != nil {
				return err
			}
			snap = c.Snapshot()
			return nil
		}

		c.Data = s.policy.Apply(c.Data, claims.Extract(resp.Token))
		if err := s.apply(ctx, c, cycle.EventClaimsPublished); err != nil {
			return err
		}
		c.Error = ""
		c.ErrorDescription = ""
		if err := s.save(ctx, c); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "claims published",
			"session_id", c.SessionID.String(),
			"definition_id", c.DefinitionID,
			"claim_count", len(c.Data),
		)
		snap = c.Snapshot()
		return nil
	})
	return snap, err
}

// Snapshot returns the state exposed to the page.
func (s *Service) Snapshot(ctx context.Context, sessionID id.SessionID) (models.Snapshot, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return models.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// verify asks the collaborator about the presentation. It reports false
// when the cycle was failed and saved.
func (s *Service) verify(ctx context.Context, c *models.Cycle, resp models.WalletResponse) (bool, error) {
	if s.verifier == nil {
		return false, dErrors.New(dErrors.CodeInternal, "verification requested but no verifier is configured")
	}
	def, err := s.definitions.Get(c.DefinitionID)
	if err != nil {
		return false, dErrors.New(dErrors.CodeInternal, "presentation definition no longer available")
	}
	rawDef, err := json.Marshal(def)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode presentation definition")
	}

	verdict, err := s.verifier.Verify(ctx, ports.VerifyRequest{
		Token:      resp.RawToken,
		Definition: rawDef,
		Submission: resp.RawSubmission,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "verification collaborator failed",
			"session_id", c.SessionID.String(),
			"error", err,
		)
		return false, s.fail(ctx, c, cycle.EventVerificationFailed, ErrorVerificationUnavailable, err.Error())
	}
	if !verdict.Compliant {
		description := "presentation is not valid"
		if errs := pstrings.DedupeAndTrim(verdict.Errors); len(errs) > 0 {
			description = strings.Join(errs, "; ")
		}
		return false, s.fail(ctx, c, cycle.EventVerificationFailed, ErrorInvalidVPToken, description)
	}
	return true, nil
}

func (s *Service) fail(ctx context.Context, c *models.Cycle, event cycle.Event, code, description string) error {
	if err := c.Fail(event, code, description, requesttime.Now(ctx)); err != nil {
		return err
	}
	s.metrics.IncCycleTransition(string(event), string(c.State))
	s.logger.InfoContext(ctx, "request cycle failed",
		"session_id", c.SessionID.String(),
		"event", string(event),
		"error_code", code,
	)
	return s.save(ctx, c)
}

func (s *Service) apply(ctx context.Context, c *models.Cycle, event cycle.Event) error {
	if err := c.Apply(event, requesttime.Now(ctx)); err != nil {
		return err
	}
	s.metrics.IncCycleTransition(string(event), string(c.State))
	return nil
}

func (s *Service) lock(ctx context.Context, sessionID id.SessionID, fn func() error) error {
	err := s.locks.WithLock(ctx, sessionID.String(), fn)
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "request cycle is busy, try again")
	}
	return err
}

func (s *Service) load(ctx context.Context, sessionID id.SessionID) (*models.Cycle, error) {
	c, err := s.store.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "request cycle not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request cycle")
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *models.Cycle) error {
	if err := s.store.Save(ctx, c); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save request cycle")
	}
	return nil
}

func validateCallbackURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return dErrors.New(dErrors.CodeValidation, "callback_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return dErrors.New(dErrors.CodeValidation, "callback_url must be an absolute http(s) URL")
	}
	return nil
}
