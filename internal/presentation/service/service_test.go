package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vaultflow/contracts/verification"
	"vaultflow/internal/platform/metrics"
	"vaultflow/internal/presentation/claims"
	"vaultflow/internal/presentation/cycle"
	"vaultflow/internal/presentation/definitions"
	"vaultflow/internal/presentation/models"
	"vaultflow/internal/presentation/ports"
	portmocks "vaultflow/internal/presentation/ports/mocks"
	"vaultflow/internal/presentation/service/mocks"
	"vaultflow/internal/presentation/store"
	"vaultflow/internal/presentation/wallet"
	"vaultflow/internal/sentinel"
	id "vaultflow/pkg/domain"
	dErrors "vaultflow/pkg/domain-errors"
	requesttime "vaultflow/pkg/platform/middleware/requesttime"
	pkgtestutil "vaultflow/pkg/testutil"
)

// =============================================================================
// Presentation Service Test Suite
// =============================================================================
// Justification for unit tests: the service owns the request cycle state
// machine, correlation of submissions with the requested definition, the
// merge policy and the verification hard stop. The store, registry and
// launcher are real; only the verification collaborator is mocked.

const callbackURL = "https://site.example/credentials-callback"

type PresentationServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockVerifier *portmocks.MockVerifierPort
	store        *store.InMemoryCycleStore
	registry     *definitions.Registry
	launcher     *wallet.Launcher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	service      *Service
	ctx          context.Context
	now          time.Time
}

func TestPresentationServiceSuite(t *testing.T) {
	suite.Run(t, new(PresentationServiceSuite))
}

func (s *PresentationServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockVerifier = portmocks.NewMockVerifierPort(s.ctrl)
	s.store = store.NewMemory()
	s.registry = definitions.Default()
	launcher, err := wallet.NewLauncher("https://vault.affinidi.com/login")
	s.Require().NoError(err)
	s.launcher = launcher
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = s.newService()
	s.now = time.Date(2024, 4, 25, 9, 30, 0, 0, time.UTC)
	s.ctx = requesttime.WithTime(context.Background(), s.now)
}

func (s *PresentationServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *PresentationServiceSuite) newService(opts ...Option) *Service {
	base := []Option{
		WithVerifier(s.mockVerifier),
		WithMetrics(s.metrics),
		WithLogger(s.logger),
	}
	svc, err := New(s.store, s.registry, s.launcher, append(base, opts...)...)
	s.Require().NoError(err)
	return svc
}

// initiated creates a cycle and starts a wallet round trip.
func (s *PresentationServiceSuite) initiated(svc *Service, definitionID string, doVerification bool) id.SessionID {
	snap, err := svc.Create(s.ctx, models.CreateRequest{
		DefinitionID:   definitionID,
		CallbackURL:    callbackURL,
		DoVerification: doVerification,
	})
	s.Require().NoError(err)
	sessionID, err := id.ParseSessionID(snap.SessionID)
	s.Require().NoError(err)
	_, err = svc.Initiate(s.ctx, sessionID, true)
	s.Require().NoError(err)
	return sessionID
}

func walletResponse(s *PresentationServiceSuite, definitionID string, subjects ...string) models.WalletResponse {
	creds := ""
	for i, subject := range subjects {
		if i > 0 {
			creds += ","
		}
		creds += `{"type":["VerifiableCredential"],"credentialSubject":` + subject + `}`
	}
	token := json.RawMessage(`{"type":["VerifiablePresentation"],"verifiableCredential":[` + creds + `]}`)
	submission := json.RawMessage(`{"id":"sub-1","definition_id":"` + definitionID + `","descriptor_map":[]}`)
	resp, err := wallet.ParseResponse(token, submission, "", "")
	s.Require().NoError(err)
	return resp
}

func compliant() *verification.Verdict {
	return &verification.Verdict{Compliant: true}
}

// =============================================================================
// Constructor Tests (Invariant Enforcement)
// =============================================================================

func (s *PresentationServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, s.registry, s.launcher)
		s.Error(err)
		s.Contains(err.Error(), "cycle store is required")
	})

	s.Run("nil registry returns error", func() {
		_, err := New(s.store, nil, s.launcher)
		s.Error(err)
		s.Contains(err.Error(), "definition registry is required")
	})

	s.Run("nil launcher returns error", func() {
		_, err := New(s.store, s.registry, nil)
		s.Error(err)
		s.Contains(err.Error(), "wallet launcher is required")
	})

	s.Run("defaults to accumulate without verifier", func() {
		svc, err := New(s.store, s.registry, s.launcher)
		s.NoError(err)
		s.Equal(claims.Accumulate, svc.policy)
		s.Nil(svc.verifier)
	})

	s.Run("with options applies options", func() {
		svc, err := New(s.store, s.registry, s.launcher,
			WithVerifier(s.mockVerifier),
			WithMergePolicy(claims.Replace),
			WithMetrics(s.metrics),
			WithLogger(s.logger),
		)
		s.NoError(err)
		s.Equal(claims.Replace, svc.policy)
		s.Equal(s.logger, svc.logger)
		s.Equal(s.metrics, svc.metrics)
		s.NotNil(svc.verifier)
	})
}

// =============================================================================
// Create
// =============================================================================

func (s *PresentationServiceSuite) TestCreate() {
	s.Run("opens an idle cycle", func() {
		snap, err := s.service.Create(s.ctx, models.CreateRequest{
			DefinitionID: definitions.UserProfile,
			CallbackURL:  callbackURL,
		})
		s.Require().NoError(err)
		s.Equal(string(cycle.StateIdle), snap.State)
		s.False(snap.IsInitializing)
		s.False(snap.IsLoading)
		s.True(snap.IsExtensionInstalled)
		s.Nil(snap.Data)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.CyclesCreated.WithLabelValues(definitions.UserProfile)))
	})

	s.Run("unknown definition", func() {
		_, err := s.service.Create(s.ctx, models.CreateRequest{DefinitionID: "nope", CallbackURL: callbackURL})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("callback url must be absolute http(s)", func() {
		for _, raw := range []string{"", "/relative", "javascript:alert(1)", "ftp://site.example/cb"} {
			_, err := s.service.Create(s.ctx, models.CreateRequest{DefinitionID: definitions.UserProfile, CallbackURL: raw})
			s.Require().Error(err, raw)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), raw)
		}
	})

	s.Run("verification requested without verifier", func() {
		svc, err := New(s.store, s.registry, s.launcher)
		s.Require().NoError(err)
		_, err = svc.Create(s.ctx, models.CreateRequest{
			DefinitionID:   definitions.WebinarRegistrationVC,
			CallbackURL:    callbackURL,
			DoVerification: true,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// Initiate
// =============================================================================

func (s *PresentationServiceSuite) TestInitiate() {
	s.Run("extension missing keeps state and yields no url", func() {
		snap, err := s.service.Create(s.ctx, models.CreateRequest{DefinitionID: definitions.UserProfile, CallbackURL: callbackURL})
		s.Require().NoError(err)
		sessionID, _ := id.ParseSessionID(snap.SessionID)

		snap, err = s.service.Initiate(s.ctx, sessionID, false)
		s.Require().NoError(err)
		s.False(snap.IsExtensionInstalled)
		s.False(snap.IsInitializing)
		s.Equal(string(cycle.StateIdle), snap.State)
		s.Empty(snap.RequestURL)
	})

	s.Run("extension present awaits the wallet", func() {
		snap, err := s.service.Create(s.ctx, models.CreateRequest{DefinitionID: definitions.UserProfile, CallbackURL: callbackURL})
		s.Require().NoError(err)
		sessionID, _ := id.ParseSessionID(snap.SessionID)

		snap, err = s.service.Initiate(s.ctx, sessionID, true)
		s.Require().NoError(err)
		s.True(snap.IsExtensionInstalled)
		s.True(snap.IsInitializing)
		s.False(snap.IsLoading)
		s.Contains(snap.RequestURL, "https://vault.affinidi.com/login?request=")

		stored, err := s.store.FindBySession(s.ctx, sessionID)
		s.Require().NoError(err)
		s.Equal(1, stored.Initiations)
		s.Equal(s.now, stored.UpdatedAt)
	})

	s.Run("re-initiate after failure clears the error", func() {
		sessionID := s.initiated(s.service, definitions.UserProfile, false)
		snap, err := s.service.Complete(s.ctx, sessionID, models.WalletResponse{Error: "access_denied", ErrorDescription: "user declined"})
		s.Require().NoError(err)
		s.Equal("access_denied", snap.Error)

		snap, err = s.service.Initiate(s.ctx, sessionID, true)
		s.Require().NoError(err)
		s.True(snap.IsInitializing)
		s.Empty(snap.Error)
		s.Empty(snap.ErrorDescription)

		stored, _ := s.store.FindBySession(s.ctx, sessionID)
		s.Equal(2, stored.Initiations)
	})

	s.Run("unknown session", func() {
		_, err := s.service.Initiate(s.ctx, id.NewSessionID(), true)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Complete
// =============================================================================

func (s *PresentationServiceSuite) TestCompleteVerifiedEndToEnd() {
	sessionID := s.initiated(s.service, definitions.WebinarRegistrationVC, true)
	resp := walletResponse(s, definitions.WebinarRegistrationVC, `{"name":"Ada","email":"ada@example.com"}`)

	s.mockVerifier.EXPECT().Verify(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req ports.VerifyRequest) (*verification.Verdict, error) {
			var def models.PresentationDefinition
			s.Require().NoError(json.Unmarshal(req.Definition, &def))
			s.Equal(definitions.WebinarRegistrationVC, def.ID)
			s.JSONEq(string(resp.RawToken), string(req.Token))
			s.JSONEq(string(resp.RawSubmission), string(req.Submission))

			// Readers observe the in-flight verification.
			snap, err := s.service.Snapshot(ctx, sessionID)
			s.Require().NoError(err)
			s.True(snap.IsLoading)
			s.False(snap.IsInitializing)
			return compliant(), nil
		})

	snap, err := s.service.Complete(s.ctx, sessionID, resp)
	s.Require().NoError(err)
	s.Equal(string(cycle.StateComplete), snap.State)
	s.Equal(models.Claims{"name": "Ada", "email": "ada@example.com"}, snap.Data)
	s.Empty(snap.Error)
	s.False(snap.IsLoading)
	s.False(snap.IsInitializing)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.CycleTransitions.WithLabelValues("claims_published", "complete")))
}

func (s *PresentationServiceSuite) TestCompleteMergesDisjointCredentialsInAnyOrder() {
	first := `{"name":"Ada"}`
	second := `[{"email":"ada@example.com"}]`
	want := models.Claims{"name": "Ada", "email": "ada@example.com"}

	for _, subjects := range [][]string{{first, second}, {second, first}} {
		sessionID := s.initiated(s.service, definitions.UserProfile, true)
		s.mockVerifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(compliant(), nil)

		snap, err := s.service.Complete(s.ctx, sessionID, walletResponse(s, definitions.UserProfile, subjects...))
		s.Require().NoError(err)
		s.Equal(string(cycle.StateComplete), snap.State)
		s.Equal(want, snap.Data)
	}
}

func (s *PresentationServiceSuite) TestCompleteWithoutVerificationSkipsVerifier() {
	sessionID := s.initiated(s.service, definitions.MoviePreference, false)

	snap, err := s.service.Complete(s.ctx, sessionID, walletResponse(s, definitions.MoviePreference,
		`{"genre":"drama","language":"en"}`,
		`[{"rating":"PG"},{"ignored":true}]`,
	))
	s.Require().NoError(err)
	s.Equal(models.Claims{"genre": "drama", "language": "en", "rating": "PG"}, snap.Data)
}

func (s *PresentationServiceSuite) TestCompleteInvalidPresentationWithholdsClaims() {
	sessionID := s.initiated(s.service, definitions.WebinarRegistrationVC, true)
	s.mockVerifier.EXPECT().Verify(gomock.Any(), gomock.Any()).
		Return(&verification.Verdict{Compliant: false, Errors: []string{"proof invalid", "credential expired"}}, nil)

	snap, err := s.service.Complete(s.ctx, sessionID, walletResponse(s, definitions.WebinarRegistrationVC, `{"name":"Mallory"}`))
	s.Require().NoError(err)
	s.Equal(string(cycle.StateFailed), snap.State)
	s.Equal(ErrorInvalidVPToken, snap.Error)
	s.Equal("proof invalid; credential expired", snap.ErrorDescription)
	s.Nil(snap.Data)
	s.False(snap.IsLoading)
}

func (s *PresentationServiceSuite) TestCompleteVerifierUnavailableFailsCycle() {
	sessionID := s.initiated(s.service, definitions.WebinarRegistrationVC, true)
	s.mockVerifier.EXPECT().Verify(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "verifier is unreachable"))

	snap, err := s.service.Complete(s.ctx, sessionID, walletResponse(s, definitions.WebinarRegistrationVC, `{"name":"Ada"}`))
	s.Require().NoError(err)
	s.Equal(string(cycle.StateFailed), snap.State)
	s.Equal(ErrorVerificationUnavailable, snap.Error)
	s.Equal("verifier is unreachable", snap.ErrorDescription)
	s.Nil(snap.Data)
}

func (s *PresentationServiceSuite) TestCompleteDefinitionMismatchIsSilent() {
	sessionID := s.initiated(s.service, definitions.WebinarRegistrationVC, true)
	s.mockVerifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(compliant(), nil)

	snap, err := s.service.Complete(s.ctx, sessionID, walletResponse(s, definitions.MoviePreference, `{"genre":"drama"}`))
	s.Require().NoError(err)
	s.Equal(string(cycle.StateAwaitingWallet), snap.State)
	s.True(snap.IsInitializing)
	s.Nil(snap.Data)
	s.Empty(snap.Error)
	s.Empty(snap.ErrorDescription)
}

func (s *PresentationServiceSuite) TestCompleteWalletError() {
	sessionID := s.initiated(s.service, definitions.UserProfile, true)

	snap, err := s.service.Complete(s.ctx, sessionID, models.WalletResponse{Error: "access_denied", ErrorDescription: "user declined"})
	s.Require().NoError(err)
	s.Equal(string(cycle.StateFailed), snap.State)
	s.Equal("access_denied", snap.Error)
	s.Equal("user declined", snap.ErrorDescription)
}

func (s *PresentationServiceSuite) TestCompleteRejections() {
	s.Run("before initiate", func() {
		snap, err := s.service.Create(s.ctx, models.CreateRequest{DefinitionID: definitions.UserProfile, CallbackURL: callbackURL})
		s.Require().NoError(err)
		sessionID, _ := id.ParseSessionID(snap.SessionID)

		_, err = s.service.Complete(s.ctx, sessionID, walletResponse(s, definitions.UserProfile, `{"email":"a@b.c"}`))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("after failure", func() {
		sessionID := s.initiated(s.service, definitions.UserProfile, false)
		_, err := s.service.Complete(s.ctx, sessionID, models.WalletResponse{Error: "access_denied"})
		s.Require().NoError(err)

		_, err = s.service.Complete(s.ctx, sessionID, walletResponse(s, definitions.UserProfile, `{"email":"a@b.c"}`))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("missing token keeps the cycle waiting", func() {
		sessionID := s.initiated(s.service, definitions.UserProfile, false)
		_, err := s.service.Complete(s.ctx, sessionID, models.WalletResponse{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

		snap, err := s.service.Snapshot(s.ctx, sessionID)
		s.Require().NoError(err)
		s.True(snap.IsInitializing)
	})

	s.Run("unknown session", func() {
		_, err := s.service.Complete(s.ctx, id.NewSessionID(), models.WalletResponse{Error: "x"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Merge policy and late completions
// =============================================================================

func (s *PresentationServiceSuite) TestAccumulateMergesAcrossCycles() {
	sessionID := s.initiated(s.service, definitions.UserProfile, false)
	_, err := s.service.Complete(s.ctx, sessionID, walletResponse(s, definitions.UserProfile, `{"email":"ada@example.com","city":"London"}`))
	s.Require().NoError(err)

	_, err = s.service.Initiate(s.ctx, sessionID, true)
	s.Require().NoError(err)
	snap, err := s.service.Complete(s.ctx, sessionID, walletResponse(s, definitions.UserProfile, `{"city":"Paris","name":"Ada"}`))
	s.Require().NoError(err)

	s.Equal(models.Claims{"email": "ada@example.com", "city": "Paris", "name": "Ada"}, snap.Data)
}

func (s *PresentationServiceSuite) TestReplaceDropsEarlierClaims() {
	svc := s.newService(WithMergePolicy(claims.Replace))
	sessionID := s.initiated(svc, definitions.UserProfile, false)
	_, err := svc.Complete(s.ctx, sessionID, walletResponse(s, definitions.UserProfile, `{"email":"ada@example.com","city":"London"}`))
	s.Require().NoError(err)

	_, err = svc.Initiate(s.ctx, sessionID, true)
	s.Require().NoError(err)
	snap, err := svc.Complete(s.ctx, sessionID, walletResponse(s, definitions.UserProfile, `{"name":"Ada"}`))
	s.Require().NoError(err)

	s.Equal(models.Claims{"name": "Ada"}, snap.Data)
}

func (s *PresentationServiceSuite) TestLateCompletionStillMerges() {
	sessionID := s.initiated(s.service, definitions.UserProfile, false)
	// Second initiate while the first round trip is still outstanding.
	_, err := s.service.Initiate(s.ctx, sessionID, true)
	s.Require().NoError(err)

	snap, err := s.service.Complete(s.ctx, sessionID, walletResponse(s, definitions.UserProfile, `{"email":"first@example.com"}`))
	s.Require().NoError(err)
	s.Equal(string(cycle.StateComplete), snap.State)

	// The second round trip resolves after the cycle already completed.
	snap, err = s.service.Complete(s.ctx, sessionID, walletResponse(s, definitions.UserProfile, `{"name":"Ada"}`))
	s.Require().NoError(err)
	s.Equal(string(cycle.StateComplete), snap.State)
	s.Equal(models.Claims{"email": "first@example.com", "name": "Ada"}, snap.Data)
}

// =============================================================================
// Concurrency
// =============================================================================

func (s *PresentationServiceSuite) TestConcurrentCompletionsAreSerialized() {
	sessionID := s.initiated(s.service, definitions.UserProfile, true)
	const goroutines = 20
	s.mockVerifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(compliant(), nil).Times(goroutines)

	result := pkgtestutil.RunConcurrent(goroutines, func(idx int) error {
		_, err := s.service.Complete(s.ctx, sessionID,
			walletResponse(s, definitions.UserProfile, fmt.Sprintf(`{"claim_%d":%d}`, idx, idx)))
		return err
	})

	s.Equal(int32(goroutines), result.Successes)
	snap, err := s.service.Snapshot(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Len(snap.Data, goroutines, "no completion may be lost")
}

func (s *PresentationServiceSuite) TestInstancesSharingALockerDoNotLoseCompletions() {
	locker := NewLocalLocker()
	instanceA := s.newService(WithLocker(locker))
	instanceB := s.newService(WithLocker(locker))
	instances := []*Service{instanceA, instanceB}

	sessionID := s.initiated(instanceA, definitions.UserProfile, true)
	_, err := instanceB.Initiate(s.ctx, sessionID, true)
	s.Require().NoError(err)

	const goroutines = 20
	s.mockVerifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(compliant(), nil).Times(goroutines)

	result := pkgtestutil.RunConcurrent(goroutines, func(idx int) error {
		_, err := instances[idx%2].Complete(s.ctx, sessionID,
			walletResponse(s, definitions.UserProfile, fmt.Sprintf(`{"claim_%d":%d}`, idx, idx)))
		return err
	})

	s.Equal(int32(goroutines), result.Successes)
	snap, err := instanceB.Snapshot(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Equal(string(cycle.StateComplete), snap.State)
	s.Len(snap.Data, goroutines, "no completion may be lost across instances")
}

func (s *PresentationServiceSuite) TestBusyLockIsUnavailable() {
	locker := mocks.NewMockLocker(s.ctrl)
	svc := s.newService(WithLocker(locker))
	sessionID := id.NewSessionID()

	locker.EXPECT().WithLock(gomock.Any(), sessionID.String(), gomock.Any()).
		Return(fmt.Errorf("acquire cycle lock: %w: %w", sentinel.ErrUnavailable, context.DeadlineExceeded))

	_, err := svc.Complete(s.ctx, sessionID, walletResponse(s, definitions.UserProfile, `{"name":"Ada"}`))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.ErrorIs(err, context.DeadlineExceeded)
}

// =============================================================================
// Store failures
// =============================================================================

func (s *PresentationServiceSuite) TestStoreFailures() {
	mockStore := mocks.NewMockCycleStore(s.ctrl)
	svc, err := New(mockStore, s.registry, s.launcher, WithLogger(s.logger))
	s.Require().NoError(err)

	s.Run("save failure on create", func() {
		mockStore.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
		_, err := svc.Create(s.ctx, models.CreateRequest{DefinitionID: definitions.UserProfile, CallbackURL: callbackURL})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("load failure on snapshot", func() {
		mockStore.EXPECT().FindBySession(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
		_, err := svc.Snapshot(s.ctx, id.NewSessionID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *PresentationServiceSuite) TestLauncherFailurePropagates() {
	mockLauncher := mocks.NewMockWalletLauncher(s.ctrl)
	svc, err := New(s.store, s.registry, mockLauncher, WithLogger(s.logger))
	s.Require().NoError(err)
	snap, err := svc.Create(s.ctx, models.CreateRequest{DefinitionID: definitions.UserProfile, CallbackURL: callbackURL})
	s.Require().NoError(err)
	sessionID, _ := id.ParseSessionID(snap.SessionID)

	mockLauncher.EXPECT().Launch(gomock.Any(), callbackURL, sessionID, true).
		Return(wallet.Launch{}, dErrors.New(dErrors.CodeInternal, "failed to encode wallet request"))

	_, err = svc.Initiate(s.ctx, sessionID, true)
	s.Require().Error(err)
	stored, _ := s.store.FindBySession(s.ctx, sessionID)
	s.Equal(cycle.StateIdle, stored.State)
}

func (s *PresentationServiceSuite) TestDefinitionRemovedAfterCreate() {
	mockRegistry := mocks.NewMockDefinitionRegistry(s.ctrl)
	svc, err := New(s.store, mockRegistry, s.launcher, WithLogger(s.logger))
	s.Require().NoError(err)

	mockRegistry.EXPECT().Get(definitions.UserProfile).Return(models.PresentationDefinition{ID: definitions.UserProfile}, nil)
	snap, err := svc.Create(s.ctx, models.CreateRequest{DefinitionID: definitions.UserProfile, CallbackURL: callbackURL})
	s.Require().NoError(err)
	sessionID, _ := id.ParseSessionID(snap.SessionID)

	mockRegistry.EXPECT().Get(definitions.UserProfile).Return(models.PresentationDefinition{}, dErrors.New(dErrors.CodeNotFound, "gone"))
	_, err = svc.Initiate(s.ctx, sessionID, true)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
