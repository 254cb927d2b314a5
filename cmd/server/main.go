package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	issuanceclient "vaultflow/internal/issuance/client"
	issuanceevents "vaultflow/internal/issuance/events"
	issuancehandler "vaultflow/internal/issuance/handler"
	issuanceservice "vaultflow/internal/issuance/service"
	issuancestore "vaultflow/internal/issuance/store"
	"vaultflow/internal/platform/config"
	"vaultflow/internal/platform/database"
	"vaultflow/internal/platform/gateway"
	"vaultflow/internal/platform/health"
	"vaultflow/internal/platform/httpserver"
	"vaultflow/internal/platform/kafka/producer"
	"vaultflow/internal/platform/logger"
	"vaultflow/internal/platform/metrics"
	"vaultflow/internal/platform/projecttoken"
	redisclient "vaultflow/internal/platform/redis"
	"vaultflow/internal/presentation/adapters"
	"vaultflow/internal/presentation/claims"
	"vaultflow/internal/presentation/definitions"
	presentationhandler "vaultflow/internal/presentation/handler"
	presentationservice "vaultflow/internal/presentation/service"
	presentationstore "vaultflow/internal/presentation/store"
	"vaultflow/internal/presentation/wallet"
	httptransport "vaultflow/internal/transport/http"
	verifierclient "vaultflow/internal/verifier/client"
	verifierhandler "vaultflow/internal/verifier/handler"
	verifierservice "vaultflow/internal/verifier/service"
	"vaultflow/internal/webinar/catalog"
	webinarhandler "vaultflow/internal/webinar/handler"
	webinarservice "vaultflow/internal/webinar/service"
	"vaultflow/pkg/platform/middleware/metadata"
	"vaultflow/pkg/platform/middleware/request"
	"vaultflow/pkg/platform/tracer"
)

const poolStatsInterval = 15 * time.Second

// infra holds the optional backing services. A nil field means the
// in-memory or no-op alternative is used.
type infra struct {
	redis    *redisclient.Client
	db       *database.Pool
	producer *producer.Producer
}

func (i *infra) close(log *slog.Logger) {
	if i.producer != nil {
		if err := i.producer.Close(); err != nil {
			log.Error("failed to close kafka producer", "error", err)
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Error("failed to close redis", "error", err)
		}
	}
	if err := i.db.Close(); err != nil {
		log.Error("failed to close database", "error", err)
	}
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	log.Info("initializing vaultflow",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"skip_verification", cfg.APIGateway.SkipVerification,
		"merge_policy", cfg.Requests.MergePolicy,
	)

	if err := run(cfg, log); err != nil {
		log.Error("vaultflow stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := connect(cfg, log)
	if err != nil {
		return err
	}
	defer deps.close(log)

	appMetrics := metrics.New()
	healthHandler := health.New(cfg.Server.Environment)
	registerChecks(healthHandler, deps)

	modules, err := buildModules(cfg, deps, appMetrics, log)
	if err != nil {
		return err
	}
	modules = append(modules, healthHandler)

	trustedProxies, err := metadata.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}
	router := httptransport.NewRouter(httptransport.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		TrustedProxies: trustedProxies,
		Metrics:        request.NewMetrics(),
	}, log, modules...)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		recordPoolStats(gctx, deps)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func connect(cfg config.Config, log *slog.Logger) (*infra, error) {
	deps := &infra{}

	rc, err := redisclient.New(cfg.Redis)
	if err != nil {
		return nil, err
	}
	deps.redis = rc

	db, err := database.New(cfg.Database)
	if err != nil {
		deps.close(log)
		return nil, err
	}
	deps.db = db

	if cfg.Kafka.Brokers != "" {
		prod, err := producer.New(cfg.Kafka, log)
		if err != nil {
			deps.close(log)
			return nil, err
		}
		deps.producer = prod
	}

	log.Info("backing services",
		"redis", deps.redis != nil,
		"postgres", deps.db != nil,
		"kafka", deps.producer != nil,
	)
	return deps, nil
}

func registerChecks(h *health.Handler, deps *infra) {
	if deps.redis != nil {
		h.RegisterCheck("redis", deps.redis.Health)
	}
	if deps.db != nil {
		h.RegisterCheck("postgres", deps.db.Health)
	}
	if deps.producer != nil {
		h.RegisterCheck("kafka", deps.producer.Health)
	}
}

func recordPoolStats(ctx context.Context, deps *infra) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if deps.redis != nil {
				deps.redis.RecordPoolStats()
			}
			deps.db.RecordPoolStats()
		}
	}
}

func buildModules(cfg config.Config, deps *infra, m *metrics.Metrics, log *slog.Logger) ([]httptransport.Registrar, error) {
	spans := tracer.NewOTel()

	gatewayOpts := []gateway.Option{gateway.WithMetrics(m), gateway.WithLogger(log)}
	if cfg.ProjectToken.Configured() {
		tokenCaller := gateway.New("token", cfg.APIGateway.URL, cfg.APIGateway.Timeout, gatewayOpts...)
		tokens, err := projecttoken.New(cfg.ProjectToken, cfg.APIGateway.ProjectID, tokenCaller,
			projecttoken.WithTracer(spans),
			projecttoken.WithMetrics(m),
			projecttoken.WithLogger(log),
		)
		if err != nil {
			return nil, err
		}
		gatewayOpts = append(gatewayOpts, gateway.WithTokenSource(tokens))
	} else {
		log.Warn("project token is not configured; verification and issuance calls are unauthenticated")
	}

	// Verification.
	var verifierCalls verifierservice.Client
	if !cfg.APIGateway.SkipVerification {
		verifierCalls = verifierclient.New(
			gateway.New("verifier", cfg.APIGateway.URL, cfg.APIGateway.Timeout, gatewayOpts...),
			verifierclient.WithTracer(spans),
		)
	}
	verifier, err := verifierservice.New(verifierCalls,
		verifierservice.WithSkipVerification(cfg.APIGateway.SkipVerification),
		verifierservice.WithMetrics(m),
		verifierservice.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	if verifier.Skipping() {
		log.Warn("presentations are accepted without verification")
	}

	// Request cycles.
	policy, err := claims.ParseMergePolicy(cfg.Requests.MergePolicy)
	if err != nil {
		return nil, err
	}
	launcher, err := wallet.NewLauncher(cfg.Vault.RequestURL)
	if err != nil {
		return nil, err
	}
	var cycles presentationservice.CycleStore = presentationstore.NewMemory()
	locker := presentationservice.NewLocalLocker()
	if deps.redis != nil {
		cycles = presentationstore.NewRedis(deps.redis.Client, cfg.Redis.CycleTTL)
		locker = presentationstore.NewRedisLocker(deps.redis.Client, cfg.Redis.LockTTL)
	}
	registry := definitions.Default()
	presentation, err := presentationservice.New(cycles, registry, launcher,
		presentationservice.WithVerifier(adapters.NewVerifierAdapter(verifier)),
		presentationservice.WithMergePolicy(policy),
		presentationservice.WithLocker(locker),
		presentationservice.WithMetrics(m),
		presentationservice.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	// Issuance.
	var records issuanceservice.Store = issuancestore.NewMemory()
	if deps.db != nil {
		records = issuancestore.NewPostgres(deps.db.DB())
	}
	issuanceOpts := []issuanceservice.Option{
		issuanceservice.WithClaimURL(cfg.Vault.ClaimURL),
		issuanceservice.WithMetrics(m),
		issuanceservice.WithLogger(log),
	}
	if deps.producer != nil {
		issuanceOpts = append(issuanceOpts,
			issuanceservice.WithPublisher(issuanceevents.NewPublisher(deps.producer, cfg.Kafka.IssuanceTopic)))
	}
	issuer, err := issuanceservice.New(
		issuanceclient.New(
			gateway.New("issuance", cfg.APIGateway.URL, cfg.APIGateway.Timeout, gatewayOpts...),
			cfg.APIGateway.ProjectID,
			issuanceclient.WithTracer(spans),
		),
		records,
		issuanceOpts...,
	)
	if err != nil {
		return nil, err
	}

	// Webinars.
	webinars, err := webinarservice.New(catalog.Default(), issuer, webinarservice.WithLogger(log))
	if err != nil {
		return nil, err
	}

	return []httptransport.Registrar{
		presentationhandler.New(presentation, registry, log),
		verifierhandler.New(verifier, log),
		issuancehandler.New(issuer, log),
		webinarhandler.New(webinars, log),
	}, nil
}
