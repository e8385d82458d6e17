package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/armory-onboarding/internal/config"
	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/geo"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/jobqueue"
	cacherepo "github.com/riskibarqy/armory-onboarding/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/storage/disk"
	"github.com/riskibarqy/armory-onboarding/internal/interfaces/httpapi"
	"github.com/riskibarqy/armory-onboarding/internal/platform/cache"
	"github.com/riskibarqy/armory-onboarding/internal/platform/id"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
	"github.com/riskibarqy/armory-onboarding/internal/platform/resilience"
	"github.com/riskibarqy/armory-onboarding/internal/usecase"
)

const limiterSweepInterval = time.Minute

// App owns the HTTP server and the resources behind it.
type App struct {
	Server  *http.Server
	Metrics *httpapi.Metrics

	logger  *logging.Logger
	limiter *httpapi.RateLimiter
	db      *sqlx.DB
}

type repositories struct {
	onboarding   onboarding.Repository
	verification verification.Repository
	documents    document.Repository
	references   reference.Repository
}

// New wires repositories, services and the router from cfg. With an empty DB_URL the API
// runs on in-memory repositories.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{logger: logger}

	repos, err := a.buildRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	storage, err := disk.New(cfg.StorageDir, cfg.PublicBaseURL)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init document storage: %w", err)
	}

	a.Metrics = httpapi.NewMetrics()
	screening := usecase.NewScreeningService(
		usecase.NewStaticSanctionsList(cfg.SanctionedCountries),
		cfg.ScreeningWorkers,
		logger.Named("screening"),
	)
	onboardingSvc := usecase.NewOnboardingService(repos.onboarding, screening, a.Metrics, logger.Named("onboarding"))

	var jobs usecase.JobQueue
	if cfg.QStashEnabled {
		jobs = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker: circuitConfig(logger, cfg.QStashCircuitEnabled, cfg.QStashCircuitFailureCount,
				cfg.QStashCircuitOpenTimeout, cfg.QStashCircuitHalfOpenMaxReq),
		}, logger.Named("qstash"))
	}
	verificationSvc := usecase.NewVerificationService(
		repos.verification,
		onboardingSvc,
		screening,
		jobs,
		usecase.VerificationServiceConfig{BankCheckDelay: cfg.BankCheckDelay},
		logger.Named("verification"),
	)

	documentSvc := usecase.NewDocumentService(repos.documents, storage, id.NewUUIDGenerator(), usecase.DocumentServiceConfig{
		MaxFileBytes:        cfg.UploadMaxFileBytes,
		MaxFiles:            cfg.UploadMaxFiles,
		AllowedContentTypes: cfg.UploadAllowedContentTypes,
	}, logger.Named("documents"))

	countries := geo.NewClient(geo.ClientConfig{
		BaseURL:    cfg.GeoBaseURL,
		Timeout:    cfg.GeoTimeout,
		MaxRetries: cfg.GeoMaxRetries,
		CacheTTL:   cfg.GeoCacheTTL,
		Logger:     logger.Named("geo"),
	})
	referenceSvc := usecase.NewReferenceService(repos.references, countries)

	verifier := anubis.NewClient(&http.Client{Timeout: cfg.AnubisTimeout}, anubis.ClientConfig{
		BaseURL:        cfg.AnubisBaseURL,
		IntrospectPath: cfg.AnubisIntrospectURL,
		AdminKey:       cfg.AnubisAdminKey,
		PrincipalTTL:   cfg.AnubisPrincipalTTL,
		CircuitBreaker: circuitConfig(logger, cfg.AnubisCircuitEnabled, cfg.AnubisCircuitFailureCount,
			cfg.AnubisCircuitOpenTimeout, cfg.AnubisCircuitHalfOpenMaxReq),
	}, logger.Named("anubis"))

	a.limiter = httpapi.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, logger.Named("ratelimit"))

	handler := httpapi.NewHandler(onboardingSvc, verificationSvc, documentSvc, referenceSvc, logger)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		Verifier:           verifier,
		Logger:             logger,
		Metrics:            a.Metrics,
		RateLimiter:        a.limiter,
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})

	a.Server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return a, nil
}

func (a *App) buildRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	var repos repositories
	if cfg.UsePostgres() {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		a.db = db
		if err := postgres.BootstrapSeed(ctx, db, memory.SeedReferences()); err != nil {
			_ = a.Close()
			return repositories{}, err
		}
		repos = repositories{
			onboarding:   postgres.NewOnboardingRepository(db),
			verification: postgres.NewVerificationRepository(db),
			documents:    postgres.NewDocumentRepository(db),
			references:   postgres.NewReferenceRepository(db),
		}
		a.logger.Info("repositories ready", "backend", "postgres", "db_name", dbNameFromURL(cfg.DBURL))
	} else {
		repos = repositories{
			onboarding:   memory.NewOnboardingRepository(),
			verification: memory.NewVerificationRepository(),
			documents:    memory.NewDocumentRepository(),
			references:   memory.NewReferenceRepository(memory.SeedReferences()),
		}
		a.logger.Warn("repositories ready", "backend", "memory", "reason", "DB_URL empty")
	}

	if cfg.CacheEnabled {
		store := cache.NewStore(cfg.CacheTTL)
		repos.onboarding = cacherepo.NewOnboardingRepository(repos.onboarding, store)
		repos.references = cacherepo.NewReferenceRepository(repos.references, store)
	}
	return repos, nil
}

func circuitConfig(logger *logging.Logger, enabled bool, failures int, openTimeout time.Duration, halfOpen int) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failures,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpen,
		OnStateChange: func(name string, from, to resilience.CircuitState) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
		},
	}
}

// Run serves until ctx is cancelled, then shuts the server down within shutdownTimeout.
func (a *App) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Server.Addr, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", listener.Addr().String())
		if err := a.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if a.limiter != nil {
		go a.sweepLimiter(ctx)
	}

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	a.logger.Info("http server stopped")
	return nil
}

func (a *App) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := a.limiter.Sweep(); removed > 0 {
				a.logger.Debug("rate limiter buckets swept", "removed", removed)
			}
		}
	}
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
