package main

import (
	"context"
	"fmt"
	"io"

	"github.com/riskibarqy/armory-onboarding/internal/config"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/geo"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/localstore"
	"github.com/riskibarqy/armory-onboarding/internal/infrastructure/storefront"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
	"github.com/riskibarqy/armory-onboarding/internal/platform/resilience"
	"github.com/riskibarqy/armory-onboarding/internal/wizard"
)

// session bundles what one CLI invocation needs to drive the wizard.
type session struct {
	backend   wizard.Backend
	countries wizard.CountryLister
	store     wizard.StateStore
	logger    *logging.Logger
	close     func() error
}

type sessionOpener func() (*session, error)

func openSession(cfg config.ClientConfig, logOut io.Writer) (*session, error) {
	logger := logging.NewConsole(cfg.LogLevel, logOut)
	breaker := resilience.CircuitBreakerConfig{
		Enabled: true,
		OnStateChange: func(name string, from, to resilience.CircuitState) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
		},
	}

	s := &session{
		backend: storefront.NewClient(storefront.Config{
			BaseURL:        cfg.StorefrontURL,
			Token:          cfg.StorefrontToken,
			Timeout:        cfg.StorefrontTimeout,
			Logger:         logger.Named("storefront"),
			CircuitBreaker: breaker,
		}),
		countries: geo.NewClient(geo.ClientConfig{
			BaseURL:        cfg.GeoBaseURL,
			Timeout:        cfg.GeoTimeout,
			MaxRetries:     1,
			Logger:         logger.Named("geo"),
			CircuitBreaker: breaker,
		}),
		logger: logger,
		close:  func() error { return nil },
	}

	if cfg.StatePath == "" {
		logger.Warn("no state path configured, verification progress is kept in memory")
		s.store = localstore.NewMemory()
		return s, nil
	}
	store, err := localstore.OpenSQLite(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open wizard state %s: %w", cfg.StatePath, err)
	}
	s.store = store
	s.close = store.Close
	return s, nil
}

// gate returns a started profile gate and a context carrying it.
func (s *session) gate(ctx context.Context) (context.Context, *wizard.Gate) {
	g := wizard.NewGate(s.backend, s.logger)
	g.Start(ctx)
	return wizard.WithGate(ctx, g), g
}

// flow picks the explicit flag value, falling back to the profile's account type.
func (s *session) flow(raw string, profile *onboarding.Profile) (onboarding.Flow, error) {
	if raw != "" {
		return onboarding.ParseFlow(raw)
	}
	if profile == nil {
		return "", fmt.Errorf("profile unavailable; pass --flow")
	}
	return profile.Flow(), nil
}
