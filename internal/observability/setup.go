package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/riskibarqy/armory-onboarding/internal/config"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

// Stack is the set of process-wide telemetry started for the API.
type Stack struct {
	Logger *logging.Logger

	shutdownLogs    func(context.Context) error
	shutdownTracing func(context.Context) error
	stopProfiling   func() error
	pprofServer     *http.Server
}

// Setup builds the process logger and starts tracing and profiling. The returned logger is
// also installed as logging.Default.
func Setup(cfg config.Config) (*Stack, error) {
	base := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.AppEnv)

	logger, shutdownLogs, err := InitBetterStackLogger(cfg, base)
	if err != nil {
		return nil, err
	}
	logging.SetDefault(logger)
	stack := &Stack{Logger: logger, shutdownLogs: shutdownLogs}

	stack.shutdownTracing, err = InitUptrace(cfg, logger)
	if err != nil {
		_ = stack.Shutdown(context.Background())
		return nil, err
	}
	stack.stopProfiling, err = InitPyroscope(cfg, logger)
	if err != nil {
		_ = stack.Shutdown(context.Background())
		return nil, err
	}
	stack.pprofServer, err = StartPprofServer(cfg, logger)
	if err != nil {
		_ = stack.Shutdown(context.Background())
		return nil, err
	}

	return stack, nil
}

// Shutdown stops components in reverse start order. Logs are flushed last.
func (s *Stack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs []error
	if err := StopPprofServer(ctx, s.pprofServer, s.Logger); err != nil {
		errs = append(errs, err)
	}
	if s.stopProfiling != nil {
		if err := s.stopProfiling(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.shutdownTracing != nil {
		if err := s.shutdownTracing(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.shutdownLogs != nil {
		if err := s.shutdownLogs(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
