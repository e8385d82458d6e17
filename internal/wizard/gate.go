package wizard

import (
	"context"
	"sync"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

// Gate holds the caller's onboarding profile for one wizard session. The profile is
// fetched once by Start and again by every RefreshProfile; a failed fetch keeps the
// previous value.
type Gate struct {
	source ProfileSource
	logger *logging.Logger

	start sync.Once

	mu      sync.RWMutex
	profile *onboarding.Profile
	loading bool
}

func NewGate(source ProfileSource, logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.Default()
	}
	return &Gate{
		source:  source,
		logger:  logger.Named("wizard.gate"),
		loading: true,
	}
}

// Start performs the initial fetch. Later calls do nothing.
func (g *Gate) Start(ctx context.Context) {
	g.start.Do(func() {
		g.RefreshProfile(ctx)
	})
}

// RefreshProfile re-fetches the profile. Errors are logged and never returned.
func (g *Gate) RefreshProfile(ctx context.Context) {
	profile, err := g.source.GetProfile(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.loading = false
	if err != nil {
		g.logger.WarnContext(ctx, "profile refresh failed, keeping previous profile", "error", err, "has_profile", g.profile != nil)
		return
	}
	g.profile = &profile
}

// Profile returns a copy of the current profile, or nil when none was ever fetched.
func (g *Gate) Profile() *onboarding.Profile {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.profile == nil {
		return nil
	}
	p := *g.profile
	return &p
}

func (g *Gate) Loading() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.loading
}

type gateKey struct{}

func WithGate(ctx context.Context, g *Gate) context.Context {
	return context.WithValue(ctx, gateKey{}, g)
}

func GateFromContext(ctx context.Context) (*Gate, bool) {
	g, ok := ctx.Value(gateKey{}).(*Gate)
	return g, ok && g != nil
}

// MustGate returns the session gate and panics when ctx was not derived from WithGate.
func MustGate(ctx context.Context) *Gate {
	g, ok := GateFromContext(ctx)
	if !ok {
		panic("wizard: MustGate called outside an onboarding session")
	}
	return g
}
