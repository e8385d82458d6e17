package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

const defaultScreeningWorkers = 4

// SanctionsList answers whether a destination country is under an embargo regime.
type SanctionsList interface {
	Lookup(ctx context.Context, countryCode string) (regime string, listed bool, err error)
}

// StaticSanctionsList is a configured country code -> regime table.
type StaticSanctionsList map[string]string

func NewStaticSanctionsList(codes []string) StaticSanctionsList {
	out := make(StaticSanctionsList, len(codes))
	for _, raw := range codes {
		code, regime, _ := strings.Cut(strings.TrimSpace(raw), ":")
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if regime = strings.TrimSpace(regime); regime == "" {
			regime = "embargo"
		}
		out[code] = regime
	}
	return out
}

func (l StaticSanctionsList) Lookup(_ context.Context, countryCode string) (string, bool, error) {
	regime, ok := l[strings.ToUpper(strings.TrimSpace(countryCode))]
	return regime, ok, nil
}

type ScreeningHit struct {
	Country string
	Regime  string
}

type ScreeningResult struct {
	Hits []ScreeningHit
}

func (r ScreeningResult) Clean() bool {
	return len(r.Hits) == 0
}

func (r ScreeningResult) Reason() string {
	if r.Clean() {
		return ""
	}
	parts := make([]string, 0, len(r.Hits))
	for _, hit := range r.Hits {
		parts = append(parts, hit.Country+" ("+hit.Regime+")")
	}
	return screeningReasonPrefix + "end-use countries under restriction: " + strings.Join(parts, ", ")
}

const screeningReasonPrefix = "sanctions screening: "

type ScreeningService struct {
	list    SanctionsList
	workers int
	logger  *logging.Logger
}

func NewScreeningService(list SanctionsList, workers int, logger *logging.Logger) *ScreeningService {
	if workers < 1 {
		workers = defaultScreeningWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	if list == nil {
		list = StaticSanctionsList{}
	}
	return &ScreeningService{list: list, workers: workers, logger: logger}
}

// Screen checks every distinct country concurrently. A lookup error fails the whole
// screening so an unchecked country is never reported clean.
func (s *ScreeningService) Screen(ctx context.Context, countries []string) (ScreeningResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScreeningService.Screen")
	defer span.End()

	unique := make([]string, 0, len(countries))
	seen := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		code := strings.ToUpper(strings.TrimSpace(c))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		unique = append(unique, code)
	}
	if len(unique) == 0 {
		return ScreeningResult{}, nil
	}

	pool, err := ants.NewPool(min(s.workers, len(unique)))
	if err != nil {
		return ScreeningResult{}, fmt.Errorf("create screening pool: %w", err)
	}
	defer pool.Release()

	var (
		mu       sync.Mutex
		hits     []ScreeningHit
		firstErr error
		wg       sync.WaitGroup
	)
	for _, code := range unique {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			regime, listed, err := s.list.Lookup(ctx, code)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("lookup %s: %w", code, err)
				}
				return
			}
			if listed {
				hits = append(hits, ScreeningHit{Country: code, Regime: regime})
			}
		}); err != nil {
			wg.Done()
			return ScreeningResult{}, fmt.Errorf("submit screening task: %w", err)
		}
	}
	wg.Wait()

	if firstErr != nil {
		return ScreeningResult{}, fmt.Errorf("%w: sanctions screening: %v", ErrDependencyUnavailable, firstErr)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Country < hits[j].Country })
	if len(hits) > 0 {
		s.logger.WarnContext(ctx, "sanctions screening hit", "countries", len(unique), "hits", len(hits))
	}
	return ScreeningResult{Hits: hits}, nil
}
