package wizard

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

// Options feeds the dropdowns of the step forms.
type Options struct {
	TypesOfBuyer        []reference.Item
	ProcurementPurposes []reference.Item
	EndUserTypes        []reference.Item
	Countries           []reference.Country
}

// LoadOptions fetches every dropdown list concurrently. A failed list is logged and left
// empty. Nothing is returned once ctx is done.
func LoadOptions(ctx context.Context, refs ReferenceSource, countries CountryLister, logger *logging.Logger) Options {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("wizard.options")

	var (
		mu  sync.Mutex
		out Options
		wg  conc.WaitGroup
	)

	loadRef := func(kind reference.Kind, dst *[]reference.Item) {
		wg.Go(func() {
			items, err := refs.ListReferences(ctx, kind)
			if err != nil {
				logger.WarnContext(ctx, "load reference options failed", "kind", kind, "error", err)
				return
			}
			mu.Lock()
			*dst = items
			mu.Unlock()
		})
	}
	if refs != nil {
		loadRef(reference.KindTypeOfBuyer, &out.TypesOfBuyer)
		loadRef(reference.KindProcurementPurpose, &out.ProcurementPurposes)
		loadRef(reference.KindEndUserType, &out.EndUserTypes)
	}
	if countries != nil {
		wg.Go(func() {
			list, err := countries.ListCountries(ctx)
			if err != nil {
				logger.WarnContext(ctx, "load country options failed", "error", err)
				return
			}
			mu.Lock()
			out.Countries = list
			mu.Unlock()
		})
	}

	if r := wg.WaitAndRecover(); r != nil {
		logger.ErrorContext(ctx, "option loader panicked", "panic", r.Value)
	}
	if ctx.Err() != nil {
		return Options{}
	}
	return out
}
