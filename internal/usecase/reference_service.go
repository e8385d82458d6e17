package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
)

// CountrySource lists the countries offered in dropdowns.
type CountrySource interface {
	ListCountries(ctx context.Context) ([]reference.Country, error)
}

type ReferenceService struct {
	repo      reference.Repository
	countries CountrySource
}

func NewReferenceService(repo reference.Repository, countries CountrySource) *ReferenceService {
	return &ReferenceService{repo: repo, countries: countries}
}

func (s *ReferenceService) List(ctx context.Context, kind string) ([]reference.Item, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReferenceService.List")
	defer span.End()

	parsed, err := reference.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: reference kind %q", ErrNotFound, kind)
	}
	items, err := s.repo.ListByKind(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	return items, nil
}

func (s *ReferenceService) Countries(ctx context.Context) ([]reference.Country, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReferenceService.Countries")
	defer span.End()

	if s.countries == nil {
		return nil, fmt.Errorf("%w: country source is not configured", ErrDependencyUnavailable)
	}
	countries, err := s.countries.ListCountries(ctx)
	if err != nil {
		if errors.Is(err, ErrDependencyUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: list countries: %v", ErrDependencyUnavailable, err)
	}
	return countries, nil
}
