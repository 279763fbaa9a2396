package estimator

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mealora/mealora-backend/pkg/config"
	"github.com/mealora/mealora-backend/pkg/enums"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
	"github.com/mealora/mealora-backend/pkg/metrics"
	"github.com/mealora/mealora-backend/pkg/routing"
	"github.com/mealora/mealora-backend/pkg/types"
)

// Quote is the delivery fee estimate for a concrete route and vehicle.
type Quote struct {
	FeeCents        int64   `json:"fee_cents"`
	DistanceKm      float64 `json:"distance_km"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Service computes delivery fee estimates.
type Service interface {
	Estimate(ctx context.Context, origin types.GeographyPoint, destination *types.GeographyPoint, vehicle enums.Vehicle) (*Quote, error)
}

type routeSource interface {
	Route(ctx context.Context, profile routing.Profile, origin, destination types.GeographyPoint) (*routing.RouteSummary, error)
}

type service struct {
	routes  routeSource
	rates   config.FeeConfig
	metrics *metrics.DispatchMetrics
}

// NewService wires the estimator against the routing oracle and the rate table.
func NewService(routes routeSource, rates config.FeeConfig, m *metrics.DispatchMetrics) (Service, error) {
	if routes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "routing client required")
	}
	return &service{routes: routes, rates: rates, metrics: m}, nil
}

// Estimate makes exactly one oracle call and prices the route from the
// per-vehicle rate table. Oracle failures surface as Dependency errors with
// no retry and no caching.
func (s *service) Estimate(ctx context.Context, origin types.GeographyPoint, destination *types.GeographyPoint, vehicle enums.Vehicle) (*Quote, error) {
	if !vehicle.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown vehicle %q", vehicle))
	}
	if destination == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination coordinates required")
	}
	if !origin.IsFinite() || !destination.IsFinite() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates must be finite")
	}

	base, ok := s.rates.BaseCents[vehicle.String()]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("no base rate configured for vehicle %q", vehicle))
	}
	perKm, ok := s.rates.PerKmCents[vehicle.String()]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("no per-km rate configured for vehicle %q", vehicle))
	}

	start := time.Now()
	summary, err := s.routes.Route(ctx, routing.ProfileForVehicle(vehicle), origin, *destination)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveEstimateDuration(vehicle.String(), time.Since(start))

	distanceKm := summary.DistanceMeters / 1000.0
	fee := feeCents(base, perKm, distanceKm)

	return &Quote{
		FeeCents:        fee,
		DistanceKm:      distanceKm,
		DurationSeconds: summary.DurationSeconds,
	}, nil
}

// feeCents computes ceil(base + perKm * km) in integer cents.
func feeCents(baseCents, perKmCents int64, distanceKm float64) int64 {
	fee := decimal.NewFromInt(baseCents).
		Add(decimal.NewFromInt(perKmCents).Mul(decimal.NewFromFloat(distanceKm)))
	return fee.Ceil().IntPart()
}
