package estimator

import (
	"context"
	"testing"

	"github.com/mealora/mealora-backend/pkg/config"
	"github.com/mealora/mealora-backend/pkg/enums"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
	"github.com/mealora/mealora-backend/pkg/routing"
	"github.com/mealora/mealora-backend/pkg/types"
)

type stubRoutes struct {
	summary *routing.RouteSummary
	err     error
	calls   int
	profile routing.Profile
}

func (s *stubRoutes) Route(ctx context.Context, profile routing.Profile, origin, destination types.GeographyPoint) (*routing.RouteSummary, error) {
	s.calls++
	s.profile = profile
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func testRates() config.FeeConfig {
	return config.FeeConfig{
		BaseCents:  map[string]int64{"car": 500, "motor": 400, "bicycle": 300},
		PerKmCents: map[string]int64{"car": 120, "motor": 90, "bicycle": 60},
	}
}

func point(lat, lng float64) types.GeographyPoint {
	return types.GeographyPoint{Lat: lat, Lng: lng}
}

func TestEstimateComputesCeiledFee(t *testing.T) {
	routes := &stubRoutes{summary: &routing.RouteSummary{DistanceMeters: 4210, DurationSeconds: 1080}}
	svc, err := NewService(routes, testRates(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dest := point(52.6, 13.5)
	quote, err := svc.Estimate(context.Background(), point(52.52, 13.405), &dest, enums.VehicleBicycle)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}

	// 300 + 60 * 4.21 = 552.6 -> 553
	if quote.FeeCents != 553 {
		t.Fatalf("expected fee 553, got %d", quote.FeeCents)
	}
	if quote.DistanceKm != 4.21 {
		t.Fatalf("expected distance 4.21, got %f", quote.DistanceKm)
	}
	if quote.DurationSeconds != 1080 {
		t.Fatalf("expected duration 1080, got %f", quote.DurationSeconds)
	}
	if routes.calls != 1 {
		t.Fatalf("expected exactly one oracle call, got %d", routes.calls)
	}
	if routes.profile != routing.ProfileCycling {
		t.Fatalf("expected cycling profile, got %s", routes.profile)
	}
}

func TestEstimateIsDeterministic(t *testing.T) {
	routes := &stubRoutes{summary: &routing.RouteSummary{DistanceMeters: 7333, DurationSeconds: 900}}
	svc, _ := NewService(routes, testRates(), nil)

	dest := point(10, 20)
	first, err := svc.Estimate(context.Background(), point(11, 21), &dest, enums.VehicleCar)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	second, err := svc.Estimate(context.Background(), point(11, 21), &dest, enums.VehicleCar)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if first.FeeCents != second.FeeCents {
		t.Fatalf("same inputs produced different fees: %d vs %d", first.FeeCents, second.FeeCents)
	}
}

func TestEstimateMonotonicInDistance(t *testing.T) {
	for _, vehicle := range enums.Vehicles() {
		prev := int64(-1)
		for _, meters := range []float64{0, 500, 1000, 2500, 9999, 25000} {
			routes := &stubRoutes{summary: &routing.RouteSummary{DistanceMeters: meters}}
			svc, _ := NewService(routes, testRates(), nil)
			dest := point(1, 1)
			quote, err := svc.Estimate(context.Background(), point(0, 0), &dest, vehicle)
			if err != nil {
				t.Fatalf("estimate %s at %f: %v", vehicle, meters, err)
			}
			if quote.FeeCents < prev {
				t.Fatalf("fee decreased for %s: %d after %d", vehicle, quote.FeeCents, prev)
			}
			prev = quote.FeeCents
		}
	}
}

func TestEstimateRejectsMissingDestination(t *testing.T) {
	svc, _ := NewService(&stubRoutes{}, testRates(), nil)
	_, err := svc.Estimate(context.Background(), point(1, 1), nil, enums.VehicleCar)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEstimateRejectsUnknownVehicle(t *testing.T) {
	svc, _ := NewService(&stubRoutes{}, testRates(), nil)
	dest := point(1, 1)
	_, err := svc.Estimate(context.Background(), point(0, 0), &dest, enums.Vehicle("rocket"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEstimateSurfacesOracleFailure(t *testing.T) {
	routes := &stubRoutes{err: pkgerrors.New(pkgerrors.CodeDependency, "oracle unavailable")}
	svc, _ := NewService(routes, testRates(), nil)
	dest := point(1, 1)
	_, err := svc.Estimate(context.Background(), point(0, 0), &dest, enums.VehicleMotor)
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
