package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mealora/mealora-backend/internal/dispatch"
	"github.com/mealora/mealora-backend/internal/estimator"
	"github.com/mealora/mealora-backend/internal/orders"
	"github.com/mealora/mealora-backend/internal/payments"
	pkgauth "github.com/mealora/mealora-backend/pkg/auth"
	"github.com/mealora/mealora-backend/pkg/config"
	"github.com/mealora/mealora-backend/pkg/db/models"
	"github.com/mealora/mealora-backend/pkg/enums"
	"github.com/mealora/mealora-backend/pkg/logger"
	"github.com/mealora/mealora-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct{}

func (stubOrdersService) Place(ctx context.Context, input orders.PlaceInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) AdvanceStatus(ctx context.Context, input orders.AdvanceStatusInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) Get(ctx context.Context, orderID uuid.UUID, includeUnpaid bool) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) ListCooked(ctx context.Context) ([]models.Order, error) {
	return nil, nil
}

func (stubOrdersService) ListByCustomer(ctx context.Context, customerID uuid.UUID, includeUnpaid bool) ([]models.Order, error) {
	return nil, nil
}

type stubDispatchService struct{}

func (stubDispatchService) Claim(ctx context.Context, courierID, orderID uuid.UUID) (*dispatch.ClaimResult, error) {
	return &dispatch.ClaimResult{Order: &models.Order{}, PickupCode: "123456"}, nil
}

func (stubDispatchService) ConfirmPickup(ctx context.Context, courierID, orderID uuid.UUID, code string) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubDispatchService) ConfirmDelivery(ctx context.Context, courierID, orderID uuid.UUID, code string) (*models.Order, error) {
	return &models.Order{}, nil
}

type stubEstimatorService struct{}

func (stubEstimatorService) Estimate(ctx context.Context, origin types.GeographyPoint, destination *types.GeographyPoint, vehicle enums.Vehicle) (*estimator.Quote, error) {
	return &estimator.Quote{FeeCents: 500}, nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) Confirm(ctx context.Context, transactionRef string, success bool) (*payments.Result, error) {
	return &payments.Result{Applied: true}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "mealora",
			ExpirationMinutes: 30,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routes", Output: io.Discard})
	return NewRouter(Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        stubPinger{},
		Orders:    stubOrdersService{},
		Dispatch:  stubDispatchService{},
		Estimator: stubEstimatorService{},
		Payments:  stubPaymentsService{},
	})
}

func mintToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	payload := pkgauth.AccessTokenPayload{UserID: uuid.New(), Role: role}
	if role == enums.RoleCourier {
		vehicle := enums.VehicleBicycle
		payload.Vehicle = &vehicle
	}
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthzIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for healthz got %d", resp.Code)
	}
}

func TestOrdersRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/orders/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCourierGroupRequiresCourierRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/v1/courier/orders/" + uuid.NewString() + "/claim"

	customer := httptest.NewRequest(http.MethodPost, target, nil)
	customer.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer claim got %d", resp.Code)
	}

	courier := httptest.NewRequest(http.MethodPost, target, nil)
	courier.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleCourier))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, courier)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for courier claim got %d", resp.Code)
	}
}

func TestOrderStatusRequiresManagerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/v1/orders/" + uuid.NewString() + "/status"
	body := `{"target":"cooked"}`

	courier := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	courier.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleCourier))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, courier)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for courier status change got %d", resp.Code)
	}

	manager := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	manager.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleManager))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, manager)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for manager status change got %d", resp.Code)
	}
}

func TestPaymentWebhookIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"transactionRef":"tx-1","success":true}`
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for webhook without token got %d", resp.Code)
	}
}
