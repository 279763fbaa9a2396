package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/mealora/mealora-backend/pkg/auth"
	"github.com/mealora/mealora-backend/pkg/config"
	"github.com/mealora/mealora-backend/pkg/enums"
	"github.com/mealora/mealora-backend/pkg/logger"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "mealora",
	ExpirationMinutes: 30,
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func mintToken(t *testing.T, userID uuid.UUID, role enums.Role, vehicle *enums.Vehicle) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testJWT, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:  userID,
		Role:    role,
		Vehicle: vehicle,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthSeedsActorContext(t *testing.T) {
	userID := uuid.New()
	vehicle := enums.VehicleBicycle

	var gotUser uuid.UUID
	var gotRole enums.Role
	var gotVehicle *enums.Vehicle
	handler := Auth(testJWT, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotVehicle = VehicleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, userID, enums.RoleCourier, &vehicle))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotUser != userID || gotRole != enums.RoleCourier {
		t.Fatalf("actor not seeded: user=%s role=%s", gotUser, gotRole)
	}
	if gotVehicle == nil || *gotVehicle != vehicle {
		t.Fatal("vehicle not seeded")
	}
}

func TestAuthAcceptsQueryToken(t *testing.T) {
	userID := uuid.New()
	handler := Auth(testJWT, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) != userID {
			t.Fatal("actor not seeded from query token")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/stream?access_token="+mintToken(t, userID, enums.RoleCustomer, nil), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	handler := Auth(testJWT, testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	for name, header := range map[string]string{
		"missing": "",
		"garbage": "Bearer not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	allowed := RequireRole(testLogger(), enums.RoleManager, enums.RoleAdmin)

	run := func(role enums.Role) int {
		handler := allowed(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		req := httptest.NewRequest(http.MethodPost, "/v1/orders/advance", nil)
		req = req.WithContext(WithActor(req.Context(), uuid.New(), role, nil))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := run(enums.RoleManager); code != http.StatusOK {
		t.Fatalf("manager status = %d", code)
	}
	if code := run(enums.RoleAdmin); code != http.StatusOK {
		t.Fatalf("admin status = %d", code)
	}
	if code := run(enums.RoleCourier); code != http.StatusForbidden {
		t.Fatalf("courier status = %d, want 403", code)
	}
}
