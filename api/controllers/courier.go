package controllers

import (
	"net/http"

	"github.com/mealora/mealora-backend/api/middleware"
	"github.com/mealora/mealora-backend/api/responses"
	"github.com/mealora/mealora-backend/api/validators"
	"github.com/mealora/mealora-backend/internal/dispatch"
	"github.com/mealora/mealora-backend/internal/presence"
	"github.com/mealora/mealora-backend/pkg/logger"
)

type claimResponse struct {
	Order      orderView `json:"order"`
	PickupCode string    `json:"pickupCode"`
}

// ClaimOrder lets the authenticated courier attempt to claim a cooked order.
// Exactly one concurrent caller wins; everyone else gets a conflict.
func ClaimOrder(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Claim(r.Context(), middleware.UserIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, claimResponse{
			Order:      newOrderView(result.Order),
			PickupCode: result.PickupCode,
		})
	}
}

type confirmCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

type pickupResponse struct {
	Order        orderView `json:"order"`
	DeliveryCode string    `json:"deliveryCode"`
}

// ConfirmPickup verifies the pickup code and hands the courier the delivery
// code for the drop-off.
func ConfirmPickup(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body confirmCodeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmPickup(r.Context(), middleware.UserIDFromContext(r.Context()), orderID, body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := pickupResponse{Order: newOrderView(order)}
		if order.DeliveryCode != nil {
			resp.DeliveryCode = *order.DeliveryCode
		}
		responses.WriteSuccess(w, resp)
	}
}

// ConfirmDelivery verifies the delivery code and completes the order.
func ConfirmDelivery(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body confirmCodeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmDelivery(r.Context(), middleware.UserIDFromContext(r.Context()), orderID, body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

type locationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PublishLocation forwards the courier's position to the presence hub, which
// caches it and fans it out to watchers.
func PublishLocation(hub *presence.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body locationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		courierID := middleware.UserIDFromContext(r.Context())
		if err := hub.PublishLocation(r.Context(), courierID, body.Lat, body.Lng); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}
