package controllers

import (
	"net/http"

	"github.com/mealora/mealora-backend/api/responses"
	"github.com/mealora/mealora-backend/api/validators"
	"github.com/mealora/mealora-backend/internal/payments"
	"github.com/mealora/mealora-backend/pkg/logger"
)

type paymentWebhookRequest struct {
	TransactionRef string `json:"transactionRef" validate:"required"`
	Success        *bool  `json:"success" validate:"required"`
}

// PaymentWebhook receives the provider's confirmation callback. The endpoint
// always acknowledges replays and unknown references so the provider stops
// retrying.
func PaymentWebhook(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body paymentWebhookRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Confirm(r.Context(), body.TransactionRef, *body.Success)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
