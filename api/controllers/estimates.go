package controllers

import (
	"net/http"

	"github.com/mealora/mealora-backend/api/responses"
	"github.com/mealora/mealora-backend/api/validators"
	"github.com/mealora/mealora-backend/internal/estimator"
	"github.com/mealora/mealora-backend/pkg/enums"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
	"github.com/mealora/mealora-backend/pkg/logger"
)

type estimateRequest struct {
	Origin      geoPointInput `json:"origin" validate:"required"`
	Destination geoPointInput `json:"destination" validate:"required"`
	Vehicle     string        `json:"vehicle" validate:"required,oneof=car motor bicycle"`
}

// EstimateFee quotes the delivery fee for a prospective order.
func EstimateFee(svc estimator.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body estimateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vehicle, err := enums.ParseVehicle(body.Vehicle)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle"))
			return
		}

		destination := body.Destination.point()
		quote, err := svc.Estimate(r.Context(), body.Origin.point(), &destination, vehicle)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
