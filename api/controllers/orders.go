package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mealora/mealora-backend/api/middleware"
	"github.com/mealora/mealora-backend/api/responses"
	"github.com/mealora/mealora-backend/api/validators"
	internalorders "github.com/mealora/mealora-backend/internal/orders"
	"github.com/mealora/mealora-backend/pkg/enums"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
	"github.com/mealora/mealora-backend/pkg/logger"
	"github.com/mealora/mealora-backend/pkg/types"
)

type placeOrderItem struct {
	MenuItemID     uuid.UUID `json:"menuItemId" validate:"required"`
	Name           string    `json:"name" validate:"required"`
	Qty            int       `json:"qty" validate:"required,min=1"`
	UnitPriceCents int64     `json:"unitPriceCents" validate:"min=0"`
}

// placeResponse carries the payment reference alongside the order: the
// client hands it to the payment provider, whose callback echoes it back.
// It appears only here, never in order views.
type placeResponse struct {
	Order      orderView `json:"order"`
	PaymentRef string    `json:"paymentRef"`
}

type placeOrderRequest struct {
	ManagerID       uuid.UUID        `json:"managerId" validate:"required"`
	Items           []placeOrderItem `json:"items" validate:"required,min=1,dive"`
	DeliveryMode    string           `json:"deliveryMode" validate:"required,oneof=delivery takeaway"`
	RequiredVehicle *string          `json:"requiredVehicle,omitempty" validate:"omitempty,oneof=car motor bicycle"`
	Origin          geoPointInput    `json:"origin" validate:"required"`
	Destination     *geoPointInput   `json:"destination,omitempty"`
	TipCents        int64            `json:"tipCents" validate:"min=0"`
}

// PlaceOrder creates a new order for the authenticated customer.
func PlaceOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParseDeliveryMode(body.DeliveryMode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery mode"))
			return
		}
		var vehicle *enums.Vehicle
		if body.RequiredVehicle != nil {
			parsed, err := enums.ParseVehicle(*body.RequiredVehicle)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle"))
				return
			}
			vehicle = &parsed
		}

		items := make([]internalorders.PlaceItemInput, 0, len(body.Items))
		for _, line := range body.Items {
			items = append(items, internalorders.PlaceItemInput{
				MenuItemID:     line.MenuItemID,
				Name:           line.Name,
				Qty:            line.Qty,
				UnitPriceCents: line.UnitPriceCents,
			})
		}

		var destination *types.GeographyPoint
		if body.Destination != nil {
			point := body.Destination.point()
			destination = &point
		}

		order, err := svc.Place(r.Context(), internalorders.PlaceInput{
			CustomerID:      middleware.UserIDFromContext(r.Context()),
			ManagerID:       body.ManagerID,
			Items:           items,
			DeliveryMode:    mode,
			RequiredVehicle: vehicle,
			Origin:          body.Origin.point(),
			Destination:     destination,
			TipCents:        body.TipCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := placeResponse{Order: newOrderView(order)}
		if order.PaymentRef != nil {
			resp.PaymentRef = *order.PaymentRef
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

type advanceStatusRequest struct {
	Target string `json:"target" validate:"required,oneof=preparing cooked delivering completed cancelled"`
}

// AdvanceOrderStatus applies a restaurant-side status transition.
func AdvanceOrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body advanceStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(body.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		order, err := svc.AdvanceStatus(r.Context(), internalorders.AdvanceStatusInput{
			OrderID: orderID,
			Target:  target,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// GetOrder returns one order. Customers only see their own; unpaid orders are
// visible to their customer and to staff, nobody else.
func GetOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := middleware.RoleFromContext(r.Context())
		privileged := role == enums.RoleManager || role == enums.RoleAdmin || role == enums.RoleCustomer

		order, err := svc.Get(r.Context(), orderID, privileged)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if role == enums.RoleCustomer && order.CustomerID != middleware.UserIDFromContext(r.Context()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// ListMyOrders returns the authenticated customer's orders, unpaid included.
func ListMyOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.ListByCustomer(r.Context(), middleware.UserIDFromContext(r.Context()), true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderViews(orders))
	}
}

// ListClaimableOrders returns paid, cooked, unassigned delivery orders for
// couriers to browse.
func ListClaimableOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.ListCooked(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderViews(orders))
	}
}
