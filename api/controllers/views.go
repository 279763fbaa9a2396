package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/mealora/mealora-backend/pkg/db/models"
	"github.com/mealora/mealora-backend/pkg/enums"
	"github.com/mealora/mealora-backend/pkg/types"
)

// orderView is the wire shape of an order. Verification codes are never part
// of it: the pickup code travels only in the claim response and the delivery
// code only in the pickup confirmation response.
type orderView struct {
	ID                uuid.UUID             `json:"id"`
	CustomerID        uuid.UUID             `json:"customerId"`
	ManagerID         uuid.UUID             `json:"managerId"`
	Items             []orderItemView       `json:"items"`
	ItemsSubtotal     int64                 `json:"itemsSubtotalCents"`
	DeliveryFeeCents  int64                 `json:"deliveryFeeCents"`
	TipCents          int64                 `json:"tipCents"`
	TotalCents        int64                 `json:"totalCents"`
	DeliveryMode      enums.DeliveryMode    `json:"deliveryMode"`
	RequiredVehicle   *enums.Vehicle        `json:"requiredVehicle,omitempty"`
	Origin            types.GeographyPoint  `json:"origin"`
	Destination       *types.GeographyPoint `json:"destination,omitempty"`
	Status            enums.OrderStatus     `json:"status"`
	AssignedCourierID *uuid.UUID            `json:"assignedCourierId,omitempty"`
	PaymentStatus     enums.PaymentStatus   `json:"paymentStatus"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

type orderItemView struct {
	MenuItemID     uuid.UUID `json:"menuItemId"`
	Name           string    `json:"name"`
	Qty            int       `json:"qty"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	TotalCents     int64     `json:"totalCents"`
}

func newOrderView(order *models.Order) orderView {
	items := make([]orderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemView{
			MenuItemID:     item.MenuItemID,
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	return orderView{
		ID:                order.ID,
		CustomerID:        order.CustomerID,
		ManagerID:         order.ManagerID,
		Items:             items,
		ItemsSubtotal:     order.ItemsSubtotalCents,
		DeliveryFeeCents:  order.DeliveryFeeCents,
		TipCents:          order.TipCents,
		TotalCents:        order.TotalCents,
		DeliveryMode:      order.DeliveryMode,
		RequiredVehicle:   order.RequiredVehicle,
		Origin:            order.OriginCoords,
		Destination:       order.DestinationCoords,
		Status:            order.Status,
		AssignedCourierID: order.AssignedCourierID,
		PaymentStatus:     order.PaymentStatus,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func newOrderViews(orders []models.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	return views
}

type geoPointInput struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p geoPointInput) point() types.GeographyPoint {
	return types.GeographyPoint{Lat: p.Lat, Lng: p.Lng}
}
