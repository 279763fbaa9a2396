package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mealora/mealora-backend/pkg/enums"
	"github.com/mealora/mealora-backend/pkg/types"
)

// Order is the durable order record. Items, totals and coordinates are
// write-once at creation; only status, payment and courier fields mutate
// afterwards, and only through whitelisted update paths.
type Order struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID         uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index"`
	ManagerID          uuid.UUID             `gorm:"column:manager_id;type:uuid;not null;index"`
	Items              []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ItemsSubtotalCents int64                 `gorm:"column:items_subtotal_cents;not null"`
	DeliveryFeeCents   int64                 `gorm:"column:delivery_fee_cents;not null;default:0"`
	TipCents           int64                 `gorm:"column:tip_cents;not null;default:0"`
	TotalCents         int64                 `gorm:"column:total_cents;not null"`
	DeliveryMode       enums.DeliveryMode    `gorm:"column:delivery_mode;type:text;not null"`
	RequiredVehicle    *enums.Vehicle        `gorm:"column:required_vehicle;type:text"`
	OriginCoords       types.GeographyPoint  `gorm:"column:origin_coords;type:text;not null"`
	DestinationCoords  *types.GeographyPoint `gorm:"column:destination_coords;type:text"`
	Status             enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending';index"`
	AssignedCourierID  *uuid.UUID            `gorm:"column:assigned_courier_id;type:uuid;index"`
	PickupCode         *string               `gorm:"column:pickup_code;uniqueIndex"`
	DeliveryCode       *string               `gorm:"column:delivery_code;uniqueIndex"`
	PaymentStatus      enums.PaymentStatus   `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentRef         *string               `gorm:"column:payment_ref;uniqueIndex"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem captures the price/quantity snapshot of each line at placement.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	MenuItemID     uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	TotalCents     int64     `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
