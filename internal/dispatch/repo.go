package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealora/mealora-backend/pkg/db/models"
	"github.com/mealora/mealora-backend/pkg/enums"
)

// Repository carries the dispatch-side writes against the orders table. Every
// mutation is a conditional UPDATE whose WHERE clause encodes the expected
// prior state; RowsAffected tells the caller whether it won.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	CountActiveByCourier(ctx context.Context, courierID uuid.UUID) (int64, error)
	ClaimOrder(ctx context.Context, orderID, courierID uuid.UUID, pickupCode string) (bool, error)
	MarkPickedUp(ctx context.Context, orderID, courierID uuid.UUID, deliveryCode string) (bool, error)
	MarkDelivered(ctx context.Context, orderID, courierID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a dispatch repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CountActiveByCourier(ctx context.Context, courierID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("assigned_courier_id = ?", courierID).
		Where("status NOT IN ?", []enums.OrderStatus{enums.OrderStatusCompleted, enums.OrderStatusCancelled}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ClaimOrder is the authoritative claim write. Any concurrent winner makes
// the WHERE clause match zero rows for everyone else.
func (r *repository) ClaimOrder(ctx context.Context, orderID, courierID uuid.UUID, pickupCode string) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE orders
		    SET assigned_courier_id = ?, pickup_code = ?, delivery_code = NULL, updated_at = ?
		  WHERE id = ?
		    AND status = ?
		    AND assigned_courier_id IS NULL
		    AND delivery_mode = ?`,
		courierID, pickupCode, time.Now().UTC(),
		orderID, enums.OrderStatusCooked, enums.DeliveryModeDelivery,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) MarkPickedUp(ctx context.Context, orderID, courierID uuid.UUID, deliveryCode string) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE orders
		    SET status = ?, delivery_code = ?, updated_at = ?
		  WHERE id = ?
		    AND status = ?
		    AND assigned_courier_id = ?`,
		enums.OrderStatusDelivering, deliveryCode, time.Now().UTC(),
		orderID, enums.OrderStatusCooked, courierID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) MarkDelivered(ctx context.Context, orderID, courierID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE orders
		    SET status = ?, updated_at = ?
		  WHERE id = ?
		    AND status = ?
		    AND assigned_courier_id = ?`,
		enums.OrderStatusCompleted, time.Now().UTC(),
		orderID, enums.OrderStatusDelivering, courierID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
