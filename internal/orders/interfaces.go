package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealora/mealora-backend/pkg/db/models"
	"github.com/mealora/mealora-backend/pkg/enums"
)

// Repository defines persistence operations for the order ledger. The order
// body (items, totals, coordinates) is write-once: after Create the only
// mutation paths are the conditional transitions and the whitelisted
// UpdateOrder column map.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentRef(ctx context.Context, ref string) (*models.Order, error)
	ListCooked(ctx context.Context) ([]models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, includeUnpaid bool) ([]models.Order, error)
	ListDelivering(ctx context.Context) ([]models.Order, error)
	FindDeliveringByCourier(ctx context.Context, courierID uuid.UUID) (*models.Order, error)
	CountActiveByCourier(ctx context.Context, courierID uuid.UUID) (int64, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
	SetPaymentStatus(ctx context.Context, orderID uuid.UUID, from, to enums.PaymentStatus) (bool, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}

// Service defines ledger-level operations on top of the repository.
type Service interface {
	Place(ctx context.Context, input PlaceInput) (*models.Order, error)
	AdvanceStatus(ctx context.Context, input AdvanceStatusInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, includeUnpaid bool) (*models.Order, error)
	ListCooked(ctx context.Context) ([]models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, includeUnpaid bool) ([]models.Order, error)
}
