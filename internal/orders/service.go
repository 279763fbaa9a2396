package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealora/mealora-backend/internal/estimator"
	"github.com/mealora/mealora-backend/internal/presence"
	"github.com/mealora/mealora-backend/pkg/db/models"
	"github.com/mealora/mealora-backend/pkg/enums"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
	"github.com/mealora/mealora-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier pushes ledger lifecycle events to connected clients. Fan-out is
// best-effort: failures never roll back a committed transition.
type Notifier interface {
	NotifyVehicleGroup(vehicle string, event presence.Event)
}

// PlaceItemInput is one priced line of a new order.
type PlaceItemInput struct {
	MenuItemID     uuid.UUID
	Name           string
	Qty            int
	UnitPriceCents int64
}

// PlaceInput carries everything needed to create an order.
type PlaceInput struct {
	CustomerID      uuid.UUID
	ManagerID       uuid.UUID
	Items           []PlaceItemInput
	DeliveryMode    enums.DeliveryMode
	RequiredVehicle *enums.Vehicle
	Origin          types.GeographyPoint
	Destination     *types.GeographyPoint
	TipCents        int64
}

// AdvanceStatusInput is a restaurant-side transition request.
type AdvanceStatusInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
}

type service struct {
	repo      Repository
	tx        txRunner
	estimates estimator.Service
	notifier  Notifier
}

// NewService builds the ledger service with the required dependencies.
func NewService(repo Repository, tx txRunner, estimates estimator.Service, notifier Notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if estimates == nil {
		return nil, fmt.Errorf("fee estimator required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{repo: repo, tx: tx, estimates: estimates, notifier: notifier}, nil
}

// Place validates and prices the order, then persists order and items in one
// transaction. An estimator failure aborts before any row exists: no order is
// ever created with an unverified fee.
func (s *service) Place(ctx context.Context, input PlaceInput) (*models.Order, error) {
	if err := validatePlaceInput(input); err != nil {
		return nil, err
	}

	var feeCents int64
	if input.DeliveryMode == enums.DeliveryModeDelivery {
		quote, err := s.estimates.Estimate(ctx, input.Origin, input.Destination, *input.RequiredVehicle)
		if err != nil {
			return nil, err
		}
		feeCents = quote.FeeCents
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	var subtotal int64
	for _, line := range input.Items {
		lineTotal := int64(line.Qty) * line.UnitPriceCents
		subtotal += lineTotal
		items = append(items, models.OrderItem{
			MenuItemID:     line.MenuItemID,
			Name:           line.Name,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     lineTotal,
		})
	}

	// The reference the payment provider echoes back in its confirmation
	// callback. Minted here so the order is billable the moment it exists.
	paymentRef := "pay_" + uuid.NewString()

	order := &models.Order{
		CustomerID:         input.CustomerID,
		ManagerID:          input.ManagerID,
		Items:              items,
		ItemsSubtotalCents: subtotal,
		DeliveryFeeCents:   feeCents,
		TipCents:           input.TipCents,
		TotalCents:         subtotal + feeCents + input.TipCents,
		DeliveryMode:       input.DeliveryMode,
		RequiredVehicle:    input.RequiredVehicle,
		OriginCoords:       input.Origin,
		DestinationCoords:  input.Destination,
		Status:             enums.OrderStatusPending,
		PaymentStatus:      enums.PaymentStatusPending,
		PaymentRef:         &paymentRef,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// AdvanceStatus moves an order along one edge of the status graph. The write
// is conditional on the expected current status, so concurrent transitions
// cannot both win.
func (s *service) AdvanceStatus(ctx context.Context, input AdvanceStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", input.Target))
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.Status.CanTransitionTo(input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition from %s to %s", order.Status, input.Target))
		}

		ok, err := repo.TransitionStatus(ctx, order.ID, order.Status, input.Target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		order.Status = input.Target
		order.UpdatedAt = time.Now().UTC()
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated.Status == enums.OrderStatusCooked &&
		updated.DeliveryMode == enums.DeliveryModeDelivery &&
		updated.RequiredVehicle != nil &&
		updated.PaymentStatus == enums.PaymentStatusPaid {
		s.notifier.NotifyVehicleGroup(updated.RequiredVehicle.String(), presence.Event{
			Name: presence.EventOrderCooked,
			Data: map[string]any{"orderId": updated.ID},
		})
	}

	return updated, nil
}

// Get returns one order. Unpaid orders are invisible to non-privileged
// callers, indistinguishable from absent ones.
func (s *service) Get(ctx context.Context, orderID uuid.UUID, includeUnpaid bool) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !includeUnpaid && order.PaymentStatus != enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListCooked(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListCooked(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cooked orders")
	}
	return orders, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID, includeUnpaid bool) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	orders, err := s.repo.ListByCustomer(ctx, customerID, includeUnpaid)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return orders, nil
}

func validatePlaceInput(input PlaceInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.ManagerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "manager id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, line := range input.Items {
		if line.Name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "item name required")
		}
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %q quantity must be positive", line.Name))
		}
		if line.UnitPriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %q price cannot be negative", line.Name))
		}
	}
	if input.TipCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "tip cannot be negative")
	}
	if !input.Origin.IsFinite() {
		return pkgerrors.New(pkgerrors.CodeValidation, "origin coordinates must be finite")
	}

	switch input.DeliveryMode {
	case enums.DeliveryModeDelivery:
		if input.Destination == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery orders require destination coordinates")
		}
		if !input.Destination.IsFinite() {
			return pkgerrors.New(pkgerrors.CodeValidation, "destination coordinates must be finite")
		}
		if input.RequiredVehicle == nil || !input.RequiredVehicle.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery orders require a valid vehicle")
		}
	case enums.DeliveryModeTakeaway:
		if input.RequiredVehicle != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "takeaway orders cannot require a vehicle")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown delivery mode %q", input.DeliveryMode))
	}
	return nil
}
