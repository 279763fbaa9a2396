package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealora/mealora-backend/internal/couriers"
	"github.com/mealora/mealora-backend/internal/presence"
	"github.com/mealora/mealora-backend/pkg/config"
	"github.com/mealora/mealora-backend/pkg/db"
	"github.com/mealora/mealora-backend/pkg/db/models"
	"github.com/mealora/mealora-backend/pkg/enums"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
	"github.com/mealora/mealora-backend/pkg/metrics"
	"github.com/mealora/mealora-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier is the hub surface dispatch pushes lifecycle events through.
// Calls happen after the ledger transition commits and never fail the
// operation.
type Notifier interface {
	NotifyCustomer(userID uuid.UUID, event presence.Event)
	NotifyManager(userID uuid.UUID, event presence.Event)
	NotifyAdmins(event presence.Event)
	TrackAssignment(courierID, orderID, customerID uuid.UUID)
	ClearAssignment(courierID uuid.UUID)
}

// ClaimResult is returned to the winning courier.
type ClaimResult struct {
	Order      *models.Order
	PickupCode string
}

// Service implements the claim protocol: race-free claims and the two-phase
// verification-code handoff.
type Service interface {
	Claim(ctx context.Context, courierID, orderID uuid.UUID) (*ClaimResult, error)
	ConfirmPickup(ctx context.Context, courierID, orderID uuid.UUID, code string) (*models.Order, error)
	ConfirmDelivery(ctx context.Context, courierID, orderID uuid.UUID, code string) (*models.Order, error)
}

type service struct {
	repo     Repository
	couriers couriers.Repository
	tx       txRunner
	notifier Notifier
	metrics  *metrics.DispatchMetrics
	cfg      config.DispatchConfig
}

// NewService builds the dispatch service with the required dependencies.
func NewService(repo Repository, courierRepo couriers.Repository, tx txRunner, notifier Notifier, m *metrics.DispatchMetrics, cfg config.DispatchConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dispatch repository required")
	}
	if courierRepo == nil {
		return nil, fmt.Errorf("courier repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 6
	}
	if cfg.CodeMaxAttempts <= 0 {
		cfg.CodeMaxAttempts = 5
	}
	return &service{
		repo:     repo,
		couriers: courierRepo,
		tx:       tx,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
	}, nil
}

// Claim assigns the order to the courier. The advisory one-active-order check
// runs inside the same transaction as the authoritative conditional write;
// only RowsAffected decides the winner. Losers get Conflict immediately, no
// retries, no queue.
func (s *service) Claim(ctx context.Context, courierID, orderID uuid.UUID) (*ClaimResult, error) {
	if courierID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id and order id required")
	}

	courier, err := s.loadCourier(ctx, courierID)
	if err != nil {
		return nil, err
	}

	order, err := s.loadVisibleOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.DeliveryMode != enums.DeliveryModeDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order not available")
	}
	if order.RequiredVehicle == nil || *order.RequiredVehicle != courier.Vehicle {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("order requires vehicle %s", vehicleLabel(order.RequiredVehicle)))
	}

	var pickupCode string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Advisory pre-check, UX-only: a friendlier error for the common
		// case. The conditional write below is the authority.
		active, err := repo.CountActiveByCourier(ctx, courierID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active orders")
		}
		if active > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "courier already has an active order")
		}

		code, won, err := s.writeWithFreshCode(ctx, func(code string) (bool, error) {
			return repo.ClaimOrder(ctx, orderID, courierID, code)
		})
		if err != nil {
			return err
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeConflict, "order not available")
		}
		pickupCode = code
		return nil
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			s.metrics.IncClaim(metrics.ClaimLost)
		}
		return nil, err
	}
	s.metrics.IncClaim(metrics.ClaimWon)

	order.AssignedCourierID = &courierID
	order.PickupCode = &pickupCode
	order.DeliveryCode = nil

	s.notifier.TrackAssignment(courierID, order.ID, order.CustomerID)
	assigned := presence.Event{
		Name: presence.EventCourierAssigned,
		Data: map[string]any{"orderId": order.ID, "courierId": courierID, "vehicle": courier.Vehicle},
	}
	s.notifier.NotifyCustomer(order.CustomerID, assigned)
	s.notifier.NotifyManager(order.ManagerID, assigned)

	return &ClaimResult{Order: order, PickupCode: pickupCode}, nil
}

// ConfirmPickup verifies the pickup code and moves Cooked→Delivering, issuing
// the delivery code for the second handoff.
func (s *service) ConfirmPickup(ctx context.Context, courierID, orderID uuid.UUID, code string) (*models.Order, error) {
	order, err := s.loadAssignedOrder(ctx, courierID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusCooked {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("pickup cannot be confirmed while order is %s", order.Status))
	}
	if order.PickupCode == nil || !security.CodesEqual(*order.PickupCode, code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "incorrect pickup code")
	}

	var deliveryCode string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		code, won, err := s.writeWithFreshCode(ctx, func(code string) (bool, error) {
			return repo.MarkPickedUp(ctx, orderID, courierID, code)
		})
		if err != nil {
			return err
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order state changed concurrently")
		}
		deliveryCode = code
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusDelivering
	order.DeliveryCode = &deliveryCode

	s.notifier.TrackAssignment(courierID, order.ID, order.CustomerID)
	picked := presence.Event{
		Name: presence.EventOrderPickedUp,
		Data: map[string]any{"orderId": order.ID, "courierId": courierID},
	}
	s.notifier.NotifyCustomer(order.CustomerID, picked)
	s.notifier.NotifyManager(order.ManagerID, picked)
	s.notifier.NotifyAdmins(picked)

	return order, nil
}

// ConfirmDelivery verifies the delivery code, moves Delivering→Completed and
// releases the courier's assignment.
func (s *service) ConfirmDelivery(ctx context.Context, courierID, orderID uuid.UUID, code string) (*models.Order, error) {
	order, err := s.loadAssignedOrder(ctx, courierID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusDelivering {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("delivery cannot be confirmed while order is %s", order.Status))
	}
	if order.DeliveryCode == nil || !security.CodesEqual(*order.DeliveryCode, code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "incorrect delivery code")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		won, err := s.repo.WithTx(tx).MarkDelivered(ctx, orderID, courierID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order state changed concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCompleted

	s.notifier.ClearAssignment(courierID)
	completed := presence.Event{
		Name: presence.EventOrderCompleted,
		Data: map[string]any{"orderId": order.ID, "courierId": courierID},
	}
	s.notifier.NotifyCustomer(order.CustomerID, completed)
	s.notifier.NotifyAdmins(completed)

	return order, nil
}

func (s *service) loadCourier(ctx context.Context, courierID uuid.UUID) (*models.Courier, error) {
	courier, err := s.couriers.FindByID(ctx, courierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
	}
	if !courier.Verified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "courier is not verified")
	}
	return courier, nil
}

// loadVisibleOrder applies paid-only visibility: unpaid orders are
// indistinguishable from absent ones.
func (s *service) loadVisibleOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) loadAssignedOrder(ctx context.Context, courierID, orderID uuid.UUID) (*models.Order, error) {
	if courierID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id and order id required")
	}
	order, err := s.loadVisibleOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AssignedCourierID == nil || *order.AssignedCourierID != courierID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this courier")
	}
	return order, nil
}

// activeCourierIndex is the partial unique index on orders backing the
// one-active-order-per-courier rule. Two claims by the same courier on
// different orders can both pass the advisory count under READ COMMITTED;
// the index is the backstop, and its violation is a lost claim, not a
// code collision.
const activeCourierIndex = "uniq_orders_assigned_courier_active"

func isActiveCourierViolation(err error) bool {
	if !db.IsUniqueViolation(err, "") {
		return false
	}
	// Postgres names the index; sqlite names the column.
	return db.IsUniqueViolation(err, activeCourierIndex) ||
		db.IsUniqueViolation(err, "assigned_courier_id")
}

func isCodeCollision(err error) bool {
	if !db.IsUniqueViolation(err, "") {
		return false
	}
	return db.IsUniqueViolation(err, "pickup_code") ||
		db.IsUniqueViolation(err, "delivery_code")
}

// writeWithFreshCode runs the conditional write with a newly generated code,
// regenerating on code collisions up to the configured bound. A violation of
// the active-courier index surfaces as Conflict instead of a retry.
func (s *service) writeWithFreshCode(ctx context.Context, write func(code string) (bool, error)) (string, bool, error) {
	for attempt := 0; attempt < s.cfg.CodeMaxAttempts; attempt++ {
		code, err := security.GenerateCode(s.cfg.CodeLength)
		if err != nil {
			return "", false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
		}
		won, err := write(code)
		switch {
		case err == nil:
			return code, won, nil
		case isActiveCourierViolation(err):
			return "", false, pkgerrors.New(pkgerrors.CodeConflict, "courier already has an active order")
		case isCodeCollision(err):
			continue
		default:
			return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "conditional order write")
		}
	}
	return "", false, pkgerrors.New(pkgerrors.CodeInternal, "exhausted verification code attempts")
}

func vehicleLabel(vehicle *enums.Vehicle) string {
	if vehicle == nil {
		return "unknown"
	}
	return vehicle.String()
}
