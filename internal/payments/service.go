package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealora/mealora-backend/internal/orders"
	"github.com/mealora/mealora-backend/internal/presence"
	"github.com/mealora/mealora-backend/pkg/enums"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
	"github.com/mealora/mealora-backend/pkg/logger"
)

// Notifier pushes the paid-order event to the restaurant side.
type Notifier interface {
	NotifyManager(userID uuid.UUID, event presence.Event)
}

// Result reports what the callback did. Applied is false for replays and
// unknown references, both of which the provider may retry freely.
type Result struct {
	OrderID       uuid.UUID           `json:"orderId"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	Applied       bool                `json:"applied"`
}

// Service applies payment-provider confirmation callbacks to the ledger.
type Service interface {
	Confirm(ctx context.Context, transactionRef string, success bool) (*Result, error)
}

type service struct {
	repo     orders.Repository
	notifier Notifier
	logger   *logger.Logger
}

// NewService builds the payments callback service.
func NewService(repo orders.Repository, notifier Notifier, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, notifier: notifier, logger: log}, nil
}

// Confirm flips payment_status Pending→Paid or Pending→Failed. The write is
// conditional on the current status, so provider retries and duplicate
// callbacks settle as no-ops instead of double-applying.
func (s *service) Confirm(ctx context.Context, transactionRef string, success bool) (*Result, error) {
	if transactionRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	}

	order, err := s.repo.FindByPaymentRef(ctx, transactionRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unknown refs are acknowledged, not errored: the provider may
			// deliver callbacks for orders we never created (test traffic,
			// cancelled checkouts).
			s.logger.Warn(s.logger.WithField(ctx, "transaction_ref", transactionRef),
				"payment callback for unknown reference")
			return &Result{Applied: false}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by payment reference")
	}

	target := enums.PaymentStatusFailed
	if success {
		target = enums.PaymentStatusPaid
	}

	applied, err := s.repo.SetPaymentStatus(ctx, order.ID, enums.PaymentStatusPending, target)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
	}
	if !applied {
		s.logger.Info(s.logger.WithOrderID(ctx, order.ID.String()),
			"payment callback replayed, no change applied")
		return &Result{OrderID: order.ID, PaymentStatus: order.PaymentStatus, Applied: false}, nil
	}

	if target == enums.PaymentStatusPaid {
		s.notifier.NotifyManager(order.ManagerID, presence.Event{
			Name: presence.EventNewPaidOrder,
			Data: map[string]any{"orderId": order.ID, "total": order.TotalCents},
		})
	}

	return &Result{OrderID: order.ID, PaymentStatus: target, Applied: true}, nil
}
