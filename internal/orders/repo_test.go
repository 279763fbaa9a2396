package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mealora/mealora-backend/pkg/db/models"
	"github.com/mealora/mealora-backend/pkg/enums"
	"github.com/mealora/mealora-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("extract sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&models.Courier{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedOrder(t *testing.T, repo Repository, mutate func(*models.Order)) *models.Order {
	t.Helper()
	vehicle := enums.VehicleBicycle
	order := &models.Order{
		CustomerID:         uuid.New(),
		ManagerID:          uuid.New(),
		ItemsSubtotalCents: 2850,
		DeliveryFeeCents:   553,
		TotalCents:         3403,
		DeliveryMode:       enums.DeliveryModeDelivery,
		RequiredVehicle:    &vehicle,
		OriginCoords:       types.GeographyPoint{Lat: 52.52, Lng: 13.405},
		DestinationCoords:  &types.GeographyPoint{Lat: 52.6, Lng: 13.5},
		Status:             enums.OrderStatusPending,
		PaymentStatus:      enums.PaymentStatusPaid,
		Items: []models.OrderItem{
			{MenuItemID: uuid.New(), Name: "pad thai", Qty: 2, UnitPriceCents: 1200, TotalCents: 2400},
		},
	}
	if mutate != nil {
		mutate(order)
	}
	created, err := repo.Create(context.Background(), order)
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return created
}

func TestRepoCreateAssignsIDsAndRoundTrips(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	order := seedOrder(t, repo, nil)

	if order.ID == uuid.Nil {
		t.Fatal("order id not assigned")
	}
	if len(order.Items) != 1 || order.Items[0].ID == uuid.Nil {
		t.Fatal("item id not assigned")
	}

	loaded, err := repo.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].Name != "pad thai" {
		t.Fatalf("items not preloaded: %+v", loaded.Items)
	}
	if loaded.OriginCoords.Lat != 52.52 || loaded.OriginCoords.Lng != 13.405 {
		t.Fatalf("origin coords did not round-trip: %+v", loaded.OriginCoords)
	}
	if loaded.DestinationCoords == nil || loaded.DestinationCoords.Lat != 52.6 {
		t.Fatalf("destination coords did not round-trip: %+v", loaded.DestinationCoords)
	}
}

func TestRepoUpdateOrderWhitelist(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	order := seedOrder(t, repo, nil)
	ctx := context.Background()

	if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"total_cents": 1}); err == nil {
		t.Fatal("totals must not be updatable after creation")
	}
	if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"items_subtotal_cents": 1}); err == nil {
		t.Fatal("subtotal must not be updatable after creation")
	}
	if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"origin_coords": "x"}); err == nil {
		t.Fatal("coordinates must not be updatable after creation")
	}

	code := "123456"
	if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"pickup_code": code}); err != nil {
		t.Fatalf("whitelisted update failed: %v", err)
	}
	loaded, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if loaded.PickupCode == nil || *loaded.PickupCode != code {
		t.Fatalf("pickup code not persisted: %+v", loaded.PickupCode)
	}
}

func TestRepoTransitionStatusIsConditional(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	order := seedOrder(t, repo, nil)
	ctx := context.Background()

	ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCooked)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !ok {
		t.Fatal("expected transition to win")
	}

	// Stale expectation loses without touching the row.
	ok, err = repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if ok {
		t.Fatal("stale transition must affect zero rows")
	}

	loaded, _ := repo.FindByID(ctx, order.ID)
	if loaded.Status != enums.OrderStatusCooked {
		t.Fatalf("status clobbered: %s", loaded.Status)
	}
}

func TestRepoSetPaymentStatusIsIdempotentOnReplay(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	order := seedOrder(t, repo, func(o *models.Order) { o.PaymentStatus = enums.PaymentStatusPending })
	ctx := context.Background()

	ok, err := repo.SetPaymentStatus(ctx, order.ID, enums.PaymentStatusPending, enums.PaymentStatusPaid)
	if err != nil || !ok {
		t.Fatalf("first flip: ok=%v err=%v", ok, err)
	}
	ok, err = repo.SetPaymentStatus(ctx, order.ID, enums.PaymentStatusPending, enums.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if ok {
		t.Fatal("replay must be a no-op")
	}
}

func TestRepoListCookedFiltersClaimableFeed(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	claimable := seedOrder(t, repo, func(o *models.Order) { o.Status = enums.OrderStatusCooked })
	seedOrder(t, repo, func(o *models.Order) { o.Status = enums.OrderStatusPending })
	seedOrder(t, repo, func(o *models.Order) {
		o.Status = enums.OrderStatusCooked
		o.PaymentStatus = enums.PaymentStatusPending
	})
	seedOrder(t, repo, func(o *models.Order) {
		o.Status = enums.OrderStatusCooked
		o.DeliveryMode = enums.DeliveryModeTakeaway
		o.RequiredVehicle = nil
	})
	courierID := uuid.New()
	seedOrder(t, repo, func(o *models.Order) {
		o.Status = enums.OrderStatusCooked
		o.AssignedCourierID = &courierID
	})

	cooked, err := repo.ListCooked(ctx)
	if err != nil {
		t.Fatalf("list cooked: %v", err)
	}
	if len(cooked) != 1 || cooked[0].ID != claimable.ID {
		t.Fatalf("expected only the claimable order, got %d rows", len(cooked))
	}
}

func TestRepoListByCustomerVisibility(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	customerID := uuid.New()

	seedOrder(t, repo, func(o *models.Order) { o.CustomerID = customerID })
	seedOrder(t, repo, func(o *models.Order) {
		o.CustomerID = customerID
		o.PaymentStatus = enums.PaymentStatusPending
	})
	seedOrder(t, repo, nil) // someone else's order

	visible, err := repo.ListByCustomer(ctx, customerID, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 1 {
		t.Fatalf("expected 1 paid order, got %d", len(visible))
	}

	all, err := repo.ListByCustomer(ctx, customerID, true)
	if err != nil {
		t.Fatalf("list include-unpaid: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders with the privileged flag, got %d", len(all))
	}
}

func TestRepoDeliveringLookups(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	courierID := uuid.New()

	delivering := seedOrder(t, repo, func(o *models.Order) {
		o.Status = enums.OrderStatusDelivering
		o.AssignedCourierID = &courierID
	})
	seedOrder(t, repo, func(o *models.Order) { o.Status = enums.OrderStatusCooked })

	rows, err := repo.ListDelivering(ctx)
	if err != nil {
		t.Fatalf("list delivering: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != delivering.ID {
		t.Fatalf("unexpected delivering rows: %d", len(rows))
	}

	found, err := repo.FindDeliveringByCourier(ctx, courierID)
	if err != nil {
		t.Fatalf("find delivering by courier: %v", err)
	}
	if found.ID != delivering.ID {
		t.Fatalf("wrong order %s", found.ID)
	}

	if _, err := repo.FindDeliveringByCourier(ctx, uuid.New()); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected record not found, got %v", err)
	}

	count, err := repo.CountActiveByCourier(ctx, courierID)
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 active order, got %d", count)
	}
}
