package presence

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealora/mealora-backend/pkg/db/models"
	"github.com/mealora/mealora-backend/pkg/enums"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
	"github.com/mealora/mealora-backend/pkg/logger"
	"github.com/mealora/mealora-backend/pkg/metrics"
	"github.com/mealora/mealora-backend/pkg/redis"
)

const locationTTL = 15 * time.Minute

// LedgerSource is the read surface the hub needs to rebuild its
// active-assignment cache from durable state.
type LedgerSource interface {
	ListDelivering(ctx context.Context) ([]models.Order, error)
	FindDeliveringByCourier(ctx context.Context, courierID uuid.UUID) (*models.Order, error)
}

// LocationStore caches last-known courier locations.
type LocationStore interface {
	StoreCourierLocation(ctx context.Context, courierID string, loc redis.CourierLocation, ttl time.Duration) error
}

type assignment struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
}

// Hub routes events to connected clients. All registries and the
// active-assignment cache are owned by a single goroutine: every mutation and
// fan-out runs as a command on the Run loop, so no locking is needed and no
// handler observes partial state. Blocking I/O (ledger scans, redis writes)
// happens before a command is submitted.
type Hub struct {
	ledger    LedgerSource
	locations LocationStore
	logg      *logger.Logger
	metrics   *metrics.DispatchMetrics

	commands chan func()
	done     chan struct{}
	stopOnce sync.Once

	customers   map[uuid.UUID]map[Conn]struct{}
	couriers    map[uuid.UUID]map[Conn]struct{}
	managers    map[uuid.UUID]map[Conn]struct{}
	admins      map[Conn]struct{}
	byVehicle   map[string]map[Conn]struct{}
	assignments map[uuid.UUID]assignment
}

// NewHub builds the hub. Run must be called before clients are admitted.
func NewHub(ledger LedgerSource, locations LocationStore, logg *logger.Logger, m *metrics.DispatchMetrics) (*Hub, error) {
	if ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger source required")
	}
	if locations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "location store required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Hub{
		ledger:      ledger,
		locations:   locations,
		logg:        logg,
		metrics:     m,
		commands:    make(chan func(), 256),
		done:        make(chan struct{}),
		customers:   make(map[uuid.UUID]map[Conn]struct{}),
		couriers:    make(map[uuid.UUID]map[Conn]struct{}),
		managers:    make(map[uuid.UUID]map[Conn]struct{}),
		admins:      make(map[Conn]struct{}),
		byVehicle:   make(map[string]map[Conn]struct{}),
		assignments: make(map[uuid.UUID]assignment),
	}, nil
}

// Run processes hub commands until ctx is cancelled, then closes every
// connection. It must run on exactly one goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })
	for {
		select {
		case cmd := <-h.commands:
			cmd()
		case <-ctx.Done():
			h.closeAllLocked()
			return
		}
	}
}

func (h *Hub) closeAllLocked() {
	for _, conns := range h.customers {
		for conn := range conns {
			_ = conn.Close()
		}
	}
	for _, conns := range h.couriers {
		for conn := range conns {
			_ = conn.Close()
		}
	}
	for _, conns := range h.managers {
		for conn := range conns {
			_ = conn.Close()
		}
	}
	for conn := range h.admins {
		_ = conn.Close()
	}
}

// submit runs fn on the hub loop and waits for it to finish. Returns false
// when the hub already stopped.
func (h *Hub) submit(fn func()) bool {
	ran := make(chan struct{})
	wrapped := func() {
		fn()
		close(ran)
	}
	select {
	case h.commands <- wrapped:
	case <-h.done:
		return false
	}
	select {
	case <-ran:
		return true
	case <-h.done:
		return false
	}
}

// post runs fn on the hub loop without waiting. Events posted after shutdown
// are dropped.
func (h *Hub) post(fn func()) {
	select {
	case h.commands <- fn:
	case <-h.done:
	}
}

// Rebuild reloads the active-assignment cache from every Delivering order in
// the ledger. Called once at startup before the listener accepts connections,
// and again on demand.
func (h *Hub) Rebuild(ctx context.Context) error {
	orders, err := h.ledger.ListDelivering(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan delivering orders")
	}

	fresh := make(map[uuid.UUID]assignment, len(orders))
	for _, order := range orders {
		if order.AssignedCourierID == nil {
			continue
		}
		fresh[*order.AssignedCourierID] = assignment{OrderID: order.ID, CustomerID: order.CustomerID}
	}

	if !h.submit(func() { h.assignments = fresh }) {
		return pkgerrors.New(pkgerrors.CodeInternal, "hub is not running")
	}
	return nil
}

// Register admits a connection. Courier connections consult the ledger for an
// in-flight delivery; when one exists the assignment cache is seeded and a
// single requestLocationUpdate is pushed to the new connection.
func (h *Hub) Register(ctx context.Context, id Identity, conn Conn) error {
	if conn == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "connection required")
	}
	if err := id.Validate(); err != nil {
		return err
	}

	var active *assignment
	if id.Role == enums.RoleCourier {
		order, err := h.ledger.FindDeliveringByCourier(ctx, id.UserID)
		switch {
		case err == nil:
			active = &assignment{OrderID: order.ID, CustomerID: order.CustomerID}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// no delivery in flight
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier assignment")
		}
	}

	ok := h.submit(func() {
		switch id.Role {
		case enums.RoleCustomer:
			addConn(h.customers, id.UserID, conn)
		case enums.RoleCourier:
			addConn(h.couriers, id.UserID, conn)
			vehicleConns, exists := h.byVehicle[id.Vehicle.String()]
			if !exists {
				vehicleConns = make(map[Conn]struct{})
				h.byVehicle[id.Vehicle.String()] = vehicleConns
			}
			vehicleConns[conn] = struct{}{}
			if active != nil {
				h.assignments[id.UserID] = *active
				h.send(conn, Event{
					Name: EventRequestLocationUpdate,
					Data: map[string]any{"orderId": active.OrderID, "reason": "active_delivery"},
				})
			}
		case enums.RoleManager:
			addConn(h.managers, id.UserID, conn)
		case enums.RoleAdmin:
			h.admins[conn] = struct{}{}
		}
	})
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInternal, "hub is not running")
	}
	return nil
}

// Unregister removes a connection. When the last connection of a courier goes
// away only the cache entry is cleared; the ledger row is untouched.
func (h *Hub) Unregister(id Identity, conn Conn) {
	h.post(func() {
		switch id.Role {
		case enums.RoleCustomer:
			dropConn(h.customers, id.UserID, conn)
		case enums.RoleCourier:
			dropConn(h.couriers, id.UserID, conn)
			if vehicleConns, ok := h.byVehicle[id.Vehicle.String()]; ok {
				delete(vehicleConns, conn)
				if len(vehicleConns) == 0 {
					delete(h.byVehicle, id.Vehicle.String())
				}
			}
			if len(h.couriers[id.UserID]) == 0 {
				delete(h.assignments, id.UserID)
			}
		case enums.RoleManager:
			dropConn(h.managers, id.UserID, conn)
		case enums.RoleAdmin:
			delete(h.admins, conn)
		}
		_ = conn.Close()
	})
}

// PublishLocation validates and caches a courier position, then fans it out
// to the admin broadcast and, when the courier has an active assignment, to
// the bound customer.
func (h *Hub) PublishLocation(ctx context.Context, courierID uuid.UUID, lat, lng float64) error {
	if courierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	if !isFinite(lat) || !isFinite(lng) {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinates must be finite")
	}

	observed := time.Now().UTC()
	loc := redis.CourierLocation{Lat: lat, Lng: lng, ObservedAt: observed}
	if err := h.locations.StoreCourierLocation(ctx, courierID.String(), loc, locationTTL); err != nil {
		// Fan-out is best-effort: a cache outage must not silence live
		// location updates for connected subscribers.
		lctx := h.logg.WithCourierID(ctx, courierID.String())
		h.logg.Error(lctx, "cache courier location", err)
	}

	event := Event{
		Name: EventCourierLocation,
		Data: map[string]any{
			"courierId":  courierID,
			"lat":        lat,
			"lng":        lng,
			"observedAt": observed,
		},
	}

	h.post(func() {
		h.broadcast(h.admins, event)
		if active, ok := h.assignments[courierID]; ok {
			h.fanOut(h.customers[active.CustomerID], event)
		} else {
			ctx := h.logg.WithCourierID(context.Background(), courierID.String())
			h.logg.Debug(ctx, "courier location dropped: no active assignment")
		}
	})
	return nil
}

// TrackAssignment binds a courier to an order's customer for location fan-out.
func (h *Hub) TrackAssignment(courierID, orderID, customerID uuid.UUID) {
	h.post(func() {
		h.assignments[courierID] = assignment{OrderID: orderID, CustomerID: customerID}
	})
}

// ClearAssignment releases a courier's assignment after delivery completes.
func (h *Hub) ClearAssignment(courierID uuid.UUID) {
	h.post(func() {
		delete(h.assignments, courierID)
	})
}

// NotifyCustomer pushes an event to every connection of one customer.
func (h *Hub) NotifyCustomer(userID uuid.UUID, event Event) {
	h.post(func() { h.fanOut(h.customers[userID], event) })
}

// NotifyManager pushes an event to every connection of one manager.
func (h *Hub) NotifyManager(userID uuid.UUID, event Event) {
	h.post(func() { h.fanOut(h.managers[userID], event) })
}

// NotifyAdmins pushes an event to the admin broadcast channel.
func (h *Hub) NotifyAdmins(event Event) {
	h.post(func() { h.broadcast(h.admins, event) })
}

// NotifyVehicleGroup pushes an event to every courier riding the vehicle.
func (h *Hub) NotifyVehicleGroup(vehicle string, event Event) {
	h.post(func() { h.broadcast(h.byVehicle[vehicle], event) })
}

func (h *Hub) fanOut(conns map[Conn]struct{}, event Event) {
	for conn := range conns {
		h.send(conn, event)
	}
}

func (h *Hub) broadcast(conns map[Conn]struct{}, event Event) {
	for conn := range conns {
		h.send(conn, event)
	}
}

func (h *Hub) send(conn Conn, event Event) {
	if err := conn.Send(event); err != nil {
		h.metrics.IncEventDropped(event.Name)
		ctx := h.logg.WithField(context.Background(), "event", event.Name)
		h.logg.Debug(ctx, "event dropped for slow client")
		return
	}
	h.metrics.IncEventDelivered(event.Name)
}

func addConn(registry map[uuid.UUID]map[Conn]struct{}, userID uuid.UUID, conn Conn) {
	conns, ok := registry[userID]
	if !ok {
		conns = make(map[Conn]struct{})
		registry[userID] = conns
	}
	conns[conn] = struct{}{}
}

func dropConn(registry map[uuid.UUID]map[Conn]struct{}, userID uuid.UUID, conn Conn) {
	if conns, ok := registry[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(registry, userID)
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
