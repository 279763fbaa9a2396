package presence

// Event names pushed over client connections.
const (
	EventOrderCooked           = "orderCooked"
	EventCourierAssigned       = "courierAssigned"
	EventOrderPickedUp         = "orderPickedUp"
	EventOrderCompleted        = "orderCompleted"
	EventNewPaidOrder          = "newPaidOrder"
	EventCourierLocation       = "courierLocation"
	EventRequestLocationUpdate = "requestLocationUpdate"
)

// Event is the unit of fan-out: a named payload pushed to client connections.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}
