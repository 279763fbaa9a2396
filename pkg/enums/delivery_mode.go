package enums

import "fmt"

// DeliveryMode distinguishes courier-delivered orders from customer pickup.
type DeliveryMode string

const (
	DeliveryModeDelivery DeliveryMode = "delivery"
	DeliveryModeTakeaway DeliveryMode = "takeaway"
)

// String implements fmt.Stringer.
func (m DeliveryMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known DeliveryMode.
func (m DeliveryMode) IsValid() bool {
	return m == DeliveryModeDelivery || m == DeliveryModeTakeaway
}

// ParseDeliveryMode converts raw input into a DeliveryMode.
func ParseDeliveryMode(value string) (DeliveryMode, error) {
	switch DeliveryMode(value) {
	case DeliveryModeDelivery:
		return DeliveryModeDelivery, nil
	case DeliveryModeTakeaway:
		return DeliveryModeTakeaway, nil
	default:
		return "", fmt.Errorf("invalid delivery mode %q", value)
	}
}
