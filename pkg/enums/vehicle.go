package enums

import "fmt"

// Vehicle is the capability class a courier rides and an order may require.
type Vehicle string

const (
	VehicleCar     Vehicle = "car"
	VehicleMotor   Vehicle = "motor"
	VehicleBicycle Vehicle = "bicycle"
)

var validVehicles = []Vehicle{
	VehicleCar,
	VehicleMotor,
	VehicleBicycle,
}

// String implements fmt.Stringer.
func (v Vehicle) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Vehicle.
func (v Vehicle) IsValid() bool {
	for _, candidate := range validVehicles {
		if candidate == v {
			return true
		}
	}
	return false
}

// Vehicles returns every valid vehicle capability.
func Vehicles() []Vehicle {
	out := make([]Vehicle, len(validVehicles))
	copy(out, validVehicles)
	return out
}

// ParseVehicle converts raw input into a Vehicle.
func ParseVehicle(value string) (Vehicle, error) {
	for _, candidate := range validVehicles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle %q", value)
}
