package domain

// DriverStatus represents the current availability of a driver.
type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "AVAILABLE"
	DriverStatusOffline   DriverStatus = "OFFLINE"
	DriverStatusAssigned  DriverStatus = "ASSIGNED"
	DriverStatusOnTrip    DriverStatus = "ON_TRIP"
)

// Driver represents a charter driver.
type Driver struct {
	ID             string
	Name           string
	Phone          string
	VehiclePlate   string
	Status         DriverStatus
	CompletedTrips int
}
