package domain

import "time"

// Customer represents a booking customer.
type Customer struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}
