package domain

import "time"

// CommissionType controls how an influencer's commission is derived.
type CommissionType string

const (
	CommissionTypeFixed   CommissionType = "fixed"
	CommissionTypePercent CommissionType = "percent"
	CommissionTypeBoth    CommissionType = "both"
)

// PromoCode is an influencer's current promo configuration. It is read
// once at booking time; everything settlement needs is snapshotted onto
// the booking and the commission record.
type PromoCode struct {
	Code                  string
	InfluencerID          string
	DiscountAmount        float64
	CommissionType        CommissionType
	CommissionRate        float64
	CommissionFixedAmount float64
	Active                bool
}

// CommissionRecord is the promo-usage snapshot created when a booking is
// placed with a promo code. The customer's effective deal never changes
// between booking and settlement because settlement reads this record,
// not the live promo configuration.
type CommissionRecord struct {
	ID                    string
	InfluencerID          string
	BookingID             string
	PromoCode             string
	OriginalPrice         float64
	DiscountAmount        float64
	FinalPrice            float64
	CommissionAmount      float64
	CommissionType        CommissionType
	CommissionRate        float64
	CommissionFixedAmount float64
	CreatedAt             time.Time
}
