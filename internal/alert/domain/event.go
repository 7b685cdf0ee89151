package domain

import "time"

// Alert kinds. An item can carry at most one stock-axis kind and one
// expiry-axis kind at the same time; the axes never suppress each other.
const (
	KindOutOfStock   = "out_of_stock"
	KindLowStock     = "low_stock"
	KindExpired      = "expired"
	KindExpiringSoon = "expiring_soon"
)

// Urgency subdivision for expiring_soon.
const (
	UrgencySoon     = "soon"     // 30 days or less
	UrgencyUpcoming = "upcoming" // 31 to 90 days
)

// Horizons for the expiry axis, in whole days.
const (
	ExpiryHorizonDays = 90
	SoonHorizonDays   = 30
)

// Event is one derived alert for one medicine. Events are ephemeral: they
// are recomputed on every evaluation and never persisted by this subsystem.
type Event struct {
	Kind          string    `json:"kind"`
	Urgency       string    `json:"urgency,omitempty"`
	MedicineID    uint      `json:"medicine_id"`
	MedicineName  string    `json:"medicine_name"`
	Quantity      int       `json:"quantity"`
	DaysRemaining int       `json:"days_remaining,omitempty"`
	ComputedAt    time.Time `json:"computed_at"`
}

// Warning reports a non-fatal per-item evaluation problem, such as a
// malformed expiry date. The run continues past it.
type Warning struct {
	MedicineID   uint   `json:"medicine_id"`
	MedicineName string `json:"medicine_name"`
	Reason       string `json:"reason"`
}
