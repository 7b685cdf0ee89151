package domain

import (
	"fmt"
	"time"

	inventory "github.com/medtrack/pharmacy-portal/internal/inventory/domain"
)

// expiryDateLayout is the date format the inventory store uses.
const expiryDateLayout = "2006-01-02"

// Evaluate derives alert events from an inventory snapshot. It is pure:
// same snapshot and date in, same events out, no I/O and no hidden state.
//
// Each item is checked on two independent axes:
//
//	stock:  out_of_stock (quantity 0) dominates low_stock (quantity at or
//	        below the item's threshold, if one is set)
//	expiry: expired (strictly past) dominates expiring_soon (within 90 days
//	        and still in stock)
//
// so an item emits zero, one, or two events. A malformed expiry date skips
// only that item's expiry axis and is reported as a warning.
func Evaluate(items []inventory.Medicine, today time.Time) ([]Event, []Warning) {
	events := make([]Event, 0, len(items))
	var warnings []Warning

	todayDate := truncateToDate(today)
	computedAt := today

	for _, item := range items {
		if ev, ok := evaluateStockAxis(item, computedAt); ok {
			events = append(events, ev)
		}

		ev, warn, ok := evaluateExpiryAxis(item, todayDate, computedAt)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		if ok {
			events = append(events, ev)
		}
	}

	return events, warnings
}

func evaluateStockAxis(item inventory.Medicine, computedAt time.Time) (Event, bool) {
	if item.Quantity == 0 {
		return Event{
			Kind:         KindOutOfStock,
			MedicineID:   item.ID,
			MedicineName: item.Name,
			Quantity:     0,
			ComputedAt:   computedAt,
		}, true
	}

	// Low stock only applies when the item has a configured threshold.
	if item.MinThreshold != nil && item.Quantity <= *item.MinThreshold {
		return Event{
			Kind:         KindLowStock,
			MedicineID:   item.ID,
			MedicineName: item.Name,
			Quantity:     item.Quantity,
			ComputedAt:   computedAt,
		}, true
	}

	return Event{}, false
}

func evaluateExpiryAxis(item inventory.Medicine, todayDate, computedAt time.Time) (Event, *Warning, bool) {
	if item.ExpiryDate == "" {
		return Event{}, nil, false
	}

	expiry, err := time.Parse(expiryDateLayout, item.ExpiryDate)
	if err != nil {
		return Event{}, &Warning{
			MedicineID:   item.ID,
			MedicineName: item.Name,
			Reason:       fmt.Sprintf("unparseable expiry date %q", item.ExpiryDate),
		}, false
	}

	daysRemaining := daysBetween(todayDate, expiry)

	// Date-only comparison: expiring today is not expired.
	if daysRemaining < 0 {
		return Event{
			Kind:          KindExpired,
			MedicineID:    item.ID,
			MedicineName:  item.Name,
			Quantity:      item.Quantity,
			DaysRemaining: daysRemaining,
			ComputedAt:    computedAt,
		}, nil, true
	}

	if item.Quantity > 0 && daysRemaining <= ExpiryHorizonDays {
		urgency := UrgencyUpcoming
		if daysRemaining <= SoonHorizonDays {
			urgency = UrgencySoon
		}
		return Event{
			Kind:          KindExpiringSoon,
			Urgency:       urgency,
			MedicineID:    item.ID,
			MedicineName:  item.Name,
			Quantity:      item.Quantity,
			DaysRemaining: daysRemaining,
			ComputedAt:    computedAt,
		}, nil, true
	}

	return Event{}, nil, false
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole days from a to b, flooring partial days.
func daysBetween(a, b time.Time) int {
	return int(truncateToDate(b).Sub(truncateToDate(a)).Hours() / 24)
}
