package domain

// PollEntry is one row of the sidebar poll payload.
type PollEntry struct {
	Name          string `json:"name"`
	StockQuantity *int   `json:"stock_quantity,omitempty"`
	DaysRemaining *int   `json:"days_remaining,omitempty"`
}

// PollPayload is the JSON shape the presentation tier polls for. Empty
// categories stay as empty arrays so the client renders its empty-state
// text instead of breaking on null.
type PollPayload struct {
	LowStock     []PollEntry `json:"low_stock"`
	ExpiringSoon []PollEntry `json:"expiring_soon"`
	Expired      []PollEntry `json:"expired"`
}

// BuildPollPayload groups evaluator output into the poll payload shape.
// Out-of-stock items ride in the low_stock collection with quantity zero,
// which is how the sidebar has always displayed them.
func BuildPollPayload(events []Event) PollPayload {
	payload := PollPayload{
		LowStock:     []PollEntry{},
		ExpiringSoon: []PollEntry{},
		Expired:      []PollEntry{},
	}

	for _, ev := range events {
		switch ev.Kind {
		case KindOutOfStock, KindLowStock:
			qty := ev.Quantity
			payload.LowStock = append(payload.LowStock, PollEntry{
				Name:          ev.MedicineName,
				StockQuantity: &qty,
			})
		case KindExpiringSoon:
			days := ev.DaysRemaining
			payload.ExpiringSoon = append(payload.ExpiringSoon, PollEntry{
				Name:          ev.MedicineName,
				DaysRemaining: &days,
			})
		case KindExpired:
			payload.Expired = append(payload.Expired, PollEntry{
				Name: ev.MedicineName,
			})
		}
	}

	return payload
}
