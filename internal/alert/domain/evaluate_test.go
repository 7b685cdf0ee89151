package domain

import (
	"testing"
	"time"

	inventory "github.com/medtrack/pharmacy-portal/internal/inventory/domain"
)

var testToday = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func dateStr(t time.Time) string { return t.Format("2006-01-02") }

func kinds(events []Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestEvaluate_OutOfStockDominatesLowStock(t *testing.T) {
	items := []inventory.Medicine{
		{ID: 1, Name: "Paracetamol", Quantity: 0, MinThreshold: intPtr(5)},
	}

	events, warnings := Evaluate(items, testToday)
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if len(events) != 1 || events[0].Kind != KindOutOfStock {
		t.Fatalf("expected [out_of_stock], got %v", kinds(events))
	}
}

func TestEvaluate_ZeroQuantityNeverLowStock(t *testing.T) {
	// Missing quantity is stored as zero, which is out of stock regardless
	// of any threshold.
	thresholds := []*int{nil, intPtr(0), intPtr(1), intPtr(100)}
	for _, thr := range thresholds {
		items := []inventory.Medicine{{ID: 1, Name: "Ibuprofen", Quantity: 0, MinThreshold: thr}}
		events, _ := Evaluate(items, testToday)
		if len(events) != 1 || events[0].Kind != KindOutOfStock {
			t.Errorf("threshold %v: expected [out_of_stock], got %v", thr, kinds(events))
		}
	}
}

func TestEvaluate_NoThresholdDisablesLowStock(t *testing.T) {
	items := []inventory.Medicine{
		{ID: 1, Name: "Amoxicillin", Quantity: 1, MinThreshold: nil},
	}

	events, _ := Evaluate(items, testToday)
	if len(events) != 0 {
		t.Fatalf("expected no events at quantity 1 without threshold, got %v", kinds(events))
	}
}

func TestEvaluate_LowStockAtThresholdBoundary(t *testing.T) {
	cases := []struct {
		quantity int
		want     bool
	}{
		{quantity: 4, want: true},
		{quantity: 5, want: true},  // at threshold fires
		{quantity: 6, want: false}, // above threshold does not
	}

	for _, tc := range cases {
		items := []inventory.Medicine{{ID: 1, Name: "Cetirizine", Quantity: tc.quantity, MinThreshold: intPtr(5)}}
		events, _ := Evaluate(items, testToday)
		got := len(events) == 1 && events[0].Kind == KindLowStock
		if got != tc.want {
			t.Errorf("quantity %d: low_stock fired=%v, want %v", tc.quantity, got, tc.want)
		}
	}
}

func TestEvaluate_ExpiredBoundary(t *testing.T) {
	items := []inventory.Medicine{
		{ID: 1, Name: "ExpiresToday", Quantity: 10, ExpiryDate: dateStr(testToday)},
		{ID: 2, Name: "ExpiredYesterday", Quantity: 10, ExpiryDate: dateStr(testToday.AddDate(0, 0, -1))},
	}

	events, _ := Evaluate(items, testToday)

	var todayKind, yesterdayKind string
	for _, ev := range events {
		switch ev.MedicineID {
		case 1:
			todayKind = ev.Kind
		case 2:
			yesterdayKind = ev.Kind
		}
	}

	// Equality with today is not expired; it is expiring with 0 days left.
	if todayKind != KindExpiringSoon {
		t.Errorf("expiry == today: expected expiring_soon, got %q", todayKind)
	}
	if yesterdayKind != KindExpired {
		t.Errorf("expiry == today-1: expected expired, got %q", yesterdayKind)
	}
}

func TestEvaluate_ExpiryHorizonBoundary(t *testing.T) {
	items := []inventory.Medicine{
		{ID: 1, Name: "At90", Quantity: 2, ExpiryDate: dateStr(testToday.AddDate(0, 0, 90))},
		{ID: 2, Name: "At91", Quantity: 2, ExpiryDate: dateStr(testToday.AddDate(0, 0, 91))},
		{ID: 3, Name: "At30", Quantity: 2, ExpiryDate: dateStr(testToday.AddDate(0, 0, 30))},
		{ID: 4, Name: "At31", Quantity: 2, ExpiryDate: dateStr(testToday.AddDate(0, 0, 31))},
	}

	events, _ := Evaluate(items, testToday)

	byID := map[uint]Event{}
	for _, ev := range events {
		byID[ev.MedicineID] = ev
	}

	at90, ok := byID[1]
	if !ok || at90.Kind != KindExpiringSoon || at90.Urgency != UrgencyUpcoming || at90.DaysRemaining != 90 {
		t.Errorf("90 days out: expected expiring_soon/upcoming with 90 days, got %+v", at90)
	}
	if _, fired := byID[2]; fired {
		t.Errorf("91 days out: expected no expiry event, got %+v", byID[2])
	}
	at30 := byID[3]
	if at30.Urgency != UrgencySoon {
		t.Errorf("30 days out: expected urgency soon, got %q", at30.Urgency)
	}
	at31 := byID[4]
	if at31.Urgency != UrgencyUpcoming {
		t.Errorf("31 days out: expected urgency upcoming, got %q", at31.Urgency)
	}
}

func TestEvaluate_ExpiringSoonRequiresStock(t *testing.T) {
	items := []inventory.Medicine{
		{ID: 1, Name: "Empty", Quantity: 0, ExpiryDate: dateStr(testToday.AddDate(0, 0, 10))},
	}

	events, _ := Evaluate(items, testToday)
	for _, ev := range events {
		if ev.Kind == KindExpiringSoon {
			t.Fatalf("expiring_soon must not fire at quantity 0")
		}
	}
	// The stock axis still fires independently.
	if len(events) != 1 || events[0].Kind != KindOutOfStock {
		t.Fatalf("expected [out_of_stock], got %v", kinds(events))
	}
}

func TestEvaluate_ExpiredDominatesExpiringSoon(t *testing.T) {
	items := []inventory.Medicine{
		{ID: 1, Name: "Old", Quantity: 5, ExpiryDate: dateStr(testToday.AddDate(0, 0, -30))},
	}

	events, _ := Evaluate(items, testToday)
	if len(events) != 1 || events[0].Kind != KindExpired {
		t.Fatalf("expected [expired], got %v", kinds(events))
	}
}

func TestEvaluate_BothAxesFire(t *testing.T) {
	// Scenario: quantity 3 with threshold 5, expiring in 10 days.
	items := []inventory.Medicine{
		{ID: 1, Name: "Insulin", Quantity: 3, MinThreshold: intPtr(5), ExpiryDate: dateStr(testToday.AddDate(0, 0, 10))},
	}

	events, warnings := Evaluate(items, testToday)
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if len(events) != 2 {
		t.Fatalf("expected two events, got %v", kinds(events))
	}
	if events[0].Kind != KindLowStock {
		t.Errorf("expected low_stock first, got %q", events[0].Kind)
	}
	if events[1].Kind != KindExpiringSoon || events[1].Urgency != UrgencySoon {
		t.Errorf("expected expiring_soon/soon second, got %+v", events[1])
	}
	if events[1].DaysRemaining != 10 {
		t.Errorf("expected 10 days remaining, got %d", events[1].DaysRemaining)
	}
}

func TestEvaluate_MalformedExpirySkipsAxisOnly(t *testing.T) {
	items := []inventory.Medicine{
		{ID: 1, Name: "BadDate", Quantity: 2, MinThreshold: intPtr(5), ExpiryDate: "not-a-date"},
		{ID: 2, Name: "GoodDate", Quantity: 50, ExpiryDate: dateStr(testToday.AddDate(0, 0, 5))},
	}

	events, warnings := Evaluate(items, testToday)

	if len(warnings) != 1 || warnings[0].MedicineID != 1 {
		t.Fatalf("expected one warning for item 1, got %v", warnings)
	}

	// The stock axis of the bad item and the whole good item still evaluate.
	got := kinds(events)
	if len(events) != 2 || got[0] != KindLowStock || got[1] != KindExpiringSoon {
		t.Fatalf("expected [low_stock expiring_soon], got %v", got)
	}
}

func TestEvaluate_EmptyExpiryIsNotAWarning(t *testing.T) {
	items := []inventory.Medicine{
		{ID: 1, Name: "NoExpiry", Quantity: 100, ExpiryDate: ""},
	}

	events, warnings := Evaluate(items, testToday)
	if len(events) != 0 || len(warnings) != 0 {
		t.Fatalf("expected nothing, got events=%v warnings=%v", kinds(events), warnings)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	items := []inventory.Medicine{
		{ID: 1, Name: "A", Quantity: 0},
		{ID: 2, Name: "B", Quantity: 3, MinThreshold: intPtr(5), ExpiryDate: dateStr(testToday.AddDate(0, 0, 40))},
		{ID: 3, Name: "C", Quantity: 7, ExpiryDate: dateStr(testToday.AddDate(0, 0, -2))},
	}

	first, _ := Evaluate(items, testToday)
	second, _ := Evaluate(items, testToday)

	if len(first) != len(second) {
		t.Fatalf("re-evaluation changed event count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("event %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSeverityMapping(t *testing.T) {
	cases := map[string]string{
		KindOutOfStock:   SeverityCritical,
		KindExpired:      SeverityCritical,
		KindLowStock:     SeverityWarning,
		KindExpiringSoon: SeverityWarning,
		"unknown":        SeverityWarning,
	}
	for kind, want := range cases {
		if got := Severity(kind); got != want {
			t.Errorf("Severity(%q) = %q, want %q", kind, got, want)
		}
	}
}

func TestBuildPollPayload(t *testing.T) {
	events := []Event{
		{Kind: KindOutOfStock, MedicineName: "A", Quantity: 0},
		{Kind: KindLowStock, MedicineName: "B", Quantity: 3},
		{Kind: KindExpiringSoon, MedicineName: "C", Quantity: 4, DaysRemaining: 12},
		{Kind: KindExpired, MedicineName: "D", Quantity: 1, DaysRemaining: -3},
	}

	payload := BuildPollPayload(events)

	if len(payload.LowStock) != 2 {
		t.Errorf("expected out_of_stock and low_stock grouped together, got %d entries", len(payload.LowStock))
	}
	if *payload.LowStock[0].StockQuantity != 0 || *payload.LowStock[1].StockQuantity != 3 {
		t.Errorf("stock quantities not carried through: %+v", payload.LowStock)
	}
	if len(payload.ExpiringSoon) != 1 || *payload.ExpiringSoon[0].DaysRemaining != 12 {
		t.Errorf("expiring_soon entry wrong: %+v", payload.ExpiringSoon)
	}
	if len(payload.Expired) != 1 || payload.Expired[0].Name != "D" {
		t.Errorf("expired entry wrong: %+v", payload.Expired)
	}
}

func TestBuildPollPayload_EmptyCategoriesStayArrays(t *testing.T) {
	payload := BuildPollPayload(nil)
	if payload.LowStock == nil || payload.ExpiringSoon == nil || payload.Expired == nil {
		t.Fatal("empty categories must marshal as [] not null")
	}
}
