package domain

// Visual severities. Evaluation emits raw typed events; this mapping is the
// only place the presentation tier learns how to color them.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

var severityByKind = map[string]string{
	KindOutOfStock:   SeverityCritical,
	KindExpired:      SeverityCritical,
	KindLowStock:     SeverityWarning,
	KindExpiringSoon: SeverityWarning,
}

// Severity returns the display severity for an alert kind. Unknown kinds
// map to warning.
func Severity(kind string) string {
	if s, ok := severityByKind[kind]; ok {
		return s
	}
	return SeverityWarning
}
