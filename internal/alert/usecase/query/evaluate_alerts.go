package query

import (
	"fmt"
	"time"

	"github.com/medtrack/pharmacy-portal/internal/alert/domain"
	inventory "github.com/medtrack/pharmacy-portal/internal/inventory/domain"
	"github.com/medtrack/pharmacy-portal/pkg/logger"
)

// EvaluateAlertsQuery represents the query to evaluate alerts for a branch
type EvaluateAlertsQuery struct {
	BranchID uint
	Today    time.Time
}

// EvaluateAlertsHandler handles the evaluate alerts query
type EvaluateAlertsHandler struct {
	repo inventory.SnapshotRepository
}

// NewEvaluateAlertsHandler creates a new evaluate alerts handler
func NewEvaluateAlertsHandler(repo inventory.SnapshotRepository) *EvaluateAlertsHandler {
	return &EvaluateAlertsHandler{repo: repo}
}

// Handle pulls the branch snapshot and runs the evaluator over it.
// Per-item warnings are logged here so the evaluation itself stays pure.
func (h *EvaluateAlertsHandler) Handle(query EvaluateAlertsQuery) ([]domain.Event, error) {
	if query.Today.IsZero() {
		query.Today = time.Now()
	}

	snapshot, err := h.repo.Snapshot(query.BranchID)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory snapshot: %w", err)
	}

	events, warnings := domain.Evaluate(snapshot, query.Today)

	for _, w := range warnings {
		logger.Logger.Warn().
			Uint("medicine_id", w.MedicineID).
			Str("medicine_name", w.MedicineName).
			Str("reason", w.Reason).
			Msg("Skipped expiry evaluation for item")
	}

	return events, nil
}
