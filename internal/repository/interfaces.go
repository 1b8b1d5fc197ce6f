package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rpattn/finclose/internal/domain"
)

// CloseRunRepository persists the audit trail of close runs. Runs are
// append-only; each invocation records its run, issues, and summary in full.
type CloseRunRepository interface {
	RecordRun(ctx context.Context, run domain.CloseRun, issues []domain.ValidationIssue, summary []domain.DQSummaryRow) error
	ListRuns(ctx context.Context, limit, offset int) ([]domain.CloseRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (domain.CloseRun, error)
	ListIssues(ctx context.Context, runID uuid.UUID) ([]domain.ValidationIssue, error)
	ListSummary(ctx context.Context, runID uuid.UUID) ([]domain.DQSummaryRow, error)
}
