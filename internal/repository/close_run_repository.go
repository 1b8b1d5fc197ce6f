package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/finclose/internal/domain"
)

type closeRunRepository struct {
	pool *pgxpool.Pool
}

// NewCloseRunRepository wires a repository backed by pgxpool.
func NewCloseRunRepository(pool *pgxpool.Pool) CloseRunRepository {
	return &closeRunRepository{pool: pool}
}

func (r *closeRunRepository) RecordRun(ctx context.Context, run domain.CloseRun, issues []domain.ValidationIssue, summary []domain.DQSummaryRow) error {
	if r.pool == nil {
		return fmt.Errorf("close run repository not initialized")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin close run transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(
		ctx,
		`INSERT INTO close_runs (id, period, fail_on, overall_status, error_count, warn_count, issue_count, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID,
		run.Period,
		string(run.FailOn),
		string(run.OverallStatus),
		run.ErrorCount,
		run.WarnCount,
		run.IssueCount,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert close run: %w", err)
	}

	for _, issue := range issues {
		var rowIndex any
		if issue.Index != domain.NoRowIndex {
			rowIndex = issue.Index
		}
		var checkNumber any
		if issue.CheckNumber != nil {
			checkNumber = *issue.CheckNumber
		}
		_, err = tx.Exec(
			ctx,
			`INSERT INTO dq_exceptions (run_id, dataset, row_index, column_name, check_name, failure_case, schema_context, check_number, severity)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			run.ID,
			string(issue.Dataset),
			rowIndex,
			issue.Column,
			issue.Check,
			issue.FailureCase,
			string(issue.SchemaContext),
			checkNumber,
			string(issue.Severity),
		)
		if err != nil {
			return fmt.Errorf("insert dq exception: %w", err)
		}
	}

	for _, row := range summary {
		_, err = tx.Exec(
			ctx,
			`INSERT INTO dq_summary (run_id, dataset, error_count, warn_count, issue_count, status)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			run.ID,
			string(row.Dataset),
			row.ErrorCount,
			row.WarnCount,
			row.IssueCount,
			string(row.Status),
		)
		if err != nil {
			return fmt.Errorf("insert dq summary row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit close run: %w", err)
	}
	return nil
}

func (r *closeRunRepository) ListRuns(ctx context.Context, limit, offset int) ([]domain.CloseRun, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("close run repository not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, period, fail_on, overall_status, error_count, warn_count, issue_count, started_at, completed_at
		 FROM close_runs
		 ORDER BY started_at DESC
		 LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list close runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.CloseRun{}
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, run)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate close runs: %w", rowsErr)
	}
	return runs, nil
}

func (r *closeRunRepository) GetRun(ctx context.Context, id uuid.UUID) (domain.CloseRun, error) {
	if r.pool == nil {
		return domain.CloseRun{}, fmt.Errorf("close run repository not initialized")
	}

	row := r.pool.QueryRow(
		ctx,
		`SELECT id, period, fail_on, overall_status, error_count, warn_count, issue_count, started_at, completed_at
		 FROM close_runs
		 WHERE id = $1`,
		id,
	)
	return scanRun(row)
}

func scanRun(row pgx.Row) (domain.CloseRun, error) {
	var (
		run         domain.CloseRun
		failOn      string
		status      string
		startedAt   pgtype.Timestamptz
		completedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&run.ID,
		&run.Period,
		&failOn,
		&status,
		&run.ErrorCount,
		&run.WarnCount,
		&run.IssueCount,
		&startedAt,
		&completedAt,
	); err != nil {
		return domain.CloseRun{}, fmt.Errorf("scan close run: %w", err)
	}
	run.FailOn = domain.FailOn(failOn)
	run.OverallStatus = domain.Status(status)
	if startedAt.Valid {
		run.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	return run, nil
}

func (r *closeRunRepository) ListIssues(ctx context.Context, runID uuid.UUID) ([]domain.ValidationIssue, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("close run repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT dataset, row_index, column_name, check_name, failure_case, schema_context, check_number, severity
		 FROM dq_exceptions
		 WHERE run_id = $1
		 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list dq exceptions: %w", err)
	}
	defer rows.Close()

	issues := []domain.ValidationIssue{}
	for rows.Next() {
		var (
			issue         domain.ValidationIssue
			dataset       string
			rowIndex      pgtype.Int4
			schemaContext string
			checkNumber   pgtype.Int4
			severity      string
		)
		if scanErr := rows.Scan(
			&dataset,
			&rowIndex,
			&issue.Column,
			&issue.Check,
			&issue.FailureCase,
			&schemaContext,
			&checkNumber,
			&severity,
		); scanErr != nil {
			return nil, fmt.Errorf("scan dq exception: %w", scanErr)
		}
		issue.Dataset = domain.DatasetKind(dataset)
		issue.SchemaContext = domain.SchemaContext(schemaContext)
		issue.Severity = domain.Severity(severity)
		issue.Index = domain.NoRowIndex
		if rowIndex.Valid {
			issue.Index = int(rowIndex.Int32)
		}
		if checkNumber.Valid {
			value := int(checkNumber.Int32)
			issue.CheckNumber = &value
		}
		issues = append(issues, issue)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate dq exceptions: %w", rowsErr)
	}
	return issues, nil
}

func (r *closeRunRepository) ListSummary(ctx context.Context, runID uuid.UUID) ([]domain.DQSummaryRow, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("close run repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT dataset, error_count, warn_count, issue_count, status
		 FROM dq_summary
		 WHERE run_id = $1
		 ORDER BY dataset`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list dq summary: %w", err)
	}
	defer rows.Close()

	summary := []domain.DQSummaryRow{}
	for rows.Next() {
		var (
			row     domain.DQSummaryRow
			dataset string
			status  string
		)
		if scanErr := rows.Scan(&dataset, &row.ErrorCount, &row.WarnCount, &row.IssueCount, &status); scanErr != nil {
			return nil, fmt.Errorf("scan dq summary row: %w", scanErr)
		}
		row.Dataset = domain.DatasetKind(dataset)
		row.Status = domain.Status(status)
		summary = append(summary, row)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate dq summary: %w", rowsErr)
	}
	return summary, nil
}
