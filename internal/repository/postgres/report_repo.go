// internal/repository/postgres/report_repo.go
package postgres

import (
	"context"
	"fmt"

	"whispr-service/internal/domain/report"
)

type ReportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	query := `
		INSERT INTO reports (reference, reporter_id, message_id, user_id, reason, details)
		VALUES ($1, $2, NULLIF($3, 0), NULLIF($4, 0), $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		rep.Reference, rep.ReporterID, rep.MessageID, rep.UserID, rep.Reason, rep.Details,
	).Scan(&rep.ID, &rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// List returns reports for the admin surface, unresolved first.
func (r *ReportRepository) List(ctx context.Context, limit, offset int) ([]report.Report, error) {
	query := `
		SELECT id, reference, reporter_id, COALESCE(message_id, 0), COALESCE(user_id, 0),
		       reason, details, resolved, created_at
		FROM reports
		ORDER BY resolved ASC, created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []report.Report
	for rows.Next() {
		var rep report.Report
		if err := rows.Scan(&rep.ID, &rep.Reference, &rep.ReporterID, &rep.MessageID,
			&rep.UserID, &rep.Reason, &rep.Details, &rep.Resolved, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *ReportRepository) MarkResolved(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE reports SET resolved = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to resolve report: %w", err)
	}
	return nil
}
