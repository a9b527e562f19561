package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"verkstad/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const payoutColumns = `id, workshop_id, month, year, total_jobs,
    total_amount, commission, workshop_amount, is_paid, paid_at, created_at, updated_at`

// UpsertPayoutReport writes the aggregation for one (workshop, month, year).
// Regeneration overwrites the totals but keeps the paid flag and timestamps
// of an already-paid report intact.
func (db *DB) UpsertPayoutReport(ctx context.Context, report *models.PayoutReport) error {
	now := time.Now()

	var existingID string
	err := db.db.QueryRowContext(ctx,
		`SELECT id FROM payout_reports WHERE workshop_id = ? AND month = ? AND year = ?`,
		report.WorkshopID, report.Month, report.Year).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		report.ID = uuid.NewString()
		report.CreatedAt = now
		report.UpdatedAt = now
		_, err = db.db.ExecContext(ctx,
			`INSERT INTO payout_reports (`+payoutColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.ID,
			report.WorkshopID,
			report.Month,
			report.Year,
			report.TotalJobs,
			report.TotalAmount.String(),
			report.Commission.String(),
			report.WorkshopAmount.String(),
			report.IsPaid,
			report.PaidAt,
			report.CreatedAt,
			report.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create payout report: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up payout report: %w", err)
	default:
		report.ID = existingID
		report.UpdatedAt = now
		_, err = db.db.ExecContext(ctx,
			`UPDATE payout_reports
             SET total_jobs = ?, total_amount = ?, commission = ?, workshop_amount = ?, updated_at = ?
             WHERE id = ?`,
			report.TotalJobs,
			report.TotalAmount.String(),
			report.Commission.String(),
			report.WorkshopAmount.String(),
			report.UpdatedAt,
			report.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update payout report: %w", err)
		}
		return nil
	}
}

// PayoutFilter narrows GetPayoutReports; nil fields mean "any".
type PayoutFilter struct {
	WorkshopID string
	Month      int
	Year       int
	IsPaid     *bool
}

func (db *DB) GetPayoutReports(ctx context.Context, f PayoutFilter) ([]models.PayoutReport, error) {
	query := `SELECT ` + payoutColumns + ` FROM payout_reports WHERE 1=1`
	var args []any
	if f.WorkshopID != "" {
		query += ` AND workshop_id = ?`
		args = append(args, f.WorkshopID)
	}
	if f.Month != 0 {
		query += ` AND month = ?`
		args = append(args, f.Month)
	}
	if f.Year != 0 {
		query += ` AND year = ?`
		args = append(args, f.Year)
	}
	if f.IsPaid != nil {
		query += ` AND is_paid = ?`
		args = append(args, *f.IsPaid)
	}
	query += ` ORDER BY year DESC, month DESC, workshop_id`

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payout reports: %w", err)
	}
	defer rows.Close()

	var out []models.PayoutReport
	for rows.Next() {
		r, err := scanPayoutReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout report: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (db *DB) MarkPayoutPaid(ctx context.Context, id string) error {
	now := time.Now()
	res, err := db.db.ExecContext(ctx,
		`UPDATE payout_reports SET is_paid = 1, paid_at = ?, updated_at = ? WHERE id = ?`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark payout paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("payout report not found: %s", id)
	}
	return nil
}

func scanPayoutReport(row rowScanner) (*models.PayoutReport, error) {
	var r models.PayoutReport
	var total, commission, workshopAmount string
	var paidAt sql.NullTime
	err := row.Scan(
		&r.ID,
		&r.WorkshopID,
		&r.Month,
		&r.Year,
		&r.TotalJobs,
		&total,
		&commission,
		&workshopAmount,
		&r.IsPaid,
		&paidAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paidAt.Valid {
		r.PaidAt = &paidAt.Time
	}
	if r.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid stored total amount %q: %w", total, err)
	}
	if r.Commission, err = decimal.NewFromString(commission); err != nil {
		return nil, fmt.Errorf("invalid stored commission %q: %w", commission, err)
	}
	if r.WorkshopAmount, err = decimal.NewFromString(workshopAmount); err != nil {
		return nil, fmt.Errorf("invalid stored workshop amount %q: %w", workshopAmount, err)
	}
	return &r, nil
}
