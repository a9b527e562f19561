package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"verkstad/internal/bidding"
	"verkstad/internal/models"
)

const requestColumns = `id, customer_id, vehicle_id, report_id, description,
    latitude, longitude, address, city, postal_code, status, created_at, updated_at, expires_at`

func (db *DB) CreateRequest(ctx context.Context, req *models.Request) error {
	query := `INSERT INTO requests (` + requestColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query,
		req.ID,
		req.CustomerID,
		req.VehicleID,
		req.ReportID,
		req.Description,
		req.Location.Latitude,
		req.Location.Longitude,
		req.Address,
		req.City,
		req.PostalCode,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
		req.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (db *DB) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`
	req, err := scanRequest(db.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bidding.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// GetOpenRequests returns requests that are IN_BIDDING and not yet past
// expiry at the given instant. The expiry cut is applied in the query so a
// lagging status field never surfaces a closed request.
func (db *DB) GetOpenRequests(ctx context.Context, now time.Time) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
              WHERE status = ? AND expires_at > ?
              ORDER BY created_at DESC`
	rows, err := db.db.QueryContext(ctx, query, models.RequestStatusInBidding, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query open requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

func (db *DB) GetCustomerRequests(ctx context.Context, customerID string) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
              WHERE customer_id = ?
              ORDER BY created_at DESC`
	rows, err := db.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// UpdateRequestStatus applies a status edge after checking it is legal
// against the current stored status, all inside one transaction.
func (db *DB) UpdateRequestStatus(ctx context.Context, id string, status string) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM requests WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return bidding.ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read request status: %w", err)
	}

	if err := bidding.CanTransitionRequest(current, status); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE requests SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	return tx.Commit()
}

// CloseExpiredRequests transitions every IN_BIDDING request past its expiry
// to BIDDING_CLOSED and returns the affected ids. Used by the sweep worker;
// readers never rely on it having run.
func (db *DB) CloseExpiredRequests(ctx context.Context, now time.Time) ([]string, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM requests WHERE status = ? AND expires_at <= ?`,
		models.RequestStatusInBidding, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired requests: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expired request id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(ids) == 0 {
		return nil, tx.Commit()
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, updated_at = ? WHERE status = ? AND expires_at <= ?`,
		models.RequestStatusBiddingClosed, now, models.RequestStatusInBidding, now)
	if err != nil {
		return nil, fmt.Errorf("failed to close expired requests: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var req models.Request
	err := row.Scan(
		&req.ID,
		&req.CustomerID,
		&req.VehicleID,
		&req.ReportID,
		&req.Description,
		&req.Location.Latitude,
		&req.Location.Longitude,
		&req.Address,
		&req.City,
		&req.PostalCode,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func collectRequests(rows *sql.Rows) ([]models.Request, error) {
	var out []models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}
