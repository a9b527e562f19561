package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"verkstad/internal/bidding"
	"verkstad/internal/models"

	"github.com/shopspring/decimal"
)

const bookingColumns = `id, request_id, offer_id, customer_id, workshop_id,
    scheduled_at, status, total_amount, commission, workshop_amount, notes, created_at, updated_at`

// AcceptOfferWithLock creates the booking and applies both status
// transitions (offer -> ACCEPTED, request -> BOOKED) in a single
// transaction. Eligibility is re-checked against the current rows inside the
// transaction, so of two concurrent accepts for the same request exactly one
// succeeds and the other gets ErrStaleTransition. Competing SENT offers on
// the request are left untouched.
func (db *DB) AcceptOfferWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var offerStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM offers WHERE id = ?`, booking.OfferID).Scan(&offerStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return bidding.ErrOfferNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read offer in tx: %w", err)
	}

	var requestStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM requests WHERE id = ?`, booking.RequestID).Scan(&requestStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return bidding.ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read request in tx: %w", err)
	}

	offer := models.Offer{ID: booking.OfferID, Status: offerStatus}
	req := models.Request{ID: booking.RequestID, Status: requestStatus}
	if err := bidding.CanAcceptOffer(&offer, &req); err != nil {
		return err
	}

	now := time.Now()
	booking.Status = models.BookingStatusConfirmed
	booking.CreatedAt = now
	booking.UpdatedAt = now

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.RequestID,
		booking.OfferID,
		booking.CustomerID,
		booking.WorkshopID,
		booking.ScheduledAt,
		booking.Status,
		booking.TotalAmount.String(),
		booking.Commission.String(),
		booking.WorkshopAmount.String(),
		booking.Notes,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE offers SET status = ?, updated_at = ? WHERE id = ?`,
		models.OfferStatusAccepted, now, booking.OfferID); err != nil {
		return fmt.Errorf("failed to accept offer: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, updated_at = ? WHERE id = ?`,
		models.RequestStatusBooked, now, booking.RequestID); err != nil {
		return fmt.Errorf("failed to mark request booked: %w", err)
	}

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// UpdateBooking applies a status edge (validated against the stored status
// inside the transaction) and optionally reschedules or annotates.
func (db *DB) UpdateBooking(ctx context.Context, id string, status string, scheduledAt *time.Time, notes *string) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("booking not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to read booking status: %w", err)
	}

	if status != "" && status != current {
		if err := bidding.CanTransitionBooking(current, status); err != nil {
			return err
		}
	} else {
		status = current
	}

	now := time.Now()
	if scheduledAt != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE bookings SET scheduled_at = ? WHERE id = ?`, *scheduledAt, id); err != nil {
			return fmt.Errorf("failed to reschedule booking: %w", err)
		}
	}
	if notes != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE bookings SET notes = ? WHERE id = ?`, *notes, id); err != nil {
			return fmt.Errorf("failed to update booking notes: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`, status, now, id); err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	return tx.Commit()
}

func (db *DB) GetCustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = ? ORDER BY scheduled_at DESC`
	rows, err := db.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// GetDoneBookingsForMonth returns the workshop's DONE bookings created
// within the calendar month, the input to payout aggregation.
func (db *DB) GetDoneBookingsForMonth(ctx context.Context, workshopID string, month, year int) ([]models.Booking, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE workshop_id = ? AND status = ? AND created_at >= ? AND created_at < ?
              ORDER BY created_at`
	rows, err := db.db.QueryContext(ctx, query, workshopID, models.BookingStatusDone, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query done bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var total, commission, workshopAmount string
	err := row.Scan(
		&b.ID,
		&b.RequestID,
		&b.OfferID,
		&b.CustomerID,
		&b.WorkshopID,
		&b.ScheduledAt,
		&b.Status,
		&total,
		&commission,
		&workshopAmount,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if b.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid stored total amount %q: %w", total, err)
	}
	if b.Commission, err = decimal.NewFromString(commission); err != nil {
		return nil, fmt.Errorf("invalid stored commission %q: %w", commission, err)
	}
	if b.WorkshopAmount, err = decimal.NewFromString(workshopAmount); err != nil {
		return nil, fmt.Errorf("invalid stored workshop amount %q: %w", workshopAmount, err)
	}
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
