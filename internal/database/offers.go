package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"verkstad/internal/bidding"
	"verkstad/internal/models"

	"github.com/shopspring/decimal"
)

const offerColumns = `id, request_id, workshop_id, price, estimated_duration_minutes,
    warranty, note, available_dates, status, created_at, updated_at`

// CreateOfferWithLock inserts an offer after re-checking the bidding-window
// rules against the current request row inside one transaction. Combined
// with the partial unique index on active offers this makes "check then
// write" atomic: of two concurrent submissions from the same workshop
// exactly one succeeds.
func (db *DB) CreateOfferWithLock(ctx context.Context, offer *models.Offer, now time.Time) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Request must still be effectively open.
	var status string
	var expiresAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT status, expires_at FROM requests WHERE id = ?`, offer.RequestID).
		Scan(&status, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return bidding.ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read request in tx: %w", err)
	}
	req := models.Request{Status: status, ExpiresAt: expiresAt}
	if err := bidding.CanCreateOffer(&req, nil, offer.WorkshopID, now); err != nil {
		return err
	}

	// 2. No active offer from the same workshop.
	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM offers WHERE request_id = ? AND workshop_id = ? AND status IN (?, ?)`,
		offer.RequestID, offer.WorkshopID, models.OfferStatusSent, models.OfferStatusAccepted).
		Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check duplicate offer in tx: %w", err)
	}
	if count > 0 {
		return bidding.ErrDuplicateOffer
	}

	dates, err := marshalDates(offer.AvailableDates)
	if err != nil {
		return err
	}

	offer.Status = models.OfferStatusSent
	offer.CreatedAt = now
	offer.UpdatedAt = now

	_, err = tx.ExecContext(ctx,
		`INSERT INTO offers (`+offerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		offer.ID,
		offer.RequestID,
		offer.WorkshopID,
		offer.Price.String(),
		offer.EstimatedDurationMinutes,
		offer.Warranty,
		offer.Note,
		dates,
		offer.Status,
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	if err != nil {
		// The partial unique index catches the race window between the
		// duplicate check and the insert.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return bidding.ErrDuplicateOffer
		}
		return fmt.Errorf("failed to create offer: %w", err)
	}

	return tx.Commit()
}

func (db *DB) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = ?`
	offer, err := scanOffer(db.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bidding.ErrOfferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

// GetOffersForRequest returns every offer on the request regardless of
// status; visibility filtering belongs to the ranker.
func (db *DB) GetOffersForRequest(ctx context.Context, requestID string) ([]models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE request_id = ? ORDER BY created_at`
	rows, err := db.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	return collectOffers(rows)
}

// GetWorkshopOffersForRequests returns the workshop's own offers on the
// given requests, for annotating the available-requests listing.
func (db *DB) GetWorkshopOffersForRequests(ctx context.Context, workshopID string, requestIDs []string) (map[string]models.Offer, error) {
	out := make(map[string]models.Offer, len(requestIDs))
	if len(requestIDs) == 0 {
		return out, nil
	}

	query := `SELECT ` + offerColumns + ` FROM offers
              WHERE workshop_id = ? AND request_id IN (?` + repeatPlaceholder(len(requestIDs)-1) + `)
              ORDER BY created_at`
	args := make([]any, 0, len(requestIDs)+1)
	args = append(args, workshopID)
	for _, id := range requestIDs {
		args = append(args, id)
	}

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workshop offers: %w", err)
	}
	defer rows.Close()

	offers, err := collectOffers(rows)
	if err != nil {
		return nil, err
	}
	for _, o := range offers {
		// Later offers win so a re-bid after a decline shadows the old row.
		out[o.RequestID] = o
	}
	return out, nil
}

func (db *DB) UpdateOfferStatus(ctx context.Context, id string, status string) error {
	res, err := db.db.ExecContext(ctx,
		`UPDATE offers SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update offer status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return bidding.ErrOfferNotFound
	}
	return nil
}

func scanOffer(row rowScanner) (*models.Offer, error) {
	var o models.Offer
	var price, dates string
	err := row.Scan(
		&o.ID,
		&o.RequestID,
		&o.WorkshopID,
		&price,
		&o.EstimatedDurationMinutes,
		&o.Warranty,
		&o.Note,
		&dates,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid stored price %q: %w", price, err)
	}
	o.AvailableDates, err = unmarshalDates(dates)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOffers(rows *sql.Rows) ([]models.Offer, error) {
	var out []models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
