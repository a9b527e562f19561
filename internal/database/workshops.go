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

const workshopColumns = `id, owner_user_id, company_name, latitude, longitude, address, city,
    rating, review_count, is_verified, is_active, created_at, updated_at`

func (db *DB) CreateWorkshop(ctx context.Context, w *models.Workshop) error {
	query := `INSERT INTO workshops (` + workshopColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.db.ExecContext(ctx, query,
		w.ID,
		w.OwnerUserID,
		w.CompanyName,
		w.Location.Latitude,
		w.Location.Longitude,
		w.Address,
		w.City,
		w.Rating,
		w.ReviewCount,
		w.IsVerified,
		w.IsActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create workshop: %w", err)
	}
	w.CreatedAt = now
	w.UpdatedAt = now
	return nil
}

func (db *DB) GetWorkshop(ctx context.Context, id string) (*models.Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM workshops WHERE id = ?`
	w, err := scanWorkshop(db.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bidding.ErrWorkshopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workshop: %w", err)
	}
	return w, nil
}

// GetWorkshopByOwner resolves a platform user id to the workshop it owns.
// Used at the API boundary so the core only ever sees workshop ids.
func (db *DB) GetWorkshopByOwner(ctx context.Context, userID string) (*models.Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM workshops WHERE owner_user_id = ?`
	w, err := scanWorkshop(db.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bidding.ErrWorkshopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workshop by owner: %w", err)
	}
	return w, nil
}

// GetEligibleWorkshops returns the verified and active workshops, the only
// population the matcher and payout generation ever consider.
func (db *DB) GetEligibleWorkshops(ctx context.Context) ([]models.Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM workshops
              WHERE is_verified = 1 AND is_active = 1
              ORDER BY company_name`
	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workshops: %w", err)
	}
	defer rows.Close()

	var out []models.Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workshop: %w", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// GetWorkshopsByIDs loads workshop snapshots for a set of ids into a map,
// for joining offers with their bidders.
func (db *DB) GetWorkshopsByIDs(ctx context.Context, ids []string) (map[string]models.Workshop, error) {
	out := make(map[string]models.Workshop, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT ` + workshopColumns + ` FROM workshops WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workshops by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workshop: %w", err)
		}
		out[w.ID] = *w
	}
	return out, rows.Err()
}

func (db *DB) SetWorkshopFlags(ctx context.Context, id string, isVerified, isActive bool) error {
	query := `UPDATE workshops SET is_verified = ?, is_active = ?, updated_at = ? WHERE id = ?`
	res, err := db.db.ExecContext(ctx, query, isVerified, isActive, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update workshop flags: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return bidding.ErrWorkshopNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkshop(row rowScanner) (*models.Workshop, error) {
	var w models.Workshop
	err := row.Scan(
		&w.ID,
		&w.OwnerUserID,
		&w.CompanyName,
		&w.Location.Latitude,
		&w.Location.Longitude,
		&w.Address,
		&w.City,
		&w.Rating,
		&w.ReviewCount,
		&w.IsVerified,
		&w.IsActive,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
