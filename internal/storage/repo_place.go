package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type placeRepository struct {
	db *sql.DB
}

func (r *placeRepository) Create(ctx context.Context, place *Place) error {
	if place == nil {
		return fmt.Errorf("create place: place is nil")
	}
	if place.Title == "" {
		return fmt.Errorf("create place: title is required")
	}
	if place.PhotoURI == "" {
		return fmt.Errorf("create place: photo is required")
	}
	if place.OwnerID == 0 {
		return fmt.Errorf("create place: owner id is required")
	}

	place.ID = ensureID(place.ID)
	now := nowUTC()
	if place.Date.IsZero() {
		place.Date = now
	}
	if place.PhotoDate.IsZero() {
		place.PhotoDate = place.Date
	}
	place.CreatedAt = now

	var latitude, longitude any
	if place.Location != nil {
		latitude = place.Location.Latitude
		longitude = place.Location.Longitude
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO places(id, title, photo, address, latitude, longitude, date, photo_date, is_favorite, owner_id, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, place.ID, place.Title, place.PhotoURI, nullableString(place.Address), latitude, longitude,
		fmtTime(place.Date), fmtTime(place.PhotoDate), boolToInt(place.IsFavorite), place.OwnerID, fmtTime(place.CreatedAt))
	if err != nil {
		return fmt.Errorf("create place: %w", err)
	}
	return nil
}

func (r *placeRepository) Get(ctx context.Context, id string, ownerID int64) (*Place, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, photo, address, latitude, longitude, date, photo_date, is_favorite, owner_id, created_at
		FROM places
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)

	place, err := scanPlace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get place: %w", err)
	}
	return place, nil
}

// Update is owner-scoped: the WHERE clause carries both id and owner so
// a place can never be edited through another account.
func (r *placeRepository) Update(ctx context.Context, id string, title, address string, ownerID int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE places SET title = ?, address = ? WHERE id = ? AND owner_id = ?
	`, title, nullableString(address), id, ownerID)
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	return requireRowAffected(result, "update place")
}

// ToggleFavorite flips the flag inside a transaction and returns the
// new state, so two racing toggles serialize instead of last-write-wins.
func (r *placeRepository) ToggleFavorite(ctx context.Context, id string, ownerID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("toggle favorite: begin tx: %w", err)
	}

	var current sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT is_favorite FROM places WHERE id = ? AND owner_id = ?`, id, ownerID).Scan(&current)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle favorite: read flag: %w", err)
	}

	next := 1
	if current.Int64 == 1 {
		next = 0
	}
	if _, err := tx.ExecContext(ctx, `UPDATE places SET is_favorite = ? WHERE id = ? AND owner_id = ?`, next, id, ownerID); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("toggle favorite: write flag: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("toggle favorite: commit: %w", err)
	}
	return next == 1, nil
}

func (r *placeRepository) ListByOwner(ctx context.Context, ownerID int64) ([]Place, error) {
	return r.list(ctx, `
		SELECT id, title, photo, address, latitude, longitude, date, photo_date, is_favorite, owner_id, created_at
		FROM places
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`, ownerID)
}

func (r *placeRepository) ListFavoritesByOwner(ctx context.Context, ownerID int64) ([]Place, error) {
	return r.list(ctx, `
		SELECT id, title, photo, address, latitude, longitude, date, photo_date, is_favorite, owner_id, created_at
		FROM places
		WHERE owner_id = ? AND is_favorite = 1
		ORDER BY created_at DESC
	`, ownerID)
}

func (r *placeRepository) Delete(ctx context.Context, id string, ownerID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM places WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return requireRowAffected(result, "delete place")
}

func (r *placeRepository) list(ctx context.Context, query string, ownerID int64) ([]Place, error) {
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	places := []Place{}
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("list places: %w", err)
		}
		places = append(places, *place)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list places: iterate: %w", err)
	}
	return places, nil
}

func scanPlace(scanner rowScanner) (*Place, error) {
	var (
		place      Place
		address    sql.NullString
		latitude   sql.NullFloat64
		longitude  sql.NullFloat64
		date       string
		photoDate  sql.NullString
		isFavorite sql.NullInt64
		createdAt  sql.NullString
	)
	if err := scanner.Scan(&place.ID, &place.Title, &place.PhotoURI, &address, &latitude, &longitude,
		&date, &photoDate, &isFavorite, &place.OwnerID, &createdAt); err != nil {
		return nil, err
	}

	place.Address = address.String
	// Location materializes only when both coordinates are present.
	if latitude.Valid && longitude.Valid {
		place.Location = &Coordinates{Latitude: latitude.Float64, Longitude: longitude.Float64}
	}
	parsedDate, err := parseTime(date)
	if err != nil {
		return nil, err
	}
	place.Date = parsedDate
	place.PhotoDate = parseTimeOrZero(photoDate)
	if place.PhotoDate.IsZero() {
		place.PhotoDate = place.Date
	}
	place.IsFavorite = isFavorite.Int64 == 1
	place.CreatedAt = parseTimeOrZero(createdAt)
	return &place, nil
}
