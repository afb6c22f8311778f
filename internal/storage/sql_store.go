package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookinggo/internal/models"
)

const reservationColumns = `id, name, email, res_date, res_time, party_size, notes, image_url`

// SQLStore keeps reservations in a relational table. Insertion order is the
// auto-increment id order.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an opened and migrated database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var r models.Reservation
	if err := row.Scan(&r.ID, &r.Name, &r.Email, &r.Date, &r.Time, &r.PartySize, &r.Notes, &r.ImageURL); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLStore) List(ctx context.Context) ([]models.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	r, err := scanReservation(s.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query reservation: %w", err)
	}
	return r, nil
}

func (s *SQLStore) Create(ctx context.Context, r models.Reservation) (*models.Reservation, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reservations (name, email, res_date, res_time, party_size, notes, image_url) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Email, r.Date, r.Time, r.PartySize, r.Notes, r.ImageURL,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reservation id: %w", err)
	}
	r.ID = id
	return &r, nil
}

func (s *SQLStore) Update(ctx context.Context, id int64, mutate func(*models.Reservation) error) (*models.Reservation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query reservation: %w", err)
	}
	if err := mutate(current); err != nil {
		return nil, err
	}
	current.ID = id
	if err := current.Validate(); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET name = ?, email = ?, res_date = ?, res_time = ?, party_size = ?, notes = ?, image_url = ? WHERE id = ?`,
		current.Name, current.Email, current.Date, current.Time, current.PartySize, current.Notes, current.ImageURL, id,
	); err != nil {
		return nil, fmt.Errorf("update reservation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return current, nil
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
