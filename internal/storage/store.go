package storage

import (
	"context"
	"errors"

	"bookinggo/internal/models"
)

// ErrNotFound is returned when no reservation carries the requested id.
var ErrNotFound = errors.New("reservation not found")

// Store persists the reservations collection.
// List returns records in insertion order. Update applies mutate to the stored
// record and persists the result; an error from mutate aborts the write.
//
// Create assigns ids that are unique among live records. JSONStore uses the
// highest live id + 1, so deleting the newest record frees its id for reuse;
// SQLStore relies on AUTOINCREMENT and never reuses an id.
type Store interface {
	List(ctx context.Context) ([]models.Reservation, error)
	Get(ctx context.Context, id int64) (*models.Reservation, error)
	Create(ctx context.Context, r models.Reservation) (*models.Reservation, error)
	Update(ctx context.Context, id int64, mutate func(*models.Reservation) error) (*models.Reservation, error)
	Delete(ctx context.Context, id int64) error
}

// DefaultSeed returns the sample reservations written into a new data file.
func DefaultSeed() []models.Reservation {
	return []models.Reservation{
		{ID: 1, Name: "Jane Doe", Email: "jane@example.com", Date: "2025-09-10", Time: "10:00", PartySize: 2, Notes: "Wheelchair access", ImageURL: "/uploads/trail.png"},
		{ID: 2, Name: "Carlos Vega", Email: "carlos@example.com", Date: "2025-09-11", Time: "13:30", PartySize: 4, ImageURL: "/uploads/lake.png"},
		{ID: 3, Name: "Nadine Harper", Email: "nadine@example.com", Date: "2025-09-13", Time: "09:00", PartySize: 3, Notes: "Guided tour", ImageURL: "/uploads/bird.png"},
	}
}
