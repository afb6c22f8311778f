package models

import (
	"errors"
	"fmt"
)

// ErrInvalidPartySize is returned when a reservation has fewer than one guest.
var ErrInvalidPartySize = errors.New("partySize must be at least 1")

// Reservation is a single booking stored in the reservations collection.
type Reservation struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"partySize"`
	Notes     string `json:"notes"`
	ImageURL  string `json:"imageUrl"`
}

// Validate checks the invariants every stored reservation must hold.
func (r *Reservation) Validate() error {
	if r.PartySize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPartySize, r.PartySize)
	}
	return nil
}
