// Package checkout turns a ticket purchase intent into a hosted payment
// session and hands back the provider's redirect URL.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrProvider wraps any failure reported by the payment provider.
var ErrProvider = errors.New("payment provider error")

// Intent is a buyer's request to purchase tickets for a reservation.
type Intent struct {
	ReservationID string
	Name          string
	Email         string
	Quantity      int64
}

// SessionRequest is the provider-neutral description of a one-line-item
// hosted payment session.
type SessionRequest struct {
	ProductName   string
	Currency      string
	UnitAmount    int64
	Quantity      int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// SessionCreator creates a hosted session and returns the URL to redirect to.
type SessionCreator interface {
	CreateSession(ctx context.Context, req SessionRequest) (string, error)
}

// Options fixes the price and redirect targets used for every session.
type Options struct {
	Currency   string
	UnitAmount int64
	SuccessURL string
	CancelURL  string
}

// Service builds session requests from intents.
type Service struct {
	provider SessionCreator
	opts     Options
}

// NewService constructs a checkout service backed by provider.
func NewService(provider SessionCreator, opts Options) *Service {
	return &Service{provider: provider, opts: opts}
}

// BuildRequest maps an intent onto a session request without calling out.
func (s *Service) BuildRequest(in Intent) SessionRequest {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Reservation #" + in.ReservationID
	}
	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}
	return SessionRequest{
		ProductName:   "Ticket – " + name,
		Currency:      s.opts.Currency,
		UnitAmount:    s.opts.UnitAmount,
		Quantity:      qty,
		CustomerEmail: strings.TrimSpace(in.Email),
		SuccessURL:    s.opts.SuccessURL,
		CancelURL:     s.opts.CancelURL,
		Metadata:      map[string]string{"reservationId": in.ReservationID},
	}
}

// CreateSession asks the provider for a hosted session and returns its URL.
func (s *Service) CreateSession(ctx context.Context, in Intent) (string, error) {
	url, err := s.provider.CreateSession(ctx, s.BuildRequest(in))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if url == "" {
		return "", fmt.Errorf("%w: empty session url", ErrProvider)
	}
	return url, nil
}

// ParseQuantity coerces a JSON number or numeric string to an integer,
// flooring fractions and clamping to at least 1. Anything unparseable is 1.
func ParseQuantity(raw json.RawMessage) int64 {
	f, ok := parseNumber(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	f = math.Floor(f)
	if f < 1 {
		return 1
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int64(f)
}

// ParseReservationID renders a JSON number or string id as text; absent,
// null, false, zero or empty values become "".
func ParseReservationID(raw json.RawMessage) string {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case float64:
		if id == 0 {
			return ""
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case bool:
		if id {
			return "true"
		}
		return ""
	default:
		return ""
	}
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
