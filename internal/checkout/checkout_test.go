package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	got SessionRequest
	url string
	err error
}

func (f *fakeCreator) CreateSession(_ context.Context, req SessionRequest) (string, error) {
	f.got = req
	return f.url, f.err
}

var testOptions = Options{
	Currency:   "cad",
	UnitAmount: 2500,
	SuccessURL: "http://localhost:5173/success?session_id={CHECKOUT_SESSION_ID}",
	CancelURL:  "http://localhost:5173/cancel",
}

func TestCreateSessionBuildsSingleLineItem(t *testing.T) {
	fake := &fakeCreator{url: "https://checkout.stripe.test/c/pay/cs_1"}
	svc := NewService(fake, testOptions)

	url, err := svc.CreateSession(context.Background(), Intent{
		ReservationID: "7",
		Name:          "Jane Doe",
		Email:         "jane@example.com",
		Quantity:      3,
	})
	require.NoError(t, err)
	require.Equal(t, fake.url, url)
	require.Equal(t, SessionRequest{
		ProductName:   "Ticket – Jane Doe",
		Currency:      "cad",
		UnitAmount:    2500,
		Quantity:      3,
		CustomerEmail: "jane@example.com",
		SuccessURL:    testOptions.SuccessURL,
		CancelURL:     testOptions.CancelURL,
		Metadata:      map[string]string{"reservationId": "7"},
	}, fake.got)
}

func TestBuildRequestFallbacks(t *testing.T) {
	svc := NewService(&fakeCreator{}, testOptions)

	req := svc.BuildRequest(Intent{ReservationID: "12", Quantity: 0})
	require.Equal(t, "Ticket – Reservation #12", req.ProductName)
	require.Equal(t, int64(1), req.Quantity)
	require.Empty(t, req.CustomerEmail)

	req = svc.BuildRequest(Intent{})
	require.Equal(t, "Ticket – Reservation #", req.ProductName)
	require.Equal(t, map[string]string{"reservationId": ""}, req.Metadata)
}

func TestCreateSessionWrapsProviderFailure(t *testing.T) {
	svc := NewService(&fakeCreator{err: errors.New("card_declined")}, testOptions)
	_, err := svc.CreateSession(context.Background(), Intent{ReservationID: "1", Quantity: 1})
	require.ErrorIs(t, err, ErrProvider)

	svc = NewService(&fakeCreator{}, testOptions)
	_, err = svc.CreateSession(context.Background(), Intent{ReservationID: "1", Quantity: 1})
	require.ErrorIs(t, err, ErrProvider)
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]int64{
		``:         1,
		`null`:     1,
		`0`:        1,
		`-4`:       1,
		`2`:        2,
		`2.9`:      2,
		`"3"`:      3,
		`" 5 "`:    5,
		`"abc"`:    1,
		`""`:       1,
		`true`:     1,
		`[1]`:      1,
		`1e20`:     2147483647,
		`"0.5"`:    1,
		`"12.999"`: 12,
	}
	for raw, want := range cases {
		require.Equal(t, want, ParseQuantity(json.RawMessage(raw)), "raw=%s", raw)
	}
}

func TestParseReservationID(t *testing.T) {
	cases := map[string]string{
		``:        "",
		`null`:    "",
		`0`:       "",
		`7`:       "7",
		`"abc"`:   "abc",
		`""`:      "",
		`2.5`:     "2.5",
		`{"a":1}`: "",
	}
	for raw, want := range cases {
		require.Equal(t, want, ParseReservationID(json.RawMessage(raw)), "raw=%s", raw)
	}
}
