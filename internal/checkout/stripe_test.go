package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripeCreatorPostsCheckoutSession(t *testing.T) {
	var form url.Values
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.test/c/pay/cs_test_1"}`))
	}))
	t.Cleanup(srv.Close)

	creator := NewStripeCreator("sk_test_123", srv.URL)
	got, err := creator.CreateSession(context.Background(), SessionRequest{
		ProductName:   "Ticket – Jane",
		Currency:      "cad",
		UnitAmount:    2500,
		Quantity:      2,
		CustomerEmail: "jane@example.com",
		SuccessURL:    "http://localhost:5173/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     "http://localhost:5173/cancel",
		Metadata:      map[string]string{"reservationId": "7"},
	})
	require.NoError(t, err)
	require.Equal(t, "https://checkout.stripe.test/c/pay/cs_test_1", got)

	require.Equal(t, "/v1/checkout/sessions", path)
	require.Equal(t, "Bearer sk_test_123", auth)
	require.Equal(t, "payment", form.Get("mode"))
	require.Equal(t, "card", form.Get("payment_method_types[0]"))
	require.Equal(t, "jane@example.com", form.Get("customer_email"))
	require.Equal(t, "cad", form.Get("line_items[0][price_data][currency]"))
	require.Equal(t, "2500", form.Get("line_items[0][price_data][unit_amount]"))
	require.Equal(t, "Ticket – Jane", form.Get("line_items[0][price_data][product_data][name]"))
	require.Equal(t, "2", form.Get("line_items[0][quantity]"))
	require.Equal(t, "7", form.Get("metadata[reservationId]"))
	require.Equal(t, "http://localhost:5173/cancel", form.Get("cancel_url"))
}

func TestStripeCreatorOmitsEmptyEmail(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_2","object":"checkout.session","url":"https://checkout.stripe.test/c/pay/cs_test_2"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewStripeCreator("sk_test_123", srv.URL).CreateSession(context.Background(), SessionRequest{
		ProductName: "Ticket – Reservation #1",
		Currency:    "cad",
		UnitAmount:  2500,
		Quantity:    1,
		SuccessURL:  "http://localhost/success",
		CancelURL:   "http://localhost/cancel",
	})
	require.NoError(t, err)
	_, present := form["customer_email"]
	require.False(t, present)
}

func TestStripeCreatorSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewStripeCreator("sk_bad", srv.URL).CreateSession(context.Background(), SessionRequest{
		ProductName: "Ticket – x",
		Currency:    "cad",
		UnitAmount:  2500,
		Quantity:    1,
		SuccessURL:  "http://localhost/success",
		CancelURL:   "http://localhost/cancel",
	})
	require.Error(t, err)
}
