package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReservationValidate(t *testing.T) {
	r := Reservation{PartySize: 1}
	require.NoError(t, r.Validate())

	for _, size := range []int{0, -2} {
		r := Reservation{PartySize: size}
		require.ErrorIs(t, r.Validate(), ErrInvalidPartySize)
	}
}

func TestReservationWireNames(t *testing.T) {
	data, err := json.Marshal(Reservation{ID: 3, PartySize: 2, ImageURL: "/uploads/a.png"})
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	require.Contains(t, fields, "partySize")
	require.Contains(t, fields, "imageUrl")
	require.EqualValues(t, 3, fields["id"])
}
