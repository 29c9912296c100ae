package keyset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Boundary_Token_Roundtrip(t *testing.T) {
	ord := Orderings{
		{Column: "age", Direction: DirectionASC},
		{Column: "id", Direction: DirectionASC},
	}

	token, err := EncodeBoundary(ord, Boundary{"age": 30, "id": 5})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := DecodeBoundary(token)
	require.NoError(t, err)

	// JSON round-trips numbers as float64; type resolvers handle coercion at
	// binding time.
	require.Equal(t, Boundary{"age": float64(30), "id": float64(5)}, decoded)

	// Equal boundaries produce equal tokens regardless of map iteration order.
	again, err := EncodeBoundary(ord, Boundary{"id": 5, "age": 30})
	require.NoError(t, err)
	require.Equal(t, token, again)
}

func Test_EncodeBoundary_Empty(t *testing.T) {
	ord := Orderings{{Column: "id", Direction: DirectionASC}}

	token, err := EncodeBoundary(ord, nil)
	require.NoError(t, err)
	require.Equal(t, "", token)

	token, err = EncodeBoundary(ord, Boundary{})
	require.NoError(t, err)
	require.Equal(t, "", token)
}

func Test_EncodeBoundary_MissingColumn(t *testing.T) {
	ord := Orderings{
		{Column: "age", Direction: DirectionASC},
		{Column: "id", Direction: DirectionASC},
	}

	_, err := EncodeBoundary(ord, Boundary{"age": 30})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func Test_DecodeBoundary_Errors(t *testing.T) {
	t.Run("empty token is first page", func(t *testing.T) {
		decoded, err := DecodeBoundary("")
		require.NoError(t, err)
		require.Nil(t, decoded)
	})

	t.Run("bad base64", func(t *testing.T) {
		_, err := DecodeBoundary("%%%not-base64%%%")
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := DecodeBoundary(_encoder.EncodeToString([]byte("{broken")))
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}
