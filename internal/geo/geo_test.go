package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   Position
		wantOK bool
	}{
		{"lat lng", "40.7127837, -74.0059413", Position{Latitude: 40.7127837, Longitude: -74.0059413}, true},
		{"six decimals", "-33.868820,151.209296", Position{Latitude: -33.86882, Longitude: 151.209296}, true},
		{"no comma", "40.7127837 -74.0059413", Position{}, false},
		{"too few decimals", "40.71, -74.00", Position{}, false},
		{"place name", "Pallet Town, Kanto", Position{}, false},
		{"three literals", "1.1234567, 2.1234567, 3.1234567", Position{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCoordinates(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubGeocoder struct {
	calls int
	pos   Position
	err   error
}

func (s *stubGeocoder) Geocode(context.Context, string) (Position, error) {
	s.calls++
	return s.pos, s.err
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("literal coordinates bypass geocoder", func(t *testing.T) {
		g := &stubGeocoder{}
		pos, err := Resolve(ctx, g, "51.5073509,-0.1277583", nil)
		require.NoError(t, err)
		assert.Equal(t, 0, g.calls)
		assert.Equal(t, 51.5073509, pos.Latitude)
	})

	t.Run("names go to the geocoder", func(t *testing.T) {
		g := &stubGeocoder{pos: Position{Latitude: 1, Longitude: 2, Address: "Somewhere"}}
		pos, err := Resolve(ctx, g, "Somewhere", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, g.calls)
		assert.Equal(t, "Somewhere", pos.Address)
	})

	t.Run("geocoder errors propagate", func(t *testing.T) {
		g := &stubGeocoder{err: ErrNotFound}
		_, err := Resolve(ctx, g, "Nowhere", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("no geocoder", func(t *testing.T) {
		_, err := Resolve(ctx, nil, "Nowhere", nil)
		assert.Error(t, err)
	})
}

func TestGoogleGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		switch r.URL.Query().Get("address") {
		case "Cerulean City":
			w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Cerulean City, Kanto","geometry":{"location":{"lat":35.1,"lng":139.2}}}]}`))
		case "Nowhere":
			w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		case "Denied":
			w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	g := NewGoogleGeocoder(srv.URL, "test-key", time.Second)
	ctx := context.Background()

	pos, err := g.Geocode(ctx, "Cerulean City")
	require.NoError(t, err)
	assert.Equal(t, Position{Latitude: 35.1, Longitude: 139.2, Address: "Cerulean City, Kanto"}, pos)

	_, err = g.Geocode(ctx, "Nowhere")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = g.Geocode(ctx, "Denied")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")

	_, err = g.Geocode(ctx, "Broken")
	assert.Error(t, err)
}
