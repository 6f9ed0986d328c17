package sunrisesunset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "19.076", q.Get("lat"))
		assert.Equal(t, "72.8777", q.Get("lng"))
		assert.Equal(t, "1990-06-15", q.Get("date"))
		assert.Equal(t, "0", q.Get("formatted"))
		_, _ = w.Write([]byte(`{"results":{"sunrise":"1990-06-15T00:31:52+00:00","sunset":"1990-06-15T13:47:10+00:00","day_length":47118},"status":"OK","tzid":"UTC"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	events, err := client.Fetch(context.Background(), 19.076, 72.8777, "1990-06-15")
	require.NoError(t, err)
	require.Equal(t, time.Date(1990, 6, 15, 0, 31, 52, 0, time.UTC), events.Sunrise)
	require.Equal(t, time.Date(1990, 6, 15, 13, 47, 10, 0, time.UTC), events.Sunset)
}

func TestFetchStatusNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":"","status":"INVALID_DATE"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Fetch(context.Background(), 0, 0, "1990-13-40")
	require.Error(t, err)
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Fetch(context.Background(), 1, 1, "2000-01-01")
	require.ErrorContains(t, err, "status=503")
}
