package fmp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stocktracker/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL), WithTimeout(2*time.Second))
}

func TestGetQuote_ParsesResponse(t *testing.T) {
	var gotPath, gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"symbol":"AAPL","name":"Apple Inc.","price":180.5,"changesPercentage":1.25,"change":2.23,"dayLow":178.1,"dayHigh":181.9,"volume":51234567,"timestamp":1760544000}]`))
	})

	q, err := client.GetQuote(context.Background(), " aapl ")
	require.NoError(t, err)
	require.NotNil(t, q)

	assert.Equal(t, "/quote/AAPL", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "180.5", q.Price.String())
	assert.Equal(t, "1.25", q.ChangePercent.String())
	assert.Equal(t, "2.23", q.Change.String())
	assert.Equal(t, "181.9", q.DayHigh.String())
	assert.Equal(t, "178.1", q.DayLow.String())
	assert.Equal(t, int64(51234567), q.Volume)
	assert.Equal(t, time.Unix(1760544000, 0).UTC(), q.Timestamp)
	assert.Equal(t, "fmp", q.Source)
}

func TestGetQuote_EmptyArrayMeansNoQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	q, err := client.GetQuote(context.Background(), "ZZZZ")
	assert.NoError(t, err)
	assert.Nil(t, q)
}

func TestGetQuote_NullPriceMeansNoQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"ZZZZ","price":null}]`))
	})

	q, err := client.GetQuote(context.Background(), "ZZZZ")
	assert.NoError(t, err)
	assert.Nil(t, q)
}

func TestGetQuote_UnauthorizedIsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"Error Message":"Invalid API KEY."}`))
	})

	_, err := client.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrTransportFailure))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid API KEY.", apiErr.Message)
}

func TestGetQuote_ErrorEnvelopeWith200(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message":"Limit Reach."}`))
	})

	_, err := client.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrTransportFailure)
	assert.Contains(t, err.Error(), "Limit Reach.")
}

func TestGetQuote_MalformedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway</html>`))
	})

	_, err := client.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrTransportFailure)
}

func TestGetQuote_TimeoutIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond))
	_, err := client.GetQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, models.ErrTransportFailure)
}

func TestName(t *testing.T) {
	assert.Equal(t, "fmp", NewClient("k").Name())
}
