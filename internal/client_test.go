package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *CoinCapClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewCoinCapClient(APIConfig{
		BaseURL:         server.URL,
		Timeout:         2 * time.Second,
		HistoryInterval: "h6",
	}, time.UTC)
}

func TestCoinCapClient_GetCoins(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assets", r.URL.Path)
		w.Write([]byte(`{"data":[
			{"id":"bitcoin","rank":"1","symbol":"BTC","name":"Bitcoin","marketCapUsd":"1000000000.5","priceUsd":"50000.12","changePercent24Hr":"-1.25"},
			{"id":"ethereum","rank":"2","symbol":"ETH","name":"Ethereum","marketCapUsd":"","priceUsd":"3000","changePercent24Hr":null}
		]}`))
	})

	coins, err := client.GetCoins(context.Background())
	require.NoError(t, err)
	require.Len(t, coins, 2)

	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, 1, coins[0].Rank)
	assert.Equal(t, "BTC", coins[0].Symbol)
	assert.True(t, decimal.RequireFromString("50000.12").Equal(coins[0].PriceUsd))
	assert.True(t, decimal.RequireFromString("-1.25").Equal(coins[0].ChangePercent24Hr))

	assert.Equal(t, "ethereum", coins[1].ID, "source order must be preserved")
	assert.True(t, coins[1].MarketCapUsd.IsZero())
	assert.True(t, coins[1].ChangePercent24Hr.IsZero())
}

func TestCoinCapClient_GetCoinHistory(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(120 * time.Hour)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assets/bitcoin/history", r.URL.Path)
		assert.Equal(t, "h6", r.URL.Query().Get("interval"))
		assert.Equal(t, "1709251200000", r.URL.Query().Get("start"))
		assert.Equal(t, "1709683200000", r.URL.Query().Get("end"))
		w.Write([]byte(`{"data":[
			{"priceUsd":"61000.5","time":1709272800000},
			{"priceUsd":"60000","time":1709251200000}
		]}`))
	})

	points, err := client.GetCoinHistory(context.Background(), "bitcoin", start, end)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.True(t, decimal.RequireFromString("61000.5").Equal(points[0].PriceUsd))
	assert.Equal(t, time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC), points[0].DateTime)
	assert.Equal(t, time.UTC, points[0].DateTime.Location())
}

func TestCoinCapClient_SendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := NewCoinCapClient(APIConfig{BaseURL: server.URL, APIKey: "secret", Timeout: time.Second, HistoryInterval: "h1"}, nil)
	coins, err := client.GetCoins(context.Background())
	require.NoError(t, err)
	assert.Empty(t, coins)
}

func TestCoinCapClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected ErrorKind
	}{
		{name: "request timeout", status: http.StatusRequestTimeout, expected: RequestTimeout},
		{name: "rate limited", status: http.StatusTooManyRequests, expected: TooManyRequests},
		{name: "server error", status: http.StatusBadGateway, expected: ServerError},
		{name: "not found", status: http.StatusNotFound, expected: Unknown},
		{name: "malformed json", status: http.StatusOK, body: `{"data":[`, expected: Serialization},
		{name: "missing id", status: http.StatusOK, body: `{"data":[{"rank":"1","symbol":"BTC","name":"Bitcoin","priceUsd":"1"}]}`, expected: Serialization},
		{name: "bad price", status: http.StatusOK, body: `{"data":[{"id":"x","rank":"1","symbol":"X","name":"X","priceUsd":"abc"}]}`, expected: Serialization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			coins, err := client.GetCoins(context.Background())
			assert.Nil(t, coins)
			require.Error(t, err)

			var de *DataError
			require.True(t, errors.As(err, &de), "error should be a DataError")
			assert.Equal(t, tt.expected, de.Kind)
			assert.Equal(t, kindMessages[tt.expected], de.Error())
		})
	}
}

func TestCoinCapClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewCoinCapClient(APIConfig{BaseURL: url, Timeout: time.Second, HistoryInterval: "h6"}, time.UTC)
	_, err := client.GetCoins(context.Background())

	de := AsDataError(err)
	require.NotNil(t, de)
	assert.Equal(t, NoInternet, de.Kind)
}

func TestCoinCapClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewCoinCapClient(APIConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond, HistoryInterval: "h6"}, time.UTC)
	_, err := client.GetCoins(context.Background())

	de := AsDataError(err)
	require.NotNil(t, de)
	assert.Equal(t, RequestTimeout, de.Kind)
}

func TestCoinCapClient_Canceled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := newTestClientFor(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.GetCoinHistory(ctx, "bitcoin", time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}

func newTestClientFor(url string) *CoinCapClient {
	return NewCoinCapClient(APIConfig{BaseURL: url, Timeout: 5 * time.Second, HistoryInterval: "h6"}, time.UTC)
}
