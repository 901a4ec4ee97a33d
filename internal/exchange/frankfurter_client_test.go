package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrankfurterClient_Rate(t *testing.T) {
	t.Parallel()

	t.Run("fetches rate", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/latest", r.URL.Path)
			assert.Equal(t, "USD", r.URL.Query().Get("from"))
			assert.Equal(t, "SGD", r.URL.Query().Get("to"))
			assert.Equal(t, frankfurterUserAgent, r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`{"amount":1,"base":"USD","date":"2026-02-14","rates":{"SGD":1.35}}`))
		}))
		defer server.Close()

		client := NewFrankfurterClient(server.URL, time.Second)
		got, err := client.Rate(context.Background(), "usd", "sgd")
		require.NoError(t, err)
		require.Equal(t, "USD", got.From)
		require.Equal(t, "SGD", got.To)
		require.True(t, decimal.RequireFromString("1.35").Equal(got.Value))
		require.Equal(t, "2026-02-14", got.Date.Format("2006-01-02"))
	})

	t.Run("same currency needs no request", func(t *testing.T) {
		t.Parallel()

		client := NewFrankfurterClient("http://127.0.0.1:1", time.Second)
		got, err := client.Rate(context.Background(), "USD", "usd")
		require.NoError(t, err)
		require.True(t, decimal.NewFromInt(1).Equal(got.Value))
	})

	t.Run("returns error on non 200 response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewFrankfurterClient(server.URL, time.Second)
		_, err := client.Rate(context.Background(), "USD", "SGD")
		require.Error(t, err)
		require.Contains(t, err.Error(), "status 502")
	})

	t.Run("returns error when target rate is missing", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"amount":1,"base":"USD","date":"2026-02-14","rates":{"EUR":0.93}}`))
		}))
		defer server.Close()

		client := NewFrankfurterClient(server.URL, time.Second)
		_, err := client.Rate(context.Background(), "USD", "SGD")
		require.ErrorIs(t, err, errRateMissing)
	})

	t.Run("rejects non positive rate", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"amount":1,"base":"USD","date":"2026-02-14","rates":{"SGD":0}}`))
		}))
		defer server.Close()

		client := NewFrankfurterClient(server.URL, time.Second)
		_, err := client.Rate(context.Background(), "USD", "SGD")
		require.Error(t, err)
		require.Contains(t, err.Error(), "positive")
	})

	t.Run("requires both currencies", func(t *testing.T) {
		t.Parallel()

		client := NewFrankfurterClient("", 0)
		require.Equal(t, defaultFrankfurterURL, client.baseURL)
		require.Equal(t, defaultFrankfurterURL+"/latest?from=USD&to=SGD", client.latestURL("USD", "SGD"))
		_, err := client.Rate(context.Background(), "", "SGD")
		require.Error(t, err)
	})
}

func TestDecodeRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr string
	}{
		{name: "quoted rate", body: `{"base":"usd","date":"2026-06-01","rates":{"MMK":2100.5}}`, want: "2100.5"},
		{name: "not json", body: `<html>`, wantErr: "failed to decode"},
		{name: "missing pair", body: `{"base":"USD","date":"2026-06-01","rates":{}}`, wantErr: errRateMissing.Error()},
		{name: "negative", body: `{"base":"USD","date":"2026-06-01","rates":{"MMK":-1}}`, wantErr: "positive"},
		{name: "bad date", body: `{"base":"USD","date":"June 1","rates":{"MMK":1}}`, wantErr: "rate date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeRate(strings.NewReader(tt.body), "MMK")
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "USD", got.From)
			require.Equal(t, "MMK", got.To)
			require.True(t, decimal.RequireFromString(tt.want).Equal(got.Value))
		})
	}
}
