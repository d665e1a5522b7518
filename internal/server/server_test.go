package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-calc/internal/calculator"
	"github.com/contactkeval/option-calc/internal/pricing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	calc, err := calculator.New(pricing.DefaultConfig(), 2)
	require.NoError(t, err)
	ts := httptest.NewServer(New(calc).Router())
	t.Cleanup(ts.Close)
	return ts
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err, "generated request id is a uuid")
}

func TestRequestIDEchoed(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestQuoteQuery(t *testing.T) {
	ts := newTestServer(t)
	q := url.Values{
		"model": {"crr"}, "type": {"put"},
		"spot": {"100"}, "strike": {"100"}, "rate": {"0.05"},
		"dividend": {"0.02"}, "vol": {"0.2"}, "time": {"0.5"},
		"ignored": {"yes"},
	}
	resp, err := http.Get(ts.URL + "/v1/quote?" + q.Encode())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	quote := decode[calculator.Quote](t, resp)
	assert.Equal(t, pricing.ModelCRR, quote.Model)
	assert.Equal(t, pricing.Put, quote.Type)
	assert.Equal(t, 200, quote.Steps)
	assert.InDelta(t, 4.973093, quote.Price, 1e-5)
}

func TestQuoteBodyDefaultsToLattice(t *testing.T) {
	ts := newTestServer(t)
	body := `{"type":"call","spot":100,"strike":100,"rate":0.05,"dividend":0.02,"vol":0.2,"time":0.5}`
	resp, err := http.Post(ts.URL+"/v1/quote", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	quote := decode[calculator.Quote](t, resp)
	assert.Equal(t, DefaultModel, quote.Model)
	assert.InDelta(t, 6.300677, quote.Price, 1e-5)
}

func TestQuoteBadRequests(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"type":`},
		{"unknown type", `{"type":"straddle","spot":100,"strike":100,"vol":0.2,"time":1}`},
		{"unknown model", `{"model":"trinomial","type":"put","spot":100,"strike":100,"vol":0.2,"time":1}`},
		{"invalid params", `{"type":"put","spot":-1,"strike":100,"vol":0.2,"time":1}`},
		{"probability out of range", `{"type":"call","spot":100,"strike":100,"rate":0.5,"vol":0.01,"time":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/quote", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			e := decode[errorResponse](t, resp)
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestQuoteQueryBadNumber(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/quote?type=put&spot=abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/quote", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestBatch(t *testing.T) {
	ts := newTestServer(t)
	body := `[
		{"id":"a","model":"bs","type":"call","spot":100,"strike":100,"rate":0.05,"dividend":0.02,"vol":0.2,"time":0.5},
		{"id":"b","type":"bogus","spot":100,"strike":100,"vol":0.2,"time":1},
		{"id":"c","model":"crr","type":"put","spot":100,"strike":100,"rate":0.05,"dividend":0.02,"vol":0.2,"time":0.5},
		{"id":"d","model":"crr","type":"put","spot":100,"strike":100,"vol":0,"time":1}
	]`
	resp, err := http.Post(ts.URL+"/v1/batch", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := decode[[]BatchItem](t, resp)
	require.Len(t, items, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, id, items[i].ID)
	}

	require.NotNil(t, items[0].Quote)
	assert.InDelta(t, 6.30763, items[0].Quote.Price, 1e-4)
	assert.Nil(t, items[1].Quote)
	assert.Contains(t, items[1].Error, "unknown option type")
	require.NotNil(t, items[2].Quote)
	assert.InDelta(t, 4.973093, items[2].Quote.Price, 1e-5)
	assert.NotEmpty(t, items[3].Error)
}

func TestOversizedLatticeIsRejected(t *testing.T) {
	ts := newTestServer(t)

	q := url.Values{"type": {"put"}, "spot": {"100"}, "strike": {"100"}, "vol": {"0.2"}, "time": {"1e13"}}
	resp, err := http.Get(ts.URL + "/v1/quote?" + q.Encode())
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decode[errorResponse](t, resp)
	assert.Contains(t, e.Error, "lattice steps")

	body := `[
		{"id":"long","model":"crr","type":"put","spot":100,"strike":100,"rate":0.05,"vol":0.2,"time":1e13},
		{"id":"ok","model":"crr","type":"put","spot":100,"strike":100,"rate":0.05,"dividend":0.02,"vol":0.2,"time":0.5}
	]`
	resp, err = http.Post(ts.URL+"/v1/batch", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := decode[[]BatchItem](t, resp)
	require.Len(t, items, 2)
	assert.Nil(t, items[0].Quote)
	assert.Contains(t, items[0].Error, "lattice steps")
	require.NotNil(t, items[1].Quote)
	assert.InDelta(t, 4.973093, items[1].Quote.Price, 1e-5)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("x: %w", pricing.ErrProbabilityOutOfRange)))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(pricing.ErrNonFinite))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	calc, err := calculator.New(pricing.DefaultConfig(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(calc).ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
