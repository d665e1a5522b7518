// Package server exposes the calculator over HTTP.
//
//	GET  /health
//	GET  /v1/quote?model=crr&type=put&spot=100&strike=100&rate=0.05&dividend=0.02&vol=0.2&time=0.5
//	POST /v1/quote   {"model":"crr","type":"put","spot":100,...}
//	POST /v1/batch   [{"id":"a","model":"bs","type":"call",...}, ...]
//
// Every response carries an X-Request-ID header, echoed from the request
// when present.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"

	"github.com/contactkeval/option-calc/internal/calculator"
	"github.com/contactkeval/option-calc/internal/logger"
	"github.com/contactkeval/option-calc/internal/pricing"
)

const (
	RequestIDHeader = "X-Request-ID"
	DefaultModel    = pricing.ModelCRR

	maxBodyBytes = 1 << 20
	maxBatchSize = 10000
)

// QuoteInput is the flat wire form of a quote request, shared by query
// strings and JSON bodies.
type QuoteInput struct {
	ID       string  `json:"id,omitempty" schema:"id"`
	Model    string  `json:"model" schema:"model"`
	Type     string  `json:"type" schema:"type"`
	Spot     float64 `json:"spot" schema:"spot"`
	Strike   float64 `json:"strike" schema:"strike"`
	Rate     float64 `json:"rate" schema:"rate"`
	Dividend float64 `json:"dividend" schema:"dividend"`
	Vol      float64 `json:"vol" schema:"vol"`
	Time     float64 `json:"time" schema:"time"`
}

func (in QuoteInput) request() (calculator.Request, error) {
	typ, err := pricing.ParseOptionType(in.Type)
	if err != nil {
		return calculator.Request{}, err
	}
	model := in.Model
	if model == "" {
		model = DefaultModel
	}
	return calculator.Request{
		ID:    in.ID,
		Model: model,
		Type:  typ,
		Params: pricing.Params{
			Spot:     in.Spot,
			Strike:   in.Strike,
			Rate:     in.Rate,
			Dividend: in.Dividend,
			Vol:      in.Vol,
			Time:     in.Time,
		},
	}, nil
}

// BatchItem is one element of a batch response: a quote or an error.
type BatchItem struct {
	ID    string            `json:"id,omitempty"`
	Quote *calculator.Quote `json:"quote,omitempty"`
	Error string            `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	calc    *calculator.Calculator
	decoder *schema.Decoder
}

func New(calc *calculator.Calculator) *Server {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Server{calc: calc, decoder: decoder}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/v1/quote", s.quoteQuery).Methods(http.MethodGet)
	r.HandleFunc("/v1/quote", s.quoteBody).Methods(http.MethodPost)
	r.HandleFunc("/v1/batch", s.batch).Methods(http.MethodPost)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("starting REST server on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Infof("shutting down REST server")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r)
		logger.WithFields(logger.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"elapsed":    time.Since(start),
		}).Debug("request")
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) quoteQuery(w http.ResponseWriter, r *http.Request) {
	var in QuoteInput
	if err := s.decoder.Decode(&in, r.URL.Query()); err != nil {
		writeError(w, fmt.Errorf("%w: %v", pricing.ErrInvalidParams, err))
		return
	}
	s.quote(w, r, in)
}

func (s *Server) quoteBody(w http.ResponseWriter, r *http.Request) {
	var in QuoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	s.quote(w, r, in)
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request, in QuoteInput) {
	req, err := in.request()
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := s.calc.Quote(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) batch(w http.ResponseWriter, r *http.Request) {
	var ins []QuoteInput
	if err := decodeJSON(w, r, &ins); err != nil {
		writeError(w, err)
		return
	}
	if len(ins) > maxBatchSize {
		writeError(w, fmt.Errorf("%w: batch of %d exceeds %d contracts", pricing.ErrInvalidParams, len(ins), maxBatchSize))
		return
	}

	items := make([]BatchItem, len(ins))
	reqs := make([]calculator.Request, 0, len(ins))
	slots := make([]int, 0, len(ins))
	for i, in := range ins {
		items[i].ID = in.ID
		req, err := in.request()
		if err != nil {
			items[i].Error = err.Error()
			continue
		}
		reqs = append(reqs, req)
		slots = append(slots, i)
	}

	results, err := s.calc.Batch(r.Context(), reqs)
	if err != nil {
		writeError(w, err)
		return
	}
	for j, res := range results {
		item := &items[slots[j]]
		if res.Err != nil {
			item.Error = res.Err.Error()
			continue
		}
		q := res.Quote
		item.Quote = &q
	}
	writeJSON(w, http.StatusOK, items)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", pricing.ErrInvalidParams, err)
	}
	return nil
}

// statusFor maps caller mistakes to 400 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pricing.ErrInvalidParams),
		errors.Is(err, pricing.ErrProbabilityOutOfRange),
		errors.Is(err, pricing.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("encoding response: %v", err)
	}
}
