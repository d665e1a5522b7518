package data

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/contactkeval/option-calc/internal/calculator"
	"github.com/contactkeval/option-calc/internal/pricing"
)

// Contract is one row of a contract book CSV:
//
//	id,model,type,spot,strike,rate,dividend,vol,time
//
// Rate, dividend and vol are decimals (0.05 = 5%); time is in years.
type Contract struct {
	ID       string  `csv:"id"`
	Model    string  `csv:"model"`
	Type     string  `csv:"type"`
	Spot     float64 `csv:"spot"`
	Strike   float64 `csv:"strike"`
	Rate     float64 `csv:"rate"`
	Dividend float64 `csv:"dividend"`
	Vol      float64 `csv:"vol"`
	Time     float64 `csv:"time"`
}

func (c Contract) Params() pricing.Params {
	return pricing.Params{
		Spot:     c.Spot,
		Strike:   c.Strike,
		Rate:     c.Rate,
		Dividend: c.Dividend,
		Vol:      c.Vol,
		Time:     c.Time,
	}
}

// Request converts the row into a calculator request. A blank model falls
// back to defaultModel.
func (c Contract) Request(defaultModel string) (calculator.Request, error) {
	typ, err := pricing.ParseOptionType(c.Type)
	if err != nil {
		return calculator.Request{}, fmt.Errorf("contract %q: %w", c.ID, err)
	}
	model := strings.TrimSpace(c.Model)
	if model == "" {
		model = defaultModel
	}
	return calculator.Request{ID: c.ID, Model: model, Type: typ, Params: c.Params()}, nil
}

// ReadContracts decodes a contract book with a header row.
func ReadContracts(r io.Reader) ([]Contract, error) {
	var rows []Contract
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading contracts: %w", err)
	}
	return rows, nil
}

func ReadContractsFile(path string) ([]Contract, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadContracts(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Requests converts every row, stopping at the first row with an unknown
// option type. Parameter validation is left to the pricer so that such rows
// surface as per-row batch errors.
func Requests(rows []Contract, defaultModel string) ([]calculator.Request, error) {
	reqs := make([]calculator.Request, 0, len(rows))
	for i, row := range rows {
		req, err := row.Request(defaultModel)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// WriteContracts encodes rows with a header, in the same layout ReadContracts expects.
func WriteContracts(w io.Writer, rows []Contract) error {
	return gocsv.Marshal(&rows, w)
}
