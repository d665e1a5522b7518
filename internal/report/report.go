package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-calc/internal/calculator"
)

const (
	JSONFile = "quotes.json"
	CSVFile  = "quotes.csv"
)

// Row is the flat reported form of one priced (or failed) contract. Numbers
// are rounded to the report precision; computation always runs at full
// precision.
type Row struct {
	ID       string  `json:"id" csv:"id"`
	Model    string  `json:"model" csv:"model"`
	Type     string  `json:"type" csv:"type"`
	Spot     float64 `json:"spot" csv:"spot"`
	Strike   float64 `json:"strike" csv:"strike"`
	Rate     float64 `json:"rate" csv:"rate"`
	Dividend float64 `json:"dividend" csv:"dividend"`
	Vol      float64 `json:"vol" csv:"vol"`
	Time     float64 `json:"time" csv:"time"`
	Steps    int     `json:"steps" csv:"steps"`
	Price    float64 `json:"price" csv:"price"`
	Delta    float64 `json:"delta" csv:"delta"`
	Gamma    float64 `json:"gamma" csv:"gamma"`
	Theta    float64 `json:"theta" csv:"theta"`
	Vega     float64 `json:"vega" csv:"vega"`
	Rho      float64 `json:"rho" csv:"rho"`
	Error    string  `json:"error,omitempty" csv:"error"`
}

// Round rounds v half away from zero to places decimals. NaN and infinities
// are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func format(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// FromQuote flattens q at the given precision.
func FromQuote(q calculator.Quote, precision int32) Row {
	return Row{
		ID:       q.ID,
		Model:    q.Model,
		Type:     string(q.Type),
		Spot:     q.Params.Spot,
		Strike:   q.Params.Strike,
		Rate:     q.Params.Rate,
		Dividend: q.Params.Dividend,
		Vol:      q.Params.Vol,
		Time:     q.Params.Time,
		Steps:    q.Steps,
		Price:    Round(q.Price, precision),
		Delta:    Round(q.Greeks.Delta, precision),
		Gamma:    Round(q.Greeks.Gamma, precision),
		Theta:    Round(q.Greeks.Theta, precision),
		Vega:     Round(q.Greeks.Vega, precision),
		Rho:      Round(q.Greeks.Rho, precision),
	}
}

// FromResults flattens a batch. Failed rows keep their inputs and carry
// the error text in place of numbers.
func FromResults(results []calculator.Result, precision int32) []Row {
	rows := make([]Row, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			p := r.Request.Params
			rows = append(rows, Row{
				ID:       r.Request.ID,
				Model:    r.Request.Model,
				Type:     string(r.Request.Type),
				Spot:     p.Spot,
				Strike:   p.Strike,
				Rate:     p.Rate,
				Dividend: p.Dividend,
				Vol:      p.Vol,
				Time:     p.Time,
				Error:    r.Err.Error(),
			})
			continue
		}
		rows = append(rows, FromQuote(r.Quote, precision))
	}
	return rows
}

func WriteJSON(rows []Row, outdir string) error {
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, JSONFile), b, 0644)
}

func WriteCSV(rows []Row, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, CSVFile))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("writing %s: %w", CSVFile, err)
	}
	return nil
}

// WriteAll creates outdir if needed and writes both report files.
func WriteAll(rows []Row, outdir string) error {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return err
	}
	if err := WriteJSON(rows, outdir); err != nil {
		return err
	}
	return WriteCSV(rows, outdir)
}

// RenderQuotes prints rows as a console table.
func RenderQuotes(w io.Writer, rows []Row, precision int32) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Model", "Type", "Spot", "Strike", "Steps", "Price", "Delta", "Gamma", "Theta", "Vega", "Rho", "Error"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, r := range rows {
		if r.Error != "" {
			table.Append([]string{r.ID, r.Model, r.Type, format(r.Spot, 2), format(r.Strike, 2), "", "", "", "", "", "", "", r.Error})
			continue
		}
		steps := ""
		if r.Steps > 0 {
			steps = strconv.Itoa(r.Steps)
		}
		table.Append([]string{
			r.ID, r.Model, r.Type,
			format(r.Spot, 2), format(r.Strike, 2), steps,
			format(r.Price, precision),
			format(r.Delta, precision),
			format(r.Gamma, precision),
			format(r.Theta, precision),
			format(r.Vega, precision),
			format(r.Rho, precision),
			"",
		})
	}
	table.Render()
}

// RenderConvergence prints a lattice convergence study.
func RenderConvergence(w io.Writer, points []calculator.ConvergencePoint, precision int32) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Steps", "Lattice", "Black-Scholes", "Abs Error"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, pt := range points {
		table.Append([]string{
			strconv.Itoa(pt.Steps),
			format(pt.Lattice, precision),
			format(pt.BlackScholes, precision),
			format(pt.AbsError, precision),
		})
	}
	table.Render()
}
