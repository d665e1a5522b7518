package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/contactkeval/option-calc/internal/calculator"
	"github.com/contactkeval/option-calc/internal/config"
	"github.com/contactkeval/option-calc/internal/logger"
	"github.com/contactkeval/option-calc/internal/pricing"
)

// app is the state shared by every subcommand once the root has loaded config.
type app struct {
	configPath string
	logLevel   string

	cfg  *config.Config
	calc *calculator.Calculator
}

func (a *app) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	calc, err := calculator.New(cfg.Pricing, cfg.Batch.Workers)
	if err != nil {
		return err
	}
	a.cfg, a.calc = cfg, calc
	return nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "option-calc",
		Short: "Price European and American options",
		Long: `option-calc prices vanilla options with the Black-Scholes closed form or a
Cox-Ross-Rubinstein binomial lattice with early exercise, and reports the
Greeks for each.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", fmt.Sprintf("path to YAML config (default %s if present)", config.DefaultFile))
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: error, warn, info, debug or trace")

	root.AddCommand(
		newQuoteCmd(a),
		newBatchCmd(a),
		newConvergeCmd(a),
		newServeCmd(a),
	)
	return root
}

// contractFlags are the per-contract inputs shared by quote and converge.
type contractFlags struct {
	model    string
	optType  string
	spot     float64
	strike   float64
	rate     float64
	dividend float64
	vol      float64
	time     float64
}

func (f *contractFlags) register(cmd *cobra.Command, withModel bool) {
	fs := cmd.Flags()
	if withModel {
		fs.StringVarP(&f.model, "model", "m", pricing.ModelCRR, "pricing model: crr (american) or black-scholes (bs)")
	}
	fs.StringVarP(&f.optType, "type", "t", string(pricing.Call), "option type: call or put")
	fs.Float64Var(&f.spot, "spot", 0, "spot price of the underlying")
	fs.Float64Var(&f.strike, "strike", 0, "strike price")
	fs.Float64Var(&f.rate, "rate", 0, "continuously compounded risk-free rate, e.g. 0.05")
	fs.Float64Var(&f.dividend, "dividend", 0, "continuous dividend yield, e.g. 0.02")
	fs.Float64Var(&f.vol, "vol", 0, "annualised volatility, e.g. 0.2")
	fs.Float64Var(&f.time, "time", 0, "time to expiry in years")

	for _, name := range []string{"spot", "strike", "vol", "time"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (f *contractFlags) params() pricing.Params {
	return pricing.Params{
		Spot:     f.spot,
		Strike:   f.strike,
		Rate:     f.rate,
		Dividend: f.dividend,
		Vol:      f.vol,
		Time:     f.time,
	}
}

func (f *contractFlags) request() (calculator.Request, error) {
	typ, err := pricing.ParseOptionType(f.optType)
	if err != nil {
		return calculator.Request{}, err
	}
	return calculator.Request{Model: f.model, Type: typ, Params: f.params()}, nil
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
