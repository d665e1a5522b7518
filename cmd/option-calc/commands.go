package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/contactkeval/option-calc/internal/data"
	"github.com/contactkeval/option-calc/internal/logger"
	"github.com/contactkeval/option-calc/internal/pricing"
	"github.com/contactkeval/option-calc/internal/report"
	"github.com/contactkeval/option-calc/internal/server"
)

func newQuoteCmd(a *app) *cobra.Command {
	var (
		flags  contractFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price one contract and print its Greeks",
		Example: `  option-calc quote --model crr --type put --spot 100 --strike 100 \
    --rate 0.05 --dividend 0.02 --vol 0.2 --time 0.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			q, err := a.calc.Quote(cmd.Context(), req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(q)
			}
			precision := a.cfg.Output.Precision
			report.RenderQuotes(cmd.OutOrStdout(), []report.Row{report.FromQuote(q, precision)}, precision)
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the quote as JSON at full precision")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		in        string
		synthetic int
		seed      int64
		outDir    string
		model     string
		table     bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Price a book of contracts from CSV (or a synthetic book) and write reports",
		Long: `batch prices every row of a contract CSV with header
id,model,type,spot,strike,rate,dividend,vol,time
and writes quotes.json and quotes.csv to the output directory. Rows that fail
are reported with their error and do not stop the batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []data.Contract
			switch {
			case in != "" && synthetic > 0:
				return errors.New("--in and --synthetic are mutually exclusive")
			case in != "":
				var err error
				if rows, err = data.ReadContractsFile(in); err != nil {
					return err
				}
			case synthetic > 0:
				rows = data.SyntheticContracts(synthetic, seed)
				logger.Infof("generated %d synthetic contracts (seed %d)", synthetic, seed)
			default:
				return errors.New("one of --in or --synthetic is required")
			}

			reqs, err := data.Requests(rows, model)
			if err != nil {
				return err
			}

			start := time.Now()
			results, err := a.calc.Batch(cmd.Context(), reqs)
			if err != nil {
				return err
			}

			if outDir == "" {
				outDir = a.cfg.Output.Dir
			}
			precision := a.cfg.Output.Precision
			out := report.FromResults(results, precision)
			if err := report.WriteAll(out, outDir); err != nil {
				return fmt.Errorf("writing reports: %w", err)
			}
			if table {
				report.RenderQuotes(cmd.OutOrStdout(), out, precision)
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "priced %d contracts (%d failed) in %v, wrote %s\n",
				len(results), failed, time.Since(start).Round(time.Millisecond), outDir)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&in, "in", "i", "", "contract CSV to price")
	fs.IntVar(&synthetic, "synthetic", 0, "price a generated book of this many contracts instead of --in")
	fs.Int64Var(&seed, "seed", 1, "random seed for --synthetic")
	fs.StringVarP(&outDir, "out", "o", "", "output directory (default output.dir from config)")
	fs.StringVarP(&model, "model", "m", pricing.ModelCRR, "model for rows that leave it blank")
	fs.BoolVar(&table, "table", false, "also print the results as a table")
	return cmd
}

func newConvergeCmd(a *app) *cobra.Command {
	var (
		flags contractFlags
		steps []int
	)
	cmd := &cobra.Command{
		Use:   "converge",
		Short: "Compare European lattice prices with Black-Scholes across step counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := pricing.ParseOptionType(flags.optType)
			if err != nil {
				return err
			}
			points, err := a.calc.Converge(flags.params(), typ, steps)
			if err != nil {
				return err
			}
			report.RenderConvergence(cmd.OutOrStdout(), points, a.cfg.Output.Precision)
			return nil
		},
	}
	flags.register(cmd, false)
	cmd.Flags().IntSliceVar(&steps, "steps", []int{50, 100, 200, 400, 800}, "lattice step counts to compare")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pricing REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(a.calc).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr from config)")
	return cmd
}
