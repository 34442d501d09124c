package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cobra"

	"tickr/pkg/aggregate"
	"tickr/pkg/core"
	"tickr/pkg/provider"
	"tickr/pkg/provider/financialdatasets"
	"tickr/pkg/session"
	"tickr/pkg/ticker"
)

const dateLayout = "2006-01-02"

var errInvalidTickers = errors.New("one or more tickers are invalid")

var roundContext = apd.BaseContext.WithPrecision(34)

func newNormalizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize TICKER...",
		Short: "Print the canonical form of each ticker",
		Long: `Print the canonical form of each ticker, one per line.
Example: tickr normalize reliance.ns Tcs.Bo aapl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, raw := range args {
				normalized := ticker.Normalize(raw)
				a.logger.Debug().Str("raw", raw).Str("normalized", normalized).Msg("normalized ticker")
				fmt.Fprintln(out, normalized)
			}
			return nil
		},
	}
}

type validation struct {
	Input  string          `json:"input"`
	Ticker string          `json:"ticker"`
	Valid  bool            `json:"valid"`
	Market core.MarketType `json:"market"`
}

func newValidateCmd(a *app) *cobra.Command {
	var strict, asJSON bool

	cmd := &cobra.Command{
		Use:   "validate TICKER...",
		Short: "Check each ticker and report its market",
		Long: `Check each ticker against the US, NSE and BSE formats. Input is only
trimmed and uppercased before the check; use parse to clean up input first.
With --strict the command fails when any ticker is invalid.
Example: tickr validate RELIANCE.NS TCS.BO AAPL INVALID!`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]validation, 0, len(args))
			anyInvalid := false
			for _, raw := range args {
				ok, market := ticker.Validate(raw)
				if !ok {
					anyInvalid = true
					a.logger.Warn().Str("ticker", raw).Msg("invalid ticker")
				}
				results = append(results, validation{Input: raw, Ticker: ticker.Normalize(raw), Valid: ok, Market: market})
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				t := newTable("", "INPUT", "TICKER", "MARKET")
				for _, r := range results {
					t.Row(mark(r.Valid), r.Input, r.Ticker, r.Market.String())
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			}

			if strict && anyInvalid {
				return errInvalidTickers
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any ticker is invalid")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

type parseOutput struct {
	Valid   []string `json:"valid"`
	Invalid []string `json:"invalid"`
	US      []string `json:"us"`
	Indian  []string `json:"indian"`
}

func newParseCmd(a *app) *cobra.Command {
	var tickers string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Split a comma-separated ticker list into valid and invalid tickers",
		Long: `Split a comma-separated ticker list into valid and invalid tickers
and show how the valid ones spread across US and Indian markets.
Example: tickr parse --tickers "AAPL,RELIANCE.NS,MSFT,TCS.BO,invalid!"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			valid, invalid := ticker.ParseAndValidate(tickers)
			for _, t := range invalid {
				a.logger.Warn().Str("ticker", t).Msg("invalid ticker")
			}

			res := parseOutput{Valid: valid, Invalid: invalid, US: []string{}, Indian: []string{}}
			for _, t := range valid {
				if ticker.IsIndian(t) {
					res.Indian = append(res.Indian, t)
				} else {
					res.US = append(res.US, t)
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}

			fmt.Fprintf(out, "%s %s\n", headerStyle.Render("Valid tickers:"), strings.Join(res.Valid, ", "))
			if len(res.Invalid) > 0 {
				fmt.Fprintf(out, "%s %s\n", invalidStyle.Render("Invalid tickers:"), strings.Join(res.Invalid, ", "))
			}
			fmt.Fprintf(out, "US stocks (%d): %s\n", len(res.US), strings.Join(res.US, ", "))
			fmt.Fprintf(out, "Indian stocks (%d): %s\n", len(res.Indian), strings.Join(res.Indian, ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&tickers, "tickers", "t", "", "Comma-separated tickers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	_ = cmd.MarkFlagRequired("tickers")
	return cmd
}

type pricesOutput struct {
	Closes  []aggregate.CloseSummary `json:"closes"`
	Invalid []string                 `json:"invalid"`
	Errors  map[string]string        `json:"errors,omitempty"`
}

func newPricesCmd(a *app) *cobra.Command {
	var tickers, startFlag, endFlag string
	var concurrency int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Fetch the latest close for a batch of tickers",
		Long: `Fetch daily prices for every valid ticker in the batch and print the
latest close per ticker, grouped by market. Requires FINANCIAL_DATASETS_API_KEY.
Example: tickr prices --tickers "AAPL,RELIANCE.NS,TCS.BO" --start 2024-01-01 --end 2024-01-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			end := time.Now().UTC()
			if endFlag != "" {
				t, err := time.Parse(dateLayout, endFlag)
				if err != nil {
					return fmt.Errorf("invalid --end, use YYYY-MM-DD: %w", err)
				}
				end = t
			}
			start := end.AddDate(0, 0, -30)
			if startFlag != "" {
				t, err := time.Parse(dateLayout, startFlag)
				if err != nil {
					return fmt.Errorf("invalid --start, use YYYY-MM-DD: %w", err)
				}
				start = t
			}
			if end.Before(start) {
				return fmt.Errorf("--end %s is before --start %s", end.Format(dateLayout), start.Format(dateLayout))
			}

			cfg, err := core.ConfigFromEnv("financialdatasets")
			if err != nil {
				return err
			}
			if len(cfg.APIKeys) == 0 {
				return fmt.Errorf("%s is not set", core.EnvAPIKey)
			}
			if a.debug {
				cfg.LogLevel = "debug"
			}

			router := provider.NewRouter()
			router.Register(financialdatasets.NewProtocol())

			var sessions []*session.Session
			defer func() {
				for _, sess := range sessions {
					sess.Close()
				}
			}()

			agg, err := aggregate.FromRouter(router, func(p core.Protocol) (aggregate.PriceFetcher, error) {
				sess, err := session.New(cfg, session.WithLogger(a.logger))
				if err != nil {
					return nil, err
				}
				sessions = append(sessions, sess)
				if err := sess.SetProtocol(p); err != nil {
					return nil, err
				}
				return sess, nil
			},
				aggregate.WithLogger(a.logger),
				aggregate.WithConcurrency(concurrency),
			)
			if err != nil {
				return err
			}

			return runPrices(cmd.Context(), cmd.OutOrStdout(), agg, tickers, start, end, asJSON)
		},
	}

	cmd.Flags().StringVarP(&tickers, "tickers", "t", "", "Comma-separated tickers")
	cmd.Flags().StringVar(&startFlag, "start", "", "Start date in YYYY-MM-DD format (default 30 days before --end)")
	cmd.Flags().StringVar(&endFlag, "end", "", "End date in YYYY-MM-DD format (default today)")
	cmd.Flags().IntVar(&concurrency, "concurrency", aggregate.DefaultConcurrency, "Maximum concurrent requests")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	_ = cmd.MarkFlagRequired("tickers")
	return cmd
}

func runPrices(ctx context.Context, out io.Writer, agg *aggregate.Aggregator, tickers string, start, end time.Time, asJSON bool) error {
	result, err := agg.FetchBatch(ctx, tickers, start, end)
	if err != nil {
		return err
	}

	byMarket, err := aggregate.LatestClose(result)
	if err != nil {
		return err
	}

	res := pricesOutput{Closes: []aggregate.CloseSummary{}, Invalid: result.Invalid}
	for _, m := range core.Markets() {
		res.Closes = append(res.Closes, byMarket[m]...)
	}
	for _, f := range result.Failed() {
		if res.Errors == nil {
			res.Errors = make(map[string]string)
		}
		res.Errors[f.Ticker] = f.Err.Error()
	}

	if asJSON {
		return writeJSON(out, res)
	}

	t := newTable("MARKET", "TICKER", "DATE", "CLOSE", "CCY", "CHANGE %")
	for _, c := range res.Closes {
		var rounded apd.Decimal
		if _, err := roundContext.Quantize(&rounded, &c.ChangePercent, -2); err != nil {
			return fmt.Errorf("round change for %s: %w", c.Ticker, err)
		}
		t.Row(c.Market.String(), c.Ticker, c.Time.Format(dateLayout), c.Close.String(), c.Currency, rounded.String())
	}
	fmt.Fprintln(out, t.Render())

	if len(res.Invalid) > 0 {
		fmt.Fprintf(out, "%s %s\n", invalidStyle.Render("Invalid tickers:"), strings.Join(res.Invalid, ", "))
	}
	for _, f := range result.Failed() {
		fmt.Fprintf(out, "%s %s: %v\n", mark(false), f.Ticker, f.Err)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
