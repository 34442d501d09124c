// Package cli implements the tickr command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tickr/pkg/core"
)

// Version is overridden at build time with -ldflags "-X tickr/internal/cli.Version=...".
var Version = "dev"

type app struct {
	debug   bool
	envFile string
	logger  zerolog.Logger
}

// NewRootCmd builds the tickr command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "tickr",
		Short: "tickr - ticker normalization and market data for US and Indian stocks",
		Long: `tickr normalizes, validates and classifies stock tickers for US markets
and the Indian NSE (.NS) and BSE (.BO) exchanges, and fetches prices for
whole ticker batches from Financial Datasets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	rootCmd.AddCommand(newNormalizeCmd(a))
	rootCmd.AddCommand(newValidateCmd(a))
	rootCmd.AddCommand(newParseCmd(a))
	rootCmd.AddCommand(newPricesCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "Load environment variables from this file (default .env when present)")

	return rootCmd
}

// Execute runs the root command and reports errors on stderr.
func Execute() int {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("error: "+err.Error()))
		return 1
	}
	return 0
}

func (a *app) init(errOut io.Writer) error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	if err := core.LoadEnv(files...); err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if v := os.Getenv(core.EnvLogLevel); v != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = l
		}
	}
	if a.debug {
		level = zerolog.DebugLevel
	}

	a.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        errOut,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(errOut),
	}).Level(level).With().Timestamp().Logger()

	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tickr %s\n", Version)
		},
	}
}
