package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/contrack/pkg/reports"
)

// reportCmd renders a text report for today
//
//nolint:gochecknoglobals // Cobra commands are typically global
var reportCmd = &cobra.Command{
	Use:       "report <name>",
	Short:     "Render a text report (resumo, vencimentos, naturezas)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{reports.ReportSummary, reports.ReportExpirations, reports.ReportNatures},
	RunE:      runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	renderer, err := reports.NewEngine()
	if err != nil {
		return err
	}

	name := strings.ToLower(args[0])

	ctx := context.Background()

	env, err := openCLIEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	view, err := env.tracker.View(ctx)
	if err != nil {
		return err
	}

	out, err := renderer.Render(name, view)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), out)

	return nil
}
