package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/contrack/pkg/contracts"
	"github.com/ethpandaops/contrack/pkg/tasks"
	"github.com/ethpandaops/contrack/pkg/tracker"
)

//nolint:gochecknoglobals // Command flags need to be global for cobra
var evaluateAsync bool

// alertsCmd shows the alerts derived for today
//
//nolint:gochecknoglobals // Cobra commands are typically global
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show today's expiry alerts",
	Args:  cobra.NoArgs,
	RunE:  runAlerts,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var alertsEvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate alerts now and store the snapshot",
	Long: `Evaluate alerts now, store the snapshot read by "alerts last" and export
the result as metrics. With --async the evaluation is queued for the worker.`,
	Args: cobra.NoArgs,
	RunE: runAlertsEvaluate,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var alertsLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the last stored alert snapshot",
	Args:  cobra.NoArgs,
	RunE:  runAlertsLast,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsEvaluateCmd)
	alertsCmd.AddCommand(alertsLastCmd)

	alertsEvaluateCmd.Flags().BoolVar(&evaluateAsync, "async", false, "queue the evaluation for the worker")
}

func printAlerts(out io.Writer, date string, alerts []contracts.AlertItem) {
	_, _ = fmt.Fprintf(out, "Alertas em %s\n\n", date)

	if len(alerts) == 0 {
		_, _ = fmt.Fprintln(out, "Nenhum alerta.")

		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIPO\tID\tQTD\tMENSAGEM")

	for i := range alerts {
		a := &alerts[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.Type, a.ID, a.Count, a.Message)
	}

	_ = w.Flush()
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx := context.Background()

	env, err := openCLIEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	alerts, err := env.tracker.Alerts(ctx)
	if err != nil {
		return err
	}

	printAlerts(cmd.OutOrStdout(), tracker.FormatDate(env.tracker.Today()), alerts)

	return nil
}

func runAlertsEvaluate(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx := context.Background()

	env, err := openCLIEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	if evaluateAsync {
		taskID, err := env.queue.EnqueueEvaluation(ctx, tasks.TriggerCLI)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Evaluation queued as task %s\n", taskID)

		return nil
	}

	snapshot, err := env.tracker.Evaluate(ctx)
	if err != nil {
		return err
	}

	printAlerts(cmd.OutOrStdout(), tracker.FormatDate(snapshot.Date), snapshot.Alerts)

	return nil
}

func runAlertsLast(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx := context.Background()

	env, err := openCLIEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	snapshot, err := env.tracker.LatestEvaluation(ctx)
	if err != nil {
		return err
	}

	if snapshot == nil {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No evaluation stored yet.")

		return nil
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s generated at %s\n",
		snapshot.ID, snapshot.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	printAlerts(cmd.OutOrStdout(), tracker.FormatDate(snapshot.Date), snapshot.Alerts)

	return nil
}
