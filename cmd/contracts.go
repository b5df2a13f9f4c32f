package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/contrack/pkg/api/handlers"
	"github.com/ethpandaops/contrack/pkg/contracts"
	"github.com/ethpandaops/contrack/pkg/reports"
	"github.com/ethpandaops/contrack/pkg/store"
	"github.com/ethpandaops/contrack/pkg/tasks"
	"github.com/ethpandaops/contrack/pkg/tracker"
)

//nolint:gochecknoglobals // Command flags need to be global for cobra
var (
	listFilter     string
	listJSON       bool
	importStrategy string
	importUser     string
	importAsync    bool
)

// contractsCmd represents the contracts command group
//
//nolint:gochecknoglobals // Cobra commands are typically global
var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "List, import and terminate contracts",
}

//nolint:gochecknoglobals // Cobra commands are typically global
var contractsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contracts with their status for today",
	Long: `List contracts with their derived status for today.

Filters use the same query syntax as GET /api/v1/contracts:
  contrack contracts list --filter "situacao=Vencido&uge=090120"
  contrack contracts list --filter "vencimentoInicio=2026-05-01&vencimentoFim=2026-05-31"`,
	Args: cobra.NoArgs,
	RunE: runContractsList,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var contractsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one contract",
	Args:  cobra.ExactArgs(1),
	RunE:  runContractsShow,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var contractsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import contracts from a JSON or YAML file",
	Long: `Import a list of already parsed contract records.

Files ending in .yaml or .yml are read as YAML, anything else as JSON.
The strategy is "mesclar" (merge by id) or "sobrescrever" (replace all).
With --async the batch is queued for the worker instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runContractsImport,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var contractsTerminateCmd = &cobra.Command{
	Use:   "terminate <id>",
	Short: "Mark a contract as Rescindido",
	Args:  cobra.ExactArgs(1),
	RunE:  runContractsTerminate,
}

func init() {
	rootCmd.AddCommand(contractsCmd)
	contractsCmd.AddCommand(contractsListCmd)
	contractsCmd.AddCommand(contractsShowCmd)
	contractsCmd.AddCommand(contractsImportCmd)
	contractsCmd.AddCommand(contractsTerminateCmd)

	contractsListCmd.Flags().StringVar(&listFilter, "filter", "", "filter query string")
	contractsListCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON instead of a table")

	contractsImportCmd.Flags().StringVar(&importStrategy, "strategy", string(store.StrategyMerge), "import strategy (mesclar, sobrescrever)")
	contractsImportCmd.Flags().StringVar(&importUser, "user", "cli", "user recorded in the import log")
	contractsImportCmd.Flags().BoolVar(&importAsync, "async", false, "queue the import for the worker")
}

// parseFilter turns a query string into a filter spec
func parseFilter(raw string) (contracts.FilterSpec, error) {
	query, err := url.ParseQuery(raw)
	if err != nil {
		return contracts.FilterSpec{}, fmt.Errorf("invalid filter: %w", err)
	}

	params, err := handlers.BindListContractsParams(query)
	if err != nil {
		return contracts.FilterSpec{}, err
	}

	return params.FilterSpec()
}

func runContractsList(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	spec, err := parseFilter(listFilter)
	if err != nil {
		return err
	}

	ctx := context.Background()

	env, err := openCLIEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	list, err := env.tracker.Contracts(ctx, spec)
	if err != nil {
		return err
	}

	if listJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(list)
	}

	printContracts(cmd.OutOrStdout(), list)

	return nil
}

func printContracts(out io.Writer, list []contracts.Contract) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tUNIDADE\tEMPRESA\tNATUREZA\tVALOR MENSAL\tFIM\tSITUAÇÃO")

	for i := range list {
		c := &list[i]

		end := "-"
		if c.EndDate != nil {
			end = tracker.FormatDate(*c.EndDate)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.UnitLabel(), c.Vendor, c.Nature, reports.FormatBRL(c.MonthlyValue), end, c.Status)
	}

	_, _ = fmt.Fprintf(w, "\n%d contrato(s)\n", len(list))
	_ = w.Flush()
}

func runContractsShow(cmd *cobra.Command, args []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx := context.Background()

	env, err := openCLIEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	c, err := env.tracker.Contract(ctx, args[0])
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()

	return enc.Encode(c)
}

// readContractsFile loads raw import rows. Rows are decoded one by one during
// import, so a malformed field only rejects its own row.
func readContractsFile(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided import file path
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var list []map[string]interface{}
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}

		rows := make([]json.RawMessage, 0, len(list))

		for i, row := range list {
			raw, err := json.Marshal(row)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s row %d: %w", path, i+1, err)
			}

			rows = append(rows, raw)
		}

		return rows, nil
	default:
		var rows []json.RawMessage
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}

		return rows, nil
	}
}

func runContractsImport(cmd *cobra.Command, args []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	strategy, err := store.ParseImportStrategy(importStrategy)
	if err != nil {
		return err
	}

	rows, err := readContractsFile(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()

	env, err := openCLIEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	req := tracker.ImportRequest{
		User:     importUser,
		FileName: filepath.Base(args[0]),
		Strategy: strategy,
		Rows:     rows,
	}

	if importAsync {
		taskID, err := env.queue.EnqueueImport(ctx, tasks.ImportPayload{Request: req, Trigger: tasks.TriggerCLI})
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Import queued as task %s\n", taskID)

		return nil
	}

	result, err := env.tracker.Import(ctx, req)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d inserido(s), %d atualizado(s), %d ignorado(s)\n",
		result.Inserted, result.Updated, result.Ignored)

	for _, line := range result.Errors {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", line)
	}

	return nil
}

func runContractsTerminate(cmd *cobra.Command, args []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx := context.Background()

	env, err := openCLIEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	c, err := env.tracker.Terminate(ctx, args[0])
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Contract %s is now %s\n", c.ID, c.Status)

	return nil
}
