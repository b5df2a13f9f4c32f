package cmd

import (
	"context"
	"os"

	"github.com/creasty/defaults"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/contrack/pkg/engine"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the contrack API, worker and scheduler",
	Long: `Starts every component enabled in the config file: the REST API, the
asynq worker that runs imports and alert evaluations, and the scheduler
that enqueues periodic evaluations while holding the leader lock.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func loadEngineConfigFromFile(file string) (*engine.Config, error) {
	config := &engine.Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(file) //nolint:gosec // User-provided config file path
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := loadEngineConfigFromFile(cfgFile)
	if err != nil {
		return err
	}

	if err := applyLogLevel(config.Logging); err != nil {
		return err
	}

	logger.WithField("config", cfgFile).Info("Configuration loaded")

	svc, err := engine.NewService(logger, config)
	if err != nil {
		return err
	}

	return svc.Run(context.Background())
}
