// Package cmd contains the CLI commands for contrack
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Global vars needed for cobra CLI
var (
	cfgFile string
	logger  *logrus.Logger
)

// rootCmd represents the base command
//
//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "contrack",
	Short: "Contract tracker - status, alerts and filters for health unit contracts",
	Long: `contrack keeps the contract portfolio of the health units, derives each
contract's status for the current day, raises expiry alerts and serves
filtered views over a REST API, a background worker and this CLI.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error, fatal, panic); overrides the config file")

	// Initialize logger
	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "./config.yaml"
	}
}

// applyLogLevel sets the logger level from the --log-level flag, falling
// back to the configured level.
func applyLogLevel(configured string) error {
	logLevel, err := rootCmd.PersistentFlags().GetString("log-level")
	if err != nil || logLevel == "" {
		logLevel = configured
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	logger.SetLevel(level)

	return nil
}
