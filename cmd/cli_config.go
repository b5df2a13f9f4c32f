package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	r "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/contrack/pkg/redis"
	"github.com/ethpandaops/contrack/pkg/store"
	"github.com/ethpandaops/contrack/pkg/tasks"
	"github.com/ethpandaops/contrack/pkg/tracker"
)

// CLIConfig represents minimal configuration for CLI commands. It reads
// the same file as the server and ignores the service sections.
type CLIConfig struct {
	// Logging level
	Logging string `yaml:"logging" default:"error" validate:"oneof=panic fatal warn info debug trace"`

	// Timezone, master admin and default alert toggles
	Tracker tracker.Config `yaml:",inline"`

	// Redis configuration
	Redis redis.Config `yaml:"redis"`
}

// Validate validates the CLI configuration
func (c *CLIConfig) Validate() error {
	if err := c.Redis.Validate(); err != nil {
		return err
	}

	return c.Tracker.Validate()
}

// LoadCLIConfig loads CLI configuration from a YAML file
func LoadCLIConfig(path string) (*CLIConfig, error) {
	if path == "" {
		path = "config.yaml"
	}

	config := &CLIConfig{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	// Try to read the file, but allow it to not exist
	yamlFile, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}

// cliEnv holds the connections a CLI command works with
type cliEnv struct {
	redis   *r.Client
	tracker tracker.Service
	queue   *tasks.QueueManager
}

// openCLIEnv loads the config, connects to Redis and builds the tracker
func openCLIEnv(ctx context.Context) (*cliEnv, error) {
	cfg, err := LoadCLIConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if err := applyLogLevel(cfg.Logging); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts, err := cfg.Redis.ParseOptions()
	if err != nil {
		return nil, err
	}

	location, err := cfg.Tracker.Location()
	if err != nil {
		return nil, err
	}

	client := r.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	st := store.New(logger, client, &cfg.Redis)

	return &cliEnv{
		redis:   client,
		tracker: tracker.New(logger, &cfg.Tracker, st, tracker.NewClock(location)),
		queue:   tasks.NewQueueManager(redis.NewAsynqRedisOptions(opts), cfg.Redis.PrefixQueue(tasks.QueueContracts)),
	}, nil
}

// Close releases the Redis connections
func (e *cliEnv) Close() {
	if err := e.queue.Close(); err != nil {
		logger.WithError(err).Error("Failed to close task queue")
	}

	if err := e.redis.Close(); err != nil {
		logger.WithError(err).Error("Failed to close Redis client")
	}
}
