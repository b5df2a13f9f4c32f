package worker

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/contrack/pkg/tasks"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "valid", cfg: Config{Concurrency: 4, ShutdownTimeout: 30}},
		{name: "zero concurrency", cfg: Config{Concurrency: 0}, wantErr: ErrInvalidConcurrency},
		{name: "negative timeout", cfg: Config{Concurrency: 1, ShutdownTimeout: -1}, wantErr: ErrInvalidShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}

	assert.Equal(t, 30*time.Second, (&Config{ShutdownTimeout: 30}).ShutdownDuration())
}

func TestNewService_InvalidConfig(t *testing.T) {
	_, err := NewService(logrus.New(), &Config{}, nil, &asynq.RedisClientOpt{}, "contracts")
	require.ErrorIs(t, err, ErrInvalidConcurrency)
}

func TestNewServeMux(t *testing.T) {
	mux := NewServeMux(tasks.NewTaskHandler(logrus.New(), nil))

	for _, taskType := range []string{tasks.TypeImport, tasks.TypeEvaluate} {
		_, pattern := mux.Handler(asynq.NewTask(taskType, nil))
		assert.Equal(t, taskType, pattern)
	}
}
