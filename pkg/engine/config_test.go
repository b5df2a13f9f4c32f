package engine

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/creasty/defaults"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/contrack/pkg/redis"
	"github.com/ethpandaops/contrack/pkg/scheduler"
	"github.com/ethpandaops/contrack/pkg/tracker"
	"github.com/ethpandaops/contrack/pkg/worker"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()

	cfg := &Config{}
	require.NoError(t, defaults.Set(cfg))
	cfg.Redis.URL = "redis://localhost:6379/0"

	return cfg
}

func TestConfig_Defaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, "info", cfg.Logging)
	assert.Equal(t, ":9091", cfg.MetricsAddr)
	assert.Equal(t, "America/Sao_Paulo", cfg.Tracker.Timezone)
	assert.True(t, cfg.Tracker.Alerts.Alert90Days)
	assert.False(t, cfg.Tracker.Alerts.Alert180Days)
	assert.Equal(t, "contrack", cfg.Redis.Prefix)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, []string{"*"}, cfg.API.AllowOrigins)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, "@every 1h", cfg.Scheduler.AlertsSchedule)

	require.NoError(t, cfg.Validate())
}

func TestConfig_YAML(t *testing.T) {
	raw := `
logging: debug
timezone: America/Manaus
masterAdminEmail: chefe@saude.sp.gov.br
alerts:
  alerta_180_dias: true
redis:
  url: redis://cache:6379/2
  prefix: cgof
api:
  addr: ":9000"
worker:
  enabled: false
scheduler:
  alertsSchedule: "0 7 * * *"
`
	cfg := &Config{}
	require.NoError(t, defaults.Set(cfg))
	require.NoError(t, yaml.Unmarshal([]byte(raw), cfg))

	assert.Equal(t, "debug", cfg.Logging)
	assert.Equal(t, "America/Manaus", cfg.Tracker.Timezone)
	assert.Equal(t, "chefe@saude.sp.gov.br", cfg.Tracker.MasterAdminEmail)
	assert.True(t, cfg.Tracker.Alerts.Alert180Days)
	assert.True(t, cfg.Tracker.Alerts.Alert30Days, "unset toggles keep their defaults")
	assert.Equal(t, "cgof", cfg.Redis.Prefix)
	assert.Equal(t, ":9000", cfg.API.Addr)
	assert.False(t, cfg.Worker.Enabled)
	assert.Equal(t, "0 7 * * *", cfg.Scheduler.AlertsSchedule)

	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging = "loud" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "missing redis url",
			mutate:  func(c *Config) { c.Redis.URL = "" },
			wantErr: redis.ErrURLRequired,
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Tracker.Timezone = "Mars/Olympus" },
			wantErr: tracker.ErrTimezoneInvalid,
		},
		{
			name:    "bad worker concurrency",
			mutate:  func(c *Config) { c.Worker.Concurrency = 0 },
			wantErr: worker.ErrInvalidConcurrency,
		},
		{
			name: "disabled worker is not validated",
			mutate: func(c *Config) {
				c.Worker.Enabled = false
				c.Worker.Concurrency = 0
			},
		},
		{
			name:    "bad schedule",
			mutate:  func(c *Config) { c.Scheduler.AlertsSchedule = "every hour" },
			wantErr: scheduler.ErrInvalidSchedule,
		},
		{
			name: "nothing enabled",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.Worker.Enabled = false
				c.Scheduler.Enabled = false
			},
			wantErr: ErrNothingEnabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewService(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Logging = "verbose"

	_, err := NewService(logrus.New(), cfg)
	require.ErrorIs(t, err, ErrInvalidLogLevel)

	cfg = defaultConfig(t)
	cfg.Scheduler.Enabled = false
	cfg.Worker.Enabled = false

	s, err := NewService(logrus.New(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.api)
	assert.Nil(t, s.worker)
	assert.Nil(t, s.scheduler)
}

func TestService_HealthHandler(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := defaultConfig(t)
	cfg.Redis.URL = "redis://" + mr.Addr()

	s, err := NewService(logrus.New(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.redisClient.Close() })

	handler := s.healthHandler()

	check := func(path string) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))

		return rec.Code
	}

	assert.Equal(t, http.StatusOK, check("/health"))
	assert.Equal(t, http.StatusOK, check("/ready"))

	mr.Close()

	assert.Equal(t, http.StatusOK, check("/health"))
	assert.Equal(t, http.StatusServiceUnavailable, check("/ready"))
}
