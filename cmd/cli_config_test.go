package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/contrack/internal/testutil"
	"github.com/ethpandaops/contrack/pkg/contracts"
	"github.com/ethpandaops/contrack/pkg/redis"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadCLIConfig_MissingFile(t *testing.T) {
	cfg, err := LoadCLIConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging)
	assert.Equal(t, "America/Sao_Paulo", cfg.Tracker.Timezone)
	assert.Equal(t, "contrack", cfg.Redis.Prefix)
	assert.ErrorIs(t, cfg.Validate(), redis.ErrURLRequired)
}

func TestLoadCLIConfig_SharesServerFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
logging: info
timezone: America/Manaus
masterAdminEmail: chefe@saude.sp.gov.br
redis:
  url: redis://localhost:6379/1
api:
  addr: ":9000"
worker:
  concurrency: 8
`)

	cfg, err := LoadCLIConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.Logging)
	assert.Equal(t, "America/Manaus", cfg.Tracker.Timezone)
	assert.Equal(t, "chefe@saude.sp.gov.br", cfg.Tracker.MasterAdminEmail)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Redis.URL)
}

func TestReadContractsFile(t *testing.T) {
	jsonPath := writeFile(t, "lote.json", `[
  {"id": "CT-1", "uge": "090118 - Promissão", "empresa": "LIMPA BEM LTDA", "valor_mensal": "1500.50",
   "situacao": "Vigente", "data_inicio": "2026-01-01", "data_fim": "2026-12-31"}
]`)

	yamlPath := writeFile(t, "lote.YML", `
- id: CT-1
  uge: "090118 - Promissão"
  empresa: LIMPA BEM LTDA
  valor_mensal: "1500.50"
  situacao: Vigente
  data_inicio: "2026-01-01"
  data_fim: "2026-12-31"
`)

	for _, path := range []string{jsonPath, yamlPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			rows, err := readContractsFile(path)
			require.NoError(t, err)
			require.Len(t, rows, 1)

			c, err := contracts.DecodeRow(rows[0])
			require.NoError(t, err)
			assert.Equal(t, "CT-1", c.ID)
			assert.Equal(t, "1500.5", c.MonthlyValue.String())
			assert.Equal(t, contracts.StatusActive, c.Status)
			require.NotNil(t, c.EndDate)
			assert.Equal(t, civil.Date{Year: 2026, Month: time.December, Day: 31}, *c.EndDate)
		})
	}

	rows, err := readContractsFile(writeFile(t, "datas.yaml", `
- id: CT-1
  data_fim: "2026-12-31"
- id: CT-2
  data_fim: "31/12/2026"
`))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	_, err = contracts.DecodeRow(rows[1])
	require.ErrorIs(t, err, contracts.ErrInvalidContractData)
	assert.Contains(t, err.Error(), "CT-2")

	_, err = readContractsFile(writeFile(t, "bad.json", `{"id": "CT-1"}`))
	require.Error(t, err)

	_, err = readContractsFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	spec, err := parseFilter("situacao=Vencido&uge=090120&uge=090141&valorMin=1000,50")
	require.NoError(t, err)

	assert.Equal(t, []contracts.Status{contracts.StatusExpired}, spec.Statuses)
	assert.Equal(t, []string{"090120", "090141"}, spec.Units)
	require.NotNil(t, spec.MinValue)
	assert.Equal(t, "1000.5", spec.MinValue.String())

	spec, err = parseFilter("")
	require.NoError(t, err)
	assert.True(t, spec.IsEmpty())

	_, err = parseFilter("vencimentoFim=31/12/2026")
	require.Error(t, err)
}

func TestPrintContracts(t *testing.T) {
	today := civil.Date{Year: 2026, Month: time.May, Day: 4}

	var out bytes.Buffer
	printContracts(&out, testutil.SampleContracts(today)[3:5])

	text := out.String()
	assert.Contains(t, text, "CT-004")
	assert.Contains(t, text, "R$ 180.000,00")
	assert.Contains(t, text, "MICROSOFT BRASIL")
	assert.Contains(t, text, "2 contrato(s)")
}
