package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAlerts_NoAlerts(t *testing.T) {
	alerts := GenerateAlerts(Statistics{}, DefaultAlertConfig(), today)

	assert.Empty(t, alerts)
}

func TestGenerateAlerts_ExpiringScenario(t *testing.T) {
	in := classified(newContract("CT-1", 100, dayOffset(15)))
	cfg := AlertConfig{Alert30Days: true}

	alerts := GenerateAlerts(Aggregate(in, cfg, today), cfg, today)

	require.Len(t, alerts, 1)
	alert := alerts[0]
	assert.Equal(t, "exp30", alert.ID)
	assert.Equal(t, SeverityCritical, alert.Type)
	assert.Equal(t, 1, alert.Count)
	assert.Empty(t, alert.Filter.Statuses)
	require.NotNil(t, alert.Filter.ExpiresFrom)
	require.NotNil(t, alert.Filter.ExpiresTo)
	assert.Equal(t, today, *alert.Filter.ExpiresFrom)
	assert.Equal(t, *dayOffset(30), *alert.Filter.ExpiresTo)

	assert.Equal(t, in, Filter(in, alert.Filter), "drill-down filter must select the contract")
}

func TestGenerateAlerts_ExpiredScenario(t *testing.T) {
	in := classified(newContract("CT-1", 100, dayOffset(-1)))

	alerts := GenerateAlerts(Aggregate(in, DefaultAlertConfig(), today), DefaultAlertConfig(), today)

	require.Len(t, alerts, 1)
	assert.Equal(t, AlertIDExpired, alerts[0].ID)
	assert.Equal(t, "Contratos Vencidos", alerts[0].Title)
	assert.Equal(t, SeverityCritical, alerts[0].Type)
	assert.Equal(t, 1, alerts[0].Count)
	assert.Equal(t, []Status{StatusExpired}, alerts[0].Filter.Statuses)

	assert.Equal(t, in, Filter(in, alerts[0].Filter))
}

func TestGenerateAlerts_Toggles(t *testing.T) {
	stats := Statistics{Expired: 2, Expiring30: 1, Expiring60: 3, Expiring90: 4, Expiring180: 6}

	tests := []struct {
		name    string
		cfg     AlertConfig
		wantIDs []string
	}{
		{
			name:    "defaults",
			cfg:     DefaultAlertConfig(),
			wantIDs: []string{"expired", "exp30", "exp60", "exp90"},
		},
		{
			name:    "everything off still reports expired and 30 days",
			cfg:     AlertConfig{},
			wantIDs: []string{"expired", "exp30"},
		},
		{
			name:    "30 day toggle is ignored",
			cfg:     AlertConfig{Alert30Days: false, Alert60Days: true},
			wantIDs: []string{"expired", "exp30", "exp60"},
		},
		{
			name:    "180 only",
			cfg:     AlertConfig{Alert180Days: true},
			wantIDs: []string{"expired", "exp30", "exp180"},
		},
		{
			name:    "all on",
			cfg:     AlertConfig{Alert30Days: true, Alert60Days: true, Alert90Days: true, Alert180Days: true},
			wantIDs: []string{"expired", "exp30", "exp60", "exp90", "exp180"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := GenerateAlerts(stats, tt.cfg, today)

			ids := make([]string, 0, len(alerts))
			for _, a := range alerts {
				ids = append(ids, a.ID)
			}

			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestGenerateAlerts_SeverityOrder(t *testing.T) {
	stats := Statistics{Expired: 1, Expiring30: 1, Expiring60: 1, Expiring90: 1, Expiring180: 1}
	cfg := AlertConfig{Alert60Days: true, Alert90Days: true, Alert180Days: true}

	alerts := GenerateAlerts(stats, cfg, today)

	rank := map[Severity]int{SeverityCritical: 0, SeverityWarning: 1, SeverityInfo: 2}
	for i := 1; i < len(alerts); i++ {
		assert.LessOrEqual(t, rank[alerts[i-1].Type], rank[alerts[i].Type])
	}

	assert.Equal(t, 60, DaysUntil(*alerts[2].Filter.ExpiresTo, today))
	assert.Equal(t, 180, DaysUntil(*alerts[4].Filter.ExpiresTo, today))
}

func TestGenerateAlerts_SkipsZeroCounts(t *testing.T) {
	stats := Statistics{Expiring60: 2}

	alerts := GenerateAlerts(stats, DefaultAlertConfig(), today)

	require.Len(t, alerts, 1)
	assert.Equal(t, "exp60", alerts[0].ID)
	assert.Equal(t, SeverityWarning, alerts[0].Type)
	assert.Equal(t, 2, alerts[0].Count)
}
