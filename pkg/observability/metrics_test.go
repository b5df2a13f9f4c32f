package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ethpandaops/contrack/pkg/contracts"
)

func TestRecordStatistics(t *testing.T) {
	stats := &contracts.Statistics{
		TotalMonthlyValue: decimal.RequireFromString("1500.25"),
		TotalUnits:        3,
		ByStatus:          map[contracts.Status]int{contracts.StatusExpired: 2},
		Expiring30:        1,
		Expiring180:       4,
	}

	RecordStatistics(stats)

	assert.InDelta(t, 2, testutil.ToFloat64(ContractsByStatus.WithLabelValues("Vencido")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(ContractsByStatus.WithLabelValues("Vigente")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(ContractsExpiring.WithLabelValues("30")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(ContractsExpiring.WithLabelValues("180")), 0)
	assert.InDelta(t, 1500.25, testutil.ToFloat64(MonthlyValueInForce), 0.001)
	assert.InDelta(t, 3, testutil.ToFloat64(UnitsInForce), 0)
}

func TestRecordAlerts(t *testing.T) {
	RecordAlerts([]contracts.AlertItem{
		{ID: "expired", Type: contracts.SeverityCritical, Count: 2},
		{ID: "exp60", Type: contracts.SeverityWarning, Count: 5},
	}, 1700000000)

	assert.InDelta(t, 2, testutil.ToFloat64(AlertsActive.WithLabelValues("expired", "critical")), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(AlertsActive.WithLabelValues("exp60", "warning")), 0)

	RecordAlerts(nil, 1700000100)

	assert.Equal(t, 0, testutil.CollectAndCount(AlertsActive))
	assert.InDelta(t, 1700000100, testutil.ToFloat64(LastEvaluation), 0)
}

func TestRecordQueueDepth(t *testing.T) {
	RecordQueueDepth("contracts", "pending", 3)
	RecordQueueDepth("contracts", "pending", 1)

	assert.InDelta(t, 1, testutil.ToFloat64(QueueTasks.WithLabelValues("contracts", "pending")), 0)
}
