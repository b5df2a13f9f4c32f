package contracts

import (
	"fmt"

	"cloud.google.com/go/civil"
)

const (
	// AlertIDExpired identifies the expired-contracts alert.
	AlertIDExpired = "expired"
)

// expiryWindow describes one "vencendo em N dias" alert tier.
type expiryWindow struct {
	days     int
	severity Severity
	message  string
	count    func(Statistics) int
	enabled  func(AlertConfig) bool
}

//nolint:gochecknoglobals // read-only alert tier table
var expiryWindows = []expiryWindow{
	{
		days:     30,
		severity: SeverityCritical,
		message:  "Contratos críticos vencendo este mês.",
		count:    func(s Statistics) int { return s.Expiring30 },
		enabled:  func(AlertConfig) bool { return true },
	},
	{
		days:     60,
		severity: SeverityWarning,
		message:  "Contratos vencendo nos próximos dois meses.",
		count:    func(s Statistics) int { return s.Expiring60 },
		enabled:  func(c AlertConfig) bool { return c.Alert60Days },
	},
	{
		days:     90,
		severity: SeverityInfo,
		message:  "Contratos vencendo no próximo trimestre.",
		count:    func(s Statistics) int { return s.Expiring90 },
		enabled:  func(c AlertConfig) bool { return c.Alert90Days },
	},
	{
		days:     180,
		severity: SeverityInfo,
		message:  "Contratos vencendo no próximo semestre. Planeje a renovação.",
		count:    func(s Statistics) int { return s.Expiring180 },
		enabled:  func(c AlertConfig) bool { return c.Alert180Days },
	},
}

// ExpiryAlertID returns the alert id for a "vencendo em N dias" tier.
func ExpiryAlertID(days int) string {
	return fmt.Sprintf("exp%d", days)
}

// ExpiryFilter selects contracts ending in [today, today+days] regardless of
// status.
func ExpiryFilter(today civil.Date, days int) FilterSpec {
	from := today
	to := today.AddDays(days)

	return FilterSpec{
		ExpiresFrom: &from,
		ExpiresTo:   &to,
	}
}

// GenerateAlerts turns statistics into alerts, most severe first. The 30 day
// tier is always evaluated; 60, 90 and 180 day tiers follow their toggles.
func GenerateAlerts(stats Statistics, cfg AlertConfig, today civil.Date) []AlertItem {
	alerts := make([]AlertItem, 0, 1+len(expiryWindows))

	if stats.Expired > 0 {
		alerts = append(alerts, AlertItem{
			ID:      AlertIDExpired,
			Type:    SeverityCritical,
			Title:   "Contratos Vencidos",
			Message: "Existem contratos com vigência expirada.",
			Count:   stats.Expired,
			Filter:  FilterSpec{Statuses: []Status{StatusExpired}},
		})
	}

	for _, w := range expiryWindows {
		count := w.count(stats)
		if count == 0 || !w.enabled(cfg) {
			continue
		}

		alerts = append(alerts, AlertItem{
			ID:      ExpiryAlertID(w.days),
			Type:    w.severity,
			Title:   fmt.Sprintf("Vencendo em %d dias", w.days),
			Message: w.message,
			Count:   count,
			Filter:  ExpiryFilter(today, w.days),
		})
	}

	return alerts
}
