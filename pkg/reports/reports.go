// Package reports renders plain text reports from a tracker view.
package reports

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sort"
	"text/template"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/ethpandaops/contrack/pkg/contracts"
	"github.com/ethpandaops/contrack/pkg/tracker"
)

const (
	// ReportSummary is the dashboard summary
	ReportSummary = "resumo"
	// ReportExpirations lists expired contracts and those ending soon
	ReportExpirations = "vencimentos"
	// ReportNatures breaks the portfolio down by nature
	ReportNatures = "naturezas"

	// ExpirationHorizon is how far ahead the expirations report looks, in days
	ExpirationHorizon = 90
)

// ErrUnknownReport is returned for a report name with no template
var ErrUnknownReport = errors.New("unknown report")

//go:embed templates/*.tmpl
var templateFS embed.FS

// Engine renders the embedded report templates
type Engine struct {
	tmpl *template.Template
}

// NewEngine parses the embedded templates
func NewEngine() (*Engine, error) {
	tmpl, err := template.New("reports").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report templates: %w", err)
	}

	return &Engine{tmpl: tmpl}, nil
}

// Names lists the available reports
func (e *Engine) Names() []string {
	return []string{ReportSummary, ReportExpirations, ReportNatures}
}

// Render renders the named report for view
func (e *Engine) Render(name string, view *tracker.View) (string, error) {
	tmpl := e.tmpl.Lookup(name + ".tmpl")
	if tmpl == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownReport, name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newReportData(view)); err != nil {
		return "", fmt.Errorf("failed to render report %s: %w", name, err)
	}

	return buf.String(), nil
}

type statusCount struct {
	Status contracts.Status
	Count  int
}

type contractRow struct {
	ID      string
	Unit    string
	Service string
	Vendor  string
	End     *civil.Date
	Days    int
	Value   decimal.Decimal
}

type reportData struct {
	Date       civil.Date
	Params     contracts.AlertConfig
	Statistics contracts.Statistics
	Alerts     []contracts.AlertItem
	Statuses   []statusCount
	Natures    []contracts.NatureSummary
	Expired    []contractRow
	Expiring   []contractRow
	Horizon    int
}

func newReportData(view *tracker.View) reportData {
	data := reportData{
		Date:       view.Date,
		Params:     view.Params,
		Statistics: view.Statistics,
		Alerts:     view.Alerts,
		Natures:    contracts.SummarizeNatures(view.Contracts),
		Statuses:   make([]statusCount, 0, len(contracts.Statuses)),
		Expired:    make([]contractRow, 0),
		Expiring:   make([]contractRow, 0),
		Horizon:    ExpirationHorizon,
	}

	for _, s := range contracts.Statuses {
		data.Statuses = append(data.Statuses, statusCount{Status: s, Count: view.Statistics.ByStatus[s]})
	}

	for i := range view.Contracts {
		c := &view.Contracts[i]
		if c.EndDate == nil {
			continue
		}

		row := contractRow{
			ID:      c.ID,
			Unit:    c.UnitLabel(),
			Service: c.Service,
			Vendor:  c.Vendor,
			End:     c.EndDate,
			Days:    contracts.DaysUntil(*c.EndDate, view.Date),
			Value:   c.MonthlyValue,
		}

		switch {
		case c.Status == contracts.StatusExpired:
			data.Expired = append(data.Expired, row)
		case c.Status.InForce() && row.Days <= ExpirationHorizon:
			data.Expiring = append(data.Expiring, row)
		}
	}

	sort.SliceStable(data.Expired, func(i, j int) bool { return data.Expired[i].Days < data.Expired[j].Days })
	sort.SliceStable(data.Expiring, func(i, j int) bool { return data.Expiring[i].Days < data.Expiring[j].Days })

	return data
}
