// Package contracts derives contract lifecycle status, dashboard statistics,
// expiration alerts and filtered views from a collection of contract records.
//
// Every function in this package is pure: inputs are never mutated and the
// current date is always passed in explicitly.
package contracts

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a contract (situação).
type Status string

const (
	// StatusActive is a contract in force with more than ExpiringWindow days left.
	StatusActive Status = "Vigente"
	// StatusExpiringSoon is a contract in force that ends within ExpiringWindow days.
	StatusExpiringSoon Status = "A vencer"
	// StatusExpired is a contract whose end date has passed.
	StatusExpired Status = "Vencido"
	// StatusTerminated is an explicit, sticky override set by a user.
	StatusTerminated Status = "Rescindido"
)

// Statuses lists every status in display order.
//
//nolint:gochecknoglobals // read-only lookup table
var Statuses = []Status{StatusActive, StatusExpiringSoon, StatusExpired, StatusTerminated}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusExpiringSoon, StatusExpired, StatusTerminated:
		return true
	}

	return false
}

// InForce reports whether the status counts as "vigente" for aggregation.
func (s Status) InForce() bool {
	return s == StatusActive || s == StatusExpiringSoon
}

// Contract is one service or supply agreement.
type Contract struct {
	ID           string          `json:"id" yaml:"id"`
	UGE          string          `json:"uge" yaml:"uge"`                           // "090118 - Promissão"
	UnitCode     string          `json:"codigo_uge" yaml:"codigo_uge"`             // "090118"
	UnitName     string          `json:"hospital_unidade" yaml:"hospital_unidade"` // "Promissão"
	Service      string          `json:"servico" yaml:"servico"`
	Nature       string          `json:"natureza" yaml:"natureza"`
	Vendor       string          `json:"empresa" yaml:"empresa"`
	VendorTaxID  string          `json:"cnpj" yaml:"cnpj"`
	MonthlyValue decimal.Decimal `json:"valor_mensal" yaml:"valor_mensal"`
	Status       Status          `json:"situacao" yaml:"situacao"`
	StartDate    *civil.Date     `json:"data_inicio" yaml:"data_inicio"`
	EndDate      *civil.Date     `json:"data_fim" yaml:"data_fim"`
	ProcessID    string          `json:"processo_sei,omitempty" yaml:"processo_sei,omitempty"`
	RegisteredAt *civil.Date     `json:"data_cadastro,omitempty" yaml:"data_cadastro,omitempty"`
	Origin       string          `json:"origem_registro" yaml:"origem_registro"`
	Notes        string          `json:"observacoes,omitempty" yaml:"observacoes,omitempty"`
}

// UnitKey returns the identifier used to count distinct units.
func (c *Contract) UnitKey() string {
	if c.UnitCode != "" {
		return c.UnitCode
	}

	return c.UGE
}

// UnitLabel returns the display name used when ranking units.
func (c *Contract) UnitLabel() string {
	switch {
	case c.UnitName != "":
		return c.UnitName
	case c.UGE != "":
		return c.UGE
	default:
		return c.UnitCode
	}
}

// AlertConfig holds the alert window toggles (parâmetros). It only gates
// which alerts are surfaced; status classification always uses ExpiringWindow.
type AlertConfig struct {
	// Alert30Days is stored and returned but has no effect: the 30 day
	// alert is always raised.
	Alert30Days  bool `json:"alerta_30_dias" yaml:"alerta_30_dias" default:"true"`
	Alert60Days  bool `json:"alerta_60_dias" yaml:"alerta_60_dias" default:"true"`
	Alert90Days  bool `json:"alerta_90_dias" yaml:"alerta_90_dias" default:"true"`
	Alert180Days bool `json:"alerta_180_dias" yaml:"alerta_180_dias" default:"false"`
}

// DefaultAlertConfig returns the toggles used before any are saved.
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		Alert30Days:  true,
		Alert60Days:  true,
		Alert90Days:  true,
		Alert180Days: false,
	}
}

// RankedValue is one entry of a top-N ranking.
type RankedValue struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Statistics is the dashboard aggregate for one contract collection.
type Statistics struct {
	TotalInForce      int             `json:"totalVigentes"`
	TotalMonthlyValue decimal.Decimal `json:"totalValorMensal"`
	TotalUnits        int             `json:"totalUnidades"`
	ByStatus          map[Status]int  `json:"byStatus"`
	TopUnits          []RankedValue   `json:"topUnits"`
	TopNatures        []RankedValue   `json:"topNatures"`
	Expiring30        int             `json:"expiring30"`
	Expiring60        int             `json:"expiring60"`
	Expiring90        int             `json:"expiring90"`
	Expiring180       int             `json:"expiring180"`
	Expired           int             `json:"expired"`
}

// Severity ranks alerts.
type Severity string

const (
	// SeverityCritical needs action now.
	SeverityCritical Severity = "critical"
	// SeverityWarning needs action soon.
	SeverityWarning Severity = "warning"
	// SeverityInfo is informational.
	SeverityInfo Severity = "info"
)

// AlertItem is one actionable alert with a drill-down filter.
type AlertItem struct {
	ID      string     `json:"id"`
	Type    Severity   `json:"type"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Count   int        `json:"count"`
	Filter  FilterSpec `json:"filter"`
}

// FilterSpec is a conjunction of optional predicates. Zero values leave a
// field unconstrained.
type FilterSpec struct {
	Search   string   `json:"search,omitempty"`
	Units    []string `json:"uge,omitempty"`
	Natures  []string `json:"natureza,omitempty"`
	Services []string `json:"servico,omitempty"`
	Vendors  []string `json:"empresa,omitempty"`
	Statuses []Status `json:"situacao,omitempty"`

	MinValue *decimal.Decimal `json:"valorMin,omitempty"`
	MaxValue *decimal.Decimal `json:"valorMax,omitempty"`

	// Start date window (vigência início).
	StartFrom *civil.Date `json:"dataInicio,omitempty"`
	StartTo   *civil.Date `json:"dataFim,omitempty"`

	// End date window (vencimento).
	ExpiresFrom *civil.Date `json:"vencimentoInicio,omitempty"`
	ExpiresTo   *civil.Date `json:"vencimentoFim,omitempty"`

	// Registration date window (data de cadastro).
	RegisteredFrom *civil.Date `json:"cadastroInicio,omitempty"`
	RegisteredTo   *civil.Date `json:"cadastroFim,omitempty"`
}

// IsEmpty reports whether the filter constrains nothing.
func (f *FilterSpec) IsEmpty() bool {
	return f.Search == "" &&
		len(f.Units) == 0 && len(f.Natures) == 0 && len(f.Services) == 0 &&
		len(f.Vendors) == 0 && len(f.Statuses) == 0 &&
		f.MinValue == nil && f.MaxValue == nil &&
		f.StartFrom == nil && f.StartTo == nil &&
		f.ExpiresFrom == nil && f.ExpiresTo == nil &&
		f.RegisteredFrom == nil && f.RegisteredTo == nil
}
