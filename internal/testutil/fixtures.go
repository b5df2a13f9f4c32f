package testutil

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/contrack/pkg/contracts"
)

// ContractOption customizes a fixture contract.
type ContractOption func(*contracts.Contract)

// WithEndIn sets the end date to today plus days.
func WithEndIn(today civil.Date, days int) ContractOption {
	return func(c *contracts.Contract) {
		end := today.AddDays(days)
		c.EndDate = &end
	}
}

// WithoutEnd clears the end date.
func WithoutEnd() ContractOption {
	return func(c *contracts.Contract) {
		c.EndDate = nil
	}
}

// WithValue sets the monthly value.
func WithValue(v int64) ContractOption {
	return func(c *contracts.Contract) {
		c.MonthlyValue = decimal.NewFromInt(v)
	}
}

// WithStatus sets the stored status.
func WithStatus(s contracts.Status) ContractOption {
	return func(c *contracts.Contract) {
		c.Status = s
	}
}

// WithUnit sets the unit code and name, deriving the UGE label.
func WithUnit(code, name string) ContractOption {
	return func(c *contracts.Contract) {
		c.UnitCode = code
		c.UnitName = name
		c.UGE = code + " - " + name
	}
}

// WithNature sets the nature.
func WithNature(n string) ContractOption {
	return func(c *contracts.Contract) {
		c.Nature = n
	}
}

// WithVendor sets the vendor name.
func WithVendor(v string) ContractOption {
	return func(c *contracts.Contract) {
		c.Vendor = v
	}
}

// NewContract builds a valid contract that ends a year after today.
func NewContract(id string, today civil.Date, opts ...ContractOption) contracts.Contract {
	start := today.AddDays(-100)
	end := today.AddDays(365)

	c := contracts.Contract{
		ID:           id,
		UGE:          "090118 - Promissão",
		UnitCode:     "090118",
		UnitName:     "Promissão",
		Service:      "Limpeza Hospitalar",
		Nature:       "Mão de Obra",
		Vendor:       "LIMPA BEM LTDA",
		VendorTaxID:  "12.345.678/0001-90",
		MonthlyValue: decimal.NewFromInt(1000),
		Status:       contracts.StatusActive,
		StartDate:    &start,
		EndDate:      &end,
		RegisteredAt: &start,
		Origin:       "Sistema",
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// SampleContracts mirrors a small real portfolio relative to today.
func SampleContracts(today civil.Date) []contracts.Contract {
	return []contracts.Contract{
		NewContract("CT-001", today, WithValue(150000), WithEndIn(today, 65)),
		NewContract("CT-002", today,
			WithUnit("090141", "Guilherme Álvaro"),
			WithVendor("SEGURANÇA TOTAL SA"),
			WithValue(210000),
			WithEndIn(today, 25)),
		NewContract("CT-003", today,
			WithUnit("090120", "Hospital Ipiranga"),
			WithNature("Consumo"),
			WithVendor("MED PHARMA DISTRIBUIDORA"),
			WithValue(50000),
			WithEndIn(today, -10)),
		NewContract("CT-004", today,
			WithUnit("090120", "Hospital Ipiranga"),
			WithNature("Utilidade Pública"),
			WithVendor("ENEL DISTRIBUIÇÃO"),
			WithValue(180000),
			WithoutEnd()),
		NewContract("CT-005", today,
			WithNature("Serviços de TI e Comunicação PJ"),
			WithVendor("MICROSOFT BRASIL"),
			WithValue(25000),
			WithEndIn(today, 165),
			WithStatus(contracts.StatusTerminated)),
	}
}

// Rows encodes contracts as raw import rows.
func Rows(t *testing.T, cs ...contracts.Contract) []json.RawMessage {
	t.Helper()

	rows := make([]json.RawMessage, 0, len(cs))

	for i := range cs {
		raw, err := json.Marshal(cs[i])
		require.NoError(t, err)

		rows = append(rows, raw)
	}

	return rows
}
