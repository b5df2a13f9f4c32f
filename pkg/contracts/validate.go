package contracts

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
)

// DecodeRow decodes one raw import row. A row that does not decode yields an
// *InvalidContractDataError naming the row's id and the first bad field.
func DecodeRow(raw []byte) (Contract, error) {
	var c Contract

	decodeErr := json.Unmarshal(raw, &c)
	if decodeErr == nil {
		return c, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Contract{}, &InvalidContractDataError{Field: "linha", Reason: "is not a JSON object"}
	}

	var id string
	if rawID, ok := fields["id"]; ok {
		_ = json.Unmarshal(rawID, &id)
	}

	id = strings.TrimSpace(id)

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		single, err := json.Marshal(map[string]json.RawMessage{key: fields[key]})
		if err != nil {
			continue
		}

		var one Contract
		if json.Unmarshal(single, &one) != nil {
			return Contract{}, &InvalidContractDataError{ID: id, Field: key, Reason: "has invalid value " + string(fields[key])}
		}
	}

	return Contract{}, &InvalidContractDataError{ID: id, Field: "linha", Reason: decodeErr.Error()}
}

// Validate checks a record against the data model. It is meant for the
// ingestion path; the derivation functions assume valid input.
func Validate(c *Contract) error {
	invalid := func(field, reason string) error {
		return &InvalidContractDataError{ID: c.ID, Field: field, Reason: reason}
	}

	if strings.TrimSpace(c.ID) == "" {
		return invalid("id", "is required")
	}

	if c.MonthlyValue.IsNegative() {
		return invalid("valor_mensal", "must not be negative")
	}

	if c.Status != "" && !c.Status.Valid() {
		return invalid("situacao", "has unknown value "+string(c.Status))
	}

	dates := []struct {
		field string
		date  *civil.Date
	}{
		{"data_inicio", c.StartDate},
		{"data_fim", c.EndDate},
		{"data_cadastro", c.RegisteredAt},
	}

	for _, d := range dates {
		if d.date != nil && !d.date.IsValid() {
			return invalid(d.field, "is not a valid date")
		}
	}

	return nil
}

// Normalize fills defaults on an imported record: a missing status becomes
// StatusActive and surrounding whitespace is trimmed from text fields.
func Normalize(c Contract) Contract {
	c.ID = strings.TrimSpace(c.ID)
	c.UGE = strings.TrimSpace(c.UGE)
	c.UnitCode = strings.TrimSpace(c.UnitCode)
	c.UnitName = strings.TrimSpace(c.UnitName)
	c.Service = strings.TrimSpace(c.Service)
	c.Nature = strings.TrimSpace(c.Nature)
	c.Vendor = strings.TrimSpace(c.Vendor)
	c.VendorTaxID = strings.TrimSpace(c.VendorTaxID)
	c.ProcessID = strings.TrimSpace(c.ProcessID)

	if c.UnitCode == "" && c.UGE != "" {
		if code, _, ok := strings.Cut(c.UGE, " - "); ok {
			c.UnitCode = strings.TrimSpace(code)
		}
	}

	if c.UnitName == "" && c.UGE != "" {
		if _, name, ok := strings.Cut(c.UGE, " - "); ok {
			c.UnitName = strings.TrimSpace(name)
		}
	}

	if c.Status == "" {
		c.Status = StatusActive
	}

	return c
}
