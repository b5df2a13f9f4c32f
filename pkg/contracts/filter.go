package contracts

import (
	"slices"
	"strings"

	"cloud.google.com/go/civil"
)

// Filter returns the contracts matching every predicate of spec, in input
// order. The result never aliases the input slice.
func Filter(in []Contract, spec FilterSpec) []Contract {
	if spec.IsEmpty() {
		return append(make([]Contract, 0, len(in)), in...)
	}

	out := make([]Contract, 0, len(in))

	search := strings.ToLower(strings.TrimSpace(spec.Search))

	for i := range in {
		if spec.matches(&in[i], search) {
			out = append(out, in[i])
		}
	}

	return out
}

func (f *FilterSpec) matches(c *Contract, search string) bool {
	if search != "" && !matchesSearch(c, search) {
		return false
	}

	if !memberOf(f.Units, c.UGE, c.UnitCode, c.UnitName) {
		return false
	}
	if !memberOf(f.Natures, c.Nature) {
		return false
	}
	if !memberOf(f.Services, c.Service) {
		return false
	}
	if !memberOf(f.Vendors, c.Vendor) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, c.Status) {
		return false
	}

	if f.MinValue != nil && c.MonthlyValue.LessThan(*f.MinValue) {
		return false
	}
	if f.MaxValue != nil && c.MonthlyValue.GreaterThan(*f.MaxValue) {
		return false
	}

	return inDateRange(c.StartDate, f.StartFrom, f.StartTo) &&
		inDateRange(c.EndDate, f.ExpiresFrom, f.ExpiresTo) &&
		inDateRange(c.RegisteredAt, f.RegisteredFrom, f.RegisteredTo)
}

func matchesSearch(c *Contract, term string) bool {
	for _, field := range []string{c.Vendor, c.Service, c.UnitName, c.UGE, c.ProcessID} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}

	return false
}

// memberOf reports whether any of values is in set. An empty set matches all.
func memberOf(set []string, values ...string) bool {
	if len(set) == 0 {
		return true
	}

	for _, v := range values {
		if v != "" && slices.Contains(set, v) {
			return true
		}
	}

	return false
}

// inDateRange applies inclusive bounds. An absent date fails any active bound.
func inDateRange(d, from, to *civil.Date) bool {
	if from == nil && to == nil {
		return true
	}

	if d == nil {
		return false
	}

	if from != nil && d.Before(*from) {
		return false
	}

	if to != nil && d.After(*to) {
		return false
	}

	return true
}
