package contracts

import "sort"

// FilterOptions lists the distinct values offered by the list filters.
type FilterOptions struct {
	Units    []string `json:"uge"`
	Natures  []string `json:"natureza"`
	Services []string `json:"servico"`
	Vendors  []string `json:"empresa"`
	Statuses []Status `json:"situacao"`
}

// Options collects the distinct non-empty values of each filterable field,
// sorted alphabetically.
func Options(in []Contract) FilterOptions {
	units := newValueSet()
	natures := newValueSet()
	services := newValueSet()
	vendors := newValueSet()

	for i := range in {
		units.add(in[i].UGE)
		natures.add(in[i].Nature)
		services.add(in[i].Service)
		vendors.add(in[i].Vendor)
	}

	return FilterOptions{
		Units:    units.sorted(),
		Natures:  natures.sorted(),
		Services: services.sorted(),
		Vendors:  vendors.sorted(),
		Statuses: append([]Status(nil), Statuses...),
	}
}

type valueSet map[string]struct{}

func newValueSet() valueSet {
	return make(valueSet)
}

func (s valueSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s valueSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}

	sort.Strings(out)

	return out
}
