package reports

import (
	"strings"
	"text/template"

	"cloud.google.com/go/civil"
	"github.com/Masterminds/sprig/v3"
	"github.com/shopspring/decimal"

	"github.com/ethpandaops/contrack/pkg/tracker"
)

// FuncMap returns sprig's text functions plus the pt-BR formatters
func FuncMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["brl"] = FormatBRL
	funcs["dataBR"] = formatDate

	return funcs
}

// FormatBRL renders a value as Brazilian reais, e.g. R$ 1.234,56
func FormatBRL(v decimal.Decimal) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}

	whole, frac, _ := strings.Cut(v.StringFixed(2), ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}

		b.WriteRune(r)
	}

	return sign + "R$ " + b.String() + "," + frac
}

// formatDate accepts a civil.Date or *civil.Date; nil renders as "-"
func formatDate(v interface{}) string {
	switch d := v.(type) {
	case civil.Date:
		return tracker.FormatDate(d)
	case *civil.Date:
		if d == nil {
			return "-"
		}

		return tracker.FormatDate(*d)
	}

	return "-"
}
