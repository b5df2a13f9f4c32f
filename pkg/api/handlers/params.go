package handlers

import (
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/gofiber/fiber/v3"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"github.com/ethpandaops/contrack/pkg/contracts"
)

// ListContractsParams defines parameters for ListContracts
type ListContractsParams struct {
	Search   *string   `json:"search,omitempty"`
	Uge      *[]string `json:"uge,omitempty"`
	Natureza *[]string `json:"natureza,omitempty"`
	Servico  *[]string `json:"servico,omitempty"`
	Empresa  *[]string `json:"empresa,omitempty"`
	Situacao *[]string `json:"situacao,omitempty"`
	ValorMin *string   `json:"valorMin,omitempty"`
	ValorMax *string   `json:"valorMax,omitempty"`

	DataInicio       *openapi_types.Date `json:"dataInicio,omitempty"`
	DataFim          *openapi_types.Date `json:"dataFim,omitempty"`
	VencimentoInicio *openapi_types.Date `json:"vencimentoInicio,omitempty"`
	VencimentoFim    *openapi_types.Date `json:"vencimentoFim,omitempty"`
	CadastroInicio   *openapi_types.Date `json:"cadastroInicio,omitempty"`
	CadastroFim      *openapi_types.Date `json:"cadastroFim,omitempty"`
}

// BindListContractsParams decodes the query string the same way for every caller
func BindListContractsParams(query url.Values) (ListContractsParams, error) {
	var params ListContractsParams

	bindings := []struct {
		name string
		dest interface{}
	}{
		{"search", &params.Search},
		{"uge", &params.Uge},
		{"natureza", &params.Natureza},
		{"servico", &params.Servico},
		{"empresa", &params.Empresa},
		{"situacao", &params.Situacao},
		{"valorMin", &params.ValorMin},
		{"valorMax", &params.ValorMax},
		{"dataInicio", &params.DataInicio},
		{"dataFim", &params.DataFim},
		{"vencimentoInicio", &params.VencimentoInicio},
		{"vencimentoFim", &params.VencimentoFim},
		{"cadastroInicio", &params.CadastroInicio},
		{"cadastroFim", &params.CadastroFim},
	}

	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			return ListContractsParams{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid format for parameter %s: %v", b.name, err))
		}
	}

	return params, nil
}

// FilterSpec converts bound parameters into a filter
func (p *ListContractsParams) FilterSpec() (contracts.FilterSpec, error) {
	spec := contracts.FilterSpec{
		Units:          deref(p.Uge),
		Natures:        deref(p.Natureza),
		Services:       deref(p.Servico),
		Vendors:        deref(p.Empresa),
		StartFrom:      toCivil(p.DataInicio),
		StartTo:        toCivil(p.DataFim),
		ExpiresFrom:    toCivil(p.VencimentoInicio),
		ExpiresTo:      toCivil(p.VencimentoFim),
		RegisteredFrom: toCivil(p.CadastroInicio),
		RegisteredTo:   toCivil(p.CadastroFim),
	}

	if p.Search != nil {
		spec.Search = *p.Search
	}

	for _, raw := range deref(p.Situacao) {
		status := contracts.Status(raw)
		if !status.Valid() {
			return contracts.FilterSpec{}, fiber.NewError(fiber.StatusBadRequest, "invalid situacao "+raw)
		}

		spec.Statuses = append(spec.Statuses, status)
	}

	var err error
	if spec.MinValue, err = parseDecimal("valorMin", p.ValorMin); err != nil {
		return contracts.FilterSpec{}, err
	}

	if spec.MaxValue, err = parseDecimal("valorMax", p.ValorMax); err != nil {
		return contracts.FilterSpec{}, err
	}

	return spec, nil
}

func deref(v *[]string) []string {
	if v == nil {
		return nil
	}

	out := make([]string, 0, len(*v))
	for _, s := range *v {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}

func toCivil(d *openapi_types.Date) *civil.Date {
	if d == nil {
		return nil
	}

	date := civil.DateOf(d.Time)

	return &date
}

func parseDecimal(name string, raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}

	// Accept the pt-BR decimal comma
	v, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(*raw), ",", "."))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid format for parameter %s", name))
	}

	return &v, nil
}

func queryValues(c fiber.Ctx) (url.Values, error) {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid query string")
	}

	return values, nil
}
