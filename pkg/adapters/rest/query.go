package rest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/oapi-codegen/runtime"
)

// searchFilter builds the crud-request filter matching search against every field:
//
//	{"$and":[{"$or":[{"<field>":{"$contL":"<search>"}}]}]}
func searchFilter(search string, fields []string) (string, error) {
	or := make([]map[string]any, 0, len(fields))
	for _, f := range fields {
		or = append(or, map[string]any{f: map[string]string{"$contL": search}})
	}
	b, err := json.Marshal(map[string]any{
		"$and": []any{map[string]any{"$or": or}},
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeQuery renders a query in the wire format the API expects:
// page, limit, sort=<field>,<ORDER> and the s search filter.
// A nil query encodes to the empty string.
func EncodeQuery(q *domain.Query) (string, error) {
	if q == nil {
		return "", nil
	}

	type param struct {
		name  string
		value any
	}
	var params []param
	if q.Page > 0 {
		params = append(params, param{"page", q.Page})
	}
	if q.Limit > 0 {
		params = append(params, param{"limit", q.Limit})
	}
	params = append(params, param{"sort", q.EffectiveSort().String()})
	if q.Search != "" && len(q.SearchFields) > 0 {
		filter, err := searchFilter(q.Search, q.SearchFields)
		if err != nil {
			return "", fmt.Errorf("failed to encode search filter: %w", err)
		}
		params = append(params, param{"s", filter})
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		styled, err := runtime.StyleParamWithLocation("form", true, p.name, runtime.ParamLocationQuery, p.value)
		if err != nil {
			return "", fmt.Errorf("failed to style query parameter %s: %w", p.name, err)
		}
		parts = append(parts, styled)
	}
	return strings.Join(parts, "&"), nil
}
