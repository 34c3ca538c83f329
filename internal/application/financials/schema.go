package financials

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/bryanwahyu/finadvisor/internal/domain/credit"
	domain "github.com/bryanwahyu/finadvisor/internal/domain/financials"
)

var (
	metricsSchema = gojsonschema.NewStringLoader(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "cashFlow":     {"type": "number"},
    "debt":         {"type": "number"},
    "assets":       {"type": "number"},
    "gstCompliant": {"type": "boolean"},
    "receivables":  {"type": "number"},
    "revenue":      {"type": "number"},
    "debtRatio":    {"type": "number"}
  }
}`)

	cashFlowSchema = gojsonschema.NewStringLoader(`{
  "type": "array",
  "items": {
    "type": "object",
    "additionalProperties": false,
    "required": ["month", "inflow", "outflow"],
    "properties": {
      "month":   {"type": "string", "minLength": 1},
      "inflow":  {"type": "number"},
      "outflow": {"type": "number"}
    }
  }
}`)

	costSchema = gojsonschema.NewStringLoader(`{
  "type": "array",
  "items": {
    "type": "object",
    "additionalProperties": false,
    "required": ["name", "value"],
    "properties": {
      "name":  {"type": "string", "minLength": 1},
      "value": {"type": "number", "minimum": 0},
      "color": {"type": "string"}
    }
  }
}`)
)

func present(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

// decode validates raw against schema before unmarshalling into v.
func decode(name string, schema gojsonschema.JSONLoader, raw json.RawMessage, v any) error {
	res, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return domain.Invalid("%s: malformed JSON", name)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.Invalid("%s: %s", name, strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.Invalid("%s: %v", name, err)
	}
	return nil
}

// DecodeMetrics accepts a partial metrics object. Absent fields stay nil.
func DecodeMetrics(raw json.RawMessage) (credit.Metrics, error) {
	var m credit.Metrics
	if !present(raw) {
		return m, nil
	}
	err := decode("metrics", metricsSchema, raw, &m)
	return m, err
}

func DecodeCashFlow(raw json.RawMessage) ([]domain.CashFlowPoint, error) {
	if !present(raw) {
		return nil, nil
	}
	var out []domain.CashFlowPoint
	err := decode("cashFlowData", cashFlowSchema, raw, &out)
	return out, err
}

func DecodeCostData(raw json.RawMessage) ([]domain.CostSlice, error) {
	if !present(raw) {
		return nil, nil
	}
	var out []domain.CostSlice
	err := decode("costData", costSchema, raw, &out)
	return out, err
}
