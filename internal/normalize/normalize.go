// Package normalize turns raw card records from any ingestion path (API JSON
// or scraped page) into the canonical entities.Card schema.
//
// Normalization is a total function: it never fails. Sub-fields that cannot
// be decoded into their structured shape keep their original text instead of
// aborting the record. Validation of required fields is a separate, explicit
// step so that the scrape path can skip it.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wnghdcjfe/card/internal/entities"
)

// ValidationError reports a required field missing from a raw record.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field missing: %s", e.Field)
}

// requiredFields must be present before a record may enter the strict
// ingestion paths (ranked and paginated modes).
var requiredFields = []string{"card_idx", "name", "ranking"}

// Validate checks the raw record for the required fields. The scrape path
// tolerates missing ranking/score and does not call this.
func Validate(raw map[string]any) error {
	for _, field := range requiredFields {
		v, ok := raw[field]
		if !ok || v == nil {
			// card_idx sometimes arrives under its legacy key.
			if field == "card_idx" {
				if alt, altOK := raw["idx"]; altOK && alt != nil {
					continue
				}
			}
			return &ValidationError{Field: field}
		}
	}
	return nil
}

// ParseField decodes a JSON-encoded string into its structured value.
// Decoding is best-effort: on failure the original string is returned
// unchanged. Non-string values pass through as-is.
func ParseField(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return s
	}
	// A bare number or bool round-trips through json.Unmarshal; only treat
	// composite shapes as a successful structured decode.
	switch decoded.(type) {
	case []any, map[string]any:
		return decoded
	default:
		return s
	}
}

// ToStringSlice coerces any value into a slice of strings. nil becomes an
// empty slice, a JSON-array string becomes its stringified elements, a plain
// string becomes a singleton, a slice is stringified element-wise and any
// other scalar becomes a singleton of its string form.
//
// The function is idempotent: applying it to its own output is a no-op.
func ToStringSlice(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(val), &decoded); err == nil {
			if arr, ok := decoded.([]any); ok {
				return stringifyAll(arr)
			}
		}
		return []string{val}
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []any:
		return stringifyAll(val)
	default:
		return []string{stringify(val)}
	}
}

func stringifyAll(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, stringify(v))
	}
	return out
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Card normalizes a raw record into the canonical schema. Every optional
// field ends up with a defined value; nothing here can fail.
func Card(raw map[string]any) entities.Card {
	return entities.Card{
		CardIdx:        asInt(firstOf(raw, "card_idx", "idx")),
		Name:           asString(firstOf(raw, "name", "no_cmt")),
		Brand:          brandRefs(raw["brand"]),
		TopBenefit:     benefitRefs(raw["top_benefit"]),
		AnnualFeeBasic: asString(raw["annual_fee_basic"]),
		Score:          asFloat(raw["score"]),
		CardImg:        asString(raw["card_img"]),
		EventTitle:     asString(raw["event_title"]),
		Ranking:        asInt(raw["ranking"]),
		Compared:       asInt(raw["compared"]),
		IsVisible:      asInt(raw["is_visible"]),
		PrViewMode:     asInt(raw["pr_view_mode"]),
		Corp:           corpRef(raw["corp"]),
		DetailSections: detailSections(raw["detail_sections"]),
	}
}

// brandRefs resolves the brand field to an ordered list of BrandRef. A value
// that fails structured decode keeps its text in the Name slot of a singleton
// entry so nothing is lost to a strict schema.
func brandRefs(v any) []entities.BrandRef {
	parsed := ParseField(v)
	switch val := parsed.(type) {
	case nil:
		return []entities.BrandRef{}
	case []entities.BrandRef:
		return val
	case []any:
		out := make([]entities.BrandRef, 0, len(val))
		for _, item := range val {
			var ref entities.BrandRef
			if !decodeInto(item, &ref) {
				ref = entities.BrandRef{Name: stringify(item)}
			}
			out = append(out, ref)
		}
		return out
	case string:
		if strings.TrimSpace(val) == "" {
			return []entities.BrandRef{}
		}
		return []entities.BrandRef{{Name: val}}
	case map[string]any:
		var ref entities.BrandRef
		if decodeInto(val, &ref) {
			return []entities.BrandRef{ref}
		}
		return []entities.BrandRef{}
	default:
		return []entities.BrandRef{}
	}
}

func benefitRefs(v any) []entities.BenefitRef {
	parsed := ParseField(v)
	switch val := parsed.(type) {
	case nil:
		return []entities.BenefitRef{}
	case []entities.BenefitRef:
		return val
	case []any:
		out := make([]entities.BenefitRef, 0, len(val))
		for _, item := range val {
			var ref entities.BenefitRef
			if !decodeInto(item, &ref) {
				ref = entities.BenefitRef{Title: stringify(item)}
			}
			if ref.Tags == nil {
				ref.Tags = []string{}
			}
			out = append(out, ref)
		}
		return out
	case string:
		if strings.TrimSpace(val) == "" {
			return []entities.BenefitRef{}
		}
		return []entities.BenefitRef{{Title: val, Tags: []string{}}}
	case map[string]any:
		var ref entities.BenefitRef
		if decodeInto(val, &ref) {
			if ref.Tags == nil {
				ref.Tags = []string{}
			}
			return []entities.BenefitRef{ref}
		}
		return []entities.BenefitRef{}
	default:
		return []entities.BenefitRef{}
	}
}

// corpRef resolves the corp block. Its two image-list sub-fields are always
// forced through ToStringSlice regardless of their original shape.
func corpRef(v any) entities.CorpRef {
	parsed := ParseField(v)
	switch val := parsed.(type) {
	case map[string]any:
		var ref entities.CorpRef
		decodeInto(val, &ref)
		ref.PrDetailImg = ToStringSlice(val["pr_detail_img"])
		ref.PrDetailImgChk = ToStringSlice(val["pr_detail_img_chk"])
		return ref
	case string:
		return entities.CorpRef{
			Name:           val,
			PrDetailImg:    []string{},
			PrDetailImgChk: []string{},
		}
	default:
		return entities.CorpRef{
			PrDetailImg:    []string{},
			PrDetailImgChk: []string{},
		}
	}
}

func detailSections(v any) []entities.DetailSection {
	switch val := v.(type) {
	case nil:
		return nil
	case []entities.DetailSection:
		return val
	case []any:
		out := make([]entities.DetailSection, 0, len(val))
		for _, item := range val {
			var section entities.DetailSection
			if decodeInto(item, &section) {
				out = append(out, section)
			}
		}
		return out
	default:
		return nil
	}
}

// decodeInto re-marshals a loosely typed JSON value into the target struct.
// Returns false when the value is not an object-like shape. Structs from the
// scrape path re-marshal cleanly too, so both paths share this.
func decodeInto(v any, target any) bool {
	data, err := json.Marshal(v)
	if err != nil || len(data) == 0 || data[0] != '{' {
		return false
	}
	return json.Unmarshal(data, target) == nil
}

func firstOf(raw map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return stringify(val)
	}
}

func asInt(v any) int {
	switch val := v.(type) {
	case nil:
		return 0
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case json.Number:
		n, _ := val.Int64()
		return int(n)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return n
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, _ := val.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
