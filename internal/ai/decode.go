// Package ai holds the oracle abstraction and the parsing contract for its output.
package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/spigell/ta-nexus/internal/failure"
)

var validate = validator.New()

// Normalizer is implemented by records that clean up decoded values, such as
// enum casing, before they are validated.
type Normalizer interface {
	Normalize()
}

// DecodeJSON parses raw oracle output into dst.
//
// dst must be a pointer to a struct already populated with defaults: fields
// missing from the response keep their default values. Scalars are weakly
// typed ("0.8" decodes into a float, "true" into a bool). After decoding a
// Normalizer gets to clean its fields and the struct is checked against its
// `validate` tags. Every failure is reported as
// failure.MalformedResponse.
func DecodeJSON(raw string, dst any) error {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return failure.Malformed("decode oracle response", errors.New("empty response"))
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return failure.Malformed("decode oracle response", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return failure.Malformed("decode oracle response", err)
	}

	if n, ok := dst.(Normalizer); ok {
		n.Normalize()
	}

	if err := validate.Struct(dst); err != nil {
		return failure.Malformed("validate oracle response", err)
	}

	return nil
}

// ExtractJSON strips markdown code fences and any prose surrounding the
// outermost JSON object.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") {
		return raw
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return raw
	}
	return raw[start : end+1]
}

// Enum trims and lowercases v. Values outside allowed become fallback.
func Enum(v, fallback string, allowed ...string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if slices.Contains(allowed, v) {
		return v
	}
	return fallback
}

// Clamp bounds v to [lo, hi]. NaN becomes lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// CleanList trims entries and drops empty ones.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
