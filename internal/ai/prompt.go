package ai

import (
	"encoding/json"
	"strings"
)

// RenderPrompt replaces every {{KEY}} placeholder in template with its value.
func RenderPrompt(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// MustJSON renders v as indented JSON for embedding into prompts.
// Values that fail to marshal render as an empty object.
func MustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
