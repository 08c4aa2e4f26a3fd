package actions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/omnibot/pkg/domain"
)

var placeholder = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Render substitutes every {{name}} placeholder with its raw value.
// Names are trimmed, so {{ cpf }} and {{cpf}} are equivalent.
// Missing variables are reported together in a *domain.TemplateError.
func Render(template string, vars map[string]string) (string, error) {
	return render(template, vars, func(v string) string { return v })
}

// RenderBody renders a request body template. When the template is JSON with
// quoted placeholders, values are escaped as JSON string content so customer
// text cannot break the document. Other templates are rendered raw.
func RenderBody(template string, vars map[string]string) (string, error) {
	if ValidateJSONTemplate(template) != nil {
		return Render(template, vars)
	}
	return render(template, vars, escapeJSONString)
}

func escapeJSONString(v string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return v
	}
	out := bytes.TrimSpace(buf.Bytes())
	return string(out[1 : len(out)-1])
}

func render(template string, vars map[string]string, encode func(string) string) (string, error) {
	var missing []string
	seen := make(map[string]bool)

	out := placeholder.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		val, ok := vars[name]
		if !ok {
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
			return match
		}
		return encode(val)
	})

	if len(missing) > 0 {
		return "", &domain.TemplateError{Missing: missing}
	}
	return out, nil
}

// ExtractVariables lists the distinct placeholder names of a template, sorted.
func ExtractVariables(template string) []string {
	set := make(map[string]struct{})
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		set[strings.TrimSpace(m[1])] = struct{}{}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ValidateJSONTemplate checks that the template is valid JSON once every
// placeholder is replaced by a sample value. Placeholders are expected inside
// quotes, as in {"cpf": "{{cpf}}"}, so the sample is substituted bare.
func ValidateJSONTemplate(template string) error {
	sample := placeholder.ReplaceAllString(template, "test_value")
	var v any
	if err := json.Unmarshal([]byte(sample), &v); err != nil {
		return fmt.Errorf("template is not valid JSON: %w", err)
	}
	return nil
}
