package engine

import (
	"regexp"
	"strings"
)

var templateToken = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// FillTemplate replaces every {{key}} in prompt with data[key]. Keys whose
// value is absent or empty are returned in order of first appearance and
// the returned prompt must then not be used.
func FillTemplate(prompt string, data map[string]string) (string, []string) {
	var missing []string
	seen := make(map[string]bool)

	filled := templateToken.ReplaceAllStringFunc(prompt, func(tok string) string {
		key := strings.TrimSpace(tok[2 : len(tok)-2])
		if v := data[key]; v != "" {
			return v
		}
		if !seen[key] {
			seen[key] = true
			missing = append(missing, key)
		}
		return tok
	})
	return filled, missing
}

// TemplateKeys lists the distinct keys referenced by prompt.
func TemplateKeys(prompt string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range templateToken.FindAllStringSubmatch(prompt, -1) {
		key := strings.TrimSpace(m[1])
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}
