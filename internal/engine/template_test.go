package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillTemplate(t *testing.T) {
	tests := []struct {
		name        string
		prompt      string
		data        map[string]string
		want        string
		wantMissing []string
	}{
		{
			name:   "all present",
			prompt: "Translate {{text}} to {{ lang }}",
			data:   map[string]string{"text": "hola", "lang": "English"},
			want:   "Translate hola to English",
		},
		{
			name:        "missing key",
			prompt:      "Hello {{name}}",
			data:        map[string]string{},
			wantMissing: []string{"name"},
		},
		{
			name:        "empty value counts as missing",
			prompt:      "{{a}} {{b}} {{a}}",
			data:        map[string]string{"b": ""},
			wantMissing: []string{"a", "b"},
		},
		{
			name:   "no tokens",
			prompt: "plain text with {single} braces",
			data:   nil,
			want:   "plain text with {single} braces",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, missing := FillTemplate(tt.prompt, tt.data)
			assert.Equal(t, tt.wantMissing, missing)
			if len(tt.wantMissing) == 0 {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTemplateKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, TemplateKeys("{{a}} and {{ b }} and {{a}}"))
	assert.Empty(t, TemplateKeys("nothing here"))
}
