package writer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		note bool
		want string
	}{
		{"plain", "Intro", 10, false, "Intro"},
		{"nul and controls", "a\x00b\x07c\x1b", 10, false, "abc"},
		{"newline stripped in names", "line1\nline2", 20, false, "line1line2"},
		{"newline kept in notes", "line1\nline2\tx", 20, true, "line1\nline2\tx"},
		{"c1 controls", "a\u0085b", 10, false, "ab"},
		{"nfc", "café", 10, false, "café"},
		{"cap counts characters", strings.Repeat("é", 8), 5, false, strings.Repeat("é", 5)},
		{"invalid utf8", "ok\xffok", 10, false, "okok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.note {
				assert.Equal(t, tt.want, SanitizeNote(tt.in, tt.max))
				return
			}
			assert.Equal(t, tt.want, SanitizeName(tt.in, tt.max))
		})
	}
}
