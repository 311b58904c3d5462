package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorSchemes(t *testing.T) {
	for name, scheme := range map[string]*ColorScheme{
		"default": DefaultColorScheme(),
		"none":    NoColorScheme(),
		"forced":  ForcedColorScheme(),
	} {
		t.Run(name, func(t *testing.T) {
			for _, c := range scheme.all() {
				assert.NotNil(t, c)
			}
		})
	}
}

func TestNoColorScheme_PlainText(t *testing.T) {
	scheme := NoColorScheme()
	assert.Equal(t, "value", scheme.Value.Sprint("value"))
	assert.Equal(t, "boom", scheme.Error.Sprint("boom"))
}

func TestForcedColorScheme_EscapeCodes(t *testing.T) {
	scheme := ForcedColorScheme()
	out := scheme.Error.Sprint("boom")
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "boom")
}

func TestIcons(t *testing.T) {
	assert.Equal(t, "✓", SuccessIcon(true))
	assert.Equal(t, "✗", ErrorIcon(true))
	assert.Contains(t, SuccessIcon(false), "✓")
	assert.Contains(t, ErrorIcon(false), "✗")
}
