package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestDefaultStyles_Render(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Success.Render("✓ Collect files"), "Collect files")
	assert.Contains(t, s.Border.Render("body"), "body")
}
