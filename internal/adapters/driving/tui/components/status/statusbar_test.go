package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/drivequery/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/drivequery/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateRunning, bar.State())
	assert.Equal(t, "", bar.Message())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		state State
		want  string
		hint  string
	}{
		{StateRunning, "running", "cancel"},
		{StateCancelling, "cancelling", "cancel"},
		{StateDone, "done", "close"},
		{StateFailed, "failed", "close"},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetState(tt.state)
			bar.SetMessage("uploading report.pdf")
			bar.SetElapsed(3 * time.Second)

			view := bar.View()

			assert.Contains(t, view, tt.want)
			assert.Contains(t, view, tt.hint)
			assert.Contains(t, view, "uploading report.pdf")
			assert.Contains(t, view, "3s")
		})
	}
}

func TestBar_SetWidth_IgnoresNonPositive(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetWidth(0)
	assert.Equal(t, 80, bar.width)

	bar.SetWidth(120)
	assert.Equal(t, 120, bar.width)
}
