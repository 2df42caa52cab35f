package formatter

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable([]string{"PLOT", "DEBT"}, [][]string{
		{"12а", "4500.00"},
		{"7", "0.00"},
	}, AlignRight(1))

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	width := lipgloss.Width(lines[0])
	for _, l := range lines[1:] {
		assert.Equal(t, width, lipgloss.Width(l), l)
	}
	assert.True(t, strings.HasSuffix(lines[3], "   0.00"), lines[3])
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Empty(t, RenderTable(nil, nil))
	out := RenderTable([]string{"A"}, nil)
	assert.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), 2)
}

func TestMoney(t *testing.T) {
	assert.Contains(t, Money(decimal.RequireFromString("100.5"), false), "100.50")
	assert.Contains(t, Money(decimal.RequireFromString("-3"), true), "-3.00")
}
