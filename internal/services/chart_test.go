package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/internal/core"
)

func TestRenderRevenueChart(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		_, err := RenderRevenueChart(nil)
		assert.ErrorIs(t, err, ErrNoRevenue)
	})

	t.Run("renders png", func(t *testing.T) {
		png, err := RenderRevenueChart([]core.MonthRevenue{
			{Month: "Jan", Revenue: core.Money{Cents: 125000}},
			{Month: "Apr", Revenue: core.Money{Cents: 98050}},
		})
		require.NoError(t, err)
		assert.True(t, len(png) > 8)
		assert.Equal(t, []byte("\x89PNG"), png[:4])
	})
}
