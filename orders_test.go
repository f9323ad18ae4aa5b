package financials

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopLoss(t *testing.T) {
	orders := []Order{
		{Symbol: "A", Price: D(1), Mode: Buy, Tag: "W"},
		{Symbol: "B", Price: D(2), Mode: Sell, Tag: "X"},
		{Symbol: "C", Price: D(3), Mode: Buy, Tag: "Y"},
		{Symbol: "D", Price: D(4), Mode: Sell, Tag: "Z"},
	}
	stops := StopLoss(orders, D(1))
	require.Len(t, stops, 4)

	want := []struct {
		mode  Mode
		price string
	}{
		{Sell, "0.99"}, {Buy, "2.02"}, {Sell, "2.97"}, {Buy, "4.04"},
	}
	for i, w := range want {
		assert.Equal(t, w.mode, stops[i].Mode)
		assertDec(t, w.price, stops[i].Price)
		assert.Equal(t, orders[i].Symbol, stops[i].Symbol)
		assert.Equal(t, orders[i].Tag, stops[i].Tag)
	}
	// inputs are not modified.
	assert.Equal(t, Buy, orders[0].Mode)
}

func TestStopLossEach(t *testing.T) {
	orders := []Order{buy("A", 1, 100), sell("B", 1, 100)}
	stops, err := StopLossEach(orders, []decimal.Decimal{D(5), D(10)})
	require.NoError(t, err)
	assertDec(t, "95", stops[0].Price)
	assertDec(t, "110", stops[1].Price)

	_, err = StopLossEach(orders, []decimal.Decimal{D(5)})
	assert.Error(t, err)
}
