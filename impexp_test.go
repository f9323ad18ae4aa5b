package financials

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportOrders(t *testing.T) {
	input := `Ticker,Qty,Price,Side,Date,Broker
X,10,15,BUY,2014-01-02,ib
Y,-8,10.5,s,2014-01-03 10:30,
`
	orders, err := ImportOrders(strings.NewReader(input), map[string]string{
		"Ticker": "symbol",
		"Qty":    "quantity",
		"Side":   "mode",
		"Date":   "time",
	})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "X", orders[0].Symbol)
	assertDec(t, "10", orders[0].Quantity)
	assertDec(t, "15", orders[0].Price)
	assert.Equal(t, Buy, orders[0].Mode)
	assert.Equal(t, 2014, orders[0].Time.Year())
	assert.Equal(t, Extra{"Broker": "ib"}, orders[0].Extra)

	assert.Equal(t, Sell, orders[1].Mode)
	assertDec(t, "8", orders[1].Quantity)
	assertDec(t, "10.5", orders[1].Price)
	assert.Equal(t, 10, orders[1].Time.Hour())
	assert.Nil(t, orders[1].Extra)
}

func TestImportOrders_Errors(t *testing.T) {
	_, err := ImportOrders(strings.NewReader("symbol,price,mode\nX,1,BUY\n"), nil)
	assert.ErrorContains(t, err, "quantity")

	_, err = ImportOrders(strings.NewReader("symbol,quantity,price,mode\nX,1,1,BUY\nY,x,1,BUY\n"), nil)
	assert.ErrorContains(t, err, "line 3")

	_, err = ImportOrders(strings.NewReader("symbol,quantity,price,mode\nX,ten,1,BUY\n"), nil)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "quantity", perr.Field)
	assert.Equal(t, "ten", perr.Input)

	orders, err := ImportOrders(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestExportTrades(t *testing.T) {
	p := NewPortfolio(Movement{Amount: D(1000)})
	o := buy("X", 10, 15)
	o.Time = at("2014-01-02")
	o.Extra = Extra{"broker": "ib"}
	_, err := p.AddTrade(o)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportTrades(&buf, p.Trades()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,time,symbol,mode,quantity,price,tag,broker", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",2014-01-02T00:00:00Z,X,BUY,10,15,Trade,ib"), lines[1])

	// exported trades can be read back as orders.
	orders, err := ImportOrders(strings.NewReader(buf.String()), nil)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, o.Symbol, orders[0].Symbol)
	assert.True(t, o.Time.Equal(orders[0].Time))
	assert.Equal(t, "ib", orders[0].Extra["broker"])
}

func TestImportOrders_UnknownModeIsRejectedByValidation(t *testing.T) {
	input := "symbol,quantity,price,mode\nX,10,15,BUY\nY,1,1,HOLD\nZ,1,1,SELL\n"
	orders, err := ImportOrders(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, Mode("HOLD"), orders[1].Mode)

	r := NewValidator(Policy{AllowShort: true}).Validate(orders, D(1000))
	assert.Len(t, r.Passed, 2)
	require.Len(t, r.Failed, 1)
	assert.Equal(t, 1, r.Failed[0].Index)
	assert.Equal(t, ReasonUnknownMode, r.Failed[0].Reason)
}
