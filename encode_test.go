package financials

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingWriter counts the calls to Write.
type countingWriter struct {
	bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

func TestJSONLJournal_RecordTrade(t *testing.T) {
	var w countingWriter
	j := NewJSONLJournal(&w)
	p := NewPortfolio(Movement{Amount: D(1000)}, WithJournal(j))
	tr, err := p.AddTrade(buy("X", 10, 15))
	require.NoError(t, err)

	assert.Equal(t, 1, w.writes, "a trade and its cash effect are written together")
	lines := strings.Split(strings.TrimSpace(w.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"record":"trade"`)
	assert.Contains(t, lines[0], `"id":"`+tr.ID+`"`)
	assert.Contains(t, lines[0], `"quantity":10`)
	assert.Contains(t, lines[1], `"record":"cash"`)
	assert.Contains(t, lines[1], `"amount":-150`)
	assert.NoError(t, j.Close())
}

func TestJSONLJournal_Replay(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONLJournal(&buf)
	p := NewPortfolio(Movement{Amount: D(1000), Time: at("2025-01-01")}, WithJournal(j))
	opening, _ := p.Ledger().OpeningEntry()
	require.NoError(t, j.RecordCash(opening))

	_, err := p.AddFunds(Movement{Amount: D(500), Time: at("2025-01-02")})
	require.NoError(t, err)
	_, err = p.AddTrade(buy("X", 10, 15))
	require.NoError(t, err)
	_, err = p.AddTrade(sell("X", 4, 20))
	require.NoError(t, err)

	kept, err := p.Ledger().Schedule(Movement{Amount: D(300), Time: at("2025-06-01"), Tag: "Bonus"})
	require.NoError(t, err)
	dropped, err := p.Ledger().Schedule(Movement{Amount: D(-50), Time: at("2025-06-01")})
	require.NoError(t, err)
	require.NoError(t, p.Ledger().Cancel(dropped.ID))
	realized, err := p.Ledger().Schedule(Movement{Amount: D(7), Time: at("2025-03-01")})
	require.NoError(t, err)
	_, err = p.Ledger().Realize(realized.ID)
	require.NoError(t, err)

	recs, err := DecodeRecords(&buf)
	require.NoError(t, err)
	assert.Len(t, recs.Trades, 2)
	assert.Len(t, recs.Cash, 5)
	// the cancelled fund is gone, the realized one is dropped on restore.
	assert.Len(t, recs.Funds, 2)

	back := recs.Portfolio()
	assert.True(t, p.CashBalance().Equal(back.CashBalance()), "%s != %s", p.CashBalance(), back.CashBalance())
	assertDec(t, "1437", back.CashBalance())
	assertDec(t, "6", back.Position("X"))
	require.Len(t, back.Ledger().Pending(), 1)
	assert.Equal(t, kept.ID, back.Ledger().Pending()[0].ID)
	assertDec(t, "300", back.Ledger().PendingTotal())
}

func TestEncodePortfolio(t *testing.T) {
	p := tradedPortfolio(t)
	_, err := p.Ledger().Schedule(Movement{Amount: D(10), Tag: "Refund"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodePortfolio(&buf, p))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// opening, 5 trades with their cash lines, one fund.
	require.Len(t, lines, 12)
	assert.Contains(t, lines[0], `"record":"cash"`)
	assert.Contains(t, lines[1], `"record":"trade"`)
	assert.Contains(t, lines[2], `"record":"cash"`)
	assert.Contains(t, lines[11], `"record":"fund"`)

	recs, err := DecodeRecords(&buf)
	require.NoError(t, err)
	back := recs.Portfolio()
	assert.True(t, p.CashBalance().Equal(back.CashBalance()))
	assert.Equal(t, len(p.Trades()), len(back.Trades()))
	for i, tr := range p.Trades() {
		assert.Equal(t, tr.ID, back.Trades()[i].ID)
		assert.Equal(t, tr.Mode, back.Trades()[i].Mode)
		assert.True(t, tr.Quantity.Equal(back.Trades()[i].Quantity))
	}
	assert.Len(t, back.Ledger().Pending(), 1)
}

func TestDecodeRecords_Errors(t *testing.T) {
	_, err := DecodeRecords(strings.NewReader(`{"record":"cash","amount":1}` + "\nnot json\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = DecodeRecords(strings.NewReader(`{"record":"dividend"}`))
	assert.ErrorContains(t, err, "unknown record")

	recs, err := DecodeRecords(strings.NewReader("\n\n"))
	require.NoError(t, err)
	assert.Empty(t, recs.Cash)
}
