package financials

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWriter_Lines(t *testing.T) {
	day := at("2014-01-02")
	tests := []struct {
		name string
		kind string
		v    any
		want string
	}{
		{
			name: "cash entry without tag nor extra",
			kind: "cash",
			v:    CashEntry{ID: "c1", Time: day, Amount: D(-20)},
			want: `{"record":"cash","id":"c1","time":"2014-01-02T00:00:00Z","amount":-20}`,
		},
		{
			name: "cash entry with an empty extra",
			kind: "cash",
			v:    CashEntry{ID: "c2", Time: day, Amount: dec("12.5"), Tag: "Salary", Extra: Extra{}},
			want: `{"record":"cash","id":"c2","time":"2014-01-02T00:00:00Z","amount":12.5,"tag":"Salary"}`,
		},
		{
			name: "trade keeps its field order",
			kind: "trade",
			v: Trade{ID: "t1", Order: Order{Time: day, Symbol: "X", Mode: Sell, Quantity: D(4), Price: D(20),
				Tag: DefaultTradeTag, Extra: Extra{"broker": "ib", "account": "main"}}},
			want: `{"record":"trade","id":"t1","time":"2014-01-02T00:00:00Z","symbol":"X","mode":"SELL","quantity":4,"price":20,` +
				`"tag":"Trade","extra":{"account":"main","broker":"ib"}}`,
		},
		{
			name: "cancellation",
			kind: "cancel",
			v:    cancelRecord{ID: "f1"},
			want: `{"record":"cancel","id":"f1"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, appendRecord(&buf, tt.kind, tt.v))
			assert.Equal(t, tt.want+"\n", buf.String())
		})
	}
}

func TestRecordWriter_ErrorSticks(t *testing.T) {
	w := newRecordWriter("cash").Append("broken", func() {}).Append("id", "c1").Optional("tag", "Salary")
	_, err := w.MarshalJSON()
	assert.ErrorContains(t, err, `key "broken"`)

	var buf bytes.Buffer
	err = appendRecord(&buf, "trade", map[string]any{"price": make(chan int)})
	assert.ErrorContains(t, err, "failed to marshal trade record")
	assert.Zero(t, buf.Len(), "nothing is written on error")
}

func TestRecordWriter_Embed(t *testing.T) {
	var w jsonObjectWriter
	got, err := w.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))

	w.Append("n", 0).Embed([]byte(` {"due":"2014-01-02"} `)).Embed([]byte(`{}`)).Optional("tag", "").Optional("extra", Extra(nil))
	got, err = w.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"n":0,"due":"2014-01-02"}`, string(got))
}
