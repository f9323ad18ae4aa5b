package financials

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// this file contains the JSONL record format: one JSON object per line, whose
// "record" field tells what the line holds. It should remain human readable
// and easy to merge.

// Record kinds.
const (
	CashRecord   = "cash"
	TradeRecord  = "trade"
	FundRecord   = "fund"
	CancelRecord = "cancel"
)

// Records is the decoded content of a record stream.
type Records struct {
	Cash   []CashEntry   // in stream order
	Trades []Trade       // in stream order
	Funds  []PendingFund // scheduled and not cancelled
}

func (f PendingFund) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", f.ID)
	w.Append("due", f.Due)
	w.Append("amount", f.Amount)
	w.Optional("tag", f.Tag)
	w.Optional("extra", f.Extra)
	return w.MarshalJSON()
}

func (f *PendingFund) UnmarshalJSON(data []byte) error {
	var v struct {
		ID     string          `json:"id"`
		Due    time.Time       `json:"due"`
		Amount decimal.Decimal `json:"amount"`
		Tag    string          `json:"tag"`
		Extra  Extra           `json:"extra"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = PendingFund{ID: v.ID, Due: v.Due, Amount: v.Amount, Tag: v.Tag, Extra: v.Extra}
	return nil
}

// appendRecord appends the JSON line of a record to buf.
func appendRecord(buf *bytes.Buffer, kind string, v any) error {
	line, err := newRecordWriter(kind).EmbedFrom(v).MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", kind, err)
	}
	buf.Write(line)
	buf.WriteByte('\n')
	return nil
}

// cancelRecord closes a pending fund.
type cancelRecord struct {
	ID string `json:"id"`
}

// EncodePortfolio writes every record of p: cash entries and trades in the
// order they were created, then the pending funds.
func EncodePortfolio(w io.Writer, p *Portfolio) error {
	var buf bytes.Buffer
	trades := make(map[string]Trade, len(p.trades))
	for _, t := range p.trades {
		trades[t.ID] = t
	}
	for _, e := range p.cash.entries {
		// a trade line comes right before its cash effect.
		if t, ok := trades[e.Extra[TradeKey]]; ok {
			if err := appendRecord(&buf, TradeRecord, t); err != nil {
				return err
			}
			delete(trades, t.ID)
		}
		if err := appendRecord(&buf, CashRecord, e); err != nil {
			return err
		}
	}
	// trades whose cash effect is not in the ledger anymore.
	for _, t := range p.trades {
		if _, ok := trades[t.ID]; ok {
			if err := appendRecord(&buf, TradeRecord, t); err != nil {
				return err
			}
		}
	}
	for _, f := range p.cash.pending {
		if err := appendRecord(&buf, FundRecord, f); err != nil {
			return err
		}
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

// DecodeRecords reads a JSONL record stream.
func DecodeRecords(r io.Reader) (Records, error) {
	var recs Records
	cancelled := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue // Skip empty lines
		}
		var identifier struct {
			Record string `json:"record"`
		}
		if err := json.Unmarshal(line, &identifier); err != nil {
			return recs, fmt.Errorf("could not identify record in line %d %q: %w", lineNo, string(line), err)
		}

		var err error
		switch identifier.Record {
		case CashRecord:
			var e CashEntry
			err = json.Unmarshal(line, &e)
			recs.Cash = append(recs.Cash, e)
		case TradeRecord:
			var t Trade
			err = json.Unmarshal(line, &t)
			recs.Trades = append(recs.Trades, t)
		case FundRecord:
			var f PendingFund
			err = json.Unmarshal(line, &f)
			recs.Funds = append(recs.Funds, f)
		case CancelRecord:
			var c cancelRecord
			err = json.Unmarshal(line, &c)
			cancelled[c.ID] = true
		default:
			err = fmt.Errorf("unknown record %q", identifier.Record)
		}
		if err != nil {
			return recs, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return recs, fmt.Errorf("failed to read records: %w", err)
	}

	open := recs.Funds[:0]
	for _, f := range recs.Funds {
		if !cancelled[f.ID] {
			open = append(open, f)
		}
	}
	recs.Funds = open
	return recs, nil
}

// Portfolio rebuilds the portfolio described by the records.
func (recs Records) Portfolio(opts ...Option) *Portfolio {
	return RestorePortfolio(recs.Cash, recs.Funds, recs.Trades, opts...)
}
