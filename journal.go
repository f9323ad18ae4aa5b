package financials

import (
	"bytes"
	"fmt"
	"io"
)

// JSONLJournal appends records to a writer in the JSONL record format.
// Each call issues a single Write, so a trade and its cash effect land together.
type JSONLJournal struct {
	w io.Writer
}

// NewJSONLJournal returns a journal appending to w.
func NewJSONLJournal(w io.Writer) *JSONLJournal { return &JSONLJournal{w: w} }

func (j *JSONLJournal) write(buf *bytes.Buffer) error {
	if _, err := j.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// RecordCash appends a cash line.
func (j *JSONLJournal) RecordCash(e CashEntry) error {
	var buf bytes.Buffer
	if err := appendRecord(&buf, CashRecord, e); err != nil {
		return err
	}
	return j.write(&buf)
}

// RecordTrade appends a trade line followed by its cash line.
func (j *JSONLJournal) RecordTrade(t Trade, e CashEntry) error {
	var buf bytes.Buffer
	if err := appendRecord(&buf, TradeRecord, t); err != nil {
		return err
	}
	if err := appendRecord(&buf, CashRecord, e); err != nil {
		return err
	}
	return j.write(&buf)
}

// RecordFund appends a pending fund line.
func (j *JSONLJournal) RecordFund(f PendingFund) error {
	var buf bytes.Buffer
	if err := appendRecord(&buf, FundRecord, f); err != nil {
		return err
	}
	return j.write(&buf)
}

// CancelFund appends a line closing a pending fund.
func (j *JSONLJournal) CancelFund(fundID string) error {
	var buf bytes.Buffer
	if err := appendRecord(&buf, CancelRecord, cancelRecord{ID: fundID}); err != nil {
		return err
	}
	return j.write(&buf)
}

// Close closes the underlying writer if it is an io.Closer.
func (j *JSONLJournal) Close() error {
	if c, ok := j.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var (
	_ Journal     = (*JSONLJournal)(nil)
	_ FundJournal = (*JSONLJournal)(nil)
)
