package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// check that LineItem and DayRecord are valid json marshall/unmarshaller types.
var (
	_ json.Marshaler   = LineItem{}
	_ json.Unmarshaler = (*LineItem)(nil)
	_ json.Marshaler   = DayRecord{}
	_ json.Unmarshaler = (*DayRecord)(nil)
)

// MarshalJSON writes the item as a [label, amount] pair.
func (li LineItem) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]any{li.Label, li.Amount}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON reads a [label, amount] pair.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("line item: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("line item: want [label, amount], got %d elements", len(pair))
	}
	var label string
	if err := json.Unmarshal(pair[0], &label); err != nil {
		return fmt.Errorf("line item label: %w", err)
	}
	var amount decimal.Decimal
	if err := amount.UnmarshalJSON(pair[1]); err != nil {
		return fmt.Errorf("line item amount: %w", err)
	}
	li.Label, li.Amount = label, amount
	return nil
}

// dayRecordJSON has the DayRecord fields without its methods.
type dayRecordJSON DayRecord

// MarshalJSON writes empty lists as [] rather than null.
func (r DayRecord) MarshalJSON() ([]byte, error) {
	out := dayRecordJSON(r.clone())
	return json.Marshal(out)
}

// UnmarshalJSON tolerates missing lists and totals.
func (r *DayRecord) UnmarshalJSON(data []byte) error {
	var in dayRecordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = DayRecord(in).clone()
	return nil
}

// DecodeLedger reads a ledger JSON object. Every key must be a valid DateKey.
func DecodeLedger(r io.Reader) (Ledger, error) {
	var raw map[string]DayRecord
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return Ledger{}, nil
		}
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	ledger := make(Ledger, len(raw))
	for key, rec := range raw {
		date, err := ParseDateKey(key)
		if err != nil {
			return nil, fmt.Errorf("decode ledger: %w", err)
		}
		ledger[date] = rec
	}
	return ledger, nil
}

// EncodeLedger writes the ledger as a JSON object indented with two spaces.
// Keys come out sorted, which is chronological order.
func EncodeLedger(w io.Writer, l Ledger) error {
	if l == nil {
		l = Ledger{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
