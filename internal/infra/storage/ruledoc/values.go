package ruledoc

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"rentalspot/internal/domain/shared/daterange"
)

// Amount is a decimal written as a string. Reads also accept numeric BSON and JSON values
// so documents edited by hand keep working.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

func AmountOf(d decimal.Decimal) Amount {
	return Amount{Value: d, Valid: true}
}

func (a Amount) IsZero() bool { return !a.Valid }

func (a Amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !a.Valid {
		return bson.MarshalValue(nil)
	}
	return bson.MarshalValue(a.Value.String())
}

func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*a = Amount{}
		return nil
	case bsontype.String:
		return a.parse(raw.StringValue())
	case bsontype.Double:
		*a = AmountOf(decimal.NewFromFloat(raw.Double()))
	case bsontype.Int32:
		*a = AmountOf(decimal.NewFromInt(int64(raw.Int32())))
	case bsontype.Int64:
		*a = AmountOf(decimal.NewFromInt(raw.Int64()))
	case bsontype.Decimal128:
		return a.parse(raw.Decimal128().String())
	default:
		return fmt.Errorf("ruledoc: cannot decode %s into amount", t)
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return a.Value.MarshalJSON()
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Amount{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*a = AmountOf(d)
	return nil
}

func (a *Amount) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*a = Amount{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("ruledoc: invalid amount %q: %w", s, err)
	}
	*a = AmountOf(d)
	return nil
}

// Day is a calendar date written as YYYY-MM-DD. BSON dates are accepted on read.
type Day struct {
	time.Time
}

func DayOf(t time.Time) Day {
	return Day{Time: daterange.Day(t)}
}

func (d Day) IsZero() bool { return d.Time.IsZero() }

func (d Day) String() string {
	if d.Time.IsZero() {
		return ""
	}
	return daterange.FormatDate(d.Time)
}

func (d Day) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if d.Time.IsZero() {
		return bson.MarshalValue(nil)
	}
	return bson.MarshalValue(d.String())
}

func (d *Day) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*d = Day{}
		return nil
	case bsontype.String:
		return d.parse(raw.StringValue())
	case bsontype.DateTime:
		*d = DayOf(raw.Time().UTC())
		return nil
	default:
		return fmt.Errorf("ruledoc: cannot decode %s into date", t)
	}
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Day) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*d = Day{}
		return nil
	}
	return d.parse(strings.Trim(s, `"`))
}

func (d *Day) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Day{}
		return nil
	}
	// Full timestamps are truncated to their UTC day.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = DayOf(t.UTC())
		return nil
	}
	t, err := daterange.ParseDate(s)
	if err != nil {
		return err
	}
	*d = DayOf(t)
	return nil
}
