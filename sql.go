package base45

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"encoding/json"
)

var (
	_ driver.Valuer            = NullData{}
	_ sql.Scanner              = (*NullData)(nil)
	_ json.Marshaler           = NullData{}
	_ json.Unmarshaler         = (*NullData)(nil)
	_ encoding.TextMarshaler   = NullData{}
	_ encoding.TextUnmarshaler = (*NullData)(nil)
)

// NullData is a Data that may be SQL NULL or JSON null. Valid is false for
// the null state and after a failed decode.
type NullData struct {
	Data  Data
	Valid bool
}

// set stores the outcome of decoding into n.Data.
func (n *NullData) set(err error) error {
	n.Valid = err == nil
	if !n.Valid {
		n.Data = nil
	}
	return err
}

func (n *NullData) clear() {
	n.Data, n.Valid = nil, false
}

// Value stores NULL or the Base45 text of n.Data.
func (n NullData) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Data.Value()
}

// Scan reads NULL or a Base45 text column.
func (n *NullData) Scan(src interface{}) error {
	if src == nil {
		n.clear()
		return nil
	}
	return n.set(n.Data.Scan(src))
}

func (n NullData) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return n.Data.MarshalJSON()
}

func (n *NullData) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		n.clear()
		return nil
	}
	return n.set(n.Data.UnmarshalJSON(b))
}

// MarshalText returns no text for the null state.
func (n NullData) MarshalText() ([]byte, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Data.MarshalText()
}

// UnmarshalText treats empty text as null, so an empty payload cannot be
// told apart from a missing one in text form.
func (n *NullData) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		n.clear()
		return nil
	}
	return n.set(n.Data.UnmarshalText(b))
}
