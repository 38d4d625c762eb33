package base45

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paraglidehq/base45/tight"
)

// Compile-time interface checks for Data
var (
	_ fmt.Stringer             = Data(nil)
	_ driver.Valuer            = Data(nil)
	_ sql.Scanner              = (*Data)(nil)
	_ encoding.TextMarshaler   = Data(nil)
	_ encoding.TextUnmarshaler = (*Data)(nil)
	_ json.Marshaler           = Data(nil)
	_ json.Unmarshaler         = (*Data)(nil)
)

// Format names a Base45 scheme for the text form of Data.
type Format string

const (
	FormatChunked Format = "chunked"
	FormatTight   Format = "tight"
)

// DefaultFormat selects the text form used by String, MarshalText,
// MarshalJSON, Value and the matching decoders.
var DefaultFormat = FormatChunked

// strictEncoding decodes external text for Data.
var strictEncoding = StdEncoding.Strict()

// Data is a byte payload whose text form is Base45.
type Data []byte

// String returns d encoded in DefaultFormat.
func (d Data) String() string {
	return d.Format(DefaultFormat)
}

// Format returns d encoded with scheme f. Unknown formats use chunked.
func (d Data) Format(f Format) string {
	switch f {
	case FormatTight:
		return tight.EncodeToString(d)
	default:
		return StdEncoding.EncodeToString(d)
	}
}

// MarshalText implements encoding.TextMarshaler
func (d Data) MarshalText() ([]byte, error) {
	if DefaultFormat == FormatTight {
		return tight.Encode(d), nil
	}
	return StdEncoding.Encode(d), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Data) UnmarshalText(b []byte) error {
	if d == nil {
		return ErrNullInput
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON implements json.Marshaler. The alphabet needs no escaping.
func (d Data) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Data) UnmarshalJSON(b []byte) error {
	if d == nil {
		return ErrNullInput
	}
	if string(b) == "null" {
		*d = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("base45: invalid JSON string")
	}
	return d.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer, storing the Base45 text.
func (d Data) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for Base45 text columns.
func (d *Data) Scan(src interface{}) error {
	if d == nil {
		return ErrNullInput
	}
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case Data:
		*d = append(Data(nil), v...)
		return nil
	case []byte:
		return d.UnmarshalText(v)
	case string:
		return d.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("base45: cannot scan %T", src)
	}
}

// Parse decodes s using DefaultFormat.
func Parse(s string) (Data, error) {
	if DefaultFormat == FormatTight {
		return ParseTight(s)
	}
	return ParseChunked(s)
}

// ParseChunked decodes chunked Base45, rejecting out-of-range groups.
func ParseChunked(s string) (Data, error) {
	b, err := strictEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return Data(b), nil
}

// ParseTight decodes tight Base45.
func ParseTight(s string) (Data, error) {
	b, err := tight.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return Data(b), nil
}

// Must panics if err is not nil
func Must(d Data, err error) Data {
	if err != nil {
		panic(err)
	}
	return d
}
