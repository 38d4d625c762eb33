// Package base45 implements the Base45 encoding used for QR-code friendly
// payloads such as digital health certificates.
//
// Every two input bytes become three symbols from a 45-character alphabet
// (0-9, A-Z, space and $%*+-./:); a trailing odd byte becomes two symbols.
// The tight subpackage provides the big-integer variant of the scheme.
//
// A nil slice is the empty buffer: it encodes to no symbols and decodes to
// no bytes, never an error. ErrNullInput is reserved for unmarshalling into
// a nil *Data.
package base45

import (
	"fmt"

	"github.com/paraglidehq/base45/internal/alphabet"
)

var (
	// ErrInvalidCharacter is returned when decoding input that contains a
	// byte outside the Base45 alphabet.
	ErrInvalidCharacter = alphabet.ErrInvalidCharacter

	// ErrInvalidLength is returned when the input length leaves a single
	// trailing symbol, which no encoder produces.
	ErrInvalidLength = alphabet.ErrInvalidLength

	// ErrInvalidGroup is returned by strict encodings when a symbol group
	// decodes to a value wider than the bytes it stands for.
	ErrInvalidGroup = alphabet.ErrInvalidGroup

	// ErrNullInput is returned when unmarshalling into a nil *Data.
	ErrNullInput = alphabet.ErrNullInput
)

// An Encoding is a Base45 chunked encoding. Encodings are immutable and
// safe for concurrent use.
type Encoding struct {
	strict bool
}

// StdEncoding is the lenient encoding: groups whose value is out of range
// are truncated to the group's byte width when decoding.
var StdEncoding = &Encoding{}

// Strict returns an encoding identical to enc that rejects symbol groups
// whose value does not fit in the bytes they decode to (more than 65535
// for a triple, more than 255 for a trailing pair).
func (enc Encoding) Strict() *Encoding {
	enc.strict = true
	return &enc
}

// EncodedLen returns the length in symbols of the encoding of n bytes.
func (enc *Encoding) EncodedLen(n int) int {
	return n/2*3 + n%2*2
}

// DecodedLen returns the length in bytes of the decoding of n symbols.
// The result is meaningless if n%3 == 1.
func (enc *Encoding) DecodedLen(n int) int {
	return n/3*2 + n%3/2
}

// Encode returns the Base45 encoding of src.
func (enc *Encoding) Encode(src []byte) []byte {
	return enc.AppendEncode(make([]byte, 0, enc.EncodedLen(len(src))), src)
}

// EncodeToString returns the Base45 encoding of src as a string.
func (enc *Encoding) EncodeToString(src []byte) string {
	return string(enc.Encode(src))
}

// AppendEncode appends the Base45 encoding of src to dst and returns the
// extended buffer.
func (enc *Encoding) AppendEncode(dst, src []byte) []byte {
	n := len(dst)
	dst = grow(dst, enc.EncodedLen(len(src)))
	out := dst[n:]

	j := 0
	for i := 0; i+1 < len(src); i += 2 {
		v := uint(src[i])<<8 | uint(src[i+1])
		out[j] = alphabet.Encode[v%45]
		out[j+1] = alphabet.Encode[v/45%45]
		out[j+2] = alphabet.Encode[v/(45*45)]
		j += 3
	}
	if len(src)%2 == 1 {
		v := uint(src[len(src)-1])
		out[j] = alphabet.Encode[v%45]
		out[j+1] = alphabet.Encode[v/45]
	}
	return dst
}

// Decode returns the bytes represented by the Base45 symbols in src.
func (enc *Encoding) Decode(src []byte) ([]byte, error) {
	return enc.AppendDecode(nil, src)
}

// DecodeString returns the bytes represented by the Base45 string s. Each
// byte of s is one symbol; multi-byte UTF-8 sequences are never valid.
func (enc *Encoding) DecodeString(s string) ([]byte, error) {
	return enc.Decode([]byte(s))
}

// AppendDecode appends the decoding of src to dst and returns the extended
// buffer. On error dst is returned unchanged.
func (enc *Encoding) AppendDecode(dst, src []byte) ([]byte, error) {
	for i, c := range src {
		if alphabet.Decode[c] < 0 {
			return dst, alphabet.InvalidCharacter(c, i)
		}
	}
	if len(src)%3 == 1 {
		return dst, ErrInvalidLength
	}

	n := len(dst)
	out := grow(dst, enc.DecodedLen(len(src)))
	j := n
	i := 0
	for ; i+2 < len(src); i += 3 {
		v := uint(alphabet.Decode[src[i]]) +
			uint(alphabet.Decode[src[i+1]])*45 +
			uint(alphabet.Decode[src[i+2]])*45*45
		if enc.strict && v > 0xffff {
			return dst, groupError(src[i:i+3], i)
		}
		out[j] = byte(v >> 8)
		out[j+1] = byte(v)
		j += 2
	}
	if i < len(src) {
		v := uint(alphabet.Decode[src[i]]) + uint(alphabet.Decode[src[i+1]])*45
		if enc.strict && v > 0xff {
			return dst, groupError(src[i:], i)
		}
		out[j] = byte(v)
	}
	return out, nil
}

// grow extends b by n bytes, reallocating at most once.
func grow(b []byte, n int) []byte {
	if cap(b)-len(b) < n {
		nb := make([]byte, len(b), len(b)+n)
		copy(nb, b)
		b = nb
	}
	return b[:len(b)+n]
}

// Encode returns the Base45 encoding of src using StdEncoding.
func Encode(src []byte) []byte {
	return StdEncoding.Encode(src)
}

// EncodeToString returns the Base45 encoding of src as a string using
// StdEncoding.
func EncodeToString(src []byte) string {
	return StdEncoding.EncodeToString(src)
}

// Decode decodes src using StdEncoding.
func Decode(src []byte) ([]byte, error) {
	return StdEncoding.Decode(src)
}

// DecodeString decodes s using StdEncoding.
func DecodeString(s string) ([]byte, error) {
	return StdEncoding.DecodeString(s)
}

func groupError(group []byte, offset int) error {
	return fmt.Errorf("%w: %q at offset %d", ErrInvalidGroup, group, offset)
}
