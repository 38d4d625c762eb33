// Package tight implements the big-integer variant of Base45.
//
// The whole input is read as one unsigned big-endian integer and written
// in base 45, most significant digit first. Leading zero bytes carry no
// magnitude, so each one is written as a leading '0' symbol. The output is
// usually shorter than the chunked encoding but its length depends on the
// value, not only on the input length.
//
// As with the chunked codec, a nil slice is the empty buffer and never
// produces an error.
package tight

import (
	"math/big"

	"github.com/paraglidehq/base45/internal/alphabet"
)

var (
	// ErrInvalidCharacter is returned when decoding input that contains a
	// byte outside the Base45 alphabet.
	ErrInvalidCharacter = alphabet.ErrInvalidCharacter
)

var radix = big.NewInt(alphabet.Size)

// Encode returns the tight Base45 encoding of src. Encoding never fails.
func Encode(src []byte) []byte {
	return AppendEncode(nil, src)
}

// EncodeToString returns the tight Base45 encoding of src as a string.
func EncodeToString(src []byte) string {
	return string(Encode(src))
}

// AppendEncode appends the tight Base45 encoding of src to dst and returns
// the extended buffer.
func AppendEncode(dst, src []byte) []byte {
	zeros, rest := alphabet.LeadingZeros(src, 0)
	if dst == nil {
		// log45(256) < 1.46, so 3/2 symbols per byte always suffices.
		dst = make([]byte, 0, zeros+len(rest)*3/2+1)
	}
	start := len(dst)

	v := new(big.Int).SetBytes(rest)
	mod := new(big.Int)
	for v.Sign() > 0 {
		v.DivMod(v, radix, mod)
		dst = append(dst, alphabet.Encode[mod.Int64()])
	}
	for i := 0; i < zeros; i++ {
		dst = append(dst, alphabet.Zero)
	}

	for i, j := start, len(dst)-1; i < j; i, j = i+1, j-1 {
		dst[i], dst[j] = dst[j], dst[i]
	}
	return dst
}

// Decode returns the bytes represented by the tight Base45 symbols in src.
func Decode(src []byte) ([]byte, error) {
	v := new(big.Int)
	d := new(big.Int)
	for i, c := range src {
		x := alphabet.Decode[c]
		if x < 0 {
			return nil, alphabet.InvalidCharacter(c, i)
		}
		v.Mul(v, radix)
		v.Add(v, d.SetInt64(int64(x)))
	}

	// Every leading '0' stands for one zero byte; when the value itself is
	// zero the run covers the whole input.
	zeros, _ := alphabet.LeadingZeros(src, alphabet.Zero)
	rest := v.Bytes()
	out := make([]byte, zeros+len(rest))
	copy(out[zeros:], rest)
	return out, nil
}

// DecodeString returns the bytes represented by the tight Base45 string s.
func DecodeString(s string) ([]byte, error) {
	return Decode([]byte(s))
}
