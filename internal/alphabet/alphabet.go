// Package alphabet holds the 45-symbol Base45 alphabet shared by the
// chunked and tight codecs.
package alphabet

import (
	"errors"
	"fmt"
)

// Size is the number of symbols in the alphabet.
const Size = 45

// Zero is the symbol for digit value 0.
const Zero = '0'

// Encode maps a digit value to its symbol.
var Encode = [Size]byte{
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
	'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J',
	'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T',
	'U', 'V', 'W', 'X', 'Y', 'Z', ' ', '$', '%', '*',
	'+', '-', '.', '/', ':',
}

// Decode maps a byte to its digit value, or -1 if the byte is not a symbol.
var Decode [256]int8

func init() {
	for i := range Decode {
		Decode[i] = -1
	}
	for i, c := range Encode {
		Decode[c] = int8(i)
	}
}

var (
	ErrInvalidCharacter = errors.New("base45: invalid character")
	ErrInvalidLength    = errors.New("base45: invalid length")
	ErrInvalidGroup     = errors.New("base45: group value out of range")
	ErrNullInput        = errors.New("base45: null input")
)

// InvalidCharacter reports c at offset as not being part of the alphabet.
func InvalidCharacter(c byte, offset int) error {
	return fmt.Errorf("%w %q at offset %d", ErrInvalidCharacter, c, offset)
}

// LeadingZeros returns how many leading elements of src equal zero and the
// remainder of src after them.
func LeadingZeros(src []byte, zero byte) (int, []byte) {
	n := 0
	for n < len(src) && src[n] == zero {
		n++
	}
	return n, src[n:]
}
