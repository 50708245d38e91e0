// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidHex = errors.New("Invalid hex string")

// Decodes a hexidecimal string in the formats: 0xFFF, xFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 || s[0] != '0' {
		return 0, ErrInvalidHex
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (uint16, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseUint(s, 10, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes either literal form, preferring hex when an x prefix is present
func DecodeLiteral(s string) (uint16, error) {
	if IsHex(s) {
		return DecodeHex(s)
	}

	return DecodeInt(s)
}

func IsHex(s string) bool {
	return strings.HasPrefix(s, "x") ||
		strings.HasPrefix(s, "X") ||
		strings.HasPrefix(s, "0x") ||
		strings.HasPrefix(s, "0X")
}

// Combines two bytes big-endian
func Word(hi, lo uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// Splits a word into its big-endian bytes
func Bytes(word uint16) (uint8, uint8) {
	return uint8(word >> 8), uint8(word)
}

func SwapEndian(value uint16) uint16 {
	return (value >> 8) | (value << 8)
}

// Hundreds, tens and ones digits of value
func BCD(value uint8) [3]uint8 {
	return [3]uint8{value / 100, (value / 10) % 10, value % 10}
}
