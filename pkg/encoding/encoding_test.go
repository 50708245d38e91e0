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
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDecodeLiteral(t *testing.T) {
	tests := []struct {
		input string
		want  uint16
		fail  bool
	}{
		{"0x2A", 0x2A, false},
		{"x2A", 0x2A, false},
		{"X2a", 0x2A, false},
		{"0xFFF", 0xFFF, false},
		{"#42", 42, false},
		{"42", 42, false},
		{"0", 0, false},
		{"#", 0, true},
		{"0xZZ", 0, true},
		{"-1", 0, true},
		{"0x10000", 0, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			have, err := DecodeLiteral(test.input)

			if test.fail {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, test.want, have)
		})
	}
}

func TestDecodeHexRejectsMisplacedPrefix(t *testing.T) {
	_, err := DecodeHex("1x2")
	assert.Equal(t, ErrInvalidHex, err)

	_, err = DecodeHex("12")
	assert.Equal(t, ErrInvalidHex, err)
}

func TestWord(t *testing.T) {
	assert.Equal(t, uint16(0x12AB), Word(0x12, 0xAB))

	hi, lo := Bytes(0xD125)
	assert.Equal(t, uint8(0xD1), hi)
	assert.Equal(t, uint8(0x25), lo)

	assert.Equal(t, uint16(0x3412), SwapEndian(0x1234))
}

func TestBCD(t *testing.T) {
	assert.Equal(t, [3]uint8{1, 5, 7}, BCD(157))
	assert.Equal(t, [3]uint8{0, 0, 0}, BCD(0))
	assert.Equal(t, [3]uint8{2, 5, 5}, BCD(255))
	assert.Equal(t, [3]uint8{0, 0, 9}, BCD(9))
	assert.Equal(t, [3]uint8{0, 4, 0}, BCD(40))
}
