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

package disasm

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestInstruction(t *testing.T) {
	tests := []struct {
		word uint16
		want string
	}{
		{0x00E0, "CLS"},
		{0x00EE, "RET"},
		{0x0123, "SYS 0x123"},
		{0x1234, "JP 0x234"},
		{0x2300, "CALL 0x300"},
		{0x3142, "SE V1, 0x42"},
		{0x4A00, "SNE VA, 0x00"},
		{0x5120, "SE V1, V2"},
		{0x65AB, "LD V5, 0xAB"},
		{0x7501, "ADD V5, 0x01"},
		{0x8120, "LD V1, V2"},
		{0x8121, "OR V1, V2"},
		{0x8122, "AND V1, V2"},
		{0x8123, "XOR V1, V2"},
		{0x8124, "ADD V1, V2"},
		{0x8125, "SUB V1, V2"},
		{0x8126, "SHR V1, V2"},
		{0x8127, "SUBN V1, V2"},
		{0x812E, "SHL V1, V2"},
		{0x9120, "SNE V1, V2"},
		{0xA123, "LD I, 0x123"},
		{0xB300, "JP V0, 0x300"},
		{0xC30F, "RND V3, 0x0F"},
		{0xD015, "DRW V0, V1, 5"},
		{0xE19E, "SKP V1"},
		{0xE1A1, "SKNP V1"},
		{0xF307, "LD V3, DT"},
		{0xF30A, "LD V3, K"},
		{0xF315, "LD DT, V3"},
		{0xF318, "LD ST, V3"},
		{0xF31E, "ADD I, V3"},
		{0xF329, "LD F, V3"},
		{0xF333, "LD B, V3"},
		{0xF355, "LD [I], V3"},
		{0xF365, "LD V3, [I]"},
		{0x5121, ".WORD 0x5121"},
		{0xF3FF, ".WORD 0xF3FF"},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, Instruction(test.word))
	}
}

func TestClassify(t *testing.T) {
	assert.True(t, IsCall(0x2345))
	assert.False(t, IsCall(0x1345))

	assert.True(t, IsSkip(0x3142))
	assert.True(t, IsSkip(0xE1A1))
	assert.False(t, IsSkip(0x6142))

	_, ok := Name(0xFFFF)
	assert.False(t, ok)
}

func TestListing(t *testing.T) {
	mem := make([]byte, 0x206)
	copy(mem[0x200:], []byte{0x00, 0xE0, 0x12, 0x00, 0xF3, 0xFF})

	lines := Listing(mem, 0x200, 10)

	assert.Equal(t, []string{
		"0x0200  00E0  CLS",
		"0x0202  1200  JP 0x200",
		"0x0204  F3FF  .WORD 0xF3FF",
	}, lines)
}
