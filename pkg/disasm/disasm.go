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
	"fmt"
	"strings"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Lookup finds the opcode table entry matching word.
func Lookup(word uint16) (chip8.Opcode, bool) {
	for _, op := range chip8.Opcodes[int(word>>12)] {
		if op.Instruction != nil && op.Info.Mask&word == op.Info.Value {
			return op, true
		}
	}

	return chip8.Opcode{}, false
}

// Name returns the lower case mnemonic of word.
func Name(word uint16) (string, bool) {
	op, ok := Lookup(word)

	if !ok {
		return "", false
	}

	return op.Instruction.Name, true
}

func IsCall(word uint16) bool {
	name, ok := Name(word)
	return ok && name == chip8.Call.Name
}

func IsSkip(word uint16) bool {
	name, ok := Name(word)
	return ok && chip8.SkipInstructions.Contains(name)
}

// Instruction renders word in assembler syntax. Words with no matching
// opcode come back as a .WORD directive so listings reassemble.
func Instruction(word uint16) string {
	name, ok := Name(word)

	if !ok {
		if word&0xF000 == 0x0000 {
			return fmt.Sprintf("SYS 0x%03X", word&0x0FFF)
		}

		return fmt.Sprintf(".WORD 0x%04X", word)
	}

	mnemonic := strings.ToUpper(name)

	if params := operands(name, word); params != "" {
		return mnemonic + " " + params
	}

	return mnemonic
}

func operands(name string, word uint16) string {
	x := (word >> 8) & 0xF
	y := (word >> 4) & 0xF
	nnn := word & 0x0FFF
	nn := word & 0x00FF
	n := word & 0x000F

	switch name {
	case chip8.Cls.Name, chip8.Ret.Name:
		return ""

	case chip8.Jp.Name:
		if word&0xF000 == 0xB000 {
			return fmt.Sprintf("V0, 0x%03X", nnn)
		}

		return fmt.Sprintf("0x%03X", nnn)

	case chip8.Call.Name:
		return fmt.Sprintf("0x%03X", nnn)

	case chip8.Se.Name, chip8.Sne.Name:
		if word&0xF000 == 0x3000 || word&0xF000 == 0x4000 {
			return fmt.Sprintf("V%X, 0x%02X", x, nn)
		}

		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8.Ld.Name:
		return loadOperands(word, x, y, nnn, nn)

	case chip8.Add.Name:
		switch word & 0xF000 {
		case 0x7000:
			return fmt.Sprintf("V%X, 0x%02X", x, nn)
		case 0x8000:
			return fmt.Sprintf("V%X, V%X", x, y)
		}

		return fmt.Sprintf("I, V%X", x)

	case chip8.Or.Name, chip8.And.Name, chip8.Xor.Name,
		chip8.Sub.Name, chip8.Subn.Name, chip8.Shr.Name, chip8.Shl.Name:
		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8.Rnd.Name:
		return fmt.Sprintf("V%X, 0x%02X", x, nn)

	case chip8.Drw.Name:
		return fmt.Sprintf("V%X, V%X, %d", x, y, n)

	case chip8.Skp.Name, chip8.Sknp.Name:
		return fmt.Sprintf("V%X", x)
	}

	return ""
}

func loadOperands(word, x, y, nnn, nn uint16) string {
	switch word & 0xF000 {
	case 0x6000:
		return fmt.Sprintf("V%X, 0x%02X", x, nn)
	case 0x8000:
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0xA000:
		return fmt.Sprintf("I, 0x%03X", nnn)
	}

	switch nn {
	case 0x07:
		return fmt.Sprintf("V%X, DT", x)
	case 0x0A:
		return fmt.Sprintf("V%X, K", x)
	case 0x15:
		return fmt.Sprintf("DT, V%X", x)
	case 0x18:
		return fmt.Sprintf("ST, V%X", x)
	case 0x29:
		return fmt.Sprintf("F, V%X", x)
	case 0x33:
		return fmt.Sprintf("B, V%X", x)
	case 0x55:
		return fmt.Sprintf("[I], V%X", x)
	case 0x65:
		return fmt.Sprintf("V%X, [I]", x)
	}

	return ""
}

// Listing disassembles count words of mem starting at addr, one line each.
func Listing(mem []byte, addr uint16, count int) []string {
	lines := make([]string, 0, count)

	for i := 0; i < count && int(addr)+1 < len(mem); i++ {
		word := encoding.Word(mem[addr], mem[addr+1])
		lines = append(lines, Line(addr, word))
		addr += 2
	}

	return lines
}

func Line(addr uint16, word uint16) string {
	return fmt.Sprintf("0x%04X  %04X  %s", addr, word, Instruction(word))
}
