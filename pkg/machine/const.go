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

package machine

const (
	MEMORY_SIZE    = 0x1000
	REGISTER_COUNT = 16
	STACK_SIZE     = 16
	KEY_COUNT      = 16

	SCREEN_WIDTH  = 64
	SCREEN_HEIGHT = 32
)

const (
	MEMSPACE_FONT    uint16 = 0x0000
	MEMSPACE_PROGRAM uint16 = 0x0200

	// Last address a two byte fetch may start from
	MEMSPACE_LAST_FETCH uint16 = MEMORY_SIZE - 2
)

const (
	FLAG_REGISTER = 0xF
	GLYPH_SIZE    = 5
)

const (
	STATUS_RUNNING Status = iota
	STATUS_WAITING
	STATUS_HALTED
)

const (
	OP_SYS  uint16 = 0x0000
	OP_JP   uint16 = 0x1000
	OP_CALL uint16 = 0x2000
	OP_SE   uint16 = 0x3000
	OP_SNE  uint16 = 0x4000
	OP_SER  uint16 = 0x5000
	OP_LD   uint16 = 0x6000
	OP_ADD  uint16 = 0x7000
	OP_ALU  uint16 = 0x8000
	OP_SNER uint16 = 0x9000
	OP_LDI  uint16 = 0xA000
	OP_JPV0 uint16 = 0xB000
	OP_RND  uint16 = 0xC000
	OP_DRW  uint16 = 0xD000
	OP_KEY  uint16 = 0xE000
	OP_MISC uint16 = 0xF000
)

const (
	SYS_CLS uint16 = 0x00E0
	SYS_RET uint16 = 0x00EE
)

const (
	ALU_LD   uint16 = 0x0
	ALU_OR   uint16 = 0x1
	ALU_AND  uint16 = 0x2
	ALU_XOR  uint16 = 0x3
	ALU_ADD  uint16 = 0x4
	ALU_SUB  uint16 = 0x5
	ALU_SHR  uint16 = 0x6
	ALU_SUBN uint16 = 0x7
	ALU_SHL  uint16 = 0xE
)

const (
	KEY_SKP  uint16 = 0x9E
	KEY_SKNP uint16 = 0xA1
)

const (
	MISC_LD_DT  uint16 = 0x07
	MISC_LD_K   uint16 = 0x0A
	MISC_SET_DT uint16 = 0x15
	MISC_SET_ST uint16 = 0x18
	MISC_ADD_I  uint16 = 0x1E
	MISC_LD_F   uint16 = 0x29
	MISC_LD_B   uint16 = 0x33
	MISC_STORE  uint16 = 0x55
	MISC_LOAD   uint16 = 0x65
)

// Hexadecimal digit sprites 0-F, five rows each, loaded at MEMSPACE_FONT
var Fontset = [16 * GLYPH_SIZE]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

const MEMSPACE_FONT_END = MEMSPACE_FONT + uint16(len(Fontset))
