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

package main

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/debugger"
)

func TestSymbolFile(t *testing.T) {
	assert.Equal(t, "roms/pong.c8db", symbolFile("roms/pong.ch8"))
	assert.Equal(t, "pong.c8db", symbolFile("pong"))
}

func TestIndexFormat(t *testing.T) {
	assert.Equal(t, "#%01d: %#04x\n", indexFormat(3, "%#04x"))
	assert.Equal(t, "#%02d: %#04x\n", indexFormat(12, "%#04x"))
}

func TestAddrAndCount(t *testing.T) {
	symtable := assembler.NewSymTable("")
	symtable.Labels[0x240] = "LOOP"
	dbg := &debugger.Debugger{SymTable: symtable}

	tests := []struct {
		name  string
		args  []string
		addr  uint16
		count uint16
	}{
		{"default", nil, 0x200, 8},
		{"count only", []string{"12"}, 0x200, 12},
		{"hex address", []string{"0x300"}, 0x300, 8},
		{"label", []string{"LOOP"}, 0x240, 8},
		{"address and count", []string{"LOOP", "2"}, 0x240, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, count, err := addrAndCount(dbg, 0x200, 8, tt.args)
			assert.NoError(t, err)
			assert.Equal(t, tt.addr, addr)
			assert.Equal(t, tt.count, count)
		})
	}

	_, _, err := addrAndCount(dbg, 0x200, 8, []string{"MISSING"})
	assert.ErrorContains(t, err, "Unable to find 'MISSING'")

	_, _, err = addrAndCount(dbg, 0x200, 8, []string{"LOOP", "many"})
	assert.Error(t, err)
}
