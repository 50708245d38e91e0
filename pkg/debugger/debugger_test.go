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

package debugger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/keypad"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/timer"
	"github.com/retroenv/retrogolib/assert"
)

func newMachine(t *testing.T, program ...uint8) *machine.Machine {
	t.Helper()

	mc := machine.New(display.New(), keypad.New(), timer.New(nil))
	assert.NoError(t, mc.Load(program, machine.MEMSPACE_PROGRAM))

	return mc
}

func TestBreakpointList(t *testing.T) {
	var dbg debugger.Debugger

	assert.True(t, dbg.AddBreakpoint(0x200))
	assert.True(t, dbg.AddBreakpoint(0x204))
	assert.True(t, dbg.AddBreakpoint(0x208))
	assert.False(t, dbg.AddBreakpoint(0x204))
	assert.Equal(t, 3, len(dbg.Breakpoints))

	assert.Equal(t, debugger.ErrNoSuchPoint, dbg.RemoveBreakpoint(3))
	assert.Equal(t, debugger.ErrNoSuchPoint, dbg.RemoveBreakpoint(-1))

	assert.NoError(t, dbg.RemoveBreakpoint(0))
	assert.Equal(t, []debugger.Breakpoint{{0x208}, {0x204}}, dbg.Breakpoints)
}

func TestWatchpointList(t *testing.T) {
	var dbg debugger.Debugger

	assert.True(t, dbg.AddWatchpoint(0x300, debugger.ReadWatch))
	assert.True(t, dbg.AddWatchpoint(0x300, debugger.WriteWatch))
	assert.False(t, dbg.AddWatchpoint(0x300, debugger.ReadWatch))
	assert.Equal(t, 2, len(dbg.Watchpoints))

	assert.NoError(t, dbg.RemoveWatchpoint(1))
	assert.Equal(t, debugger.ErrNoSuchPoint, dbg.RemoveWatchpoint(1))
	assert.Equal(t, 1, len(dbg.Watchpoints))
}

func TestWatchpointTypeString(t *testing.T) {
	assert.Equal(t, "read", debugger.ReadWatch.String())
	assert.Equal(t, "write", debugger.WriteWatch.String())
	assert.Equal(t, "readwrite", debugger.ReadWriteWatch.String())
	assert.Equal(t, "<invalid>", debugger.WatchpointType(0).String())
}

func TestStepBreak(t *testing.T) {
	// CLS; CLS; CLS
	mc := newMachine(t, 0x00, 0xE0, 0x00, 0xE0, 0x00, 0xE0)

	var stops []uint16
	dbg := &debugger.Debugger{
		HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
			stops = append(stops, mc.State.Program)
		},
	}

	mc.Debugger = dbg
	dbg.AddBreakpoint(0x202)

	assert.NoError(t, mc.Step())
	assert.NoError(t, mc.Step())
	assert.Equal(t, []uint16{0x202}, stops)

	dbg.Break = true
	assert.NoError(t, mc.Step())
	assert.Equal(t, []uint16{0x202, 0x206}, stops)
}

func TestStepWithoutHandler(t *testing.T) {
	mc := newMachine(t, 0x00, 0xE0)

	dbg := &debugger.Debugger{Break: true}
	dbg.AddBreakpoint(0x202)
	dbg.AddWatchpoint(0x202, debugger.ReadWriteWatch)
	mc.Debugger = dbg

	assert.NoError(t, mc.Step())
}

func TestWatchpointHooks(t *testing.T) {
	// LD I, 0x300; LD [I], V1; LD I, 0x300; LD V1, [I]
	mc := newMachine(t,
		0xA3, 0x00,
		0xF1, 0x55,
		0xA3, 0x00,
		0xF1, 0x65,
	)

	var reads, writes []uint16
	dbg := &debugger.Debugger{
		HandleRead: func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
			reads = append(reads, addr)
		},
		HandleWrite: func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
			writes = append(writes, addr)
		},
	}

	mc.Debugger = dbg
	dbg.AddWatchpoint(0x300, debugger.ReadWatch)
	dbg.AddWatchpoint(0x301, debugger.ReadWriteWatch)

	for i := 0; i < 4; i++ {
		assert.NoError(t, mc.Step())
	}

	assert.Equal(t, []uint16{0x301}, writes)
	assert.Equal(t, []uint16{0x300, 0x301}, reads)
}

func TestSetRegister(t *testing.T) {
	var dbg debugger.Debugger
	var state machine.MachineState

	assert.NoError(t, dbg.SetRegister(&state, "v3", 0x42))
	assert.Equal(t, uint8(0x42), state.Registers[3])

	assert.NoError(t, dbg.SetRegister(&state, "VF", 0x01))
	assert.Equal(t, uint8(0x01), state.Registers[0xF])

	assert.NoError(t, dbg.SetRegister(&state, "I", 0xFFF))
	assert.Equal(t, uint16(0xFFF), state.Index)

	assert.NoError(t, dbg.SetRegister(&state, "pc", 0x300))
	assert.Equal(t, uint16(0x300), state.Program)

	assert.NoError(t, dbg.SetRegister(&state, "SP", 2))
	assert.Equal(t, uint8(2), state.StackPointer)

	tests := []struct {
		name  string
		value uint16
		err   string
	}{
		{"VG", 0, "Invalid register 'VG'"},
		{"R0", 0, "Invalid register 'R0'"},
		{"V10", 0, "Invalid register 'V10'"},
		{"V1", 0x100, "Value too large for V1"},
		{"PC", 0xFFF, "Value too large for PC"},
		{"SP", 17, "Value too large for SP"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := dbg.SetRegister(&state, test.name, test.value)
			assert.ErrorContains(t, err, test.err)
		})
	}
}

func TestResolve(t *testing.T) {
	dbg := debugger.Debugger{SymTable: assembler.NewSymTable("")}
	dbg.SymTable.Labels[0x220] = "LOOP"
	dbg.SymTable.Labels[0x200] = "START"

	addr, err := dbg.Resolve("0x300")
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x300), addr)

	addr, err = dbg.Resolve("LOOP")
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x220), addr)

	_, err = dbg.Resolve("NOWHERE")
	assert.Error(t, err)

	assert.Equal(t, []uint16{0x200, 0x220}, dbg.Labels())
}

func TestPrintMem(t *testing.T) {
	var out bytes.Buffer
	dbg := debugger.Debugger{Output: &out}
	mc := newMachine(t, 0x00, 0xE0)

	dbg.PrintMem(&mc.State, 0x200, 2)
	assert.Contains(t, out.String(), "[0x200]")
	assert.Contains(t, out.String(), "E0")

	out.Reset()
	dbg.PrintMem(&mc.State, 0xFFE, 8)
	assert.Equal(t, 2, strings.Count(out.String(), "00"))
}

func TestPrintDisasm(t *testing.T) {
	var out bytes.Buffer
	dbg := debugger.Debugger{
		Output:   &out,
		SymTable: assembler.NewSymTable(""),
	}
	dbg.SymTable.Labels[0x202] = "LOOP"
	dbg.AddBreakpoint(0x202)

	// CLS; JP 0x202
	mc := newMachine(t, 0x00, 0xE0, 0x12, 0x02)
	dbg.PrintDisasm(&mc.State, 0x200, 2)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, 3, len(lines))
	assert.Equal(t, "=> 0x0200  00E0  CLS", lines[0])
	assert.Contains(t, lines[1], "LOOP:")
	assert.Equal(t, " * 0x0202  1202  JP 0x202", lines[2])
}

func TestPrintSource(t *testing.T) {
	var out bytes.Buffer
	dbg := debugger.Debugger{Output: &out}

	dbg.PrintSource(0x200, 1)
	assert.Contains(t, out.String(), "No source file loaded")

	out.Reset()
	dbg.Source = strings.NewReader("CLS\n; wait\nRET\n")
	dbg.PrintSource(0x200, 1)
	assert.Contains(t, out.String(), "No symbol table loaded")

	dbg.SymTable = assembler.NewSymTable("")
	dbg.SymTable.Symbols[0x200] = 0
	dbg.SymTable.Symbols[0x202] = 11

	out.Reset()
	dbg.PrintSource(0x300, 1)
	assert.Contains(t, out.String(), "No instruction found at 0x300")

	out.Reset()
	dbg.PrintSource(0x200, 3)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, 3, len(lines))
	assert.Contains(t, lines[0], "[0x200]")
	assert.Contains(t, lines[0], "CLS")
	assert.Contains(t, lines[1], "~~~~~~~~")
	assert.Contains(t, lines[2], "[0x202]")
	assert.Contains(t, lines[2], "RET")
}

func TestPrintKeys(t *testing.T) {
	var out bytes.Buffer
	dbg := debugger.Debugger{Output: &out}

	var held [machine.KEY_COUNT]bool
	held[0xA] = true
	dbg.PrintKeys(held)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, 4, len(lines))
	assert.Contains(t, lines[3], "\033[7m A \033[0m")
}

func TestPrintRegisters(t *testing.T) {
	var out bytes.Buffer
	dbg := debugger.Debugger{Output: &out}

	mc := newMachine(t, 0x00, 0xE0)
	mc.State.Registers[0xB] = 0x7F
	mc.Timers.SetDelay(12)

	dbg.PrintRegisters(mc)
	assert.Contains(t, out.String(), "VB:\033[0m 0x7f")
	assert.Contains(t, out.String(), "PC:\033[0m 0x200")
	assert.Contains(t, out.String(), "DT:\033[0m 12")
	assert.Contains(t, out.String(), "running")
}

func TestViz(t *testing.T) {
	var out bytes.Buffer
	var dbg debugger.Debugger

	// CALL 0x204
	mc := newMachine(t, 0x22, 0x04)
	assert.NoError(t, mc.Step())

	dbg.Viz(&out, &mc.State)
	assert.Contains(t, out.String(), "digraph")
	assert.Contains(t, out.String(), "Registers")
}
