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

package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bradleyjkemp/memviz"

	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

func (dbg *Debugger) out() io.Writer {
	if dbg.Output == nil {
		return os.Stdout
	}

	return dbg.Output
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type&ReadWatch != 0 {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type&WriteWatch != 0 {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// AddBreakpoint returns false when addr already has a breakpoint.
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})

	return true
}

// Removal swaps the last entry into i, so numbering is not stable.
func (dbg *Debugger) RemoveBreakpoint(i int) error {
	if i < 0 || i >= len(dbg.Breakpoints) {
		return ErrNoSuchPoint
	}

	dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
	dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]

	return nil
}

func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})

	return true
}

func (dbg *Debugger) RemoveWatchpoint(i int) error {
	if i < 0 || i >= len(dbg.Watchpoints) {
		return ErrNoSuchPoint
	}

	dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
	dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]

	return nil
}

// Resolve accepts a hex address or a symbol table label.
func (dbg *Debugger) Resolve(arg string) (uint16, error) {
	if addr, err := encoding.DecodeHex(arg); err == nil {
		return addr, nil
	}

	if dbg.SymTable != nil {
		for addr, label := range dbg.SymTable.Labels {
			if label == arg {
				return addr, nil
			}
		}
	}

	return 0, fmt.Errorf("Unable to find '%s'", arg)
}

// Labels returns the symbol table label addresses in ascending order.
func (dbg *Debugger) Labels() []uint16 {
	if dbg.SymTable == nil {
		return nil
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

func (dbg *Debugger) SetRegister(mc *machine.MachineState, name string, value uint16) error {
	name = strings.ToUpper(name)

	limit := func(max uint16) error {
		if value > max {
			return &RegisterRangeError{name, max, value}
		}

		return nil
	}

	switch name {
	case "I":
		mc.Index = value

	case "PC":
		if err := limit(machine.MEMSPACE_LAST_FETCH); err != nil {
			return err
		}

		mc.Program = value

	case "SP":
		if err := limit(machine.STACK_SIZE); err != nil {
			return err
		}

		mc.StackPointer = uint8(value)

	default:
		if len(name) != 2 || name[0] != 'V' {
			return &InvalidRegisterError{name}
		}

		reg, err := strconv.ParseUint(name[1:], 16, 4)

		if err != nil {
			return &InvalidRegisterError{name}
		}

		if err := limit(0xFF); err != nil {
			return err
		}

		mc.Registers[reg] = uint8(value)
	}

	return nil
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	out := dbg.out()

	if dbg.Source == nil {
		fmt.Fprintln(out, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(out, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(out, "No instruction found at %#04x\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(out, err)
		return
	}

	lines := make(map[int64]uint16, len(dbg.SymTable.Symbols))
	for lineaddr, linebyte := range dbg.SymTable.Symbols {
		lines[linebyte] = lineaddr
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if lineaddr, found := lines[offset]; found {
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", lineaddr)
		} else {
			fmt.Fprint(out, "\033[1;30m~~~~~~~~\033[0m ")
		}

		fmt.Fprintln(out, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(out, err)
	}
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	out := dbg.out()
	end := int(addr) + int(count)

	if end > machine.MEMORY_SIZE {
		end = machine.MEMORY_SIZE
	}

	for i := int(addr); i < end; i++ {
		if i == int(addr) {
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", i)
		} else if (i-int(addr))%8 == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", i)
		}

		result := mc.Memory[i]

		if result == 0 {
			fmt.Fprintf(out, "\033[1;30m%02X\033[0m ", result)
		} else {
			fmt.Fprintf(out, "%02X ", result)
		}
	}

	fmt.Fprintln(out)
}

// PrintDisasm lists count instructions from addr, marking the program
// counter and any breakpoints.
func (dbg *Debugger) PrintDisasm(mc *machine.MachineState, addr uint16, count int) {
	out := dbg.out()

	for i, line := range disasm.Listing(mc.Memory[:], addr, count) {
		at := addr + uint16(i*2)
		marker := "  "

		if at == mc.Program {
			marker = "=>"
		}

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Addr == at {
				marker = marker[:1] + "*"
				break
			}
		}

		if label, ok := dbg.label(at); ok {
			fmt.Fprintf(out, "\033[1;30m%s:\033[0m\n", label)
		}

		fmt.Fprintf(out, "%s %s\n", marker, line)
	}
}

func (dbg *Debugger) label(addr uint16) (string, bool) {
	if dbg.SymTable == nil {
		return "", false
	}

	label, ok := dbg.SymTable.Labels[addr]

	return label, ok
}

func (dbg *Debugger) PrintRegisters(mc *machine.Machine) {
	out := dbg.out()
	state := &mc.State

	for i, register := range state.Registers {
		fmt.Fprintf(out, "\033[1mV%X:\033[0m %#02x\t", i, register)
		if i == (len(state.Registers)-1)/2 {
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(
		out,
		"\033[1mI:\033[0m %#04x\t\033[1mPC:\033[0m %#04x\t"+
			"\033[1mSP:\033[0m %d\t\033[1mSTATUS:\033[0m %s\n",
		state.Index,
		state.Program,
		state.StackPointer,
		state.Status,
	)

	if mc.Timers != nil {
		fmt.Fprintf(
			out,
			"\033[1mDT:\033[0m %d\t\033[1mST:\033[0m %d\n",
			mc.Timers.Delay(),
			mc.Timers.Sound(),
		)
	}
}

func (dbg *Debugger) PrintKeys(held [machine.KEY_COUNT]bool) {
	out := dbg.out()

	for _, row := range [4][4]uint8{
		{0x1, 0x2, 0x3, 0xC},
		{0x4, 0x5, 0x6, 0xD},
		{0x7, 0x8, 0x9, 0xE},
		{0xA, 0x0, 0xB, 0xF},
	} {
		for _, key := range row {
			if held[key] {
				fmt.Fprintf(out, "\033[7m %X \033[0m", key)
			} else {
				fmt.Fprintf(out, " %X ", key)
			}
		}

		fmt.Fprintln(out)
	}
}

type vizState struct {
	Status       string
	Registers    [machine.REGISTER_COUNT]uint8
	Index        uint16
	Program      uint16
	StackPointer uint8
	Stack        []uint16
	Instruction  string
}

// Viz writes a graphviz description of the CPU state to w.
func (dbg *Debugger) Viz(w io.Writer, mc *machine.MachineState) {
	state := vizState{
		Status:       mc.Status.String(),
		Registers:    mc.Registers,
		Index:        mc.Index,
		Program:      mc.Program,
		StackPointer: mc.StackPointer,
		Stack:        append([]uint16(nil), mc.Stack[:mc.StackPointer]...),
	}

	if mc.Program <= machine.MEMSPACE_LAST_FETCH {
		state.Instruction = disasm.Instruction(
			encoding.Word(mc.Memory[mc.Program], mc.Memory[mc.Program+1]),
		)
	}

	memviz.Map(w, &state)
}
