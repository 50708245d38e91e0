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
	"bufio"
	"bytes"
	"encoding/gob"
	"fmt"
	stdlog "log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/frontend/terminal"
	"github.com/lassandro/gochip8/pkg/keypad"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/options"
)

var console = stdlog.New(os.Stderr, "", 0)

type repl struct {
	dbg     *debugger.Debugger
	keypad  *keypad.Keypad
	term    *terminal.Terminal
	scanner *bufio.Scanner
	quit    func()
	lastcmd []string
}

func symbolFile(rom string) string {
	return filepath.Join(
		filepath.Dir(rom),
		strings.TrimSuffix(filepath.Base(rom), filepath.Ext(rom))+".c8db",
	)
}

func newSession(image []byte, opts options.Options, kp *keypad.Keypad, quit func()) *repl {
	r := &repl{
		dbg: &debugger.Debugger{
			Image:    image,
			LoadAddr: opts.LoadAddr,
		},
		keypad:  kp,
		scanner: bufio.NewScanner(os.Stdin),
		quit:    quit,
	}

	dbg := r.dbg
	dbg.HandleBreak = r.handleBreak
	dbg.HandleRead = r.handleRead
	dbg.HandleWrite = r.handleWrite

	if file, err := os.Open(symbolFile(opts.Input)); err == nil {
		var symtable assembler.SymTable

		if err := gob.NewDecoder(file).Decode(&symtable); err == nil {
			dbg.SymTable = &symtable
		} else {
			console.Println("Error loading symbol file")
			console.Println(err)
		}

		file.Close()
	} else if !os.IsNotExist(err) {
		console.Println("Error loading symbol file")
		console.Println(err)
	}

	if dbg.SymTable != nil && dbg.SymTable.Source != "" {
		if source, err := os.ReadFile(dbg.SymTable.Source); err == nil {
			dbg.Source = bytes.NewReader(source)
		} else {
			console.Println("Error loading source file")
			console.Println(err)
		}
	}

	return r
}

func (r *repl) interrupt() {
	r.dbg.Break = true
}

func parseCount(arg string) (uint16, error) {
	value, err := strconv.ParseUint(arg, 10, 16)

	if err != nil {
		return 0, err
	}

	return uint16(value), nil
}

func indexFormat(count int, suffix string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %s\n", int64(digits)+1, suffix)
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x####|label]"

		if len(args) != 1 {
			console.Println(usage)
			return
		}

		addr, err := dbg.Resolve(args[0])

		if err != nil {
			console.Println(err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		const usage = "break list"

		if len(args) != 0 {
			console.Println(usage)
			return
		}

		fmtstring := indexFormat(len(dbg.Breakpoints), "%#04x")

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			console.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			console.Println(err)
			return
		}

		if err := dbg.RemoveBreakpoint(i); err != nil {
			console.Println(err)
			return
		}

		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		console.Printf("break: '%s' is not a valid command\n", cmd)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|rm|clear]"

	if len(args) == 0 {
		console.Println(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####|label] [read|write|readwrite]"

		if len(args) != 2 {
			console.Println(usage)
			return
		}

		addr, err := dbg.Resolve(args[0])

		if err != nil {
			console.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			console.Println(usage)
			return
		}

		if dbg.AddWatchpoint(addr, wtype) {
			fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, wtype)
		}

	case "l", "ls", "list":
		const usage = "watch list"

		if len(args) != 0 {
			console.Println(usage)
			return
		}

		fmtstring := indexFormat(len(dbg.Watchpoints), "%#04x %s")

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			console.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			console.Println(err)
			return
		}

		if err := dbg.RemoveWatchpoint(i); err != nil {
			console.Println(err)
			return
		}

		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		console.Printf("watch: '%s' is not a valid command\n", cmd)
	}
}

func debugReg(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "register [V#|I|PC|SP|DT|ST] [value]"

	if len(args) == 0 {
		dbg.PrintRegisters(mc)
		return
	}

	if len(args) != 2 {
		console.Println(usage)
		return
	}

	value, err := encoding.DecodeLiteral(args[1])

	if err != nil {
		console.Println(err)
		return
	}

	name := strings.ToUpper(args[0])

	switch name {
	case "DT", "ST":
		if value > 0xFF {
			console.Printf("Value too large for %s\n", name)
			return
		}

		if name == "DT" {
			mc.Timers.SetDelay(uint8(value))
		} else {
			mc.Timers.SetSound(uint8(value))
		}

	default:
		if err := dbg.SetRegister(&mc.State, name, value); err != nil {
			console.Println(err)
			return
		}
	}

	fmt.Printf("\033[1m%s:\033[0m %#04x\n", name, value)
}

// Both commands below accept "[addr|label] [#]" or just "[#]" relative to
// the program counter.
func addrAndCount(dbg *debugger.Debugger, pc uint16, count uint16, args []string) (uint16, uint16, error) {
	addr := pc

	if len(args) > 0 {
		resolved, err := dbg.Resolve(args[0])

		if err == nil {
			addr = resolved
		} else {
			value, countErr := parseCount(args[0])

			if countErr != nil {
				return 0, 0, err
			}

			count = value
		}
	}

	if len(args) > 1 {
		value, err := parseCount(args[1])

		if err != nil {
			return 0, 0, err
		}

		count = value
	}

	return addr, count, nil
}

func debugSource(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "source [0x####|label] [#]"

	if len(args) > 2 {
		console.Println(usage)
		return
	}

	if dbg.SymTable == nil || dbg.Source == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	addr, count, err := addrAndCount(dbg, mc.Program, 3, args)

	if err != nil {
		console.Println(err)
		return
	}

	dbg.PrintSource(addr, count)
}

func debugDisasm(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "disasm [0x####|label] [#]"

	if len(args) > 2 {
		console.Println(usage)
		return
	}

	addr, count, err := addrAndCount(dbg, mc.Program, 8, args)

	if err != nil {
		console.Println(err)
		return
	}

	dbg.PrintDisasm(mc, addr, int(count))
}

func debugLabels(dbg *debugger.Debugger, args []string) {
	const usage = "labels"

	if len(args) > 0 {
		fmt.Println(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	for _, addr := range dbg.Labels() {
		fmt.Printf(
			"\033[1m[%#04x]\033[0m %s\n", addr, dbg.SymTable.Labels[addr],
		)
	}
}

func debugJump(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "jump [0x####|label]"

	if len(args) != 1 {
		fmt.Println(usage)
		return
	}

	addr, err := dbg.Resolve(args[0])

	if err != nil {
		console.Println(err)
		return
	}

	if err := dbg.SetRegister(mc, "PC", addr); err != nil {
		console.Println(err)
		return
	}

	if dbg.SymTable != nil {
		if label, ok := dbg.SymTable.Labels[addr]; ok {
			fmt.Printf(
				"\033[1mPC:\033[0m %#04x \033[1;30m(%s)\033[0m\n", addr, label,
			)
			return
		}
	}

	fmt.Printf("\033[1mPC:\033[0m %#04x\n", addr)
}

func debugMemory(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "memory [0x####|label|#] [#]"

	if len(args) > 2 {
		console.Println(usage)
		return
	}

	addr, count, err := addrAndCount(dbg, mc.Program, 1, args)

	if err != nil {
		console.Println(err)
		return
	}

	dbg.PrintMem(mc, addr, count)
}

func debugSet(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "set [0x####|label] [value]"

	if len(args) != 2 {
		console.Println(usage)
		return
	}

	addr, err := dbg.Resolve(args[0])

	if err != nil {
		console.Println(err)
		return
	}

	value, err := encoding.DecodeLiteral(args[1])

	if err != nil {
		console.Println(err)
		return
	}

	if value > 0xFF {
		console.Printf("Value too large for a byte: %#x\n", value)
		return
	}

	if err := mc.WriteMemory(addr, []byte{uint8(value)}); err != nil {
		console.Println(err)
		return
	}

	dbg.PrintMem(&mc.State, addr, 1)
}

func debugViz(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "viz [file]"

	switch len(args) {
	case 0:
		dbg.Viz(os.Stdout, mc)

	case 1:
		file, err := os.Create(args[0])

		if err != nil {
			console.Println(err)
			return
		}

		dbg.Viz(file, mc)

		if err := file.Close(); err != nil {
			console.Println(err)
			return
		}

		fmt.Printf("State written to %s\n", args[0])

	default:
		console.Println(usage)
	}
}

func (r *repl) prompt(mc *machine.Machine) {
	dbg := r.dbg

	if r.term != nil {
		if err := r.term.Suspend(); err != nil {
			console.Println(err)
		}

		defer func() {
			if err := r.term.Resume(); err != nil {
				console.Println(err)
			}
		}()
	}

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !r.scanner.Scan() {
			fmt.Println()
			r.quit()
			return
		}

		args := strings.Fields(r.scanner.Text())

		if len(args) == 0 {
			if len(r.lastcmd) == 0 {
				continue
			}
			args = r.lastcmd
		} else {
			r.lastcmd = make([]string, len(args))
			copy(r.lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, mc, args)

		case "s", "src", "source":
			debugSource(dbg, &mc.State, args)

		case "d", "dis", "disasm":
			debugDisasm(dbg, &mc.State, args)

		case "l", "label", "labels":
			debugLabels(dbg, args)

		case "j", "jmp", "jump":
			debugJump(dbg, &mc.State, args)

		case "m", "mem", "memory":
			debugMemory(dbg, &mc.State, args)

		case "set":
			debugSet(dbg, mc, args)

		case "k", "keys":
			dbg.PrintKeys(r.keypad.Held())

		case "v", "viz":
			debugViz(dbg, &mc.State, args)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			r.quit()
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			if err := mc.LoadBin(bytes.NewReader(dbg.Image), dbg.LoadAddr); err != nil {
				console.Println(err)
				continue
			}
			fmt.Printf("\033[1mPC:\033[0m %#04x\n", mc.State.Program)

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func (r *repl) handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if !dbg.Break {
		fmt.Println()
		fmt.Println("Program stopped")
	}

	if dbg.SymTable != nil && dbg.Source != nil {
		dbg.PrintSource(mc.State.Program, 8)
	} else {
		dbg.PrintDisasm(&mc.State, mc.State.Program, 4)
	}

	r.prompt(mc)
}

func (r *repl) handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped")
	dbg.PrintMem(&mc.State, addr, 1)
	r.prompt(mc)
}

func (r *repl) handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped")
	dbg.PrintMem(&mc.State, addr, 1)
	r.prompt(mc)
}
