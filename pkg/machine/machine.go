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

import (
	"io"
	"math/rand"
	"time"

	"github.com/lassandro/gochip8/pkg/encoding"
)

func New(display Display, keypad Keypad, timers Timers) *Machine {
	mc := &Machine{
		Display: display,
		Keypad:  keypad,
		Timers:  timers,
		Random:  NewRandom(time.Now().UnixNano()),
	}

	mc.Reset()

	return mc
}

func NewRandom(seed int64) func() uint8 {
	rnd := rand.New(rand.NewSource(seed))

	return func() uint8 {
		return uint8(rnd.Intn(0x100))
	}
}

func (mc *MachineState) Reset() {
	for i := range mc.Registers {
		mc.Registers[i] = 0x00
	}

	for i := range mc.Memory {
		mc.Memory[i] = 0x00
	}

	for i := range mc.Stack {
		mc.Stack[i] = 0x0000
	}

	copy(mc.Memory[MEMSPACE_FONT:], Fontset[:])

	mc.Index = 0
	mc.StackPointer = 0
	mc.Program = MEMSPACE_PROGRAM
	mc.Status = STATUS_RUNNING
	mc.WaitRegister = 0
}

func (mc *Machine) Reset() {
	mc.State.Reset()

	if mc.Display != nil {
		mc.Display.Clear()
	}

	if mc.Timers != nil {
		mc.Timers.Reset()
	}

	if mc.Keypad != nil {
		mc.Keypad.Reset()
	}
}

func (mc *Machine) Status() Status {
	return mc.State.Status
}

// Load copies image into memory at addr without touching any other state.
func (mc *Machine) Load(image []byte, addr uint16) error {
	if addr < MEMSPACE_FONT_END {
		return &ProtectedRegionError{addr}
	}

	if int(addr)+len(image) > MEMORY_SIZE {
		return &OversizedImageError{addr, len(image)}
	}

	copy(mc.State.Memory[addr:], image)

	return nil
}

// LoadBin resets the machine, loads the whole of reader at addr and starts
// execution from there.
func (mc *Machine) LoadBin(reader io.Reader, addr uint16) error {
	mc.Reset()

	image, err := io.ReadAll(io.LimitReader(reader, MEMORY_SIZE+1))

	if err != nil {
		return &ImageReadError{err}
	}

	if err := mc.Load(image, addr); err != nil {
		return err
	}

	mc.State.Program = addr

	return nil
}

// WriteMemory writes data at addr, including the font region.
func (mc *Machine) WriteMemory(addr uint16, data []byte) error {
	if int(addr)+len(data) > MEMORY_SIZE {
		return &AddressError{mc.State.Program, addr, uint16(len(data))}
	}

	copy(mc.State.Memory[addr:], data)

	return nil
}

func (mc *Machine) checkRange(at uint16, addr uint16, size int) error {
	if int(addr)+size > MEMORY_SIZE {
		return &AddressError{at, addr, uint16(size)}
	}

	return nil
}

func (mc *Machine) read(addr uint16) uint8 {
	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value uint8) {
	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

func (mc *Machine) fetch() (uint16, error) {
	if mc.State.Program > MEMSPACE_LAST_FETCH {
		return 0, &AddressError{mc.State.Program, mc.State.Program, 2}
	}

	instruction := encoding.Word(
		mc.State.Memory[mc.State.Program],
		mc.State.Memory[mc.State.Program+1],
	)

	mc.State.Program += 2

	return instruction, nil
}

func (mc *Machine) push(at uint16, target uint16) error {
	if mc.State.StackPointer >= STACK_SIZE {
		return &StackOverflowError{at, target}
	}

	mc.State.Stack[mc.State.StackPointer] = mc.State.Program
	mc.State.StackPointer++

	return nil
}

func (mc *Machine) pop(at uint16) (uint16, error) {
	if mc.State.StackPointer == 0 {
		return 0, &StackUnderflowError{at}
	}

	mc.State.StackPointer--

	return mc.State.Stack[mc.State.StackPointer], nil
}

func (mc *Machine) skipIf(condition bool) {
	if condition {
		mc.State.Program += 2
	}
}

func (mc *Machine) setFlag(set bool) {
	if set {
		mc.State.Registers[FLAG_REGISTER] = 1
	} else {
		mc.State.Registers[FLAG_REGISTER] = 0
	}
}

// Step runs one cycle. While waiting for a key the cycle only polls the
// keypad; the latched register is written on the first new key press and
// execution resumes on the following cycle.
func (mc *Machine) Step() error {
	switch mc.State.Status {
	case STATUS_HALTED:
		return ErrHalted

	case STATUS_WAITING:
		if key, ok := mc.Keypad.NextPress(); ok {
			mc.State.Registers[mc.State.WaitRegister] = key
			mc.State.Status = STATUS_RUNNING
		}

		if mc.Debugger != nil {
			mc.Debugger.Step(mc)
		}

		return nil
	}

	at := mc.State.Program
	instruction, err := mc.fetch()

	if err != nil {
		mc.State.Status = STATUS_HALTED
		return err
	}

	err = mc.execute(at, instruction)

	if err != nil && IsFatal(err) {
		mc.State.Status = STATUS_HALTED
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return err
}

func (mc *Machine) execute(at uint16, instruction uint16) error {
	x := (instruction >> 8) & 0xF
	y := (instruction >> 4) & 0xF
	nnn := instruction & 0x0FFF
	nn := uint8(instruction & 0x00FF)
	n := instruction & 0x000F

	v := &mc.State.Registers

	switch instruction & 0xF000 {
	// CLS  |0000    |0000    |1110    |0000    | Clear display
	// RET  |0000    |0000    |1110    |1110    | Return from subroutine
	// SYS  |0000    |nnn                       | Machine call (ignored)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SYS:
		switch instruction {
		case SYS_CLS:
			mc.Display.Clear()

		case SYS_RET:
			addr, err := mc.pop(at)

			if err != nil {
				return err
			}

			mc.State.Program = addr

		default:
			return &MachineCallError{at, instruction}
		}

	// JP   |0001    |nnn                       | Jump
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JP:
		mc.State.Program = nnn

	// CALL |0010    |nnn                       | Call subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_CALL:
		if err := mc.push(at, nnn); err != nil {
			return err
		}

		mc.State.Program = nnn

	// SE   |0011    |x       |nn               | Skip if Vx == nn
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SE:
		mc.skipIf(v[x] == nn)

	// SNE  |0100    |x       |nn               | Skip if Vx != nn
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SNE:
		mc.skipIf(v[x] != nn)

	// SE   |0101    |x       |y       |0000    | Skip if Vx == Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SER:
		if n != 0 {
			return &UnknownOpcodeError{at, instruction}
		}

		mc.skipIf(v[x] == v[y])

	// LD   |0110    |x       |nn               | Vx = nn
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD:
		v[x] = nn

	// ADD  |0111    |x       |nn               | Vx += nn, VF untouched
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD:
		v[x] += nn

	// LD   |1000    |x       |y       |0000    | Vx = Vy
	// OR   |1000    |x       |y       |0001    | Vx |= Vy
	// AND  |1000    |x       |y       |0010    | Vx &= Vy
	// XOR  |1000    |x       |y       |0011    | Vx ^= Vy
	// ADD  |1000    |x       |y       |0100    | Vx += Vy, VF = carry
	// SUB  |1000    |x       |y       |0101    | Vx -= Vy, VF = no borrow
	// SHR  |1000    |x       |y       |0110    | Vx >>= 1, VF = bit 0
	// SUBN |1000    |x       |y       |0111    | Vx = Vy - Vx, VF = no borrow
	// SHL  |1000    |x       |y       |1110    | Vx <<= 1, VF = bit 7
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ALU:
		vx, vy := v[x], v[y]

		switch n {
		case ALU_LD:
			v[x] = vy

		case ALU_OR, ALU_AND, ALU_XOR:
			switch n {
			case ALU_OR:
				v[x] = vx | vy
			case ALU_AND:
				v[x] = vx & vy
			case ALU_XOR:
				v[x] = vx ^ vy
			}

			if !mc.Quirks.PreserveFlagOnLogic {
				mc.setFlag(false)
			}

		case ALU_ADD:
			sum := uint16(vx) + uint16(vy)
			mc.setFlag(sum > 0xFF)
			v[x] = uint8(sum)

		case ALU_SUB:
			mc.setFlag(vx >= vy)
			v[x] = vx - vy

		case ALU_SHR:
			mc.setFlag(vx&0x1 == 1)
			v[x] = vx >> 1

		case ALU_SUBN:
			mc.setFlag(vy >= vx)
			v[x] = vy - vx

		case ALU_SHL:
			mc.setFlag((vx>>7)&0x1 == 1)
			v[x] = vx << 1

		default:
			return &UnknownOpcodeError{at, instruction}
		}

	// SNE  |1001    |x       |y       |0000    | Skip if Vx != Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SNER:
		if n != 0 {
			return &UnknownOpcodeError{at, instruction}
		}

		mc.skipIf(v[x] != v[y])

	// LD   |1010    |nnn                       | I = nnn
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDI:
		mc.State.Index = nnn

	// JP   |1011    |nnn                       | Jump to nnn + V0
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JPV0:
		mc.State.Program = nnn + uint16(v[0])

	// RND  |1100    |x       |nn               | Vx = random & nn
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_RND:
		v[x] = mc.Random() & nn

	// DRW  |1101    |x       |y       |n       | XOR n byte sprite at I
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_DRW:
		if err := mc.checkRange(at, mc.State.Index, int(n)); err != nil {
			return err
		}

		originX := int(v[x])
		originY := int(v[y])
		collision := false

		for row := 0; row < int(n); row++ {
			bits := mc.read(mc.State.Index + uint16(row))
			py := (originY + row) % SCREEN_HEIGHT

			for col := 0; col < 8; col++ {
				if bits&(0x80>>col) == 0 {
					continue
				}

				px := (originX + col) % SCREEN_WIDTH

				if mc.Display.Pixel(px, py) {
					mc.Display.SetPixel(px, py, false)
					collision = true
				} else {
					mc.Display.SetPixel(px, py, true)
				}
			}
		}

		mc.setFlag(collision)

	// SKP  |1110    |x       |1001    |1110    | Skip if key Vx held
	// SKNP |1110    |x       |1010    |0001    | Skip if key Vx not held
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_KEY:
		switch uint16(nn) {
		case KEY_SKP:
			mc.skipIf(mc.Keypad.IsPressed(v[x]))

		case KEY_SKNP:
			mc.skipIf(!mc.Keypad.IsPressed(v[x]))

		default:
			return &UnknownOpcodeError{at, instruction}
		}

	// LD   |1111    |x       |0000    |0111    | Vx = DT
	// LD   |1111    |x       |0000    |1010    | Wait for key, Vx = key
	// LD   |1111    |x       |0001    |0101    | DT = Vx
	// LD   |1111    |x       |0001    |1000    | ST = Vx
	// ADD  |1111    |x       |0001    |1110    | I += Vx
	// LD   |1111    |x       |0010    |1001    | I = glyph Vx
	// LD   |1111    |x       |0011    |0011    | BCD Vx at I
	// LD   |1111    |x       |0101    |0101    | Store V0..Vx at I
	// LD   |1111    |x       |0110    |0101    | Load V0..Vx from I
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_MISC:
		switch uint16(nn) {
		case MISC_LD_DT:
			v[x] = mc.Timers.Delay()

		case MISC_LD_K:
			mc.Keypad.ClearEdges()
			mc.State.Status = STATUS_WAITING
			mc.State.WaitRegister = uint8(x)

		case MISC_SET_DT:
			mc.Timers.SetDelay(v[x])

		case MISC_SET_ST:
			mc.Timers.SetSound(v[x])

		case MISC_ADD_I:
			mc.State.Index += uint16(v[x])

		case MISC_LD_F:
			mc.State.Index = MEMSPACE_FONT + uint16(v[x])*GLYPH_SIZE

		case MISC_LD_B:
			if err := mc.checkRange(at, mc.State.Index, 3); err != nil {
				return err
			}

			for i, digit := range encoding.BCD(v[x]) {
				mc.write(mc.State.Index+uint16(i), digit)
			}

		case MISC_STORE:
			if err := mc.checkRange(at, mc.State.Index, int(x)+1); err != nil {
				return err
			}

			for i := uint16(0); i <= x; i++ {
				mc.write(mc.State.Index+i, v[i])
			}

			mc.State.Index += x + 1

		case MISC_LOAD:
			if err := mc.checkRange(at, mc.State.Index, int(x)+1); err != nil {
				return err
			}

			for i := uint16(0); i <= x; i++ {
				v[i] = mc.read(mc.State.Index + i)
			}

			mc.State.Index += x + 1

		default:
			return &UnknownOpcodeError{at, instruction}
		}
	}

	return nil
}
