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

type Status uint8

func (s Status) String() string {
	switch s {
	case STATUS_RUNNING:
		return "running"
	case STATUS_WAITING:
		return "waiting"
	case STATUS_HALTED:
		return "halted"
	}

	return "<invalid>"
}

// Display is the pixel capability the engine draws through. Coordinates
// passed in are always already wrapped to the screen.
type Display interface {
	Clear()
	Pixel(x, y int) bool
	SetPixel(x, y int, on bool)
}

// Keypad reports held keys and queued released-to-pressed edges.
type Keypad interface {
	IsPressed(key uint8) bool
	NextPress() (uint8, bool)
	ClearEdges()
	Reset()
}

type Timers interface {
	Delay() uint8
	SetDelay(value uint8)
	Sound() uint8
	SetSound(value uint8)
	Reset()
}

type Quirks struct {
	// Leave VF untouched on 8xy1, 8xy2 and 8xy3 instead of clearing it
	PreserveFlagOnLogic bool
}

type MachineState struct {
	Registers    [REGISTER_COUNT]uint8
	Index        uint16
	Program      uint16
	Stack        [STACK_SIZE]uint16
	StackPointer uint8
	Memory       [MEMORY_SIZE]uint8

	Status       Status
	WaitRegister uint8
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	State    MachineState
	Quirks   Quirks
	Display  Display
	Keypad   Keypad
	Timers   Timers
	Random   func() uint8
	Debugger MachineDebugger
}
