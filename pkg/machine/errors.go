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
	"errors"
	"fmt"
)

var ErrHalted = errors.New("machine is halted")

type fatalError interface {
	error
	fatal()
}

// IsFatal reports whether err leaves the machine unable to continue.
func IsFatal(err error) bool {
	if errors.Is(err, ErrHalted) {
		return true
	}

	var fe fatalError
	return errors.As(err, &fe)
}

type StackOverflowError struct {
	Program uint16
	Target  uint16
}

func (err *StackOverflowError) fatal() {}

func (err *StackOverflowError) Error() string {
	return fmt.Sprintf(
		"%#04x: Stack overflow calling %#04x (depth %d)",
		err.Program,
		err.Target,
		STACK_SIZE,
	)
}

type StackUnderflowError struct {
	Program uint16
}

func (err *StackUnderflowError) fatal() {}

func (err *StackUnderflowError) Error() string {
	return fmt.Sprintf("%#04x: Return with empty stack", err.Program)
}

// AddressError is raised when a fetch or an I relative access would leave
// addressable memory.
type AddressError struct {
	Program uint16
	Addr    uint16
	Size    uint16
}

func (err *AddressError) fatal() {}

func (err *AddressError) Error() string {
	return fmt.Sprintf(
		"%#04x: Access of %d byte(s) at %#04x exceeds memory",
		err.Program,
		err.Size,
		err.Addr,
	)
}

type UnknownOpcodeError struct {
	Program uint16
	Opcode  uint16
}

func (err *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("%#04x: Unknown opcode %04X", err.Program, err.Opcode)
}

// MachineCallError marks a legacy 0nnn call, which is skipped.
type MachineCallError struct {
	Program uint16
	Opcode  uint16
}

func (err *MachineCallError) Error() string {
	return fmt.Sprintf(
		"%#04x: Ignored machine call to %#03x",
		err.Program,
		err.Opcode&0x0FFF,
	)
}

type OversizedImageError struct {
	Addr uint16
	Size int
}

func (err *OversizedImageError) Error() string {
	return fmt.Sprintf(
		"Image of %d bytes at %#04x exceeds memory\n\twant:<=%d\n\thave:%d",
		err.Size,
		err.Addr,
		MEMORY_SIZE-int(err.Addr),
		err.Size,
	)
}

type ProtectedRegionError struct {
	Addr uint16
}

func (err *ProtectedRegionError) Error() string {
	return fmt.Sprintf(
		"Image at %#04x would overwrite the font (%#04x-%#04x)",
		err.Addr,
		MEMSPACE_FONT,
		MEMSPACE_FONT_END-1,
	)
}

type ImageReadError struct {
	Err error
}

func (err *ImageReadError) Error() string {
	return fmt.Sprintf("Error reading image: %v", err.Err)
}

func (err *ImageReadError) Unwrap() error {
	return err.Err
}
