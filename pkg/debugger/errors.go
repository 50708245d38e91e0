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
	"errors"
	"fmt"
	"strings"
)

var ErrNoSuchPoint = errors.New("no such breakpoint or watchpoint")

type InvalidRegisterError struct {
	Name string
}

func (err *InvalidRegisterError) Error() string {
	return fmt.Sprintf(
		"Invalid register '%s'\n\twant:V0-VF, I, PC, SP, DT, ST",
		strings.ToUpper(err.Name),
	)
}

type RegisterRangeError struct {
	Name  string
	Limit uint16
	Value uint16
}

func (err *RegisterRangeError) Error() string {
	return fmt.Sprintf(
		"Value too large for %s\n\twant:<=%#04x\n\thave:%#04x",
		strings.ToUpper(err.Name),
		err.Limit,
		err.Value,
	)
}
