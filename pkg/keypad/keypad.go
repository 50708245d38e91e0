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

package keypad

import (
	"strings"
	"sync"
	"unicode"

	"github.com/lassandro/gochip8/pkg/machine"
)

// Host keys in QWERTY order, mapped by position onto the hex keypad
//
//	1 2 3 4      1 2 3 C
//	q w e r  ->  4 5 6 D
//	a s d f      7 8 9 E
//	z x c v      A 0 B F
const Layout = "1234qwerasdfzxcv"

var layoutKeys = [machine.KEY_COUNT]uint8{
	0x1, 0x2, 0x3, 0xC,
	0x4, 0x5, 0x6, 0xD,
	0x7, 0x8, 0x9, 0xE,
	0xA, 0x0, 0xB, 0xF,
}

func KeyForRune(r rune) (uint8, bool) {
	i := strings.IndexRune(Layout, unicode.ToLower(r))

	if i == -1 {
		return 0, false
	}

	return layoutKeys[i], true
}

var _ machine.Keypad = (*Keypad)(nil)

// Keypad holds the 16 key states written by the input side and read by the
// engine. Released to pressed transitions are queued in arrival order for
// the key wait instruction.
type Keypad struct {
	mu    sync.Mutex
	held  [machine.KEY_COUNT]bool
	edges []uint8
}

func New() *Keypad {
	return &Keypad{}
}

func (kp *Keypad) Press(key uint8) {
	if key >= machine.KEY_COUNT {
		return
	}

	kp.mu.Lock()
	defer kp.mu.Unlock()

	if !kp.held[key] {
		kp.held[key] = true
		kp.queue(key)
	}
}

// queue keeps at most KEY_COUNT edges, dropping the oldest when full.
func (kp *Keypad) queue(key uint8) {
	if len(kp.edges) == machine.KEY_COUNT {
		copy(kp.edges, kp.edges[1:])
		kp.edges = kp.edges[:len(kp.edges)-1]
	}

	kp.edges = append(kp.edges, key)
}

func (kp *Keypad) Release(key uint8) {
	if key >= machine.KEY_COUNT {
		return
	}

	kp.mu.Lock()
	kp.held[key] = false
	kp.mu.Unlock()
}

// Set presses or releases key.
func (kp *Keypad) Set(key uint8, down bool) {
	if down {
		kp.Press(key)
	} else {
		kp.Release(key)
	}
}

// IsPressed reports false for indices outside 0x0-0xF.
func (kp *Keypad) IsPressed(key uint8) bool {
	if key >= machine.KEY_COUNT {
		return false
	}

	kp.mu.Lock()
	defer kp.mu.Unlock()

	return kp.held[key]
}

func (kp *Keypad) Held() [machine.KEY_COUNT]bool {
	kp.mu.Lock()
	defer kp.mu.Unlock()

	return kp.held
}

// NextPress pops the oldest queued press.
func (kp *Keypad) NextPress() (uint8, bool) {
	kp.mu.Lock()
	defer kp.mu.Unlock()

	if len(kp.edges) == 0 {
		return 0, false
	}

	key := kp.edges[0]
	copy(kp.edges, kp.edges[1:])
	kp.edges = kp.edges[:len(kp.edges)-1]

	return key, true
}

func (kp *Keypad) ClearEdges() {
	kp.mu.Lock()
	kp.edges = kp.edges[:0]
	kp.mu.Unlock()
}

func (kp *Keypad) Reset() {
	kp.mu.Lock()
	kp.held = [machine.KEY_COUNT]bool{}
	kp.edges = kp.edges[:0]
	kp.mu.Unlock()
}
