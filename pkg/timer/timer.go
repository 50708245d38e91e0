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

package timer

import (
	"sync/atomic"

	"github.com/lassandro/gochip8/pkg/machine"
)

const FREQUENCY = 60

// Beeper is told when the sound timer starts or stops running.
type Beeper interface {
	SetTone(on bool)
}

var _ machine.Timers = (*Timers)(nil)

type Timers struct {
	delay uint8
	sound uint8

	beeping atomic.Bool
	beeper  Beeper
}

func New(beeper Beeper) *Timers {
	return &Timers{beeper: beeper}
}

func (t *Timers) Delay() uint8 {
	return t.delay
}

func (t *Timers) SetDelay(value uint8) {
	t.delay = value
}

func (t *Timers) Sound() uint8 {
	return t.sound
}

func (t *Timers) SetSound(value uint8) {
	t.sound = value
	t.update()
}

// Tick decrements both counters once, stopping at zero.
func (t *Timers) Tick() {
	if t.delay > 0 {
		t.delay--
	}

	if t.sound > 0 {
		t.sound--
	}

	t.update()
}

func (t *Timers) Reset() {
	t.delay = 0
	t.sound = 0
	t.update()
}

func (t *Timers) Beeping() bool {
	return t.beeping.Load()
}

func (t *Timers) update() {
	on := t.sound > 0

	if t.beeping.Swap(on) != on && t.beeper != nil {
		t.beeper.SetTone(on)
	}
}
