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

package window

import (
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/host"
	"github.com/lassandro/gochip8/pkg/keypad"
	"github.com/lassandro/gochip8/pkg/machine"
)

const DEFAULT_SCALE = 10

var (
	DefaultOn  = color.RGBA{0xE8, 0xE8, 0xE8, 0xFF}
	DefaultOff = color.RGBA{0x10, 0x10, 0x10, 0xFF}
)

// Window hands frames from the machine goroutine to the render loop, and
// keyboard state the other way through the keypad.
type Window struct {
	Title   string
	Scale   int
	On, Off color.RGBA

	keypad *keypad.Keypad

	mutex  sync.Mutex
	pixels []byte
	status machine.Status

	closed   atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
}

func New(kp *keypad.Keypad, scale int) *Window {
	if scale <= 0 {
		scale = DEFAULT_SCALE
	}

	w := &Window{
		Title:  "gochip8",
		Scale:  scale,
		On:     DefaultOn,
		Off:    DefaultOff,
		keypad: kp,
		done:   make(chan struct{}),
	}

	w.pixels = display.New().RGBA(w.On, w.Off)

	return w
}

func (w *Window) Poll() error {
	if w.closed.Load() {
		return host.ErrQuit
	}

	return nil
}

func (w *Window) Present(fb *display.Framebuffer, status machine.Status) error {
	var pixels []byte

	if fb.Dirty() {
		pixels = fb.RGBA(w.On, w.Off)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if pixels != nil {
		w.pixels = pixels
	}

	w.status = status

	return nil
}

// Frame returns the last presented pixels and machine status.
func (w *Window) Frame() ([]byte, machine.Status) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.pixels, w.status
}

// Close ends the render loop once the machine stops.
func (w *Window) Close() {
	w.doneOnce.Do(func() { close(w.done) })
}

func (w *Window) Closed() bool {
	return w.closed.Load()
}

func (w *Window) quit() {
	w.closed.Store(true)
}

// shouldStop reports whether the render loop ends this tick. A close
// request or Escape also marks the window closed for the machine side.
func (w *Window) shouldStop(closeRequested, escape bool) bool {
	if closeRequested || escape {
		w.quit()
		return true
	}

	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func overlay(status machine.Status) string {
	switch status {
	case machine.STATUS_WAITING:
		return "WAITING FOR KEY"
	case machine.STATUS_HALTED:
		return "HALTED"
	}

	return ""
}
