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

package display

import (
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/lassandro/gochip8/pkg/machine"
)

const (
	WIDTH  = machine.SCREEN_WIDTH
	HEIGHT = machine.SCREEN_HEIGHT
)

var _ machine.Display = (*Framebuffer)(nil)

// Framebuffer is a 64x32 one bit per pixel grid. Each row is stored as a
// uint64 with x=0 in the most significant bit. The engine is the only writer;
// presenters read from their own goroutine through Snapshot and RGBA.
type Framebuffer struct {
	mu    sync.RWMutex
	rows  [HEIGHT]uint64
	dirty atomic.Bool
}

func New() *Framebuffer {
	return &Framebuffer{}
}

func mask(x int) uint64 {
	return 1 << (WIDTH - 1 - (x % WIDTH))
}

func (fb *Framebuffer) Clear() {
	fb.mu.Lock()
	fb.rows = [HEIGHT]uint64{}
	fb.mu.Unlock()

	fb.dirty.Store(true)
}

func (fb *Framebuffer) Pixel(x, y int) bool {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	return fb.rows[y%HEIGHT]&mask(x) != 0
}

func (fb *Framebuffer) SetPixel(x, y int, on bool) {
	fb.mu.Lock()
	if on {
		fb.rows[y%HEIGHT] |= mask(x)
	} else {
		fb.rows[y%HEIGHT] &^= mask(x)
	}
	fb.mu.Unlock()

	fb.dirty.Store(true)
}

func (fb *Framebuffer) Row(y int) uint64 {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	return fb.rows[y%HEIGHT]
}

func (fb *Framebuffer) Snapshot() [HEIGHT]uint64 {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	return fb.rows
}

// Dirty reports whether the framebuffer changed since the last call and
// clears the flag.
func (fb *Framebuffer) Dirty() bool {
	return fb.dirty.Swap(false)
}

// RGBA expands the framebuffer into WIDTH*HEIGHT*4 bytes of pixel data.
func (fb *Framebuffer) RGBA(on, off color.RGBA) []byte {
	rows := fb.Snapshot()
	pixels := make([]byte, WIDTH*HEIGHT*4)

	for y, row := range rows {
		for x := 0; x < WIDTH; x++ {
			c := off
			if row&mask(x) != 0 {
				c = on
			}

			i := (y*WIDTH + x) * 4
			pixels[i+0] = c.R
			pixels[i+1] = c.G
			pixels[i+2] = c.B
			pixels[i+3] = c.A
		}
	}

	return pixels
}

// Lit counts the pixels currently on.
func (fb *Framebuffer) Lit() int {
	count := 0

	for _, row := range fb.Snapshot() {
		for ; row != 0; row &= row - 1 {
			count++
		}
	}

	return count
}
