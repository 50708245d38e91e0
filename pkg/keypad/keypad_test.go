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
	"sync"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestKeyForRune(t *testing.T) {
	tests := []struct {
		r    rune
		want uint8
	}{
		{'1', 0x1}, {'2', 0x2}, {'3', 0x3}, {'4', 0xC},
		{'q', 0x4}, {'w', 0x5}, {'e', 0x6}, {'r', 0xD},
		{'a', 0x7}, {'s', 0x8}, {'d', 0x9}, {'f', 0xE},
		{'z', 0xA}, {'x', 0x0}, {'c', 0xB}, {'v', 0xF},
		{'Q', 0x4}, {'V', 0xF},
	}

	for _, test := range tests {
		have, ok := KeyForRune(test.r)
		assert.True(t, ok)
		assert.Equal(t, test.want, have)
	}

	_, ok := KeyForRune('p')
	assert.False(t, ok)

	_, ok = KeyForRune('5')
	assert.False(t, ok)
}

func TestPressRelease(t *testing.T) {
	kp := New()

	kp.Press(0xA)
	assert.True(t, kp.IsPressed(0xA))
	assert.False(t, kp.IsPressed(0xB))

	kp.Release(0xA)
	assert.False(t, kp.IsPressed(0xA))

	kp.Press(0x10)
	assert.False(t, kp.IsPressed(0x10))
	assert.Equal(t, [16]bool{}, kp.Held())
}

func TestNextPressQueuesEdges(t *testing.T) {
	kp := New()

	_, ok := kp.NextPress()
	assert.False(t, ok)

	kp.Press(0x3)
	kp.Press(0x3) // still held, no new edge
	kp.Press(0x7)
	kp.Release(0x3)
	kp.Press(0x3)

	for _, want := range []uint8{0x3, 0x7, 0x3} {
		key, ok := kp.NextPress()
		assert.True(t, ok)
		assert.Equal(t, want, key)
	}

	_, ok = kp.NextPress()
	assert.False(t, ok)
}

func TestEdgeQueueBounded(t *testing.T) {
	kp := New()

	for i := 0; i < 1000; i++ {
		kp.Set(uint8(i%16), true)
		kp.Set(uint8(i%16), false)
	}

	assert.Equal(t, 16, len(kp.edges))
	assert.True(t, cap(kp.edges) <= 32)

	// The oldest presses were dropped, the last 16 remain in order
	for i := 984; i < 1000; i++ {
		key, ok := kp.NextPress()
		assert.True(t, ok)
		assert.Equal(t, uint8(i%16), key)
	}

	_, ok := kp.NextPress()
	assert.False(t, ok)
}

func TestClearEdgesKeepsHeld(t *testing.T) {
	kp := New()

	kp.Press(0x5)
	kp.ClearEdges()

	_, ok := kp.NextPress()
	assert.False(t, ok)
	assert.True(t, kp.IsPressed(0x5))

	kp.Set(0x5, false)
	kp.Set(0x5, true)

	key, ok := kp.NextPress()
	assert.True(t, ok)
	assert.Equal(t, uint8(0x5), key)
}

func TestReset(t *testing.T) {
	kp := New()

	kp.Press(0x1)
	kp.Press(0xF)
	kp.Reset()

	assert.Equal(t, [16]bool{}, kp.Held())

	_, ok := kp.NextPress()
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	kp := New()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			kp.Set(uint8(i%16), i%2 == 0)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			kp.IsPressed(uint8(i % 16))
			kp.NextPress()
		}
	}()

	wg.Wait()
}
