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

//go:build !headless

package window

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/retroenv/retrogolib/assert"

	"github.com/lassandro/gochip8/pkg/keypad"
)

func TestLayoutKeymap(t *testing.T) {
	assert.Equal(t, len(keypad.Layout), len(keymap))

	tests := []struct {
		key  ebiten.Key
		want uint8
	}{
		{ebiten.KeyDigit1, 0x1}, {ebiten.KeyDigit4, 0xC},
		{ebiten.KeyQ, 0x4}, {ebiten.KeyR, 0xD},
		{ebiten.KeyA, 0x7}, {ebiten.KeyF, 0xE},
		{ebiten.KeyZ, 0xA}, {ebiten.KeyX, 0x0}, {ebiten.KeyV, 0xF},
	}

	for _, test := range tests {
		have, ok := keymap[test.key]
		assert.True(t, ok)
		assert.Equal(t, test.want, have)
	}

	_, ok := keymap[ebiten.KeyDigit5]
	assert.False(t, ok)

	_, ok = keymap[ebiten.KeyNumpad1]
	assert.False(t, ok)
}
