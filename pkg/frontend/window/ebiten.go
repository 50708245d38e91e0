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
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/keypad"
	"github.com/lassandro/gochip8/pkg/machine"
)

var keymap = layoutKeymap()

// layoutKeymap maps the ebiten keys named by keypad.Layout onto the hex keypad.
// Digit keys are named "Digit1" and letters "A", so only single character
// names are candidates.
func layoutKeymap() map[ebiten.Key]uint8 {
	keys := make(map[ebiten.Key]uint8, machine.KEY_COUNT)

	for key := ebiten.Key(0); key <= ebiten.KeyMax; key++ {
		name := []rune(strings.TrimPrefix(key.String(), "Digit"))

		if len(name) != 1 {
			continue
		}

		if value, ok := keypad.KeyForRune(name[0]); ok {
			keys[key] = value
		}
	}

	return keys
}

var overlayColor = color.RGBA{0xFF, 0x40, 0x40, 0xFF}

type game struct {
	window  *Window
	image   *ebiten.Image
	showFPS bool
}

// Run opens the window and blocks until it is closed, either by the user
// or through Close. It must be called from the main goroutine.
func (w *Window) Run() error {
	ebiten.SetWindowSize(display.WIDTH*w.Scale, display.HEIGHT*w.Scale)
	ebiten.SetWindowTitle(w.Title)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(60)

	return ebiten.RunGame(&game{window: w})
}

func (g *game) Update() error {
	if g.window.shouldStop(
		ebiten.IsWindowBeingClosed(),
		inpututil.IsKeyJustPressed(ebiten.KeyEscape),
	) {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.showFPS = !g.showFPS
	}

	for key, value := range keymap {
		g.window.keypad.Set(value, ebiten.IsKeyPressed(key))
	}

	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.image == nil {
		g.image = ebiten.NewImage(display.WIDTH, display.HEIGHT)
	}

	pixels, status := g.window.Frame()
	g.image.WritePixels(pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.window.Scale), float64(g.window.Scale))
	screen.DrawImage(g.image, op)

	if message := overlay(status); message != "" {
		text.Draw(screen, message, basicfont.Face7x13, 6, 16, overlayColor)
	}

	if g.showFPS {
		ebitenutil.DebugPrintAt(
			screen,
			fmt.Sprintf("%0.1f FPS", ebiten.ActualFPS()),
			6,
			display.HEIGHT*g.window.Scale-20,
		)
	}
}

func (g *game) Layout(_, _ int) (int, int) {
	return display.WIDTH * g.window.Scale, display.HEIGHT * g.window.Scale
}
