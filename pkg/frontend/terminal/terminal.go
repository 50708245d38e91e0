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

package terminal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/host"
	"github.com/lassandro/gochip8/pkg/keypad"
	"github.com/lassandro/gochip8/pkg/machine"
)

// Terminals report key presses but never releases, so a key counts as held
// for this many frames after its last keystroke.
const DEFAULT_HOLD_FRAMES = 6

const (
	MIN_COLUMNS = display.WIDTH
	MIN_ROWS    = display.HEIGHT/2 + 1
)

type TerminalSizeError struct {
	Columns, Rows int
}

func (err *TerminalSizeError) Error() string {
	return fmt.Sprintf(
		"Terminal too small\n\twant:%dx%d\n\thave:%dx%d",
		MIN_COLUMNS,
		MIN_ROWS,
		err.Columns,
		err.Rows,
	)
}

type Terminal struct {
	HoldFrames int

	// Called on Ctrl-C instead of quitting when set
	Interrupt func()

	in     io.Reader
	out    io.Writer
	keypad *keypad.Keypad

	hold    [machine.KEY_COUNT]int
	buf     []byte
	quit    bool
	drawn   bool
	status  machine.Status
	restore *term.State
}

func New(in io.Reader, out io.Writer, kp *keypad.Keypad) *Terminal {
	return &Terminal{
		HoldFrames: DEFAULT_HOLD_FRAMES,
		in:         in,
		out:        out,
		keypad:     kp,
		buf:        make([]byte, 64),
	}
}

func (t *Terminal) fd() (int, bool) {
	file, ok := t.in.(*os.File)

	if !ok || !term.IsTerminal(int(file.Fd())) {
		return 0, false
	}

	return int(file.Fd()), true
}

// Open switches the input terminal into raw, non-blocking mode.
func (t *Terminal) Open() error {
	if _, ok := t.fd(); !ok {
		return errors.New("input is not a terminal")
	}

	if file, ok := t.out.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		columns, rows, err := term.GetSize(int(file.Fd()))

		if err == nil && (columns < MIN_COLUMNS || rows < MIN_ROWS) {
			return &TerminalSizeError{columns, rows}
		}
	}

	if err := t.Resume(); err != nil {
		return err
	}

	fmt.Fprint(t.out, "\033[?25l\033[2J")

	return nil
}

// Resume re-enters raw mode after Suspend.
func (t *Terminal) Resume() error {
	fd, ok := t.fd()

	if !ok || t.restore != nil {
		return nil
	}

	state, err := term.MakeRaw(fd)

	if err != nil {
		return err
	}

	t.restore = state

	if err := nonBlocking(fd); err != nil {
		term.Restore(fd, state)
		t.restore = nil
		return err
	}

	t.drawn = false

	return nil
}

// Suspend restores the terminal for line based input, such as a REPL.
func (t *Terminal) Suspend() error {
	fd, ok := t.fd()

	if !ok || t.restore == nil {
		return nil
	}

	err := term.Restore(fd, t.restore)
	t.restore = nil

	return err
}

func (t *Terminal) Close() error {
	fmt.Fprint(t.out, "\033[0m\033[?25h\r\n")

	return t.Suspend()
}

func (t *Terminal) Poll() error {
	n, err := t.in.Read(t.buf)

	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	keys, quit, interrupt := decode(t.buf[:n])

	for i := range t.hold {
		if t.hold[i] > 0 {
			t.hold[i]--
		}
	}

	for _, key := range keys {
		t.hold[key] = t.HoldFrames
	}

	for key, frames := range t.hold {
		t.keypad.Set(uint8(key), frames > 0)
	}

	if interrupt {
		if t.Interrupt == nil {
			quit = true
		} else {
			t.Interrupt()
		}
	}

	if quit {
		t.quit = true
	}

	if t.quit {
		return host.ErrQuit
	}

	return nil
}

// decode maps keystrokes onto keypad keys. A lone escape quits; escape
// sequences such as arrow keys are skipped.
func decode(input []byte) (keys []uint8, quit bool, interrupt bool) {
	for i := 0; i < len(input); i++ {
		switch c := input[i]; c {
		case 0x03:
			interrupt = true

		case 0x1B:
			if i+1 < len(input) && (input[i+1] == '[' || input[i+1] == 'O') {
				i += 2
				for i < len(input) && !isFinal(input[i]) {
					i++
				}
				continue
			}

			quit = true

		default:
			if key, ok := keypad.KeyForRune(rune(c)); ok {
				keys = append(keys, key)
			}
		}
	}

	return
}

func isFinal(c byte) bool {
	return c >= 0x40 && c <= 0x7E
}

func (t *Terminal) Present(fb *display.Framebuffer, status machine.Status) error {
	if !fb.Dirty() && t.drawn && status == t.status {
		return nil
	}

	t.drawn = true
	t.status = status

	var frame bytes.Buffer
	frame.WriteString("\033[H")
	frame.WriteString(Render(fb.Snapshot()))
	frame.WriteString("\033[K")

	switch status {
	case machine.STATUS_WAITING:
		frame.WriteString("\033[7m WAITING FOR KEY \033[0m")
	case machine.STATUS_HALTED:
		frame.WriteString("\033[7m HALTED \033[0m")
	}

	_, err := t.out.Write(frame.Bytes())

	return err
}

// Render draws two pixel rows per text line using half block characters.
func Render(rows [display.HEIGHT]uint64) string {
	var builder bytes.Buffer

	for y := 0; y < display.HEIGHT; y += 2 {
		top, bottom := rows[y], rows[y+1]

		for x := display.WIDTH - 1; x >= 0; x-- {
			upper := top>>x&1 != 0
			lower := bottom>>x&1 != 0

			switch {
			case upper && lower:
				builder.WriteRune('█')
			case upper:
				builder.WriteRune('▀')
			case lower:
				builder.WriteRune('▄')
			default:
				builder.WriteByte(' ')
			}
		}

		builder.WriteString("\r\n")
	}

	return builder.String()
}
