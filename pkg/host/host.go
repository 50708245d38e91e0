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

package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/timer"
)

const DEFAULT_HZ = 500

// ErrQuit is returned by a Frontend when the user asks to leave.
var ErrQuit = errors.New("quit requested")

type Frontend interface {
	// Poll feeds input into the keypad, once per frame
	Poll() error
	Present(fb *display.Framebuffer, status machine.Status) error
}

// FrameListener is notified after every 60Hz tick.
type FrameListener interface {
	Frame() error
}

type Ticker interface {
	Tick()
}

type Runner struct {
	Machine   *machine.Machine
	Display   *display.Framebuffer
	Timers    Ticker
	Frontend  Frontend
	Listeners []FrameListener
	Logger    *log.Logger

	Hz     int
	Strict bool
	Trace  bool

	// Keep presenting frames after a fatal error until the frontend quits
	Linger bool

	Now   func() time.Time
	Sleep func(time.Duration)
}

type clock struct {
	now       func() time.Time
	sleep     func(time.Duration)
	cycle     time.Duration
	frame     time.Duration
	lastFrame time.Time
}

func (r *Runner) clock() (*clock, error) {
	hz := r.Hz

	if hz == 0 {
		hz = DEFAULT_HZ
	}

	if hz < 0 {
		return nil, fmt.Errorf("invalid cpu frequency %d", hz)
	}

	c := &clock{
		now:   r.Now,
		sleep: r.Sleep,
		cycle: time.Second / time.Duration(hz),
		frame: time.Second / timer.FREQUENCY,
	}

	if c.now == nil {
		c.now = time.Now
	}

	if c.sleep == nil {
		c.sleep = time.Sleep
	}

	c.lastFrame = c.now()

	return c, nil
}

// due reports whether a 60Hz frame boundary has passed. A host that falls
// more than a frame behind drops the missed frames instead of bursting.
func (c *clock) due(t time.Time) bool {
	elapsed := t.Sub(c.lastFrame)

	if elapsed < c.frame {
		return false
	}

	if elapsed >= 2*c.frame {
		c.lastFrame = t
	} else {
		c.lastFrame = c.lastFrame.Add(c.frame)
	}

	return true
}

// wait returns how long to sleep until the next cycle or frame boundary,
// whichever comes first.
func (c *clock) wait(t time.Time, nextCycle time.Time) time.Duration {
	wait := nextCycle.Sub(t)

	if frame := c.lastFrame.Add(c.frame).Sub(t); frame < wait {
		wait = frame
	}

	return wait
}

// Run executes the machine until the context is cancelled, the frontend
// quits, or the machine stops with an error.
func (r *Runner) Run(ctx context.Context) error {
	c, err := r.clock()

	if err != nil {
		return err
	}

	if r.Logger == nil {
		r.Logger = log.NewWithConfig(log.DefaultConfig())
	}

	r.Logger.Debug(
		"Starting machine",
		log.Int("hz", int(time.Second/c.cycle)),
		log.Hex("pc", r.Machine.State.Program),
	)

	nextCycle := c.now()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		now := c.now()

		if !now.Before(nextCycle) {
			if err := r.step(); err != nil {
				r.halted(ctx, c)
				return err
			}

			// Cycles lost to a stall are not made up in a burst
			nextCycle = nextCycle.Add(c.cycle)
			if nextCycle.Before(now) {
				nextCycle = now
			}
		}

		if c.due(now) {
			if err := r.frame(); err != nil {
				return filterQuit(err)
			}
		}

		if wait := c.wait(c.now(), nextCycle); wait > 0 {
			c.sleep(wait)
		}
	}
}

func filterQuit(err error) error {
	if errors.Is(err, ErrQuit) {
		return nil
	}

	return err
}

// halted presents the final machine state, then keeps the frontend alive
// when lingering.
func (r *Runner) halted(ctx context.Context, c *clock) {
	for {
		if err := r.frame(); err != nil {
			if !errors.Is(err, ErrQuit) {
				r.Logger.Error("Frontend failed", log.Err(err))
			}

			return
		}

		if !r.Linger {
			return
		}

		c.sleep(c.frame)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// step runs one machine cycle, returning only errors that end the run.
func (r *Runner) step() error {
	mc := r.Machine

	if r.Trace && mc.Status() == machine.STATUS_RUNNING {
		r.trace()
	}

	err := mc.Step()

	if err == nil {
		return nil
	}

	if machine.IsFatal(err) {
		r.Logger.Error("Machine halted", log.Err(err))
		return err
	}

	var unknown *machine.UnknownOpcodeError
	var call *machine.MachineCallError

	switch {
	case errors.As(err, &unknown):
		r.Logger.Error(
			"Unknown opcode",
			log.Hex("pc", unknown.Program),
			log.Hex("opcode", unknown.Opcode),
		)

		if r.Strict {
			mc.State.Status = machine.STATUS_HALTED
			return err
		}

	case errors.As(err, &call):
		r.Logger.Debug(
			"Ignored machine call",
			log.Hex("pc", call.Program),
			log.Hex("target", call.Opcode&0x0FFF),
		)

	default:
		return err
	}

	return nil
}

func (r *Runner) trace() {
	pc := r.Machine.State.Program

	if pc > machine.MEMSPACE_LAST_FETCH {
		return
	}

	mem := &r.Machine.State.Memory
	word := encoding.Word(mem[pc], mem[pc+1])

	r.Logger.Debug(
		"Execute",
		log.Hex("pc", pc),
		log.Hex("opcode", word),
		log.String("instruction", disasm.Instruction(word)),
		log.Hex("i", r.Machine.State.Index),
	)
}

func (r *Runner) frame() error {
	if r.Frontend != nil {
		if err := r.Frontend.Poll(); err != nil {
			return err
		}
	}

	if r.Timers != nil {
		r.Timers.Tick()
	}

	if r.Frontend != nil {
		if err := r.Frontend.Present(r.Display, r.Machine.Status()); err != nil {
			return err
		}
	}

	for _, listener := range r.Listeners {
		if err := listener.Frame(); err != nil {
			return err
		}
	}

	return nil
}
