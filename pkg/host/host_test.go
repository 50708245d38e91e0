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

package host_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/host"
	"github.com/lassandro/gochip8/pkg/keypad"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/timer"
)

type fakeClock struct {
	t      time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.t = c.t.Add(d)
	c.sleeps++
}

type fakeFrontend struct {
	polls    int
	quitAt   int
	statuses []machine.Status
	lit      []int
}

func (f *fakeFrontend) Poll() error {
	f.polls++

	if f.quitAt > 0 && f.polls >= f.quitAt {
		return host.ErrQuit
	}

	return nil
}

func (f *fakeFrontend) Present(fb *display.Framebuffer, status machine.Status) error {
	f.statuses = append(f.statuses, status)
	f.lit = append(f.lit, fb.Lit())
	return nil
}

type fakeListener struct {
	frames int
	err    error
}

func (l *fakeListener) Frame() error {
	l.frames++
	return l.err
}

func newRunner(t *testing.T, program ...uint8) (*host.Runner, *fakeFrontend, *timer.Timers) {
	t.Helper()

	fb := display.New()
	timers := timer.New(nil)
	mc := machine.New(fb, keypad.New(), timers)
	assert.NoError(t, mc.Load(program, machine.MEMSPACE_PROGRAM))

	clock := &fakeClock{t: time.Unix(0, 0)}
	frontend := &fakeFrontend{}

	return &host.Runner{
		Machine:  mc,
		Display:  fb,
		Timers:   timers,
		Frontend: frontend,
		Logger:   log.NewTestLogger(t),
		Hz:       600,
		Now:      clock.Now,
		Sleep:    clock.Sleep,
	}, frontend, timers
}

func TestRunFrames(t *testing.T) {
	// JP 0x200
	runner, frontend, timers := newRunner(t, 0x12, 0x00)
	listener := &fakeListener{}
	runner.Listeners = append(runner.Listeners, listener)
	frontend.quitAt = 3
	timers.SetDelay(5)

	assert.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, 3, frontend.polls)
	assert.Equal(t, []machine.Status{
		machine.STATUS_RUNNING,
		machine.STATUS_RUNNING,
	}, frontend.statuses)
	assert.Equal(t, 2, listener.frames)
	assert.Equal(t, uint8(3), timers.Delay())
}

func TestRunFatal(t *testing.T) {
	// RET
	runner, frontend, _ := newRunner(t, 0x00, 0xEE)

	err := runner.Run(context.Background())

	var underflow *machine.StackUnderflowError
	assert.True(t, errors.As(err, &underflow))
	assert.Equal(t, []machine.Status{machine.STATUS_HALTED}, frontend.statuses)
	assert.Equal(t, machine.STATUS_HALTED, runner.Machine.Status())
}

func TestRunLinger(t *testing.T) {
	// DRW V0, V0, 5 with I on glyph 0; RET
	runner, frontend, _ := newRunner(t, 0xD0, 0x05, 0x00, 0xEE)
	runner.Linger = true
	frontend.quitAt = 4

	err := runner.Run(context.Background())

	var underflow *machine.StackUnderflowError
	assert.True(t, errors.As(err, &underflow))
	assert.Equal(t, 3, len(frontend.statuses))
	assert.Equal(t, []int{14, 14, 14}, frontend.lit)

	for _, status := range frontend.statuses {
		assert.Equal(t, machine.STATUS_HALTED, status)
	}
}

func TestRunLingerCancel(t *testing.T) {
	// RET
	runner, frontend, _ := newRunner(t, 0x00, 0xEE)
	runner.Linger = true

	ctx, cancel := context.WithCancel(context.Background())
	runner.Sleep = func(time.Duration) { cancel() }

	assert.Error(t, runner.Run(ctx))
	assert.Equal(t, 1, len(frontend.statuses))
}

func TestRunUnknownOpcode(t *testing.T) {
	// 5121 is not an instruction; JP 0x202
	runner, frontend, _ := newRunner(t, 0x51, 0x21, 0x12, 0x02)
	frontend.quitAt = 2

	assert.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, machine.STATUS_RUNNING, runner.Machine.Status())
	assert.Equal(t, uint16(0x202), runner.Machine.State.Program)
}

func TestRunStrict(t *testing.T) {
	runner, _, _ := newRunner(t, 0x51, 0x21, 0x12, 0x02)
	runner.Strict = true

	err := runner.Run(context.Background())

	var unknown *machine.UnknownOpcodeError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, uint16(0x5121), unknown.Opcode)
	assert.Equal(t, machine.STATUS_HALTED, runner.Machine.Status())
}

func TestRunMachineCall(t *testing.T) {
	// SYS 0x123; JP 0x202
	runner, frontend, _ := newRunner(t, 0x01, 0x23, 0x12, 0x02)
	runner.Strict = true
	frontend.quitAt = 2

	assert.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, machine.STATUS_RUNNING, runner.Machine.Status())
}

func TestRunTrace(t *testing.T) {
	// CLS; JP 0x202
	runner, frontend, _ := newRunner(t, 0x00, 0xE0, 0x12, 0x02)
	runner.Trace = true
	frontend.quitAt = 2

	assert.NoError(t, runner.Run(context.Background()))
}

func TestRunListenerError(t *testing.T) {
	runner, _, _ := newRunner(t, 0x12, 0x00)
	listener := &fakeListener{err: errors.New("disk full")}
	runner.Listeners = append(runner.Listeners, listener)

	err := runner.Run(context.Background())

	assert.Error(t, err)
	assert.Equal(t, "disk full", err.Error())
	assert.Equal(t, 1, listener.frames)
}

func TestRunCancelled(t *testing.T) {
	runner, frontend, _ := newRunner(t, 0x12, 0x00)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, runner.Run(ctx))
	assert.Equal(t, 0, frontend.polls)
	assert.Equal(t, uint16(0x200), runner.Machine.State.Program)
}

func TestRunInvalidFrequency(t *testing.T) {
	runner, _, _ := newRunner(t, 0x12, 0x00)
	runner.Hz = -1

	assert.Error(t, runner.Run(context.Background()))
}

func TestRunPacing(t *testing.T) {
	runner, frontend, _ := newRunner(t, 0x12, 0x00)
	clock := &fakeClock{t: time.Unix(0, 0)}
	runner.Now = clock.Now
	runner.Sleep = clock.Sleep
	frontend.quitAt = 2

	assert.NoError(t, runner.Run(context.Background()))

	// One frame is ten cycles at 600Hz, plus one short sleep per frame to
	// land on the boundary itself.
	assert.True(t, clock.sleeps >= 20)
	assert.True(t, clock.sleeps <= 22)
}

type frameFunc func() error

func (f frameFunc) Frame() error {
	return f()
}

func TestRunLowFrequency(t *testing.T) {
	program := make([]uint8, 0, 32)
	for i := 0; i < 16; i++ {
		// ADD V0, 1
		program = append(program, 0x70, 0x01)
	}

	runner, frontend, timers := newRunner(t, program...)
	clock := &fakeClock{t: time.Unix(0, 0)}
	runner.Now = clock.Now
	runner.Sleep = clock.Sleep
	runner.Hz = 10
	timers.SetDelay(100)

	// The quitting poll is the first of the second simulated second
	frontend.quitAt = 61

	assert.NoError(t, runner.Run(context.Background()))

	assert.Equal(t, uint8(40), timers.Delay())
	assert.Equal(t, 60, len(frontend.statuses))

	elapsed := clock.t.Sub(time.Unix(0, 0))
	assert.True(t, elapsed >= time.Second)
	assert.True(t, elapsed < time.Second+2*time.Second/60)

	cycles := runner.Machine.State.Registers[0]
	assert.True(t, cycles >= 10)
	assert.True(t, cycles <= 11)
}

func TestRunKeyWait(t *testing.T) {
	// LD V0, K; JP 0x202
	runner, frontend, timers := newRunner(t, 0xF0, 0x0A, 0x12, 0x02)
	kp := runner.Machine.Keypad.(*keypad.Keypad)
	timers.SetDelay(10)
	frontend.quitAt = 4

	frames := 0
	runner.Listeners = append(runner.Listeners, frameFunc(func() error {
		frames++
		if frames == 2 {
			kp.Press(0xA)
		}
		return nil
	}))

	assert.NoError(t, runner.Run(context.Background()))

	assert.Equal(t, []machine.Status{
		machine.STATUS_WAITING,
		machine.STATUS_WAITING,
		machine.STATUS_RUNNING,
	}, frontend.statuses)
	assert.Equal(t, uint8(7), timers.Delay())
	assert.Equal(t, uint8(0xA), runner.Machine.State.Registers[0])
	assert.Equal(t, uint16(0x202), runner.Machine.State.Program)
}
