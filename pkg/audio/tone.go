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

package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/lassandro/gochip8/pkg/timer"
)

const (
	SAMPLE_RATE = 44100
	TONE_HZ     = 440
	AMPLITUDE   = 0.2

	// Samples per 60Hz timer frame
	FRAME_SAMPLES = SAMPLE_RATE / timer.FREQUENCY
)

// Tone is a mono 440Hz sine source that is silent while off. Each consumer
// of samples needs its own Tone since the phase is not shared.
type Tone struct {
	on    atomic.Bool
	phase float64
}

func NewTone() *Tone {
	return &Tone{}
}

func (t *Tone) SetTone(on bool) {
	t.on.Store(on)
}

func (t *Tone) On() bool {
	return t.on.Load()
}

// Sample returns the next sample in [-AMPLITUDE, AMPLITUDE].
func (t *Tone) Sample() float32 {
	if !t.on.Load() {
		t.phase = 0
		return 0
	}

	value := float32(AMPLITUDE * math.Sin(2*math.Pi*t.phase))

	t.phase += TONE_HZ / float64(SAMPLE_RATE)
	if t.phase >= 1 {
		t.phase -= 1
	}

	return value
}

// Read fills p with float32 little endian samples.
func (t *Tone) Read(p []byte) (int, error) {
	n := len(p) / 4 * 4

	for i := 0; i < n; i += 4 {
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(t.Sample()))
	}

	return n, nil
}

// Fanout forwards tone changes to every beeper in the list.
type Fanout []timer.Beeper

func (f Fanout) SetTone(on bool) {
	for _, beeper := range f {
		beeper.SetTone(on)
	}
}
