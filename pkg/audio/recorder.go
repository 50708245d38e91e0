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
	"fmt"
	"io"
	"math"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const RECORD_BIT_DEPTH = 16

// Recorder captures the beeper as a 16 bit mono WAV stream, one frame of
// samples per 60Hz tick.
type Recorder struct {
	mutex  sync.Mutex
	tone   *Tone
	enc    *wav.Encoder
	buf    *goaudio.IntBuffer
	frames int
}

func NewRecorder(out io.WriteSeeker) *Recorder {
	return &Recorder{
		tone: NewTone(),
		enc:  wav.NewEncoder(out, SAMPLE_RATE, RECORD_BIT_DEPTH, 1, 1),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: 1,
				SampleRate:  SAMPLE_RATE,
			},
			Data:           make([]int, FRAME_SAMPLES),
			SourceBitDepth: RECORD_BIT_DEPTH,
		},
	}
}

func (rec *Recorder) SetTone(on bool) {
	rec.tone.SetTone(on)
}

func (rec *Recorder) Frame() error {
	rec.mutex.Lock()
	defer rec.mutex.Unlock()

	for i := range rec.buf.Data {
		rec.buf.Data[i] = int(rec.tone.Sample() * math.MaxInt16)
	}

	if err := rec.enc.Write(rec.buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	rec.frames++

	return nil
}

// Frames returns the number of frames written so far.
func (rec *Recorder) Frames() int {
	rec.mutex.Lock()
	defer rec.mutex.Unlock()

	return rec.frames
}

// Close finishes the WAV header. The underlying writer is left open.
func (rec *Recorder) Close() error {
	rec.mutex.Lock()
	defer rec.mutex.Unlock()

	if err := rec.enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	return nil
}
