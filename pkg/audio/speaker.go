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

package audio

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

type Speaker struct {
	ctx    *oto.Context
	player *oto.Player
	tone   *Tone
	mutex  sync.Mutex
}

func NewSpeaker() (*Speaker, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SAMPLE_RATE,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)

	if err != nil {
		return nil, err
	}

	<-ready

	sp := &Speaker{ctx: ctx, tone: NewTone()}
	sp.player = ctx.NewPlayer(sp.tone)
	sp.player.Play()

	return sp, nil
}

func (sp *Speaker) SetTone(on bool) {
	sp.tone.SetTone(on)
}

func (sp *Speaker) Close() error {
	sp.mutex.Lock()
	defer sp.mutex.Unlock()

	if sp.player == nil {
		return nil
	}

	err := sp.player.Close()
	sp.player = nil

	return err
}
