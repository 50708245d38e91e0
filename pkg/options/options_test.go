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

package options

import (
	"bytes"
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Options
	}{
		{
			name: "defaults",
			args: []string{"pong.ch8"},
			want: Options{
				Input:    "pong.ch8",
				Hz:       500,
				Scale:    10,
				LoadAddr: 0x200,
				Frontend: FRONTEND_WINDOW,
			},
		},
		{
			name: "terminal",
			args: []string{"-frontend", "Terminal", "-hz", "1000", "-mute", "pong.ch8"},
			want: Options{
				Input:    "pong.ch8",
				Hz:       1000,
				Scale:    10,
				LoadAddr: 0x200,
				Frontend: FRONTEND_TERMINAL,
				Mute:     true,
			},
		},
		{
			name: "trace implies debug",
			args: []string{"-trace", "-strict", "-vf-preserve", "pong.ch8"},
			want: Options{
				Input:        "pong.ch8",
				Hz:           500,
				Scale:        10,
				LoadAddr:     0x200,
				Frontend:     FRONTEND_WINDOW,
				Debug:        true,
				Trace:        true,
				Strict:       true,
				PreserveFlag: true,
			},
		},
		{
			name: "seed and load",
			args: []string{"-seed", "0", "-load", "0x600", "-wav", "out.wav", "-dbg", "eti.ch8"},
			want: Options{
				Input:    "eti.ch8",
				Hz:       500,
				Scale:    10,
				LoadAddr: 0x600,
				Frontend: FRONTEND_WINDOW,
				Wav:      "out.wav",
				Seeded:   true,
				Debugger: true,
			},
		},
		{
			name: "decimal load",
			args: []string{"-load", "#1536", "-q", "-scale", "4", "eti.ch8"},
			want: Options{
				Input:    "eti.ch8",
				Hz:       500,
				Scale:    4,
				LoadAddr: 0x600,
				Frontend: FRONTEND_WINDOW,
				Quiet:    true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFlags("gochip8", tt.args)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlagsUsage(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"no rom", []string{}, "invalid arguments"},
		{"unknown flag", []string{"-bogus", "pong.ch8"}, "bogus"},
		{"flag after rom", []string{"pong.ch8", "-debug"}, "Potential argument -debug"},
		{"frontend", []string{"-frontend", "sdl", "pong.ch8"}, "unsupported frontend: sdl"},
		{"hz", []string{"-hz", "0", "pong.ch8"}, "cpu frequency"},
		{"scale", []string{"-scale", "65", "pong.ch8"}, "scale must be"},
		{"load font", []string{"-load", "0x10", "pong.ch8"}, "load address must be"},
		{"load range", []string{"-load", "0x1000", "pong.ch8"}, "load address must be"},
		{"load literal", []string{"-load", "zz", "pong.ch8"}, "invalid load address"},
		{"quiet debug", []string{"-q", "-trace", "pong.ch8"}, "-q can not be combined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFlags("gochip8", tt.args)

			var usageErr *UsageError
			assert.True(t, errors.As(err, &usageErr))
			assert.ErrorContains(t, err, tt.message)
		})
	}
}

func TestShowUsage(t *testing.T) {
	_, err := ParseFlags("gochip8", nil)

	var usageErr *UsageError
	assert.True(t, errors.As(err, &usageErr))

	var out bytes.Buffer
	usageErr.ShowUsage(&out)

	assert.Contains(t, out.String(), "usage: gochip8 [options] <rom file>")
	assert.Contains(t, out.String(), "-frontend")
	assert.Contains(t, out.String(), "-vf-preserve")
}

func TestCreateLogger(t *testing.T) {
	assert.NotNil(t, CreateLogger(false, false))
	assert.NotNil(t, CreateLogger(true, false))
	assert.NotNil(t, CreateLogger(false, true))
}
