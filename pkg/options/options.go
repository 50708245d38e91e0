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
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrogolib/log"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/host"
	"github.com/lassandro/gochip8/pkg/machine"
)

const (
	FRONTEND_WINDOW   = "window"
	FRONTEND_TERMINAL = "terminal"
)

const (
	MAX_HZ    = 100000
	MAX_SCALE = 64
)

type Options struct {
	Input string

	Hz       int
	Scale    int
	LoadAddr uint16
	Frontend string

	Mute bool
	Wav  string

	Debug  bool
	Quiet  bool
	Trace  bool
	Strict bool

	PreserveFlag bool

	Seed   int64
	Seeded bool

	Debugger  bool
	Statsview bool
}

// UsageError is returned for arguments that should print the usage text.
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	if e.msg == "" {
		return "invalid arguments"
	}

	return e.msg
}

func (e *UsageError) ShowUsage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s [options] <rom file>\n\n", e.flags.Name())
	e.flags.SetOutput(w)
	e.flags.PrintDefaults()
	fmt.Fprintln(w)
}

func readOptionFlags(flags *flag.FlagSet, opts *Options, load *string) {
	flags.IntVar(&opts.Hz, "hz", host.DEFAULT_HZ, "instructions executed per second")
	flags.IntVar(&opts.Scale, "scale", 10, "window pixels per CHIP-8 pixel")
	flags.StringVar(load, "load", "0x200", "address the ROM image is loaded at")
	flags.StringVar(&opts.Frontend, "frontend", FRONTEND_WINDOW, "display frontend (window/terminal)")
	flags.BoolVar(&opts.Mute, "mute", false, "disable the speaker")
	flags.StringVar(&opts.Wav, "wav", "", "record the beeper to a .wav file")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
	flags.BoolVar(&opts.Trace, "trace", false, "log every executed instruction, implies -debug")
	flags.BoolVar(&opts.Strict, "strict", false, "halt on unknown opcodes")
	flags.BoolVar(&opts.PreserveFlag, "vf-preserve", false, "leave VF untouched on OR, AND and XOR")
	flags.Int64Var(&opts.Seed, "seed", 0, "seed for the random number generator")
	flags.BoolVar(&opts.Debugger, "dbg", false, "start in the interactive debugger")
	flags.BoolVar(&opts.Statsview, "statsview", false, "serve runtime statistics over http")
}

// ParseFlags parses args, excluding the program name, into Options.
func ParseFlags(name string, args []string) (Options, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	var opts Options
	var load string
	readOptionFlags(flags, &opts, &load)

	err := flags.Parse(args)
	rest := flags.Args()

	if err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}

	if len(rest) == 0 {
		return opts, &UsageError{flags: flags}
	}

	if len(rest) > 1 {
		return opts, &UsageError{
			flags: flags,
			msg: fmt.Sprintf(
				"Potential argument %s found after ROM file, please pass the ROM file as last argument",
				rest[1],
			),
		}
	}

	opts.Input = rest[0]

	flags.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.Seeded = true
		}
	})

	if err := normalizeOptions(&opts, load); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}

	return opts, nil
}

func normalizeOptions(opts *Options, load string) error {
	opts.Frontend = strings.ToLower(opts.Frontend)

	if opts.Frontend != FRONTEND_WINDOW && opts.Frontend != FRONTEND_TERMINAL {
		return fmt.Errorf(
			"unsupported frontend: %s. Valid options: %s, %s",
			opts.Frontend,
			FRONTEND_WINDOW,
			FRONTEND_TERMINAL,
		)
	}

	if opts.Hz < 1 || opts.Hz > MAX_HZ {
		return fmt.Errorf("cpu frequency must be between 1 and %d", MAX_HZ)
	}

	if opts.Scale < 1 || opts.Scale > MAX_SCALE {
		return fmt.Errorf("scale must be between 1 and %d", MAX_SCALE)
	}

	addr, err := encoding.DecodeLiteral(load)

	if err != nil {
		return fmt.Errorf("invalid load address: %s", load)
	}

	if addr < machine.MEMSPACE_FONT_END || addr >= machine.MEMORY_SIZE {
		return fmt.Errorf(
			"load address must be between %#04x and %#04x",
			machine.MEMSPACE_FONT_END,
			machine.MEMORY_SIZE-1,
		)
	}

	opts.LoadAddr = addr

	if opts.Trace {
		opts.Debug = true
	}

	if opts.Debug && opts.Quiet {
		return fmt.Errorf("-q can not be combined with -debug or -trace")
	}

	return nil
}

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
