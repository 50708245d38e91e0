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

// Package main implements the CHIP-8 emulator command
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"

	"github.com/lassandro/gochip8/pkg/audio"
	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/frontend/terminal"
	"github.com/lassandro/gochip8/pkg/frontend/window"
	"github.com/lassandro/gochip8/pkg/host"
	"github.com/lassandro/gochip8/pkg/keypad"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/options"
	"github.com/lassandro/gochip8/pkg/statsview"
	"github.com/lassandro/gochip8/pkg/timer"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	opts, err := options.ParseFlags(filepath.Base(os.Args[0]), os.Args[1:])
	if err != nil {
		logger := options.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *options.UsageError
		if errors.As(err, &usageErr) {
			printBanner(logger, opts)
			usageErr.ShowUsage(os.Stderr)
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := options.CreateLogger(opts.Debug, opts.Quiet)
	printBanner(logger, opts)

	// Ctrl-C breaks into the debugger instead of cancelling the run
	var ctx context.Context
	if opts.Debugger {
		ctx = context.Background()
	} else {
		ctx = app.Context()
	}

	if err := run(ctx, logger, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Emulation cancelled")
			return
		}
		logger.Error("Emulation failed", log.Err(err))
		os.Exit(1)
	}
}

func printBanner(logger *log.Logger, opts options.Options) {
	if opts.Quiet {
		return
	}

	versionString := version
	if commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		versionString += fmt.Sprintf(" (%s)", commit)
	}

	logger.Info("gochip8", log.String("version", versionString))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}

func run(ctx context.Context, logger *log.Logger, opts options.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	image, err := os.ReadFile(opts.Input)
	if err != nil {
		return fmt.Errorf("reading file '%s': %w", opts.Input, err)
	}

	kp := keypad.New()
	fb := display.New()

	var beepers audio.Fanout
	var listeners []host.FrameListener

	if !opts.Mute {
		speaker, err := audio.NewSpeaker()
		if err != nil {
			logger.Warn("Audio unavailable", log.Err(err))
		} else {
			defer speaker.Close()
			beepers = append(beepers, speaker)
		}
	}

	if opts.Wav != "" {
		file, err := os.Create(opts.Wav)
		if err != nil {
			return fmt.Errorf("creating file '%s': %w", opts.Wav, err)
		}
		defer file.Close()

		rec := audio.NewRecorder(file)
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Error("Writing recording failed", log.String("file", opts.Wav), log.Err(err))
				return
			}
			logger.Info("Recording written", log.String("file", opts.Wav), log.Int("frames", rec.Frames()))
		}()

		beepers = append(beepers, rec)
		listeners = append(listeners, rec)
	}

	timers := timer.New(beepers)
	mc := machine.New(fb, kp, timers)
	mc.Quirks.PreserveFlagOnLogic = opts.PreserveFlag

	if opts.Seeded {
		mc.Random = machine.NewRandom(opts.Seed)
	} else {
		mc.Random = machine.NewRandom(time.Now().UnixNano())
	}

	if err := mc.LoadBin(bytes.NewReader(image), opts.LoadAddr); err != nil {
		return fmt.Errorf("loading file '%s': %w", opts.Input, err)
	}

	if len(image) > 0 {
		logger.Info("ROM loaded",
			log.String("file", filepath.Base(opts.Input)),
			log.Int("size", len(image)),
			log.Uint16("address", opts.LoadAddr),
			log.Hex("first", image[0]),
			log.Hex("last", image[len(image)-1]),
		)
	} else {
		logger.Warn("ROM is empty", log.String("file", filepath.Base(opts.Input)))
	}

	if opts.Statsview {
		if statsview.Available() {
			statsview.Launch(os.Stdout)
		} else {
			logger.Warn("Statistics server not compiled in, rebuild with -tags statsview")
		}
	}

	runner := &host.Runner{
		Machine:   mc,
		Display:   fb,
		Timers:    timers,
		Listeners: listeners,
		Logger:    logger,
		Hz:        opts.Hz,
		Strict:    opts.Strict,
		Trace:     opts.Trace,
	}

	var session *repl
	if opts.Debugger {
		session = newSession(image, opts, kp, cancel)
		mc.Debugger = session.dbg
	}

	start := func() error {
		if session != nil {
			session.prompt(mc)
		}
		return runner.Run(ctx)
	}

	if opts.Frontend == options.FRONTEND_TERMINAL {
		term := terminal.New(os.Stdin, os.Stdout, kp)
		if session != nil {
			session.term = term
			term.Interrupt = session.interrupt
		}

		if err := term.Open(); err != nil {
			return err
		}
		defer term.Close()

		runner.Frontend = term
		return start()
	}

	win := window.New(kp, opts.Scale)
	win.Title = fmt.Sprintf("gochip8 - %s", filepath.Base(opts.Input))
	runner.Frontend = win
	runner.Linger = true

	if session != nil {
		c := make(chan os.Signal, 1)
		defer signal.Stop(c)

		signal.Notify(c, os.Interrupt)
		go func() {
			for range c {
				fmt.Println()
				session.interrupt()
			}
		}()
	}

	errc := make(chan error, 1)
	go func() {
		errc <- start()
		win.Close()
	}()

	if err := win.Run(); err != nil {
		cancel()
		<-errc
		return err
	}

	cancel()
	return <-errc
}
