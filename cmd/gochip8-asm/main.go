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

// Package main implements the CHIP-8 assembler command
package main

import (
	"bufio"
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/machine"
)

const usage = "gochip8-asm [-debug] [-out outfile] filename"

type asmFlags struct {
	help  bool
	debug bool
	out   string
}

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func parseFlags(args []string) (asmFlags, []string, error) {
	var opts asmFlags

	flags := flag.NewFlagSet("gochip8-asm", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	flags.BoolVar(&opts.help, "help", false, "Displays command usage")
	flags.BoolVar(
		&opts.debug, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'.c8db'",
	)
	flags.StringVar(
		&opts.out, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)

	if err := flags.Parse(args); err != nil {
		return opts, nil, err
	}

	if opts.help {
		fmt.Println(usage)
		flags.SetOutput(os.Stdout)
		flags.PrintDefaults()
	}

	return opts, flags.Args(), nil
}

func outputName(input string) string {
	filename := filepath.Base(input)
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".ch8"
}

func symbolName(output string) string {
	return filepath.Join(
		filepath.Dir(output),
		strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))+".c8db",
	)
}

// printTokenError shows the offending source line with the token underlined.
func printTokenError(input io.ReadSeeker, err error, cursor assembler.Cursor) {
	if _, seekErr := input.Seek(cursor.LineByte, io.SeekStart); seekErr != nil {
		log.Println(err)
		return
	}

	line, _ := bufio.NewReader(input).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")

	size := int(cursor.Size)
	if size < 1 {
		size = 1
	}

	underlinefmt := fmt.Sprintf(
		"%% %ds%s",
		int(cursor.Byte-cursor.LineByte)+1,
		strings.Repeat("~", size-1),
	)

	log.Printf(
		"%s\n%s\n\033[31m%s\033[0m",
		err,
		line,
		fmt.Sprintf(underlinefmt, "^"),
	)
}

func writeSymbols(filename string, symtable *assembler.SymTable) error {
	file, err := os.Create(filename)

	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(symtable); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

func gochip8Asm() int {
	opts, args, err := parseFlags(os.Args[1:])

	if err != nil {
		return 1
	}

	if opts.help {
		return 0
	}

	var infile string
	var input io.ReadSeeker

	if stat, _ := os.Stdin.Stat(); len(args) == 0 && stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m")

		if opts.out == "" {
			opts.out = "out.ch8"
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			log.Println(err)
			return 1
		} else if stat.IsDir() {
			log.Printf("%s is not a valid CHIP-8 assembly file", filename)
			return 1
		}

		input = file
		infile = file.Name()
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m", filename))

		if opts.out == "" {
			opts.out = outputName(filename)
		}
	}

	var symtable *assembler.SymTable

	if opts.debug {
		source := ""

		if input != os.Stdin {
			if source, err = filepath.Abs(infile); err != nil {
				log.Println(err)
				source = ""
			}
		}

		symtable = assembler.NewSymTable(source)
	}

	image, origin, errs := assembler.AssembleChip8Source(input, symtable)

	if len(errs) > 0 {
		for _, err := range errs {
			tokenErr, ok := err.(assembler.TokenError)

			if ok && input != os.Stdin {
				printTokenError(input, err, tokenErr.GetPosition())
			} else {
				log.Println(err)
			}
		}

		return 1
	}

	if err := os.WriteFile(opts.out, image, 0666); err != nil {
		log.Println("Error writing output file")
		log.Println(err)
		return 1
	}

	if origin != machine.MEMSPACE_PROGRAM {
		log.Printf("Image origin is %#04x, run with -load %#04x", origin, origin)
	}

	if opts.debug {
		if err := writeSymbols(symbolName(opts.out), symtable); err != nil {
			log.Println("Error writing symbol table")
			log.Println(err)
			return 1
		}
	}

	return 0
}

func main() {
	os.Exit(gochip8Asm())
}
