/*
 * MINIPS - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/minips/internal/instr"
	"github.com/rcornwell/minips/internal/loader"
	"github.com/rcornwell/minips/internal/mlog"
	"github.com/rcornwell/minips/internal/trace"
)

var Logger *slog.Logger

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

	var err error
	switch cmd {
	case "decode":
		err = runDecode()
	case "run":
		err = runRun(false)
	case "trace":
		err = runRun(true)
	case "debug":
		err = runDebug()
	case "runelf":
		err = runRunELF()
	case "decodeelf":
		err = runDecodeELF()
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: minips <decode|run|trace|debug|runelf|decodeelf> ...")
}

func newLogger(logFile string, debug bool) *slog.Logger {
	var file *os.File
	if logFile != "" {
		file, _ = os.Create(logFile)
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	Logger = mlog.New(file, level, debug)
	slog.SetDefault(Logger)
	return Logger
}

func runDecode() error {
	getopt.Parse()
	args := getopt.Args()
	if len(args) != 1 {
		return fmt.Errorf("decode: expected <pfx>")
	}
	segs, err := loader.ReadNaked(args[0])
	if err != nil {
		return err
	}
	printDisassembly(segs)
	return nil
}

func runDecodeELF() error {
	getopt.Parse()
	args := getopt.Args()
	if len(args) != 1 {
		return fmt.Errorf("decodeelf: expected <file>")
	}
	_, segs, err := loader.ReadELF(args[0])
	if err != nil {
		return err
	}
	printDisassembly(segs)
	return nil
}

func printDisassembly(segs []loader.Segment) {
	for _, seg := range segs {
		addr := seg.Base
		for _, w := range seg.Words {
			in, err := instr.Decode(w)
			if err != nil {
				fmt.Printf("%#08x: %#08x  <decode error>\n", addr, w)
			} else {
				fmt.Printf("%#08x: %#08x  %s\n", addr, w, in.String())
			}
			addr += 4
		}
	}
}

func parseHex(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}

func runRun(withTrace bool) error {
	optEntry := getopt.StringLong("entry", 'e', "", "Entry point (hex)")
	optOut := getopt.StringLong("output", 'o', "", "Trace output file")
	optLog := getopt.StringLong("log", 'l', "", "Log file")
	getopt.Parse()
	args := getopt.Args()
	if len(args) != 2 {
		return fmt.Errorf("expected <conf> <pfx>")
	}

	conf, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid configuration %q: %w", args[0], err)
	}

	entry := uint32(loader.EntryDefault)
	if *optEntry != "" {
		entry, err = parseHex(*optEntry)
		if err != nil {
			return err
		}
	}

	segs, err := loader.ReadNaked(args[1])
	if err != nil {
		return err
	}

	log := newLogger(*optLog, false)

	var tracer *trace.Reporter
	if withTrace {
		out := os.Stdout
		if *optOut != "" {
			f, ferr := os.Create(*optOut)
			if ferr != nil {
				return ferr
			}
			defer f.Close()
			out = f
		}
		tracer = trace.New(out, 64, false, log)
	}

	return loader.Run(conf, segs, entry, tracer, log)
}

func runDebug() error {
	optOut := getopt.StringLong("output", 'o', "", "Trace output file")
	optLog := getopt.StringLong("log", 'l', "", "Log file")
	getopt.Parse()
	args := getopt.Args()
	if len(args) != 2 {
		return fmt.Errorf("expected <conf> <pfx>")
	}

	conf, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid configuration %q: %w", args[0], err)
	}

	segs, err := loader.ReadNaked(args[1])
	if err != nil {
		return err
	}

	log := newLogger(*optLog, true)

	out := os.Stdout
	if *optOut != "" {
		f, ferr := os.Create(*optOut)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		out = f
	}
	tracer := trace.New(out, 64, true, log)

	return loader.Run(conf, segs, loader.EntryDefault, tracer, log)
}

func runRunELF() error {
	optLog := getopt.StringLong("log", 'l', "", "Log file")
	getopt.Parse()
	args := getopt.Args()
	if len(args) != 2 {
		return fmt.Errorf("expected <conf> <file>")
	}

	conf, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid configuration %q: %w", args[0], err)
	}

	entry, segs, err := loader.ReadELF(args[1])
	if err != nil {
		return err
	}

	log := newLogger(*optLog, false)
	return loader.Run(conf, segs, entry, nil, log)
}
