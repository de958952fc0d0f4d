/*
 * MINIPS - Memory hierarchy loader
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

// Package loader builds one of MINIPS's six fixed memory-hierarchy
// configurations, seeds RAM from a loaded program image, and drives a CPU
// to completion — the run orchestrator in spec terms. Grounded on
// original_source/src/main.rs's Executable/run wiring, generalized to
// cover all six configurations rather than the two the original actually
// implements.
package loader

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rcornwell/minips/internal/cpu"
	"github.com/rcornwell/minips/internal/memory"
	"github.com/rcornwell/minips/internal/trace"
)

// ConfigurationError reports an out-of-range memory-configuration index.
type ConfigurationError struct {
	Conf int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("loader: unknown memory configuration %d", e.Conf)
}

// Fixed memory-map conventions (spec.md §6).
const (
	EntryDefault = 0x00400000
	SPInit       = 0x7FFFEFFC
	GPInit       = 0x10008000
	TextBase     = 0x00400000
	DataBase     = 0x10010000
	RodataBase   = 0x00800000

	ramLatency = 100
)

// Segment is one loaded chunk of program image: a base address and the
// little-endian words to install there.
type Segment struct {
	Base  uint32
	Words []uint32
}

// Hierarchy is the constructed memory graph: the CPU's imem/dmem handles
// plus the RAM at the bottom, needed so the loader can seed memory and
// reset RAM's access counter before the CPU's first instruction.
type Hierarchy struct {
	IMem memory.Memory
	DMem memory.Memory
	RAM  *memory.RAM

	// Top holds every distinct top-level node, for ReportStats/trace wiring.
	Top []memory.Memory
}

// Build constructs memory configuration conf (1..6). tracer may be nil (no
// trace file requested).
func Build(conf int, tracer *trace.Reporter) (*Hierarchy, error) {
	ram := memory.NewRAM("ram", ramLatency)

	switch conf {
	case 1:
		return &Hierarchy{IMem: ram, DMem: ram, RAM: ram, Top: []memory.Memory{ram}}, nil

	case 2:
		l1 := memory.NewCache("l1", 32, 8, 1, 1, memory.Random, ram)
		attachTracer(tracer, l1)
		return &Hierarchy{IMem: l1, DMem: l1, RAM: ram, Top: []memory.Memory{l1}}, nil

	case 3, 4:
		policy := memory.Random
		if conf == 4 {
			policy = memory.LRU
		}
		l1i := memory.NewCache("l1i", 16, 8, 1, 1, policy, ram)
		l1d := memory.NewCache("l1d", 16, 8, 1, 1, policy, ram)
		l1i.SetSister(l1d, true)
		l1d.SetSister(l1i, true)
		attachTracer(tracer, l1i, l1d)
		return &Hierarchy{IMem: l1i, DMem: l1d, RAM: ram, Top: []memory.Memory{l1i, l1d}}, nil

	case 5:
		l1i := memory.NewCache("l1i", 16, 8, 4, 1, memory.LRU, ram)
		l1d := memory.NewCache("l1d", 16, 8, 4, 1, memory.LRU, ram)
		l1i.SetSister(l1d, true)
		l1d.SetSister(l1i, true)
		attachTracer(tracer, l1i, l1d)
		return &Hierarchy{IMem: l1i, DMem: l1d, RAM: ram, Top: []memory.Memory{l1i, l1d}}, nil

	case 6:
		l2 := memory.NewCache("l2", 32, 16, 8, 10, memory.LRU, ram)
		l1i := memory.NewCache("l1i", 8, 16, 4, 1, memory.LRU, l2)
		l1d := memory.NewCache("l1d", 8, 16, 4, 1, memory.LRU, l2)
		l1i.SetSister(l1d, true)
		l1d.SetSister(l1i, true)
		attachTracer(tracer, l1i, l1d, l2)
		return &Hierarchy{IMem: l1i, DMem: l1d, RAM: ram, Top: []memory.Memory{l1i, l1d}}, nil

	default:
		return nil, &ConfigurationError{Conf: conf}
	}
}

func attachTracer(tracer *trace.Reporter, caches ...*memory.Cache) {
	if tracer == nil {
		return
	}
	for _, c := range caches {
		c.SetTracer(tracer)
	}
}

// LoadSegments writes each segment's words into RAM via the top of the
// hierarchy, then resets RAM's access counter so setup traffic does not
// pollute reported stats.
func (h *Hierarchy) LoadSegments(segs []Segment) error {
	for _, seg := range segs {
		if _, err := h.DMem.WriteSlice(seg.Base, seg.Words); err != nil {
			return err
		}
	}
	h.RAM.ResetStats()
	return nil
}

// ReadNaked loads the <pfx>.text/.data/.rodata triple (data/rodata
// optional), each a concatenation of little-endian 32-bit words.
func ReadNaked(pfx string) ([]Segment, error) {
	var segs []Segment
	text, err := readWords(pfx + ".text")
	if err != nil {
		return nil, err
	}
	segs = append(segs, Segment{Base: TextBase, Words: text})

	if data, err := readWordsOptional(pfx + ".data"); err == nil && data != nil {
		segs = append(segs, Segment{Base: DataBase, Words: data})
	}
	if rodata, err := readWordsOptional(pfx + ".rodata"); err == nil && rodata != nil {
		segs = append(segs, Segment{Base: RodataBase, Words: rodata})
	}
	return segs, nil
}

func readWords(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bytesToWords(data), nil
}

func readWordsOptional(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return bytesToWords(data), nil
}

func bytesToWords(data []byte) []uint32 {
	n := len(data) / 4
	words := make([]uint32, n)
	for i := 0; i < n; i++ {
		words[i] = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	return words
}

// ReadELF loads PT_LOAD segments from a 32-bit MIPS ELF, byte-packing each
// segment's file contents into word-aligned RAM writes. ELF structure
// parsing itself is stdlib debug/elf's concern, not this package's — the
// loader only consumes the resulting segment list.
func ReadELF(path string) (entry uint32, segs []Segment, err error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	entry = uint32(f.Entry)
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := io.ReadFull(prog.Open(), data); err != nil {
			return 0, nil, err
		}
		segs = append(segs, Segment{Base: uint32(prog.Paddr), Words: bytesToWords(padToWord(data))})
	}
	return entry, segs, nil
}

func padToWord(data []byte) []byte {
	if rem := len(data) % 4; rem != 0 {
		data = append(data, make([]byte, 4-rem)...)
	}
	return data
}

// Run seeds memory configuration conf with segs and drives a CPU from
// entry to halt; log is handed to the CPU for its syscall warnings and
// debug output.
func Run(conf int, segs []Segment, entry uint32, tracer *trace.Reporter, log *slog.Logger) error {
	h, err := Build(conf, tracer)
	if err != nil {
		return err
	}
	if err := h.LoadSegments(segs); err != nil {
		return err
	}

	c := cpu.New(h.DMem, h.IMem, entry, SPInit, GPInit, log)
	runErr := c.Run()

	for i, top := range h.Top {
		// Only the first top-level node recurses into shared lower
		// levels (split I$/D$ configurations share one next level),
		// so stats for that level aren't printed twice.
		top.ReportStats(i == 0)
	}
	if tracer != nil {
		tracer.Close()
	}
	return runErr
}
