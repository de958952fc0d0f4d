/*
 * MINIPS - Low level memory
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

// Package memory implements the MINIPS memory hierarchy: the Memory
// interface shared by RAM and Cache, the sparse-backed RAM floor, and (in
// cache.go) the N-way set-associative cache with sister-cache coherence.
package memory

import (
	"fmt"
)

// AlignmentError reports a non-word-aligned address reaching a primary
// memory operation.
type AlignmentError struct {
	Addr uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("memory: unaligned access at %#08x", e.Addr)
}

// Memory is the contract shared by every level of the hierarchy: RAM and
// Cache both implement it, so the CPU can hold an imem/dmem pair without
// caring whether either is backed by a cache or bare RAM.
type Memory interface {
	ReadWord(addr uint32) (uint32, int, error)
	ReadInstruction(addr uint32) (uint32, int, error)
	ReadSlice(addr uint32, n int) ([]uint32, int, error)
	WriteWord(addr, value uint32) (int, error)
	WriteSlice(addr uint32, words []uint32) (int, error)
	Dump(addr uint32) uint32
	ReportStats(recurse bool)
}

func checkAlign(addr uint32) error {
	if addr&0x3 != 0 {
		return &AlignmentError{Addr: addr}
	}
	return nil
}

// RAM is the bottom of the hierarchy: a sparse word-addressed store with a
// single fixed per-access latency, matching original_source's HashMap<u32,u32>
// backing store (the teacher's S/370 `mem` package uses a flat 4 MiB array,
// but MINIPS programs can load anywhere in a 4 GiB space, so the backing
// store here is a Go map rather than a fixed array).
type RAM struct {
	name    string
	words   map[uint32]uint32
	latency int

	accesses int64
	misses   int64 // always 0; kept for ReportStats symmetry with Cache.
}

// NewRAM builds an empty RAM with the given per-access latency in cycles.
func NewRAM(name string, latency int) *RAM {
	return &RAM{
		name:    name,
		words:   make(map[uint32]uint32),
		latency: latency,
	}
}

// ResetStats zeroes the access counter; the loader calls this after seeding
// program memory so that setup traffic doesn't pollute reported stats.
func (r *RAM) ResetStats() {
	r.accesses = 0
	r.misses = 0
}

func (r *RAM) ReadWord(addr uint32) (uint32, int, error) {
	if err := checkAlign(addr); err != nil {
		return 0, 0, err
	}
	r.accesses++
	return r.words[addr], r.latency, nil
}

func (r *RAM) ReadInstruction(addr uint32) (uint32, int, error) {
	return r.ReadWord(addr)
}

func (r *RAM) ReadSlice(addr uint32, n int) ([]uint32, int, error) {
	if err := checkAlign(addr); err != nil {
		return nil, 0, err
	}
	r.accesses++
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = r.words[addr+uint32(i)*4]
	}
	return out, r.latency, nil
}

func (r *RAM) WriteWord(addr, value uint32) (int, error) {
	if err := checkAlign(addr); err != nil {
		return 0, err
	}
	r.accesses++
	r.words[addr] = value
	return r.latency, nil
}

func (r *RAM) WriteSlice(addr uint32, words []uint32) (int, error) {
	if err := checkAlign(addr); err != nil {
		return 0, err
	}
	r.accesses++
	for i, w := range words {
		r.words[addr+uint32(i)*4] = w
	}
	return r.latency, nil
}

// Dump reads a word without affecting stats or latency accounting; used by
// the $v0=500 diagnostic syscall and by a cache's Dump when the word is not
// cached there.
func (r *RAM) Dump(addr uint32) uint32 {
	return r.words[addr&^uint32(3)]
}

// WriteWordRaw is like WriteWord but bypasses alignment checks and stats;
// the tests use it to seed memory directly.
func (r *RAM) WriteWordRaw(addr, value uint32) {
	r.words[addr] = value
}

func (r *RAM) ReportStats(recurse bool) {
	fmt.Printf("%-12s %8d %8d %8d %6.2f%%\n", r.name, r.accesses, r.misses, r.accesses, 0.0)
}
