/*
 * MINIPS - Set-associative cache
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

package memory

import (
	"fmt"
	"math/rand"

	"github.com/rcornwell/minips/internal/trace"
)

// ReplacePolicy selects which way within a set is evicted on a miss.
type ReplacePolicy int

const (
	Random ReplacePolicy = iota
	LRU
)

// line is one way within one set: L words of data plus its tag/valid/dirty
// bookkeeping. allocated distinguishes a way that has never held any block
// (the zero value) from one that holds a block but was invalidated — only
// the latter can still produce a tag hit.
type line struct {
	tag        uint32
	allocated  bool
	valid      bool
	dirty      bool
	lastAccess int64
	data       []uint32
}

// Cache is an N-way set-associative cache, parameterized at construction
// time rather than over compile-time constants (Go generics admit only type
// parameters, not const-integer ones, so L/N/A live as runtime fields here,
// matching the "fully runtime-parameterized" fallback this model allows).
type Cache struct {
	name     string
	lineLen  int // L: words per line.
	numLines int // N: total lines.
	ways     int // A: associativity.
	setCount int // N / A.
	latency  int
	policy   ReplacePolicy

	next   Memory
	sister *Cache
	fetchFromSister bool

	sets [][]line // sets[setIndex][way]

	accesses int64
	misses   int64

	tracer *trace.Reporter
	rng    *rand.Rand
}

// NewCache builds a cache with N total lines of L words each, A-way
// associative, with the given per-access latency on a hit.
func NewCache(name string, numLines, lineLen, ways, latency int, policy ReplacePolicy, next Memory) *Cache {
	setCount := numLines / ways
	sets := make([][]line, setCount)
	for i := range sets {
		ways := make([]line, ways)
		for w := range ways {
			ways[w].data = make([]uint32, lineLen)
		}
		sets[i] = ways
	}
	return &Cache{
		name:     name,
		lineLen:  lineLen,
		numLines: numLines,
		ways:     ways,
		setCount: setCount,
		latency:  latency,
		policy:   policy,
		next:     next,
		sets:     sets,
		rng:      rand.New(rand.NewSource(1)),
	}
}

// SetSister links two caches (e.g. split L1 I$/D$) for coherence: writes to
// one unconditionally invalidate any matching line in the other, and misses
// may optionally be satisfied by copying the sister's line instead of
// going to the next level.
func (c *Cache) SetSister(sister *Cache, fetchFromSister bool) {
	c.sister = sister
	c.fetchFromSister = fetchFromSister
}

// SetTracer attaches a trace reporter; reads/writes emit events to it.
func (c *Cache) SetTracer(t *trace.Reporter) {
	c.tracer = t
}

func (c *Cache) decompose(addr uint32) (lineNumber uint32, setIndex uint32, tag uint32, offset uint32) {
	wordOffset := addr / 4
	lineNumber = wordOffset / uint32(c.lineLen)
	offset = wordOffset % uint32(c.lineLen)
	setIndex = lineNumber % uint32(c.setCount)
	tag = lineNumber / uint32(c.setCount)
	return
}

func (c *Cache) blockBase(tag, setIndex uint32) uint32 {
	lineNumber := tag*uint32(c.setCount) + setIndex
	return lineNumber * uint32(c.lineLen) * 4
}

type lookupResult struct {
	hit    bool
	way    int
	offset uint32
	set    uint32
	tag    uint32
}

// findLine scans the addressed set for a matching tag. Hit is tag-match
// alone — an allocated-but-invalidated way (e.g. invalidated by a sister's
// write) still reports Hit at its own way, so the caller reuses that way
// instead of picking a fresh victim; callers branch on the returned line's
// valid bit separately to tell a genuine hit from an invalid one. If
// mayReplace is true and no line matches at all, a victim way is chosen per
// policy; way is -1 if mayReplace is false and nothing matched (used by
// invalidation).
func (c *Cache) findLine(addr uint32, mayReplace bool) lookupResult {
	_, setIdx, tag, offset := c.decompose(addr)
	set := c.sets[setIdx]

	for w := range set {
		if set[w].allocated && set[w].tag == tag {
			return lookupResult{hit: true, way: w, offset: offset, set: setIdx, tag: tag}
		}
	}

	if !mayReplace {
		return lookupResult{hit: false, way: -1, offset: offset, set: setIdx, tag: tag}
	}

	victim := c.selectVictim(set)
	return lookupResult{hit: false, way: victim, offset: offset, set: setIdx, tag: tag}
}

func (c *Cache) selectVictim(set []line) int {
	switch c.policy {
	case Random:
		return c.rng.Intn(len(set))
	default: // LRU
		best := 0
		bestAccess := int64(-1)
		for w := range set {
			access := set[w].lastAccess
			if !set[w].valid {
				access = 0
			}
			if bestAccess == -1 || access < bestAccess {
				bestAccess = access
				best = w
			}
		}
		return best
	}
}

// ReadWord reads one word, treating the access as a data reference for
// trace purposes.
func (c *Cache) ReadWord(addr uint32) (uint32, int, error) {
	return c.peek(addr, trace.DataRead)
}

// ReadInstruction reads one word, treating the access as an instruction
// fetch for trace purposes.
func (c *Cache) ReadInstruction(addr uint32) (uint32, int, error) {
	return c.peek(addr, trace.InstrRead)
}

func (c *Cache) peek(addr uint32, kind trace.Kind) (uint32, int, error) {
	if err := checkAlign(addr); err != nil {
		return 0, 0, err
	}
	c.accesses++

	res := c.findLine(addr, true)
	lineNumber, _, _, _ := c.decompose(addr)
	c.emit(kind, addr, lineNumber)

	set := c.sets[res.set]
	if res.hit && set[res.way].valid {
		set[res.way].lastAccess = c.accesses
		return set[res.way].data[res.offset], c.latency, nil
	}

	c.misses++

	if c.tryCopyFromSister(res.set, res.tag, res.way) {
		set[res.way].lastAccess = c.accesses
		return set[res.way].data[res.offset], c.latency, nil
	}

	flushCycles, err := c.flushVictim(res.set, res.way)
	if err != nil {
		return 0, 0, err
	}
	loadCycles, err := c.loadIntoLine(res.set, res.way, res.tag)
	if err != nil {
		return 0, 0, err
	}
	set[res.way].lastAccess = c.accesses
	return set[res.way].data[res.offset], c.latency + flushCycles + loadCycles, nil
}

func (c *Cache) tryCopyFromSister(setIdx, tag uint32, way int) bool {
	if c.sister == nil || !c.fetchFromSister {
		return false
	}
	sSet := c.sister.sets[setIdx]
	for w := range sSet {
		if sSet[w].valid && sSet[w].tag == tag {
			c.sets[setIdx][way] = sSet[w]
			c.sets[setIdx][way].data = append([]uint32(nil), sSet[w].data...)
			return true
		}
	}
	return false
}

// ReadSlice serves a block-load style read of up to L consecutive words,
// all of which must lie in the same line.
func (c *Cache) ReadSlice(addr uint32, n int) ([]uint32, int, error) {
	if err := checkAlign(addr); err != nil {
		return nil, 0, err
	}
	c.accesses++

	res := c.findLine(addr, true)
	lineNumber, _, _, _ := c.decompose(addr)
	c.emit(trace.DataRead, addr, lineNumber)

	set := c.sets[res.set]
	cycles := c.latency
	if !res.hit || !set[res.way].valid {
		c.misses++
		if !c.tryCopyFromSister(res.set, res.tag, res.way) {
			flushCycles, err := c.flushVictim(res.set, res.way)
			if err != nil {
				return nil, 0, err
			}
			loadCycles, err := c.loadIntoLine(res.set, res.way, res.tag)
			if err != nil {
				return nil, 0, err
			}
			cycles += flushCycles + loadCycles
		}
	}
	set[res.way].lastAccess = c.accesses
	out := make([]uint32, n)
	copy(out, set[res.way].data[res.offset:res.offset+uint32(n)])
	return out, cycles, nil
}

// WriteWord writes one word, write-allocating on miss and unconditionally
// invalidating any sister copy first (the split-I/D coherence invariant).
func (c *Cache) WriteWord(addr, value uint32) (int, error) {
	if err := checkAlign(addr); err != nil {
		return 0, err
	}
	c.accesses++

	if c.sister != nil {
		c.sister.invalidateLine(addr)
	}

	res := c.findLine(addr, true)
	lineNumber, _, _, _ := c.decompose(addr)
	c.emit(trace.Write, addr, lineNumber)

	set := c.sets[res.set]
	if res.hit && set[res.way].valid {
		set[res.way].data[res.offset] = value
		set[res.way].dirty = true
		set[res.way].lastAccess = c.accesses
		return c.latency, nil
	}

	c.misses++
	flushCycles, err := c.flushVictim(res.set, res.way)
	if err != nil {
		return 0, err
	}
	loadCycles, err := c.loadIntoLine(res.set, res.way, res.tag)
	if err != nil {
		return 0, err
	}
	set[res.way].data[res.offset] = value
	set[res.way].dirty = true
	set[res.way].lastAccess = c.accesses
	return c.latency + flushCycles + loadCycles, nil
}

// WriteSlice writes a run of consecutive words, used when a higher level
// writes a dirty victim block back through this one and when the loader
// seeds program memory.
func (c *Cache) WriteSlice(addr uint32, words []uint32) (int, error) {
	cycles := 0
	for i, w := range words {
		n, err := c.WriteWord(addr+uint32(i)*4, w)
		if err != nil {
			return 0, err
		}
		cycles = n // the modeled latency applies to the whole burst.
	}
	return cycles, nil
}

// invalidateLine clears valid (leaving dirty untouched) for the line
// holding addr, if present, without selecting a victim.
func (c *Cache) invalidateLine(addr uint32) {
	res := c.findLine(addr, false)
	if res.way >= 0 {
		c.sets[res.set][res.way].valid = false
	}
}

// flushVictim writes the victim's current (pre-replacement) block back to
// the next level if it is dirty and valid, reconstructing the victim's
// OWN block address from its stored tag, not the address being installed.
func (c *Cache) flushVictim(setIdx uint32, way int) (int, error) {
	v := &c.sets[setIdx][way]
	if !v.valid || !v.dirty {
		return 0, nil
	}
	base := c.blockBase(v.tag, setIdx)
	if c.sister != nil {
		c.sister.invalidateLine(base)
	}
	cycles, err := c.next.WriteSlice(base, v.data)
	if err != nil {
		return 0, err
	}
	return cycles, nil
}

// loadIntoLine fetches the block containing tag/setIdx from the next level
// and installs it into the line slot.
func (c *Cache) loadIntoLine(setIdx uint32, way int, tag uint32) (int, error) {
	base := c.blockBase(tag, setIdx)
	words, cycles, err := c.next.ReadSlice(base, c.lineLen)
	if err != nil {
		return 0, err
	}
	v := &c.sets[setIdx][way]
	copy(v.data, words)
	v.dirty = false
	v.valid = true
	v.allocated = true
	v.tag = tag
	return cycles, nil
}

func (c *Cache) emit(kind trace.Kind, addr, lineNumber uint32) {
	if c.tracer == nil {
		return
	}
	c.tracer.Events <- trace.Event{Kind: kind, Addr: addr, Line: lineNumber}
}

// Dump reads a word for diagnostic purposes without touching stats.
func (c *Cache) Dump(addr uint32) uint32 {
	res := c.findLine(addr, false)
	if res.way >= 0 && c.sets[res.set][res.way].valid {
		return c.sets[res.set][res.way].data[res.offset]
	}
	return c.next.Dump(addr)
}

// ReportStats prints this cache's hit/miss/access counts and, if recurse is
// true, continues to the next level.
func (c *Cache) ReportStats(recurse bool) {
	hits := c.accesses - c.misses
	rate := 0.0
	if c.accesses > 0 {
		rate = float64(c.misses) / float64(c.accesses) * 100
	}
	fmt.Printf("%-12s %8d %8d %8d %6.2f%%\n", c.name, hits, c.misses, c.accesses, rate)
	if recurse && c.next != nil {
		c.next.ReportStats(recurse)
	}
}
