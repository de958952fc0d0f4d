/*
 * MINIPS - Run statistics reporter
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

// Package stats implements the run-level instruction/cycle counters and
// the monocycle/pipelined timing projection printed at halt, grounded on
// original_source/src/emulator/stats.rs and printed in the teacher's
// plain fmt.Printf reporting style (no metrics library is wired; see
// DESIGN.md for why).
package stats

import (
	"fmt"
	"time"
)

// Kind indexes the per-encoding-family instruction counters.
type Kind int

const (
	KindR Kind = iota
	KindI
	KindJ
	KindFR
	KindFI
	numKinds
)

const (
	monocycleMHz = 33.8688 / 4
	pipelinedMHz = 33.8688
)

// Reporter accumulates instruction and cycle counts for one run and prints
// the timing projection on Finish.
type Reporter struct {
	counts [numKinds]int64
	cycles int64
	start  time.Time
	end    time.Time
}

// New starts the reporter's wall-clock timer.
func New() *Reporter {
	return &Reporter{start: time.Now()}
}

// AddInstr increments the counter for one decoded instruction's kind.
func (r *Reporter) AddInstr(k Kind) {
	r.counts[k]++
}

// AddCycles accumulates cycles spent on the current instruction (fetch +
// execute + memory latency).
func (r *Reporter) AddCycles(n int) {
	r.cycles += int64(n)
}

func (r *Reporter) total() int64 {
	var t int64
	for _, c := range r.counts {
		t += c
	}
	return t
}

// Finish stops the timer and prints the summary.
func (r *Reporter) Finish() {
	r.end = time.Now()
	r.Print()
}

// Print writes the instruction/cycle summary and the monocycle/pipelined
// timing projection to stdout.
func (r *Reporter) Print() {
	total := r.total()
	elapsed := r.end.Sub(r.start).Seconds()
	if elapsed <= 0 {
		elapsed = 1e-9
	}
	ips := float64(total) / elapsed

	fmt.Printf("instructions: R=%d I=%d J=%d FR=%d FI=%d total=%d\n",
		r.counts[KindR], r.counts[KindI], r.counts[KindJ], r.counts[KindFR], r.counts[KindFI], total)
	fmt.Printf("cycles: %d\n", r.cycles)
	fmt.Printf("wall time: %.6fs  instructions/sec: %.2f\n", elapsed, ips)

	monoCycles := r.cycles
	pipeCycles := r.cycles + 4

	monoIPC := ratio(total, monoCycles)
	pipeIPC := ratio(total, pipeCycles)

	monoTime := float64(monoCycles) / (monocycleMHz * 1e6)
	pipeTime := float64(pipeCycles) / (pipelinedMHz * 1e6)

	monoMIPS := monocycleMHz * monoIPC
	pipeMIPS := pipelinedMHz * pipeIPC

	fmt.Printf("monocycle:  freq=%.4fMHz cycles=%d ipc=%.4f mips=%.4f est_time=%.9fs\n",
		monocycleMHz, monoCycles, monoIPC, monoMIPS, monoTime)
	fmt.Printf("pipelined:  freq=%.4fMHz cycles=%d ipc=%.4f mips=%.4f est_time=%.9fs\n",
		pipelinedMHz, pipeCycles, pipeIPC, pipeMIPS, pipeTime)

	if pipeTime > 0 {
		fmt.Printf("speedup (monocycle/pipelined): %.4fx\n", monoTime/pipeTime)
	}
}

func ratio(a, b int64) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
