/*
 * MINIPS - Memory access trace reporter
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

// Package trace implements the asynchronous memory-access trace reporter:
// a single consumer goroutine draining a bounded channel of events and
// formatting them to a file, the way the teacher's emu/core run loop keeps
// its own single-consumer event channel off the CPU's hot path.
package trace

import (
	"fmt"
	"io"
	"log/slog"
)

// Kind distinguishes the five event shapes a cache (or the orchestrator)
// can emit.
type Kind int

const (
	DataRead Kind = iota
	InstrRead
	Write
	Debug
	Finish
)

// Event is one entry on the trace channel.
type Event struct {
	Kind    Kind
	Addr    uint32
	Line    uint32
	Message string
}

// Reporter owns the trace file and the channel producers send on. Clone the
// Events channel into every cache that should emit; call Close once, after
// the CPU halts, to flush and join the consumer.
type Reporter struct {
	Events chan Event
	done   chan struct{}
	debug  bool
	log    *slog.Logger
}

// New starts the consumer goroutine, writing formatted lines to out. depth
// sizes the channel buffer (backpressure is expected and acceptable: the
// producer is the single CPU thread). debug enables Debug(text) lines.
func New(out io.Writer, depth int, debug bool, log *slog.Logger) *Reporter {
	r := &Reporter{
		Events: make(chan Event, depth),
		done:   make(chan struct{}),
		debug:  debug,
		log:    log,
	}
	go r.consume(out)
	return r
}

func (r *Reporter) consume(out io.Writer) {
	defer close(r.done)
	for ev := range r.Events {
		switch ev.Kind {
		case DataRead:
			fmt.Fprintf(out, "R %#08x (line# %#x)\n", ev.Addr, ev.Line)
		case InstrRead:
			fmt.Fprintf(out, "I %#08x (line# %#x)\n", ev.Addr, ev.Line)
		case Write:
			fmt.Fprintf(out, "W %#08x (line# %#x)\n", ev.Addr, ev.Line)
		case Debug:
			if r.debug {
				fmt.Fprintln(out, ev.Message)
			}
		case Finish:
			return
		}
	}
}

// Close sends Finish and blocks until the consumer goroutine has drained
// and exited.
func (r *Reporter) Close() {
	r.Events <- Event{Kind: Finish}
	close(r.Events)
	<-r.done
}
