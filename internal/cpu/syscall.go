/*
 * MINIPS - CPU syscall dispatch
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

package cpu

import (
	"fmt"
	"strconv"
	"strings"
)

// syscall dispatches on $v0 per the MINIPS environment-call ABI.
func (c *CPU) syscall() error {
	c.Stats.AddCycles(1)
	v0 := c.Regs.get(2)

	var err error
	switch v0 {
	case 1:
		_, err = fmt.Fprintf(c.Stdout, "%d", int32(c.Regs.get(4)))
	case 2:
		_, err = fmt.Fprintf(c.Stdout, "%g", c.getF32(12))
	case 3:
		_, err = fmt.Fprintf(c.Stdout, "%g", c.getF64(12))
	case 4:
		err = c.printString(c.Regs.get(4))
	case 5:
		err = c.readInt()
	case 6:
		err = c.readF32()
	case 7:
		err = c.readF64()
	case 10:
		c.Halted = true
	case 11:
		_, err = fmt.Fprintf(c.Stdout, "%c", byte(c.Regs.get(4)))
	case 500:
		c.dumpMemory(c.Regs.get(4))
	default:
		if c.Log != nil {
			c.Log.Warn("unknown syscall", "v0", v0)
		}
	}
	if err != nil {
		return &IoError{Err: err}
	}
	if ferr := c.Stdout.Flush(); ferr != nil {
		return &IoError{Err: ferr}
	}
	return nil
}

// printString reads NUL-terminated bytes starting at addr by word bursts,
// handling arbitrary alignment of the base address.
func (c *CPU) printString(addr uint32) error {
	var sb strings.Builder
	base := addr &^ 3
	shift := addr & 3
	for {
		word, _, err := c.dmem.ReadWord(base)
		if err != nil {
			return err
		}
		for shift < 4 {
			b := byte(word >> (shift * 8))
			if b == 0 {
				_, werr := fmt.Fprint(c.Stdout, sb.String())
				return werr
			}
			sb.WriteByte(b)
			shift++
		}
		shift = 0
		base += 4
	}
}

func (c *CPU) readInt() error {
	line, err := c.Stdin.ReadString('\n')
	if err != nil && line == "" {
		return err
	}
	v, perr := strconv.ParseInt(strings.TrimSpace(line), 10, 32)
	if perr != nil {
		return perr
	}
	c.Regs.set(2, uint32(int32(v)))
	return nil
}

func (c *CPU) readF32() error {
	line, err := c.Stdin.ReadString('\n')
	if err != nil && line == "" {
		return err
	}
	v, perr := strconv.ParseFloat(strings.TrimSpace(line), 32)
	if perr != nil {
		return perr
	}
	c.setF32(0, float32(v))
	return nil
}

func (c *CPU) readF64() error {
	line, err := c.Stdin.ReadString('\n')
	if err != nil && line == "" {
		return err
	}
	v, perr := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if perr != nil {
		return perr
	}
	c.setF64(0, v)
	return nil
}

func (c *CPU) dumpMemory(addr uint32) {
	v := c.dmem.Dump(addr &^ 3)
	if c.Log != nil {
		c.Log.Debug("memory dump", "addr", fmt.Sprintf("%#08x", addr), "word", fmt.Sprintf("%#08x", v))
	}
}
