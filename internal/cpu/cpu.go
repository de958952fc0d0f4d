/*
 * MINIPS - CPU interpreter
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

// Package cpu implements the MINIPS interpreter: register files, the
// branch-delay-slot fetch/execute loop, per-opcode execution, and syscall
// dispatch. Execution uses one method per encoding family (execR, execI,
// execJ, execFR, execFI), each a flat switch over that family's mnemonics,
// adapted from the teacher's emu/cpu/cpu_standard.go convention of one
// opXXX method per instruction.
package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/rcornwell/minips/internal/instr"
	"github.com/rcornwell/minips/internal/memory"
	"github.com/rcornwell/minips/internal/stats"
)

// UnimplementedError reports a decoded instruction with no execution
// clause.
type UnimplementedError struct {
	Mn instr.Mnemonic
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("cpu: unimplemented instruction (mnemonic %d)", e.Mn)
}

// IoError wraps a failure reading/writing during a syscall.
type IoError struct {
	Err error
}

func (e *IoError) Error() string { return fmt.Sprintf("cpu: io error: %v", e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// regs is the 32-word integer register file: index 0 always reads 0 and
// discards writes.
type regs [32]uint32

func (r *regs) get(i uint8) uint32 {
	return r[i]
}

func (r *regs) set(i uint8, v uint32) {
	if i == 0 {
		return
	}
	r[i] = v
}

// CPU holds all MINIPS architectural state plus its memory handles and
// reporters.
type CPU struct {
	PC    uint32
	Regs  regs
	Fregs [32]uint32
	Hi, Lo uint32
	FloatCC bool

	Halted      bool
	inDelaySlot bool
	pendingSet  bool
	pendingPC   uint32

	imem memory.Memory
	dmem memory.Memory

	Stats *stats.Reporter

	Stdin  *bufio.Reader
	Stdout *bufio.Writer

	Log *slog.Logger
}

// New constructs a CPU ready to run: $gp/$sp seeded, pc at entry, all else
// zero, not halted, no pending branch.
func New(dmem, imem memory.Memory, entry, sp, gp uint32, log *slog.Logger) *CPU {
	c := &CPU{
		imem:   imem,
		dmem:   dmem,
		PC:     entry,
		Stats:  stats.New(),
		Stdin:  bufio.NewReader(os.Stdin),
		Stdout: bufio.NewWriter(os.Stdout),
		Log:    log,
	}
	c.Regs.set(28, gp) // $gp
	c.Regs.set(29, sp) // $sp
	return c
}

// Run drives the fetch/execute loop until Halted or an error occurs.
func (c *CPU) Run() error {
	for !c.Halted {
		if err := c.step(); err != nil {
			return err
		}
	}
	c.Stats.Finish()
	return nil
}

func (c *CPU) step() error {
	if c.pendingSet && c.pendingPC != c.PC {
		c.inDelaySlot = true
	}

	word, fetchCycles, err := c.imem.ReadInstruction(c.PC)
	if err != nil {
		return err
	}
	c.Stats.AddCycles(fetchCycles)

	in, err := instr.Decode(word)
	if err != nil {
		return err
	}
	c.Stats.AddInstr(kindOf(in.Kind))

	if err := c.execute(in); err != nil {
		return err
	}

	if c.inDelaySlot && c.pendingSet {
		c.PC = c.pendingPC
		c.inDelaySlot = false
		c.pendingSet = false
	} else {
		c.PC += 4
	}
	return nil
}

func kindOf(k instr.Kind) stats.Kind {
	switch k {
	case instr.KindR, instr.KindNOP:
		return stats.KindR
	case instr.KindI:
		return stats.KindI
	case instr.KindJ:
		return stats.KindJ
	case instr.KindFR:
		return stats.KindFR
	case instr.KindFI:
		return stats.KindFI
	default:
		return stats.KindR
	}
}

func (c *CPU) scheduleBranch(target uint32) {
	c.pendingSet = true
	c.pendingPC = target
}

func sext(v uint16) uint32 {
	return instr.SignExtend(uint32(v), 16)
}

func (c *CPU) execute(in instr.Instruction) error {
	switch in.Kind {
	case instr.KindNOP:
		c.Stats.AddCycles(1)
		return nil
	case instr.KindR:
		return c.execR(in)
	case instr.KindI:
		return c.execI(in)
	case instr.KindJ:
		return c.execJ(in)
	case instr.KindFR:
		return c.execFR(in)
	case instr.KindFI:
		return c.execFI(in)
	default:
		return &UnimplementedError{Mn: in.Mn}
	}
}

func (c *CPU) execR(in instr.Instruction) error {
	a := in.R
	rs := c.Regs.get(a.Rs)
	rt := c.Regs.get(a.Rt)
	if in.Mn != instr.MnSYSCALL {
		c.Stats.AddCycles(1)
	}

	switch in.Mn {
	case instr.MnADD, instr.MnADDU:
		c.Regs.set(a.Rd, rs+rt)
	case instr.MnSUB, instr.MnSUBU:
		c.Regs.set(a.Rd, rs-rt)
	case instr.MnAND:
		c.Regs.set(a.Rd, rs&rt)
	case instr.MnOR:
		c.Regs.set(a.Rd, rs|rt)
	case instr.MnXOR:
		c.Regs.set(a.Rd, rs^rt)
	case instr.MnSLL:
		c.Regs.set(a.Rd, rt<<a.Shamt)
	case instr.MnSRL:
		c.Regs.set(a.Rd, rt>>a.Shamt)
	case instr.MnSRA:
		c.Regs.set(a.Rd, uint32(int32(rt)>>a.Shamt))
	case instr.MnSLT:
		c.Regs.set(a.Rd, boolWord(int32(rs) < int32(rt)))
	case instr.MnSLTU:
		c.Regs.set(a.Rd, boolWord(rs < rt))
	case instr.MnJR:
		c.scheduleBranch(rs)
	case instr.MnJALR:
		c.Regs.set(a.Rd, c.PC+8)
		c.scheduleBranch(rs)
	case instr.MnMULT:
		prod := int64(int32(rs)) * int64(int32(rt))
		c.Lo = uint32(prod)
		c.Hi = uint32(prod >> 32)
	case instr.MnDIV:
		if rt == 0 {
			return errors.New("cpu: division by zero")
		}
		c.Lo = uint32(int32(rs) / int32(rt))
		c.Hi = uint32(int32(rs) % int32(rt))
	case instr.MnMFLO:
		c.Regs.set(a.Rd, c.Lo)
	case instr.MnMFHI:
		c.Regs.set(a.Rd, c.Hi)
	case instr.MnSYSCALL:
		return c.syscall()
	default:
		return &UnimplementedError{Mn: in.Mn}
	}
	return nil
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (c *CPU) execI(in instr.Instruction) error {
	a := in.I
	rs := c.Regs.get(a.Rs)

	switch in.Mn {
	case instr.MnADDI, instr.MnADDIU:
		c.Stats.AddCycles(1)
		c.Regs.set(a.Rt, rs+sext(a.Imm))
	case instr.MnSLTI:
		c.Stats.AddCycles(1)
		c.Regs.set(a.Rt, boolWord(int32(rs) < int32(sext(a.Imm))))
	case instr.MnANDI:
		c.Stats.AddCycles(1)
		c.Regs.set(a.Rt, rs&uint32(a.Imm))
	case instr.MnORI:
		c.Stats.AddCycles(1)
		c.Regs.set(a.Rt, rs|uint32(a.Imm))
	case instr.MnLUI:
		c.Stats.AddCycles(1)
		c.Regs.set(a.Rt, uint32(a.Imm)<<16)
	case instr.MnLW:
		addr := rs + sext(a.Imm)
		v, cycles, err := c.dmem.ReadWord(addr)
		if err != nil {
			return err
		}
		c.Stats.AddCycles(cycles)
		c.Regs.set(a.Rt, v)
	case instr.MnSW:
		addr := rs + sext(a.Imm)
		cycles, err := c.dmem.WriteWord(addr, c.Regs.get(a.Rt))
		if err != nil {
			return err
		}
		c.Stats.AddCycles(cycles)
	case instr.MnLB:
		addr := rs + sext(a.Imm)
		word, cycles, err := c.dmem.ReadWord(addr &^ 3)
		if err != nil {
			return err
		}
		c.Stats.AddCycles(cycles)
		shift := (addr & 3) * 8
		b := byte(word >> shift)
		c.Regs.set(a.Rt, instr.SignExtend(uint32(b), 8))
	case instr.MnBEQ:
		c.Stats.AddCycles(1)
		if rs == c.Regs.get(a.Rt) {
			c.scheduleBranch(uint32(int32(c.PC+4) + instr.BranchAddr(a.Imm)))
		}
	case instr.MnBNE:
		c.Stats.AddCycles(1)
		if rs != c.Regs.get(a.Rt) {
			c.scheduleBranch(uint32(int32(c.PC+4) + instr.BranchAddr(a.Imm)))
		}
	case instr.MnBLEZ:
		c.Stats.AddCycles(1)
		if int32(rs) <= 0 {
			c.scheduleBranch(uint32(int32(c.PC+4) + instr.BranchAddr(a.Imm)))
		}
	case instr.MnBGEZ:
		c.Stats.AddCycles(1)
		if rs&0x80000000 == 0 {
			c.scheduleBranch(uint32(int32(c.PC+4) + instr.BranchAddr(a.Imm)))
		}
	case instr.MnBAL:
		c.Stats.AddCycles(1)
		c.Regs.set(31, c.PC+4)
		c.scheduleBranch(uint32(int32(c.PC+4) + instr.BranchAddr(a.Imm)))
	default:
		return &UnimplementedError{Mn: in.Mn}
	}
	return nil
}

func (c *CPU) execJ(in instr.Instruction) error {
	c.Stats.AddCycles(1)
	target := instr.JumpAddr(c.PC, in.J)
	switch in.Mn {
	case instr.MnJ:
		c.scheduleBranch(target)
	case instr.MnJAL:
		c.Regs.set(31, c.PC+4)
		c.scheduleBranch(target)
	default:
		return &UnimplementedError{Mn: in.Mn}
	}
	return nil
}

func (c *CPU) getF32(i uint8) float32 {
	return math.Float32frombits(c.Fregs[i])
}

func (c *CPU) setF32(i uint8, v float32) {
	c.Fregs[i] = math.Float32bits(v)
}

func (c *CPU) getF64(i uint8) float64 {
	bits := uint64(c.Fregs[i]) | uint64(c.Fregs[i+1])<<32
	return math.Float64frombits(bits)
}

func (c *CPU) setF64(i uint8, v float64) {
	bits := math.Float64bits(v)
	c.Fregs[i] = uint32(bits)
	c.Fregs[i+1] = uint32(bits >> 32)
}

func (c *CPU) execFR(in instr.Instruction) error {
	a := in.FR
	c.Stats.AddCycles(1)

	switch in.Mn {
	case instr.MnMFC1:
		c.Regs.set(a.Ft, c.Fregs[a.Fs])
	case instr.MnMTC1:
		c.Fregs[a.Fs] = c.Regs.get(a.Ft)
	case instr.MnMOVS:
		c.Fregs[a.Fd] = c.Fregs[a.Fs]
	case instr.MnMOVD:
		c.Fregs[a.Fd] = c.Fregs[a.Fs]
		c.Fregs[a.Fd+1] = c.Fregs[a.Fs+1]
	case instr.MnADDS:
		c.setF32(a.Fd, c.getF32(a.Fs)+c.getF32(a.Ft))
	case instr.MnSUBS:
		c.setF32(a.Fd, c.getF32(a.Fs)-c.getF32(a.Ft))
	case instr.MnMULS:
		c.setF32(a.Fd, c.getF32(a.Fs)*c.getF32(a.Ft))
	case instr.MnDIVS:
		c.setF32(a.Fd, c.getF32(a.Fs)/c.getF32(a.Ft))
	case instr.MnADDD:
		c.setF64(a.Fd, c.getF64(a.Fs)+c.getF64(a.Ft))
	case instr.MnSUBD:
		c.setF64(a.Fd, c.getF64(a.Fs)-c.getF64(a.Ft))
	case instr.MnMULD:
		c.setF64(a.Fd, c.getF64(a.Fs)*c.getF64(a.Ft))
	case instr.MnDIVD:
		c.setF64(a.Fd, c.getF64(a.Fs)/c.getF64(a.Ft))
	case instr.MnCVTDW:
		c.setF64(a.Fd, float64(int32(c.Fregs[a.Fs])))
	case instr.MnCVTSD:
		c.setF32(a.Fd, float32(c.getF64(a.Fs)))
	case instr.MnCLTS:
		c.FloatCC = c.getF32(a.Fs) < c.getF32(a.Ft)
	default:
		return &UnimplementedError{Mn: in.Mn}
	}
	return nil
}

func (c *CPU) execFI(in instr.Instruction) error {
	a := in.FI

	switch in.Mn {
	case instr.MnLWC1:
		addr := c.Regs.get(a.Rs) + sext(a.Imm)
		v, cycles, err := c.dmem.ReadWord(addr)
		if err != nil {
			return err
		}
		c.Stats.AddCycles(cycles)
		c.Fregs[a.Ft] = v
	case instr.MnLDC1:
		addr := c.Regs.get(a.Rs) + sext(a.Imm)
		lo, cycles, err := c.dmem.ReadWord(addr)
		if err != nil {
			return err
		}
		c.Stats.AddCycles(cycles)
		hi, cycles2, err := c.dmem.ReadWord(addr + 4)
		if err != nil {
			return err
		}
		c.Stats.AddCycles(cycles2)
		c.Fregs[a.Ft] = lo
		c.Fregs[a.Ft+1] = hi
	case instr.MnSWC1:
		addr := c.Regs.get(a.Rs) + sext(a.Imm)
		cycles, err := c.dmem.WriteWord(addr, c.Fregs[a.Ft])
		if err != nil {
			return err
		}
		c.Stats.AddCycles(cycles)
	case instr.MnBC1T:
		c.Stats.AddCycles(1)
		if c.FloatCC {
			c.scheduleBranch(uint32(int32(c.PC+4) + instr.BranchAddr(a.Imm)))
		}
	case instr.MnBC1F:
		c.Stats.AddCycles(1)
		if !c.FloatCC {
			c.scheduleBranch(uint32(int32(c.PC+4) + instr.BranchAddr(a.Imm)))
		}
	default:
		return &UnimplementedError{Mn: in.Mn}
	}
	return nil
}
