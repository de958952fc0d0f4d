/*
 * MINIPS - MIPS opcode constants
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

// Package opcodes holds the numeric opcode/funct constants used to decode
// and disassemble the MIPS subset this emulator implements. Constants are
// named the way the ISA manual names them, the same convention the teacher
// repo's emu/opcodemap package uses for the S/370 instruction set.
package opcodes

// Primary opcode field (bits 26-31).
const (
	OpSpecial = 0x00 // R-type integer ops, funct field selects.
	OpRegimm  = 0x01 // BLTZ/BGEZ/BAL family (I-type, rt field selects).
	OpJ       = 0x02
	OpJal     = 0x03
	OpBeq     = 0x04
	OpBne     = 0x05
	OpBlez    = 0x06
	OpBgtz    = 0x07
	OpAddi    = 0x08
	OpAddiu   = 0x09
	OpSlti    = 0x0A
	OpSltiu   = 0x0B
	OpAndi    = 0x0C
	OpOri     = 0x0D
	OpXori    = 0x0E
	OpLui     = 0x0F
	OpCop0    = 0x10 // Coprocessor-0 R-type, dormant per spec.
	OpCop1    = 0x11 // Floating point, fmt field selects FR/FI.
	OpLb      = 0x20
	OpLh      = 0x21
	OpLw      = 0x23
	OpLbu     = 0x24
	OpLhu     = 0x25
	OpSb      = 0x28
	OpSh      = 0x29
	OpSw      = 0x2B
	OpLwc1    = 0x31
	OpLdc1    = 0x35
	OpSwc1    = 0x39
	OpSdc1    = 0x3D
)

// SPECIAL (opcode 0) funct field (bits 0-5).
const (
	FnSll  = 0x00
	FnSrl  = 0x02
	FnSra  = 0x03
	FnSllv = 0x04
	FnSrlv = 0x06
	FnSrav = 0x07
	FnJr   = 0x08
	FnJalr = 0x09
	FnSyscall = 0x0C
	FnBreak   = 0x0D
	FnMfhi = 0x10
	FnMthi = 0x11
	FnMflo = 0x12
	FnMtlo = 0x13
	FnMult = 0x18
	FnMultu = 0x19
	FnDiv  = 0x1A
	FnDivu = 0x1B
	FnAdd  = 0x20
	FnAddu = 0x21
	FnSub  = 0x22
	FnSubu = 0x23
	FnAnd  = 0x24
	FnOr   = 0x25
	FnXor  = 0x26
	FnNor  = 0x27
	FnSlt  = 0x2A
	FnSltu = 0x2B
)

// REGIMM (opcode 1) rt field.
const (
	RtBltz = 0x00
	RtBgez = 0x01
	RtBal  = 0x11 // BGEZAL in the full ISA; here used for BAL ($rs == $zero).
)

// COP1 (opcode 17) fmt field (bits 21-25).
const (
	FmtSingle = 16
	FmtDouble = 17
	FmtWord   = 20
	FmtBc     = 8 // BC1T/BC1F: rs field == 8, ft (bit 16) selects T/F.
)

// COP1 funct field for FR-type arithmetic (bits 0-5), valid when fmt is S or D.
const (
	Cop1FnAdd   = 0x00
	Cop1FnSub   = 0x01
	Cop1FnMul   = 0x02
	Cop1FnDiv   = 0x03
	Cop1FnMov   = 0x06
	Cop1FnCvtS  = 0x20
	Cop1FnCvtD  = 0x21
	Cop1FnCvtW  = 0x24
	Cop1FnCLt   = 0x3C // c.lt.fmt
)

// BC1 ft field (bit 16) distinguishes BC1F (0) from BC1T (1).
const (
	Bc1False = 0
	Bc1True  = 1
)

// MFC1/MTC1 use the COP1 rs field (bits 21-25) in place of fmt.
const (
	Cop1Mf = 0x00
	Cop1Mt = 0x04
)

// RegisterNames gives the canonical ABI aliases for $0-$31, used by the
// disassembler.
var RegisterNames = [32]string{
	"$zero", "$at", "$v0", "$v1", "$a0", "$a1", "$a2", "$a3",
	"$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7",
	"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7",
	"$t8", "$t9", "$k0", "$k1", "$gp", "$sp", "$fp", "$ra",
}
