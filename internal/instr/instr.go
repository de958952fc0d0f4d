/*
 * MINIPS - Instruction decoder
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

// Package instr implements the MINIPS instruction model: decoding a 32-bit
// word into a tagged instruction, and disassembling it back to text. This
// mirrors the role the teacher repo's emu/opcodemap and emu/disassemble
// packages play for the S/370 instruction set, collapsed into one package
// since the MIPS encoding has far fewer instruction formats.
package instr

import (
	"fmt"

	"github.com/rcornwell/minips/internal/opcodes"
)

// Kind tags which encoding family a decoded instruction belongs to; the
// concrete operation is held separately in Instruction.Mn.
type Kind int

const (
	KindNOP Kind = iota
	KindR
	KindI
	KindJ
	KindFR
	KindFI
)

// Mnemonic identifies the specific operation within its encoding family.
type Mnemonic int

const (
	MnNOP Mnemonic = iota
	MnADD
	MnADDU
	MnSUB
	MnSUBU
	MnAND
	MnOR
	MnXOR
	MnSLL
	MnSRL
	MnSRA
	MnSLT
	MnSLTU
	MnJR
	MnJALR
	MnMULT
	MnMULTU
	MnDIV
	MnDIVU
	MnMFLO
	MnMFHI
	MnSYSCALL
	MnADDI
	MnADDIU
	MnSLTI
	MnSLTIU
	MnANDI
	MnORI
	MnXORI
	MnLUI
	MnLW
	MnSW
	MnLB
	MnLBU
	MnLH
	MnLHU
	MnSB
	MnSH
	MnBEQ
	MnBNE
	MnBLEZ
	MnBGTZ
	MnBLTZ
	MnBGEZ
	MnBAL
	MnJ
	MnJAL
	MnLWC1
	MnLDC1
	MnSWC1
	MnSDC1
	MnMFC1
	MnMTC1
	MnMOVS
	MnMOVD
	MnADDS
	MnSUBS
	MnMULS
	MnDIVS
	MnADDD
	MnSUBD
	MnMULD
	MnDIVD
	MnCVTDW
	MnCVTSD
	MnCLTS
	MnBC1T
	MnBC1F
)

// RArgs holds the decoded fields of an R-type (register) instruction.
type RArgs struct {
	Rs, Rt, Rd uint8
	Shamt      uint8
}

// IArgs holds the decoded fields of an I-type (immediate) instruction.
type IArgs struct {
	Rs, Rt uint8
	Imm    uint16
}

// FRArgs holds the decoded fields of a floating-point R-style (cop1)
// instruction.
type FRArgs struct {
	Ft, Fs, Fd uint8
	Funct      uint8
}

// FIArgs holds the decoded fields of a floating-point I-style (cop1 branch
// or load/store) instruction.
type FIArgs struct {
	Ft     uint8
	Rs     uint8
	Imm    uint16
}

// Instruction is a decoded 32-bit MIPS word: a tagged variant over the five
// encoding families, matching the data model in spec.md §3.
type Instruction struct {
	Kind   Kind
	Mn     Mnemonic
	Word   uint32
	R      RArgs
	I      IArgs
	J      uint32 // 26-bit jump target.
	FR     FRArgs
	FI     FIArgs
}

// DecodeError reports a word that does not match any known encoding, naming
// the opcode/funct pair the way spec.md §7 requires.
type DecodeError struct {
	Word, Opcode, Funct uint32
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: unknown instruction %#08x (opcode=%#02x funct=%#02x)",
		e.Word, e.Opcode, e.Funct)
}

// Decode turns a raw instruction word into its tagged Instruction form, or
// a *DecodeError if the encoding is not recognized.
func Decode(word uint32) (Instruction, error) {
	if word == 0 {
		return Instruction{Kind: KindNOP, Mn: MnNOP, Word: word}, nil
	}

	opcode := (word >> 26) & 0x3F

	switch opcode {
	case opcodes.OpSpecial:
		return decodeR(word, opcode)
	case opcodes.OpCop0:
		return decodeR(word, opcode)
	case opcodes.OpJ, opcodes.OpJal:
		return decodeJ(word, opcode)
	case opcodes.OpCop1:
		return decodeCop1(word)
	case opcodes.OpRegimm:
		return decodeRegimm(word)
	default:
		return decodeI(word, opcode)
	}
}

func fields(word uint32) (rs, rt, rd, shamt, funct uint8) {
	funct = uint8(word & 0x3F)
	shamt = uint8((word >> 6) & 0x1F)
	rd = uint8((word >> 11) & 0x1F)
	rt = uint8((word >> 16) & 0x1F)
	rs = uint8((word >> 21) & 0x1F)
	return
}

func decodeR(word, opcode uint32) (Instruction, error) {
	rs, rt, rd, shamt, funct := fields(word)
	args := RArgs{Rs: rs, Rt: rt, Rd: rd, Shamt: shamt}

	var mn Mnemonic
	switch funct {
	case opcodes.FnSll:
		mn = MnSLL
	case opcodes.FnSrl:
		mn = MnSRL
	case opcodes.FnSra:
		mn = MnSRA
	case opcodes.FnJr:
		mn = MnJR
	case opcodes.FnJalr:
		mn = MnJALR
	case opcodes.FnSyscall:
		mn = MnSYSCALL
	case opcodes.FnMfhi:
		mn = MnMFHI
	case opcodes.FnMflo:
		mn = MnMFLO
	case opcodes.FnMult:
		mn = MnMULT
	case opcodes.FnDiv:
		mn = MnDIV
	case opcodes.FnAdd:
		mn = MnADD
	case opcodes.FnAddu:
		mn = MnADDU
	case opcodes.FnSub:
		mn = MnSUB
	case opcodes.FnSubu:
		mn = MnSUBU
	case opcodes.FnAnd:
		mn = MnAND
	case opcodes.FnOr:
		mn = MnOR
	case opcodes.FnXor:
		mn = MnXOR
	case opcodes.FnSlt:
		mn = MnSLT
	case opcodes.FnSltu:
		mn = MnSLTU
	default:
		return Instruction{}, &DecodeError{Word: word, Opcode: opcode, Funct: uint32(funct)}
	}

	return Instruction{Kind: KindR, Mn: mn, Word: word, R: args}, nil
}

func decodeJ(word, opcode uint32) (Instruction, error) {
	target := word & 0x03FFFFFF
	mn := MnJ
	if opcode == opcodes.OpJal {
		mn = MnJAL
	}
	return Instruction{Kind: KindJ, Mn: mn, Word: word, J: target}, nil
}

func decodeRegimm(word uint32) (Instruction, error) {
	rs, rt, _, _, _ := fields(word)
	imm := uint16(word & 0xFFFF)
	args := IArgs{Rs: rs, Rt: rt, Imm: imm}

	var mn Mnemonic
	switch rt {
	case opcodes.RtBltz:
		mn = MnBLTZ
	case opcodes.RtBgez:
		mn = MnBGEZ
	case opcodes.RtBal:
		mn = MnBAL
	default:
		return Instruction{}, &DecodeError{Word: word, Opcode: opcodes.OpRegimm, Funct: uint32(rt)}
	}

	return Instruction{Kind: KindI, Mn: mn, Word: word, I: args}, nil
}

func decodeI(word, opcode uint32) (Instruction, error) {
	rs, rt, _, _, _ := fields(word)
	imm := uint16(word & 0xFFFF)

	switch opcode {
	case opcodes.OpLwc1:
		return Instruction{Kind: KindFI, Mn: MnLWC1, Word: word, FI: FIArgs{Rs: rs, Ft: rt, Imm: imm}}, nil
	case opcodes.OpLdc1:
		return Instruction{Kind: KindFI, Mn: MnLDC1, Word: word, FI: FIArgs{Rs: rs, Ft: rt, Imm: imm}}, nil
	case opcodes.OpSwc1:
		return Instruction{Kind: KindFI, Mn: MnSWC1, Word: word, FI: FIArgs{Rs: rs, Ft: rt, Imm: imm}}, nil
	}

	args := IArgs{Rs: rs, Rt: rt, Imm: imm}

	var mn Mnemonic
	switch opcode {
	case opcodes.OpBeq:
		mn = MnBEQ
	case opcodes.OpBne:
		mn = MnBNE
	case opcodes.OpBlez:
		mn = MnBLEZ
	case opcodes.OpAddi:
		mn = MnADDI
	case opcodes.OpAddiu:
		mn = MnADDIU
	case opcodes.OpSlti:
		mn = MnSLTI
	case opcodes.OpAndi:
		mn = MnANDI
	case opcodes.OpOri:
		mn = MnORI
	case opcodes.OpLui:
		mn = MnLUI
	case opcodes.OpLb:
		mn = MnLB
	case opcodes.OpLw:
		mn = MnLW
	case opcodes.OpSw:
		mn = MnSW
	default:
		return Instruction{}, &DecodeError{Word: word, Opcode: opcode, Funct: 0}
	}

	return Instruction{Kind: KindI, Mn: mn, Word: word, I: args}, nil
}

func decodeCop1(word uint32) (Instruction, error) {
	fmtField := (word >> 21) & 0x1F
	ft := uint8((word >> 16) & 0x1F)
	fs := uint8((word >> 11) & 0x1F)
	fd := uint8((word >> 6) & 0x1F)
	funct := uint8(word & 0x3F)
	imm := uint16(word & 0xFFFF)

	switch fmtField {
	case opcodes.Cop1Mf:
		return Instruction{Kind: KindFR, Mn: MnMFC1, Word: word,
			FR: FRArgs{Ft: ft, Fs: fs, Fd: fd, Funct: funct}}, nil
	case opcodes.Cop1Mt:
		return Instruction{Kind: KindFR, Mn: MnMTC1, Word: word,
			FR: FRArgs{Ft: ft, Fs: fs, Fd: fd, Funct: funct}}, nil
	case opcodes.FmtBc:
		mn := MnBC1F
		if ft == opcodes.Bc1True {
			mn = MnBC1T
		}
		return Instruction{Kind: KindFI, Mn: mn, Word: word,
			FI: FIArgs{Ft: ft, Imm: imm}}, nil
	case opcodes.FmtSingle:
		mn, ok := cop1ArithMnemonic(funct, false)
		if !ok {
			return Instruction{}, &DecodeError{Word: word, Opcode: opcodes.OpCop1, Funct: uint32(funct)}
		}
		return Instruction{Kind: KindFR, Mn: mn, Word: word,
			FR: FRArgs{Ft: ft, Fs: fs, Fd: fd, Funct: funct}}, nil
	case opcodes.FmtDouble:
		mn, ok := cop1ArithMnemonic(funct, true)
		if !ok {
			return Instruction{}, &DecodeError{Word: word, Opcode: opcodes.OpCop1, Funct: uint32(funct)}
		}
		return Instruction{Kind: KindFR, Mn: mn, Word: word,
			FR: FRArgs{Ft: ft, Fs: fs, Fd: fd, Funct: funct}}, nil
	case opcodes.FmtWord:
		if funct != opcodes.Cop1FnCvtD {
			return Instruction{}, &DecodeError{Word: word, Opcode: opcodes.OpCop1, Funct: uint32(funct)}
		}
		return Instruction{Kind: KindFR, Mn: MnCVTDW, Word: word,
			FR: FRArgs{Ft: ft, Fs: fs, Fd: fd, Funct: funct}}, nil
	default:
		return Instruction{}, &DecodeError{Word: word, Opcode: opcodes.OpCop1, Funct: uint32(funct)}
	}
}

func cop1ArithMnemonic(funct uint8, double bool) (Mnemonic, bool) {
	switch funct {
	case opcodes.Cop1FnAdd:
		if double {
			return MnADDD, true
		}
		return MnADDS, true
	case opcodes.Cop1FnSub:
		if double {
			return MnSUBD, true
		}
		return MnSUBS, true
	case opcodes.Cop1FnMul:
		if double {
			return MnMULD, true
		}
		return MnMULS, true
	case opcodes.Cop1FnDiv:
		if double {
			return MnDIVD, true
		}
		return MnDIVS, true
	case opcodes.Cop1FnMov:
		if double {
			return MnMOVD, true
		}
		return MnMOVS, true
	case opcodes.Cop1FnCLt:
		return MnCLTS, true
	case opcodes.Cop1FnCvtS:
		if double {
			return MnCVTSD, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// SignExtend copies bit k-1 into bits k..31 of val, treating val as a
// k-bit two's complement quantity held in the low k bits of a uint32.
func SignExtend(val uint32, k uint) uint32 {
	signBit := uint32(1) << (k - 1)
	mask := uint32(1)<<k - 1
	val &= mask
	if val&signBit != 0 {
		return val | ^mask
	}
	return val
}

// SignExtendCast sign-extends a k-bit value and reinterprets it as signed.
func SignExtendCast(val uint32, k uint) int32 {
	return int32(SignExtend(val, k))
}

// BranchAddr computes the byte displacement for a branch immediate: the
// 16-bit field sign-extended to 32 bits and shifted left by 2.
func BranchAddr(imm uint16) int32 {
	return int32(SignExtend(uint32(imm), 16)) << 2
}

// JumpAddr computes the absolute target of a J/JAL instruction: the top 4
// bits of pc+4 combined with the 26-bit target field shifted left by 2.
func JumpAddr(pc, target uint32) uint32 {
	return ((pc + 4) & 0xF0000000) | (target << 2)
}
