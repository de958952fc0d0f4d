/*
 * MINIPS - Disassembler
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

package instr

import (
	"encoding/binary"
	"fmt"

	"github.com/rcornwell/minips/internal/opcodes"
)

// Disassemble decodes one little-endian instruction word from the front of
// data and returns its text form plus the byte count consumed (always 4).
// Mirrors the teacher's emu/disassemble.Disasemble(data) (string, int)
// signature.
func Disassemble(data []byte) (string, int) {
	word := binary.LittleEndian.Uint32(data)
	in, err := Decode(word)
	if err != nil {
		return fmt.Sprintf("<%#08x>", word), 4
	}
	return in.String(), 4
}

var mnemonicNames = map[Mnemonic]string{
	MnNOP: "nop", MnADD: "add", MnADDU: "addu", MnSUB: "sub", MnSUBU: "subu",
	MnAND: "and", MnOR: "or", MnXOR: "xor", MnSLL: "sll", MnSRL: "srl", MnSRA: "sra",
	MnSLT: "slt", MnSLTU: "sltu", MnJR: "jr", MnJALR: "jalr",
	MnMULT: "mult", MnDIV: "div", MnMFLO: "mflo", MnMFHI: "mfhi", MnSYSCALL: "syscall",
	MnADDI: "addi", MnADDIU: "addiu", MnSLTI: "slti", MnANDI: "andi", MnORI: "ori",
	MnLUI: "lui", MnLW: "lw", MnSW: "sw", MnLB: "lb",
	MnBEQ: "beq", MnBNE: "bne", MnBLEZ: "blez", MnBLTZ: "bltz", MnBGEZ: "bgez", MnBAL: "bal",
	MnJ: "j", MnJAL: "jal",
	MnLWC1: "lwc1", MnLDC1: "ldc1", MnSWC1: "swc1", MnMFC1: "mfc1", MnMTC1: "mtc1",
	MnMOVS: "mov.s", MnMOVD: "mov.d", MnADDS: "add.s", MnSUBS: "sub.s", MnMULS: "mul.s", MnDIVS: "div.s",
	MnADDD: "add.d", MnSUBD: "sub.d", MnMULD: "mul.d", MnDIVD: "div.d",
	MnCVTDW: "cvt.d.w", MnCVTSD: "cvt.s.d", MnCLTS: "c.lt.s", MnBC1T: "bc1t", MnBC1F: "bc1f",
}

func reg(i uint8) string {
	return opcodes.RegisterNames[i]
}

// String renders the canonical textual form of the instruction: signed
// immediates decoded, load/store forms as "op rt, imm(rs)", J/JAL showing
// both the 26-bit target and its byte address.
func (in Instruction) String() string {
	name := mnemonicNames[in.Mn]

	switch in.Kind {
	case KindNOP:
		return "nop"

	case KindR:
		a := in.R
		switch in.Mn {
		case MnSLL, MnSRL, MnSRA:
			return fmt.Sprintf("%s %s, %s, %d", name, reg(a.Rd), reg(a.Rt), a.Shamt)
		case MnJR:
			return fmt.Sprintf("%s %s", name, reg(a.Rs))
		case MnJALR:
			return fmt.Sprintf("%s %s, %s", name, reg(a.Rd), reg(a.Rs))
		case MnMULT, MnDIV:
			return fmt.Sprintf("%s %s, %s", name, reg(a.Rs), reg(a.Rt))
		case MnMFLO, MnMFHI:
			return fmt.Sprintf("%s %s", name, reg(a.Rd))
		case MnSYSCALL:
			return "syscall"
		default:
			return fmt.Sprintf("%s %s, %s, %s", name, reg(a.Rd), reg(a.Rs), reg(a.Rt))
		}

	case KindI:
		a := in.I
		switch in.Mn {
		case MnLW, MnSW, MnLB:
			return fmt.Sprintf("%s %s, %d(%s)", name, reg(a.Rt), SignExtendCast(uint32(a.Imm), 16), reg(a.Rs))
		case MnLUI:
			return fmt.Sprintf("%s %s, %#x", name, reg(a.Rt), a.Imm)
		case MnANDI, MnORI:
			return fmt.Sprintf("%s %s, %s, %#x", name, reg(a.Rt), reg(a.Rs), a.Imm)
		case MnBEQ, MnBNE:
			return fmt.Sprintf("%s %s, %s, %d", name, reg(a.Rs), reg(a.Rt), SignExtendCast(uint32(a.Imm), 16))
		case MnBLEZ, MnBGEZ, MnBLTZ, MnBAL:
			return fmt.Sprintf("%s %s, %d", name, reg(a.Rs), SignExtendCast(uint32(a.Imm), 16))
		default:
			return fmt.Sprintf("%s %s, %s, %d", name, reg(a.Rt), reg(a.Rs), SignExtendCast(uint32(a.Imm), 16))
		}

	case KindJ:
		return fmt.Sprintf("%s %#x # %#x", name, in.J, in.J*4)

	case KindFR:
		a := in.FR
		switch in.Mn {
		case MnMFC1:
			return fmt.Sprintf("mfc1 %s, $f%d", reg(a.Ft), a.Fs)
		case MnMTC1:
			return fmt.Sprintf("mtc1 %s, $f%d", reg(a.Ft), a.Fs)
		case MnMOVS, MnMOVD, MnCVTDW, MnCVTSD:
			return fmt.Sprintf("%s $f%d, $f%d", name, a.Fd, a.Fs)
		case MnCLTS:
			return fmt.Sprintf("%s $f%d, $f%d", name, a.Fs, a.Ft)
		default:
			return fmt.Sprintf("%s $f%d, $f%d, $f%d", name, a.Fd, a.Fs, a.Ft)
		}

	case KindFI:
		a := in.FI
		switch in.Mn {
		case MnLWC1, MnLDC1, MnSWC1:
			return fmt.Sprintf("%s $f%d, %d(%s)", name, a.Ft, SignExtendCast(uint32(a.Imm), 16), reg(a.Rs))
		default:
			return fmt.Sprintf("%s %d", name, SignExtendCast(uint32(a.Imm), 16))
		}

	default:
		return fmt.Sprintf("<unknown %#08x>", in.Word)
	}
}
