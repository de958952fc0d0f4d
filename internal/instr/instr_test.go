package instr

import "testing"

func encodeR(opcode, rs, rt, rd, shamt, funct uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

func encodeI(opcode, rs, rt, imm uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | (imm & 0xFFFF)
}

func encodeJ(opcode, target uint32) uint32 {
	return opcode<<26 | (target & 0x03FFFFFF)
}

func TestDecodeNOP(t *testing.T) {
	in, err := Decode(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Kind != KindNOP || in.Mn != MnNOP {
		t.Fatalf("got %+v, want NOP", in)
	}
}

func TestDecodeRType(t *testing.T) {
	tests := []struct {
		name   string
		funct  uint32
		mn     Mnemonic
	}{
		{"add", 0x20, MnADD},
		{"addu", 0x21, MnADDU},
		{"sub", 0x22, MnSUB},
		{"and", 0x24, MnAND},
		{"or", 0x25, MnOR},
		{"xor", 0x26, MnXOR},
		{"slt", 0x2A, MnSLT},
		{"sltu", 0x2B, MnSLTU},
		{"jr", 0x08, MnJR},
		{"jalr", 0x09, MnJALR},
		{"mult", 0x18, MnMULT},
		{"div", 0x1A, MnDIV},
		{"mflo", 0x12, MnMFLO},
		{"mfhi", 0x10, MnMFHI},
		{"syscall", 0x0C, MnSYSCALL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word := encodeR(0, 8, 9, 10, 0, tt.funct)
			in, err := Decode(word)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if in.Kind != KindR {
				t.Fatalf("got Kind %v, want KindR", in.Kind)
			}
			if in.Mn != tt.mn {
				t.Fatalf("got mnemonic %v, want %v", in.Mn, tt.mn)
			}
			if in.R.Rs != 8 || in.R.Rt != 9 || in.R.Rd != 10 {
				t.Fatalf("fields not decoded: %+v", in.R)
			}
		})
	}
}

// Opcodes trimmed from the exhaustive instruction table must fail to decode.
func TestDecodeUnsupportedRejected(t *testing.T) {
	tests := []struct {
		name string
		word uint32
	}{
		{"multu", encodeR(0, 8, 9, 0, 0, 0x19)},
		{"divu", encodeR(0, 8, 9, 0, 0, 0x1B)},
		{"nor", encodeR(0, 8, 9, 10, 0, 0x27)},
		{"sltiu", encodeI(0x0B, 8, 9, 1)},
		{"xori", encodeI(0x0E, 8, 9, 1)},
		{"lbu", encodeI(0x24, 8, 9, 0)},
		{"lhu", encodeI(0x25, 8, 9, 0)},
		{"sb", encodeI(0x28, 8, 9, 0)},
		{"sh", encodeI(0x29, 8, 9, 0)},
		{"bgtz", encodeI(0x07, 8, 0, 4)},
		{"sdc1", encodeI(0x3D, 8, 9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.word); err == nil {
				t.Fatalf("expected decode error for %s", tt.name)
			}
		})
	}
}

func TestDecodeIType(t *testing.T) {
	word := encodeI(0x08, 8, 9, 0xFFFE) // addi $t1, $t0, -2
	in, err := Decode(word)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Mn != MnADDI || in.I.Rs != 8 || in.I.Rt != 9 {
		t.Fatalf("got %+v", in)
	}
	if got := SignExtendCast(uint32(in.I.Imm), 16); got != -2 {
		t.Fatalf("got imm %d, want -2", got)
	}
}

func TestDecodeFloatLoadStoreIsKindFI(t *testing.T) {
	word := encodeI(0x31, 8, 1, 4) // lwc1 $f1, 4($t0)
	in, err := Decode(word)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Kind != KindFI || in.Mn != MnLWC1 {
		t.Fatalf("got %+v, want KindFI/MnLWC1", in)
	}
	if in.FI.Rs != 8 || in.FI.Ft != 1 || in.FI.Imm != 4 {
		t.Fatalf("fields not decoded: %+v", in.FI)
	}
}

func TestDecodeJType(t *testing.T) {
	in, err := Decode(encodeJ(0x02, 0x100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Mn != MnJ || in.J != 0x100 {
		t.Fatalf("got %+v", in)
	}

	in, err = Decode(encodeJ(0x03, 0x100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Mn != MnJAL {
		t.Fatalf("got %+v, want MnJAL", in)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	_, err := Decode(encodeI(0x3F, 0, 0, 0))
	if err == nil {
		t.Fatalf("expected decode error")
	}
	var de *DecodeError
	if !asDecodeError(err, &de) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
}

func asDecodeError(err error, target **DecodeError) bool {
	de, ok := err.(*DecodeError)
	if ok {
		*target = de
	}
	return ok
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		val  uint32
		k    uint
		want uint32
	}{
		{0x0001, 16, 0x00000001},
		{0xFFFF, 16, 0xFFFFFFFF},
		{0x8000, 16, 0xFFFF8000},
		{0xFF, 8, 0xFFFFFFFF},
		{0x7F, 8, 0x0000007F},
	}
	for _, tt := range tests {
		if got := SignExtend(tt.val, tt.k); got != tt.want {
			t.Errorf("SignExtend(%#x,%d) = %#x, want %#x", tt.val, tt.k, got, tt.want)
		}
	}
}

func TestBranchAddr(t *testing.T) {
	if got := BranchAddr(4); got != 16 {
		t.Errorf("BranchAddr(4) = %d, want 16", got)
	}
	if got := BranchAddr(0xFFFF); got != -4 {
		t.Errorf("BranchAddr(-1) = %d, want -4", got)
	}
}

func TestJumpAddr(t *testing.T) {
	got := JumpAddr(0x00400000, 0x100000)
	want := uint32(0x00400000 | (0x100000 << 2))
	if got != want {
		t.Errorf("JumpAddr = %#x, want %#x", got, want)
	}
}
