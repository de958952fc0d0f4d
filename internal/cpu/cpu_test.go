package cpu

import (
	"testing"

	"github.com/rcornwell/minips/internal/memory"
)

func encodeR(opcode, rs, rt, rd, shamt, funct uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

func encodeI(opcode, rs, rt, imm uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | (imm & 0xFFFF)
}

func newTestCPU(t *testing.T) (*CPU, *memory.RAM) {
	t.Helper()
	ram := memory.NewRAM("ram", 1)
	c := New(ram, ram, 0x1000, 0x7FFFEFFC, 0x10008000, nil)
	return c, ram
}

// TestIntegerArithmetic exercises addi/add/sub through one fetch/execute
// cycle each, checking register state after each step.
func TestIntegerArithmetic(t *testing.T) {
	c, ram := newTestCPU(t)

	// addi $t0, $zero, 5
	ram.WriteWordRaw(0x1000, encodeI(0x08, 0, 8, 5))
	// addi $t1, $zero, 3
	ram.WriteWordRaw(0x1004, encodeI(0x08, 0, 9, 3))
	// add $t2, $t0, $t1
	ram.WriteWordRaw(0x1008, encodeR(0, 8, 9, 10, 0, 0x20))
	// sub $t3, $t0, $t1
	ram.WriteWordRaw(0x100C, encodeR(0, 8, 9, 11, 0, 0x22))

	for i := 0; i < 4; i++ {
		if err := c.step(); err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
	}

	if v := c.Regs.get(8); v != 5 {
		t.Errorf("$t0 = %d, want 5", v)
	}
	if v := c.Regs.get(9); v != 3 {
		t.Errorf("$t1 = %d, want 3", v)
	}
	if v := c.Regs.get(10); v != 8 {
		t.Errorf("$t2 = %d, want 8", v)
	}
	if v := c.Regs.get(11); v != 2 {
		t.Errorf("$t3 = %d, want 2", v)
	}
}

// TestBranchDelaySlot checks that the instruction immediately after a branch
// still executes before control transfers to the target.
func TestBranchDelaySlot(t *testing.T) {
	c, ram := newTestCPU(t)

	// addi $t0, $zero, 1
	ram.WriteWordRaw(0x1000, encodeI(0x08, 0, 8, 1))
	// beq $zero, $zero, 2   (branch to 0x1008 + 2*4 = 0x1010)
	ram.WriteWordRaw(0x1004, encodeI(0x04, 0, 0, 2))
	// addi $t1, $zero, 2    (delay slot: must execute)
	ram.WriteWordRaw(0x1008, encodeI(0x08, 0, 9, 2))
	// addi $t2, $zero, 99   (skipped if branch is taken)
	ram.WriteWordRaw(0x100C, encodeI(0x08, 0, 10, 99))
	// addi $t3, $zero, 7    (branch target)
	ram.WriteWordRaw(0x1010, encodeI(0x08, 0, 11, 7))

	for i := 0; i < 4; i++ {
		if err := c.step(); err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
	}

	if v := c.Regs.get(9); v != 2 {
		t.Errorf("delay-slot instruction did not execute: $t1 = %d, want 2", v)
	}
	if v := c.Regs.get(10); v != 0 {
		t.Errorf("post-delay-slot instruction ran despite taken branch: $t2 = %d, want 0", v)
	}
	if v := c.Regs.get(11); v != 7 {
		t.Errorf("branch target did not execute: $t3 = %d, want 7", v)
	}
	if c.PC != 0x1014 {
		t.Errorf("PC = %#x, want %#x", c.PC, 0x1014)
	}
}

// TestJALRFixedReturnAddress checks the REDESIGN-flagged behavior: JALR
// always stores pc+8 into rd (JAL and BAL store pc+4 into $ra).
func TestJALRFixedReturnAddress(t *testing.T) {
	c, ram := newTestCPU(t)

	c.Regs.set(8, 0x2000) // $t0 = target
	// jalr $ra, $t0
	ram.WriteWordRaw(0x1000, encodeR(0, 8, 0, 31, 0, 0x09))
	// nop (delay slot)
	ram.WriteWordRaw(0x1004, 0)
	ram.WriteWordRaw(0x2000, 0) // nop at target

	if err := c.step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := c.Regs.get(31); v != 0x1008 {
		t.Errorf("$ra = %#x, want %#x", v, 0x1008)
	}
	if err := c.step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PC != 0x2000 {
		t.Errorf("PC = %#x, want %#x", c.PC, 0x2000)
	}
}

// TestHaltSyscall checks that $v0=10 halts the run loop.
func TestHaltSyscall(t *testing.T) {
	c, ram := newTestCPU(t)

	c.Regs.set(2, 10) // $v0 = 10
	// syscall
	ram.WriteWordRaw(0x1000, encodeR(0, 0, 0, 0, 0, 0x0C))

	if err := c.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Halted {
		t.Errorf("CPU did not halt")
	}
}

func TestRegisterZeroDiscardsWrites(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Regs.set(0, 42)
	if v := c.Regs.get(0); v != 0 {
		t.Errorf("$zero = %d, want 0", v)
	}
}

func TestDivisionByZero(t *testing.T) {
	c, ram := newTestCPU(t)
	c.Regs.set(8, 10)
	c.Regs.set(9, 0)
	// div $t0, $t1
	ram.WriteWordRaw(0x1000, encodeR(0, 8, 9, 0, 0, 0x1A))
	if err := c.step(); err == nil {
		t.Fatalf("expected division-by-zero error")
	}
}
