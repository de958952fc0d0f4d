package stats

import "testing"

func TestAddInstrCountsByKind(t *testing.T) {
	r := New()
	r.AddInstr(KindR)
	r.AddInstr(KindR)
	r.AddInstr(KindI)
	if r.total() != 3 {
		t.Fatalf("total() = %d, want 3", r.total())
	}
	if r.counts[KindR] != 2 {
		t.Fatalf("counts[KindR] = %d, want 2", r.counts[KindR])
	}
}

func TestAddCyclesAccumulates(t *testing.T) {
	r := New()
	r.AddCycles(3)
	r.AddCycles(4)
	if r.cycles != 7 {
		t.Fatalf("cycles = %d, want 7", r.cycles)
	}
}

func TestRatioHandlesZeroDenominator(t *testing.T) {
	if got := ratio(5, 0); got != 0 {
		t.Fatalf("ratio(5,0) = %v, want 0", got)
	}
	if got := ratio(6, 3); got != 2 {
		t.Fatalf("ratio(6,3) = %v, want 2", got)
	}
}
