package loader

import "testing"

func TestBuildUnknownConfiguration(t *testing.T) {
	if _, err := Build(0, nil); err == nil {
		t.Fatalf("expected ConfigurationError")
	}
	if _, err := Build(7, nil); err == nil {
		t.Fatalf("expected ConfigurationError")
	}
}

func TestBuildBareRAM(t *testing.T) {
	h, err := Build(1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.IMem != h.DMem {
		t.Fatalf("configuration 1 should share one memory for imem/dmem")
	}
}

func TestBuildSplitCachesAreSisterLinked(t *testing.T) {
	h, err := Build(3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.IMem == h.DMem {
		t.Fatalf("configuration 3 should split I$/D$")
	}
	// A word written through D$ stays dirty there; I$ only sees it by
	// copying the line from its sister.
	if _, err := h.DMem.WriteWord(TextBase, 0x1234); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _, err := h.IMem.ReadInstruction(TextBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0x1234 {
		t.Fatalf("I$ read got %#x, want %#x from sister D$", v, 0x1234)
	}
}

func TestLoadSegmentsWritesWords(t *testing.T) {
	h, err := Build(1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	segs := []Segment{{Base: TextBase, Words: []uint32{1, 2, 3}}}
	if err := h.LoadSegments(segs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _, err := h.DMem.ReadWord(TextBase + 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 2 {
		t.Fatalf("got %d, want 2", v)
	}
}

func TestReadNakedMissingTextErrors(t *testing.T) {
	if _, err := ReadNaked("/nonexistent/prefix-does-not-exist"); err == nil {
		t.Fatalf("expected error for missing .text file")
	}
}
