package rig

import "testing"

func TestNormalizeTagVocabulary(t *testing.T) {
	cases := []struct {
		raw  any
		want Tag
	}{
		{"box", TagBox},
		{"sphere", TagSphere},
		{"compound", TagCompound},
		{"glue", TagCompound},
		{"lock", TagLock},
		{"hinge", TagHinge},
		{"point", TagPoint},
		{"distance", TagDistance},
		{"dist", TagDistance},
		{"sync", TagSync},
		{"cable", TagCable},
		{"tube", TagCable},
		{"custom", TagCustom},
		{"x", TagNone},
		{"none", TagNone},
		{"whatever", TagNone},
		{nil, TagNone},
	}
	for _, c := range cases {
		if got := NormalizeTag(c.raw); got != c.want {
			t.Errorf("NormalizeTag(%v) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestNormalizeTagNumeric(t *testing.T) {
	if got := NormalizeTag(int(TagSphere)); got != TagSphere {
		t.Errorf("pre-resolved int should pass through, got %v", got)
	}
	if got := NormalizeTag(float64(TagHinge)); got != TagHinge {
		t.Errorf("float-encoded tag should resolve, got %v", got)
	}
	if got := NormalizeTag(999); got != TagNone {
		t.Errorf("out-of-range numeric should be none, got %v", got)
	}
}

func TestNormalizeTagIdempotent(t *testing.T) {
	for tag := TagNone; tag <= TagCustom; tag++ {
		if got := NormalizeTag(tag); got != tag {
			t.Errorf("NormalizeTag(%v) = %v, want unchanged", tag, got)
		}
	}
}

func TestNormalizeMaskInteger(t *testing.T) {
	if got := NormalizeMask(5); got != 5 {
		t.Errorf("integer mask should pass through, got %d", got)
	}
	if got := NormalizeMask(float64(6)); got != 6 {
		t.Errorf("float-encoded mask should resolve, got %d", got)
	}
	if got := NormalizeMask(NormalizeMask(5)); got != 5 {
		t.Errorf("normalizing twice should be stable, got %d", got)
	}
}

func TestNormalizeMaskBitLists(t *testing.T) {
	// Exporter-style layer vector: bools select their slot index.
	if got := NormalizeMask([]bool{true, false, true}); got != 0b101 {
		t.Errorf("bool vector: got %b, want 101", got)
	}
	// Index list: numbers are selected bit indices.
	if got := NormalizeMask([]int{0, 3}); got != 0b1001 {
		t.Errorf("index list: got %b, want 1001", got)
	}
	if got := NormalizeMask([]any{float64(1), float64(4)}); got != 0b10010 {
		t.Errorf("decoded index list: got %b, want 10010", got)
	}
	if got := NormalizeMask([]any{true, false, true}); got != 0b101 {
		t.Errorf("decoded bool vector: got %b, want 101", got)
	}
}

func TestNormalizeMaskAbsent(t *testing.T) {
	if got := NormalizeMask(nil); got != 0 {
		t.Errorf("absent mask should be 0, got %d", got)
	}
	if got := NormalizeMask([]bool{}); got != 0 {
		t.Errorf("empty vector should be 0, got %d", got)
	}
	if got := defaultFilterBits(0); got != 1 {
		t.Errorf("zero filter should default to 1, got %d", got)
	}
	if got := defaultFilterBits(12); got != 12 {
		t.Errorf("non-zero filter should pass through, got %d", got)
	}
}

func TestNormalizeBoth(t *testing.T) {
	tag, filter := Normalize("box", 2, []int{0, 1})
	if tag != TagBox {
		t.Errorf("tag: got %v", tag)
	}
	if filter.Group != 2 || filter.Mask != 3 {
		t.Errorf("filter: got %+v", filter)
	}
}
