package bitmap

import (
	"strconv"
	"testing"
)

// TestNew verifies the number of words allocated so that maxID itself is
// always representable.
func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		maxID   int64
		wantLen int
	}{
		{name: "negative maxID yields empty set", maxID: -1, wantLen: 0},
		{name: "zero fits in one word", maxID: 0, wantLen: 1},
		{name: "63 is the last bit of the first word", maxID: 63, wantLen: 1},
		{name: "64 needs a second word", maxID: 64, wantLen: 2},
		{name: "biobank-sized id range", maxID: 6026000, wantLen: 6026000/64 + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := len(New(tt.maxID).data); got != tt.wantLen {
				t.Fatalf("New(%d) data length = %d, want %d", tt.maxID, got, tt.wantLen)
			}
		})
	}
}

/*
TestAddAndHas verifies membership across word boundaries and that negative
and out-of-range ids are ignored.
*/
func TestAddAndHas(t *testing.T) {
	t.Parallel()

	bm := New(200)
	for _, id := range []int64{-1, 0, 63, 64, 200, 1000} {
		bm.Add(id)
	}

	tests := []struct {
		id   int64
		want bool
	}{
		{-1, false},
		{0, true},
		{1, false},
		{63, true},
		{64, true},
		{199, false},
		{200, true},
		{1000, false},
	}
	for _, tt := range tests {
		t.Run(strconv.FormatInt(tt.id, 10), func(t *testing.T) {
			t.Parallel()
			if got := bm.Has(tt.id); got != tt.want {
				t.Fatalf("Has(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
	if got := bm.Len(); got != 4 {
		t.Fatalf("Len = %d, want 4", got)
	}
}

func TestFromIDs(t *testing.T) {
	t.Parallel()

	bm := FromIDs([]int64{1000010, 1000020, -5, 1000010})
	if !bm.Has(1000010) || !bm.Has(1000020) || bm.Has(1000011) {
		t.Fatalf("membership wrong")
	}
	if bm.Len() != 2 {
		t.Fatalf("Len = %d, want 2", bm.Len())
	}
	if FromIDs(nil).Has(0) {
		t.Fatalf("empty bitmap must not contain 0")
	}
}

func TestDense(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ids  []int64
		want bool
	}{
		{"empty", nil, false},
		{"negative id", []int64{-1, 5}, false},
		{"compact range", []int64{1, 2, 3, 640}, true},
		{"sparse outlier", []int64{1, 1 << 40}, false},
	}
	for _, tt := range tests {
		if got := Dense(tt.ids, 4); got != tt.want {
			t.Errorf("%s: Dense = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func BenchmarkHas(b *testing.B) {
	ids := make([]int64, 0, 500000)
	for id := int64(1000000); id < 6000000; id += 10 {
		ids = append(ids, id)
	}
	bm := FromIDs(ids)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bm.Has(int64(1000000 + i%5000000))
	}
}
