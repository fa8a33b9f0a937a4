package gridcore

import "testing"

func TestVirtualizerRange(t *testing.T) {
	v := NewVirtualizer(100, func(int) int { return RowHeight }, 0)

	tests := []struct {
		name      string
		scroll    int
		viewport  int
		wantFirst int
		wantLast  int
	}{
		{"top of list", 0, 10, 0, 9},
		{"mid scroll", 25, 10, 25, 34},
		{"bottom of list", 90, 10, 90, 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := v.Range(tt.scroll, tt.viewport)
			if len(items) == 0 {
				t.Fatal("Range returned no items")
			}
			if items[0].Index != tt.wantFirst || items[len(items)-1].Index != tt.wantLast {
				t.Errorf("range = [%d..%d], want [%d..%d]",
					items[0].Index, items[len(items)-1].Index, tt.wantFirst, tt.wantLast)
			}
			for _, it := range items {
				if it.Start != it.Index*RowHeight || it.Size != RowHeight {
					t.Errorf("item %d: start=%d size=%d", it.Index, it.Start, it.Size)
				}
			}
		})
	}
}

func TestVirtualizerOverscan(t *testing.T) {
	v := NewVirtualizer(100, func(int) int { return 1 }, 3)

	items := v.Range(50, 10)
	if items[0].Index != 47 {
		t.Errorf("first with overscan = %d, want 47", items[0].Index)
	}
	if items[len(items)-1].Index != 62 {
		t.Errorf("last with overscan = %d, want 62", items[len(items)-1].Index)
	}

	// Overscan clamps at the edges.
	items = v.Range(0, 10)
	if items[0].Index != 0 {
		t.Errorf("first at top = %d, want 0", items[0].Index)
	}
}

func TestVirtualizerVariableSizes(t *testing.T) {
	widths := []int{20, 12, 42, 18, 30}
	v := NewVirtualizer(len(widths), func(i int) int { return widths[i] }, 0)

	if got := v.TotalSize(); got != 122 {
		t.Fatalf("TotalSize() = %d, want 122", got)
	}

	// Offset 32 falls inside the third column (starts at 32).
	items := v.Range(32, 20)
	if items[0].Index != 2 {
		t.Errorf("first at offset 32 = %d, want 2", items[0].Index)
	}
	if items[0].Start != 32 || items[0].Size != 42 {
		t.Errorf("item 2 start=%d size=%d, want 32/42", items[0].Start, items[0].Size)
	}
}

func TestVirtualizerInvalidateSizes(t *testing.T) {
	width := 10
	v := NewVirtualizer(5, func(int) int { return width }, 0)
	if got := v.TotalSize(); got != 50 {
		t.Fatalf("TotalSize() = %d, want 50", got)
	}

	width = 20
	// Without invalidation the cached offsets would misplace items.
	v.InvalidateSizes()
	if got := v.TotalSize(); got != 100 {
		t.Errorf("TotalSize() after resize = %d, want 100", got)
	}
	items := v.Range(20, 20)
	if items[0].Index != 1 {
		t.Errorf("first after resize = %d, want 1", items[0].Index)
	}
}

func TestVirtualizerSetCount(t *testing.T) {
	v := NewVirtualizer(10, func(int) int { return 1 }, 0)
	_ = v.TotalSize()

	v.SetCount(11) // loading sentinel appended
	if got := v.TotalSize(); got != 11 {
		t.Errorf("TotalSize() after SetCount = %d, want 11", got)
	}
	items := v.Range(1, 10)
	if items[len(items)-1].Index != 10 {
		t.Errorf("last item = %d, want sentinel index 10", items[len(items)-1].Index)
	}
}

func TestPinnedRangePadding(t *testing.T) {
	// Five scrollable columns of width 10 behind a pinned first column.
	v := NewVirtualizer(5, func(int) int { return 10 }, 0)

	items, lead, trail := PinnedRange(v, 15, 20)
	if items[0].Index != 1 || items[len(items)-1].Index != 3 {
		t.Fatalf("range = [%d..%d], want [1..3]", items[0].Index, items[len(items)-1].Index)
	}
	if lead != 10 {
		t.Errorf("lead = %d, want 10", lead)
	}
	if trail != 10 {
		t.Errorf("trail = %d, want 10", trail)
	}
	if lead+trail+30 != v.TotalSize() {
		t.Errorf("padding does not preserve extent: %d + %d + 30 != %d", lead, trail, v.TotalSize())
	}
}

func TestVirtualizerClampScroll(t *testing.T) {
	v := NewVirtualizer(10, func(int) int { return 1 }, 0)
	if got := v.ClampScroll(100, 4); got != 6 {
		t.Errorf("ClampScroll(100, 4) = %d, want 6", got)
	}
	if got := v.ClampScroll(-5, 4); got != 0 {
		t.Errorf("ClampScroll(-5, 4) = %d, want 0", got)
	}
	if got := v.ClampScroll(3, 20); got != 0 {
		t.Errorf("ClampScroll(3, 20) = %d, want 0", got)
	}
}
