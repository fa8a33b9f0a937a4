package gridcore

import "testing"

func TestDragReorderFirstToLast(t *testing.T) {
	// Three rows, stride 1, list starting at the top of its container.
	order := []string{"A", "B", "C"}
	d := StartDragReorder(0, 1, 1, len(order), 0, 0)

	// Pointer moves to the position of index 2.
	steps := []int{1, 2}
	for _, p := range steps {
		if from, to, moved := d.Update(p); moved {
			order = Splice(order, from, to)
		}
	}

	want := []string{"B", "C", "A"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if !d.Changed() {
		t.Error("Changed() = false after move, want true")
	}
}

func TestDragReorderRedundantMoves(t *testing.T) {
	d := StartDragReorder(0, 1, 1, 3, 1, 1)

	// Wiggling within the same row never reports a splice.
	if _, _, moved := d.Update(1); moved {
		t.Error("Update within same row reported a move")
	}
	if d.Changed() {
		t.Error("Changed() = true with no net move")
	}
}

func TestDragReorderClampsToList(t *testing.T) {
	order := []string{"A", "B", "C"}
	d := StartDragReorder(10, 1, 1, len(order), 2, 12)

	// Pointer far above the list clamps to index 0.
	if from, to, moved := d.Update(-100); moved {
		order = Splice(order, from, to)
	}
	want := []string{"C", "A", "B"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	// And far below clamps back to the last index.
	if from, to, moved := d.Update(1000); moved {
		order = Splice(order, from, to)
	}
	want = []string{"A", "B", "C"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order after clamp down = %v, want %v", order, want)
		}
	}
}

func TestSplice(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []int
	}{
		{"forward", 0, 2, []int{2, 3, 1, 4}},
		{"backward", 3, 0, []int{4, 1, 2, 3}},
		{"same index", 1, 1, []int{1, 2, 3, 4}},
		{"out of range", 5, 0, []int{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []int{1, 2, 3, 4}
			got := Splice(in, tt.from, tt.to)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("Splice(%v, %d, %d) = %v, want %v", in, tt.from, tt.to, got, tt.want)
				}
			}
		})
	}
}
