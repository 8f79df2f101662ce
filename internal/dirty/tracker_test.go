package dirty

import "testing"

func TestTrackerBlankStart(t *testing.T) {
	tr := NewTracker(4, 4, 0)
	cur := make([]uint8, 16)

	if _, ok := tr.Next(cur); ok {
		t.Error("blank canvas should not be dirty")
	}

	cur[5] = 3
	r, ok := tr.Next(cur)
	if !ok || r != (Rect{MinX: 1, MinY: 1, MaxX: 1, MaxY: 1}) {
		t.Errorf("Next() = %v, %v", r, ok)
	}
}

func TestTrackerTrickle(t *testing.T) {
	const w, h = 8, 10
	tr := NewTracker(w, h, 3)
	cur := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		cur[y*w+2] = 9
	}

	var sentRows []int
	for i := 0; i < 10; i++ {
		r, ok := tr.Next(cur)
		if !ok {
			break
		}
		if r.Height() > 3 {
			t.Fatalf("Next() height = %d, want <= 3", r.Height())
		}
		for y := r.MinY; y <= r.MaxY; y++ {
			sentRows = append(sentRows, y)
		}
		tr.Commit(cur, r)
	}

	if len(sentRows) != h {
		t.Fatalf("sent %d rows, want %d", len(sentRows), h)
	}
	for i, y := range sentRows {
		if y != i {
			t.Errorf("sentRows[%d] = %d, want %d", i, y, i)
		}
	}
	if st := tr.Stats(); st.Commits != 4 || st.RowsSent != 10 || st.PendingAfter {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestTrackerUncommittedStaysDirty(t *testing.T) {
	tr := NewTracker(4, 4, 0)
	cur := make([]uint8, 16)
	cur[0] = 1

	r, _ := tr.Next(cur)
	// Dropped delivery: no Commit.
	again, ok := tr.Next(cur)
	if !ok || again != r {
		t.Errorf("Next() after dropped send = %v, %v; want %v", again, ok, r)
	}
}

func TestTrackerChangeDuringTrickle(t *testing.T) {
	tr := NewTracker(4, 4, 1)
	cur := make([]uint8, 16)
	cur[0] = 1
	cur[12] = 1

	r, _ := tr.Next(cur)
	tr.Commit(cur, r)

	// Row 0 changes again after it was sent; row 3 still goes first.
	cur[1] = 2
	r, ok := tr.Next(cur)
	if !ok || r.MinY != 3 || r.MaxY != 3 {
		t.Errorf("Next() = %v, want row 3", r)
	}
	if full := tr.Dirty(cur); full.MinY != 0 || full.MaxY != 3 {
		t.Errorf("Dirty() = %v, want rows 0..3", full)
	}
	tr.Commit(cur, r)

	r, ok = tr.Next(cur)
	if !ok || r != (Rect{MinX: 1, MinY: 0, MaxX: 1, MaxY: 0}) {
		t.Errorf("Next() after wrap = %v, %v; want row 0 col 1", r, ok)
	}
}

func TestTrackerNoStarvation(t *testing.T) {
	tests := []struct {
		name        string
		rowsPerTick int
		lowRow      int
	}{
		{"one row per tick", 1, 7},
		{"window below hot row", 2, 5},
		{"last row", 3, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const w, h = 4, 8
			tr := NewTracker(w, h, tt.rowsPerTick)
			cur := make([]uint8, w*h)
			cur[tt.lowRow*w+1] = 5

			limit := (h+tt.rowsPerTick-1)/tt.rowsPerTick + 1
			delivered := false
			for i := 0; i < limit && !delivered; i++ {
				// Row 0 changes on every redraw.
				cur[0] = uint8(1 + i%2)
				r, ok := tr.Next(cur)
				if !ok {
					t.Fatalf("tick %d: nothing dirty", i)
				}
				if r.MinY <= tt.lowRow && tt.lowRow <= r.MaxY {
					delivered = true
				}
				tr.Commit(cur, r)
			}
			if !delivered {
				t.Errorf("row %d not sent within %d ticks", tt.lowRow, limit)
			}
		})
	}
}

func TestTrackerMarkDirty(t *testing.T) {
	tr := NewTracker(4, 4, 0)
	cur := make([]uint8, 16)
	cur[6] = 1
	r, _ := tr.Next(cur)
	tr.Commit(cur, r)

	cur[6] = 2
	tr.MarkDirty(cur)
	cur[6] = 1
	r, ok := tr.Next(cur)
	if !ok || r != (Rect{MinX: 2, MinY: 1, MaxX: 2, MaxY: 1}) {
		t.Fatalf("Next() after MarkDirty = %v, %v; want (2,1)", r, ok)
	}
	tr.Commit(cur, r)
	if _, ok := tr.Next(cur); ok {
		t.Error("marked pixel should be clean once sent")
	}
}

func TestTrackerMarkFull(t *testing.T) {
	tr := NewTracker(4, 4, 2)
	cur := make([]uint8, 16)

	tr.MarkFull()
	r, ok := tr.Next(cur)
	if !ok || r != (Rect{MinX: 0, MinY: 0, MaxX: 3, MaxY: 1}) {
		t.Fatalf("Next() = %v, %v", r, ok)
	}
	tr.Commit(cur, r)

	r, ok = tr.Next(cur)
	if !ok || r.MinY != 2 || r.MaxY != 3 {
		t.Fatalf("second Next() = %v, %v", r, ok)
	}
	tr.Commit(cur, r)

	if _, ok := tr.Next(cur); ok {
		t.Error("forced region should be cleared once sent")
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker(2, 2, 0)
	cur := []uint8{1, 1, 1, 1}
	r, _ := tr.Next(cur)
	tr.Commit(cur, r)
	if _, ok := tr.Next(cur); ok {
		t.Fatal("committed canvas should be clean")
	}

	tr.Reset()
	if r, ok := tr.Next(cur); !ok || r != Full(2, 2) {
		t.Errorf("Next() after Reset = %v, %v", r, ok)
	}
}
