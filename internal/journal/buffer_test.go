package journal

import "testing"

func TestGrowableBuffer_FIFO(t *testing.T) {
	b := newGrowableBuffer[int](8)

	for i := 1; i <= 5; i++ {
		if !b.Send(i) {
			t.Fatalf("Send(%d) = false", i)
		}
	}
	if got := b.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}

	got := b.DrainTo(0)
	want := []int{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("DrainTo(0) returned %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %d, want %d", i, got[i], want[i])
		}
	}

	if extra := b.DrainTo(0); extra != nil {
		t.Errorf("empty buffer drained %v, want nil", extra)
	}
}

func TestGrowableBuffer_DrainToMax(t *testing.T) {
	b := newGrowableBuffer[int](8)
	for i := 1; i <= 6; i++ {
		b.Send(i)
	}

	first := b.DrainTo(4)
	if len(first) != 4 || first[0] != 1 || first[3] != 4 {
		t.Errorf("DrainTo(4) = %v, want [1 2 3 4]", first)
	}

	rest := b.DrainTo(4)
	if len(rest) != 2 || rest[0] != 5 || rest[1] != 6 {
		t.Errorf("second DrainTo(4) = %v, want [5 6]", rest)
	}
}

func TestGrowableBuffer_GrowsUnderLoad(t *testing.T) {
	b := newGrowableBuffer[int](4)

	const n = 1000
	for i := 0; i < n; i++ {
		if !b.Send(i) {
			t.Fatalf("Send(%d) = false", i)
		}
	}

	if b.resizes == 0 {
		t.Error("buffer never grew")
	}

	got := b.DrainTo(0)
	if len(got) != n {
		t.Fatalf("drained %d items, want %d", len(got), n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("item %d = %d after growth, want %d", i, v, i)
		}
	}
}

func TestGrowableBuffer_GrowPreservesWrappedOrder(t *testing.T) {
	b := newGrowableBuffer[int](8)

	// Advance head so the live region wraps around the ring.
	for i := 0; i < 4; i++ {
		b.Send(i)
	}
	b.DrainTo(4)

	for i := 10; i < 22; i++ {
		b.Send(i)
	}

	got := b.DrainTo(0)
	if len(got) != 12 {
		t.Fatalf("drained %d items, want 12", len(got))
	}
	for i, v := range got {
		if v != 10+i {
			t.Fatalf("item %d = %d, want %d", i, v, 10+i)
		}
	}
}

func TestGrowableBuffer_Close(t *testing.T) {
	b := newGrowableBuffer[int](4)
	b.Send(1)
	b.Close()

	if b.Send(2) {
		t.Error("Send after Close = true, want false")
	}

	got := b.DrainTo(0)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("drain after Close = %v, want [1]", got)
	}
}
