package sched

import "testing"

func TestScheduleNextTickWakesOnFollowingFrame(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(1, NextTick(), 10)

	if got := q.DrainDue(10); got != nil {
		t.Fatalf("drained %v on the scheduling frame, want nothing", got)
	}
	got := q.DrainDue(11)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("DrainDue(11) = %v, want [1]", got)
	}
}

func TestScheduleForWakesAfterExactWindow(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(7, For(5), 100)

	for frame := uint64(101); frame < 105; frame++ {
		if got := q.DrainDue(frame); got != nil {
			t.Fatalf("DrainDue(%d) = %v, want nothing before the window ends", frame, got)
		}
	}
	got := q.DrainDue(105)
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("DrainDue(105) = %v, want [7]", got)
	}
}

func TestForZeroClampsToOne(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(1, For(0), 50)

	frame, ok := q.Scheduled(1)
	if !ok || frame != 51 {
		t.Fatalf("Scheduled(1) = (%d, %v), want (51, true)", frame, ok)
	}
}

func TestForeverLeavesItemUnscheduled(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(1, Forever(), 10)

	if _, ok := q.Scheduled(1); ok {
		t.Fatal("Forever directive still left the item scheduled")
	}
	for frame := uint64(11); frame < 1000; frame += 100 {
		if got := q.DrainDue(frame); got != nil {
			t.Fatalf("DrainDue(%d) = %v after Forever, want nothing", frame, got)
		}
	}
}

func TestForceWakeReentersDormantItem(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(1, Forever(), 10)
	q.ForceWake(1, 20)

	got := q.DrainDue(20)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("DrainDue(20) = %v after ForceWake, want [1]", got)
	}
}

func TestForceWakeOverridesLaterSchedule(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(1, For(100), 10)
	q.ForceWake(1, 15)

	got := q.DrainDue(15)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("DrainDue(15) = %v, want [1]", got)
	}
	// the original frame-110 bucket must be gone
	if got := q.DrainDue(200); got != nil {
		t.Fatalf("DrainDue(200) = %v, item woke twice", got)
	}
}

func TestForceWakeOnAlreadyDueItemKeepsOrder(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(1, NextTick(), 10)
	q.Schedule(2, NextTick(), 10)
	q.ForceWake(1, 11)

	got := q.DrainDue(11)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("DrainDue(11) = %v, want [1 2] in insertion order", got)
	}
}

func TestRescheduleMovesNotDuplicates(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(1, For(3), 10)
	q.Schedule(1, For(8), 10)

	if q.Len() != 1 {
		t.Fatalf("Len = %d after rescheduling the same item, want 1", q.Len())
	}
	if got := q.DrainDue(13); got != nil {
		t.Fatalf("DrainDue(13) = %v, stale bucket survived reschedule", got)
	}
	got := q.DrainDue(18)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("DrainDue(18) = %v, want [1]", got)
	}
}

func TestDrainDueCollectsOverdueFrames(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(1, For(1), 10)
	q.Schedule(2, For(3), 10)
	q.Schedule(3, For(5), 10)

	// Simulate skipping straight to frame 14: both overdue items surface,
	// ordered by their original wake frames.
	got := q.DrainDue(14)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("DrainDue(14) = %v, want [1 2]", got)
	}
	if q.Len() != 1 {
		t.Fatalf("Len = %d after drain, want 1", q.Len())
	}
}

func TestDrainDueBatchIsIsolatedFromReschedules(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(1, NextTick(), 10)

	batch := q.DrainDue(11)
	if len(batch) != 1 {
		t.Fatalf("drained %v, want one item", batch)
	}
	// A directive returned mid-batch lands in a later frame, never the
	// batch just drained.
	q.Schedule(1, NextTick(), 11)
	if got := q.DrainDue(11); got != nil {
		t.Fatalf("DrainDue(11) = %v, item re-entered its own batch", got)
	}
}

func TestDrainOrderIsDeterministic(t *testing.T) {
	build := func() *Queue[int] {
		q := NewQueue[int]()
		q.Schedule(3, For(2), 0)
		q.Schedule(1, For(1), 0)
		q.Schedule(4, For(2), 0)
		q.Schedule(2, For(1), 0)
		return q
	}
	want := []int{1, 2, 3, 4}
	for run := 0; run < 10; run++ {
		got := build().DrainDue(2)
		if len(got) != len(want) {
			t.Fatalf("run %d: drained %v, want %v", run, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("run %d: drained %v, want %v", run, got, want)
			}
		}
	}
}

func TestRemoveDropsItemEverywhere(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(1, For(5), 0)
	q.Schedule(2, For(5), 0)
	q.Remove(1)
	q.Remove(99) // unknown items are a no-op

	got := q.DrainDue(5)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("DrainDue(5) = %v after Remove(1), want [2]", got)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	q := NewQueue[int]()
	q.Schedule(3, For(7), 0)
	q.Schedule(1, For(2), 0)
	q.Schedule(2, For(2), 0)

	entries := q.Snapshot()
	if len(entries) != 3 {
		t.Fatalf("Snapshot returned %d entries, want 3", len(entries))
	}
	if entries[0].Item != 1 || entries[0].Frame != 2 ||
		entries[1].Item != 2 || entries[1].Frame != 2 ||
		entries[2].Item != 3 || entries[2].Frame != 7 {
		t.Fatalf("Snapshot order wrong: %v", entries)
	}

	r := NewQueue[int]()
	r.Restore(entries)
	if got := r.DrainDue(2); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("restored DrainDue(2) = %v, want [1 2]", got)
	}
	if got := r.DrainDue(7); len(got) != 1 || got[0] != 3 {
		t.Fatalf("restored DrainDue(7) = %v, want [3]", got)
	}
}
