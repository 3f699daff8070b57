package event

import "testing"

type ping struct{ n int }
type pong struct{ n int }

func TestEventsDeliverAfterSwap(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(ev ping) { got = append(got, ev.n) })

	Emit(b, ping{1})
	Emit(b, ping{2})
	if len(got) != 0 {
		t.Fatal("events delivered before SwapAndDispatch")
	}

	b.SwapAndDispatch()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("delivered %v, want [1 2] in emit order", got)
	}

	b.SwapAndDispatch()
	if len(got) != 2 {
		t.Fatal("empty dispatch re-delivered events")
	}
}

func TestEventsRouteByType(t *testing.T) {
	b := NewBus()
	var pings, pongs int
	Subscribe(b, func(ping) { pings++ })
	Subscribe(b, func(pong) { pongs++ })

	Emit(b, ping{})
	Emit(b, pong{})
	Emit(b, pong{})
	b.SwapAndDispatch()

	if pings != 1 || pongs != 2 {
		t.Fatalf("pings = %d, pongs = %d", pings, pongs)
	}
}

func TestHandlerEmitExtendsNextBatchNotCurrent(t *testing.T) {
	b := NewBus()
	var delivered int
	Subscribe(b, func(ev ping) {
		delivered++
		if ev.n == 1 {
			Emit(b, ping{n: 2})
		}
	})

	Emit(b, ping{n: 1})
	b.SwapAndDispatch()
	if delivered != 1 {
		t.Fatalf("first dispatch delivered %d events, handler extended its own batch", delivered)
	}
	b.SwapAndDispatch()
	if delivered != 2 {
		t.Fatalf("second dispatch delivered %d total, re-emitted event lost", delivered)
	}
}

func TestMultipleHandlersAllRun(t *testing.T) {
	b := NewBus()
	var a, c int
	Subscribe(b, func(ping) { a++ })
	Subscribe(b, func(ping) { c++ })

	Emit(b, ping{})
	b.SwapAndDispatch()
	if a != 1 || c != 1 {
		t.Fatalf("handlers ran (%d, %d), want (1, 1)", a, c)
	}
}
