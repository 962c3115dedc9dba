package notice

import (
	"testing"
	"time"
)

func TestAutoDismiss(t *testing.T) {
	b := NewBoard(20 * time.Millisecond)
	defer b.Close()

	expired := make(chan Notice, 1)
	b.OnExpire(func(n Notice) { expired <- n })

	id := b.Show(Success, "Task created")
	if got := b.Active(); len(got) != 1 || got[0].ID != id || got[0].Message != "Task created" {
		t.Fatalf("active = %+v", got)
	}

	select {
	case n := <-expired:
		if n.ID != id {
			t.Errorf("expired %d, want %d", n.ID, id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notice never expired")
	}
	if got := b.Active(); len(got) != 0 {
		t.Errorf("active after expiry = %+v", got)
	}
}

func TestEarlyDismissCancelsTimer(t *testing.T) {
	b := NewBoard(30 * time.Millisecond)
	defer b.Close()

	fired := make(chan Notice, 2)
	b.OnExpire(func(n Notice) { fired <- n })

	first := b.Show(Error, "Failed to delete task")
	second := b.Show(Info, "Loading")

	if !b.Dismiss(first) {
		t.Fatal("Dismiss returned false for a visible notice")
	}
	if b.Dismiss(first) {
		t.Error("second Dismiss returned true")
	}

	select {
	case n := <-fired:
		if n.ID != second {
			t.Fatalf("expired %d, want only %d", n.ID, second)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("remaining notice never expired")
	}

	// give a leaked timer for the first notice a chance to fire
	select {
	case n := <-fired:
		t.Fatalf("dismissed notice fired: %+v", n)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestActiveOrder(t *testing.T) {
	b := NewBoard(time.Minute)
	defer b.Close()

	a := b.Show(Info, "a")
	m := b.Show(Info, "b")
	c := b.Show(Info, "c")
	b.Dismiss(m)

	got := b.Active()
	if len(got) != 2 || got[0].ID != a || got[1].ID != c {
		t.Fatalf("active = %+v", got)
	}
}

func TestClose(t *testing.T) {
	b := NewBoard(0)
	if b.ttl != DefaultTTL {
		t.Errorf("ttl = %v", b.ttl)
	}
	b.Show(Info, "x")
	b.Close()
	if len(b.Active()) != 0 {
		t.Error("notices survived Close")
	}
	if id := b.Show(Info, "late"); id != 0 {
		t.Errorf("Show after Close = %d", id)
	}
}
