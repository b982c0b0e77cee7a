package inputq

import "testing"

func TestChannel_OrderAndStats(t *testing.T) {
	c := New()
	c.Push("first")
	c.Push("second")

	if c.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", c.Pending())
	}

	for _, want := range []string{"first", "second"} {
		got, ok := c.Next()
		if !ok || got != want {
			t.Errorf("Next() = %q, %v; want %q, true", got, ok, want)
		}
	}

	if _, ok := c.Next(); ok {
		t.Error("Next() on drained channel should report empty")
	}

	pushed, delivered := c.Stats()
	if pushed != 2 || delivered != 2 {
		t.Errorf("Stats() = (%d, %d), want (2, 2)", pushed, delivered)
	}
}

func TestChannel_ClosedRejectsPush(t *testing.T) {
	c := New()
	c.Push("queued")
	c.Close()

	if c.Push("late") {
		t.Error("Push after Close should return false")
	}

	got, ok := c.Next()
	if !ok || got != "queued" {
		t.Errorf("Next() after Close = %q, %v; want queued line", got, ok)
	}

	pushed, _ := c.Stats()
	if pushed != 1 {
		t.Errorf("pushed = %d, want 1", pushed)
	}
}

func TestChannel_ReadyAfterPush(t *testing.T) {
	c := New()
	select {
	case <-c.Ready():
		t.Fatal("Ready() fired before any Push")
	default:
	}

	c.Push("x")
	select {
	case <-c.Ready():
	default:
		t.Error("Ready() did not fire after Push")
	}
}
