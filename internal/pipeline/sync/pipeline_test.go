package sync

import "testing"

type doubler struct{ calls int }

func (d *doubler) Process(inputPort string, event Event) []Output {
	d.calls++
	n := event.(int)
	return []Output{{Port: "out", Event: n * 2}}
}

type collector struct{ got []int }

func (c *collector) Process(inputPort string, event Event) []Output {
	c.got = append(c.got, event.(int))
	return nil
}

func TestIngestFlushDelivers(t *testing.T) {
	t.Parallel()
	p := New()
	d := &doubler{}
	c := &collector{}
	p.AddNode("d", d)
	p.AddNode("c", c)
	p.AddLink(Link{FromID: "d", FromOut: "out", ToID: "c", ToIn: "in"})

	p.Ingest("d", "in", 5)
	if len(c.got) != 0 {
		t.Fatal("collector should not receive anything before Flush")
	}
	p.Flush()
	if len(c.got) != 1 || c.got[0] != 10 {
		t.Fatalf("collector got = %v, want [10]", c.got)
	}
}

func TestFlushIsSingleGeneration(t *testing.T) {
	t.Parallel()
	p := New()
	a := &doubler{}
	b := &doubler{}
	c := &collector{}
	p.AddNode("a", a)
	p.AddNode("b", b)
	p.AddNode("c", c)
	p.AddLink(Link{FromID: "a", FromOut: "out", ToID: "b", ToIn: "in"})
	p.AddLink(Link{FromID: "b", FromOut: "out", ToID: "c", ToIn: "in"})

	p.Ingest("a", "in", 1)
	p.Flush() // only a->b fires; b's output goes to pending, not yet delivered to c
	if len(c.got) != 0 {
		t.Fatalf("single Flush should not cascade through two hops, got %v", c.got)
	}
	p.Flush()
	if len(c.got) != 1 || c.got[0] != 4 {
		t.Fatalf("second Flush should deliver b->c, got %v", c.got)
	}
}

func TestDrainCascadesFully(t *testing.T) {
	t.Parallel()
	p := New()
	a := &doubler{}
	b := &doubler{}
	c := &collector{}
	p.AddNode("a", a)
	p.AddNode("b", b)
	p.AddNode("c", c)
	p.AddLink(Link{FromID: "a", FromOut: "out", ToID: "b", ToIn: "in"})
	p.AddLink(Link{FromID: "b", FromOut: "out", ToID: "c", ToIn: "in"})

	p.Ingest("a", "in", 1)
	p.Drain()
	if len(c.got) != 1 || c.got[0] != 4 {
		t.Fatalf("Drain should cascade through all hops, got %v", c.got)
	}
}

func TestRemoveNodeDropsLinks(t *testing.T) {
	t.Parallel()
	p := New()
	d := &doubler{}
	c := &collector{}
	p.AddNode("d", d)
	p.AddNode("c", c)
	p.AddLink(Link{FromID: "d", FromOut: "out", ToID: "c", ToIn: "in"})

	p.RemoveNode("c")
	p.Ingest("d", "in", 1)
	p.Flush()
	if len(c.got) != 0 {
		t.Error("removed node's collector must not have received anything")
	}
	if p.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", p.NodeCount())
	}
}

func TestRemoveNodePurgesPendingOutputs(t *testing.T) {
	t.Parallel()
	p := New()
	a := &doubler{}
	p.AddNode("a", a)
	p.AddNode("c", &collector{})
	p.AddLink(Link{FromID: "a", FromOut: "out", ToID: "c", ToIn: "in"})

	// a's output is queued in pending, then both a and its link are
	// removed before Flush runs.
	p.Ingest("a", "in", 1)
	p.RemoveNode("a")

	// A new node reuses id "a" and is wired straight to a fresh collector.
	// Flushing now must not deliver the stale pending item from the old
	// "a" instance into the new instance's link.
	p.AddNode("a", &doubler{})
	freshC := &collector{}
	p.AddNode("fresh-c", freshC)
	p.AddLink(Link{FromID: "a", FromOut: "out", ToID: "fresh-c", ToIn: "in"})

	p.Flush()
	if len(freshC.got) != 0 {
		t.Errorf("stale pending output from removed node leaked into new instance: %v", freshC.got)
	}
}

func TestAddNodeDuplicatePanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate node id")
		}
	}()
	p := New()
	p.AddNode("x", &doubler{})
	p.AddNode("x", &doubler{})
}
