package async

import (
	"context"
	"testing"
	"time"
)

func doubleHandler(port string, ev Event) []Output {
	return []Output{{Port: "out", Event: ev.(int) * 2}}
}

func TestAltsNodeDoubles(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := New(ctx)
	p.AddNode("src", AltsNode{InputPorts: []string{"in"}, OutputPorts: []string{"out"}, Handle: doubleHandler})

	sink := make(chan Event, 1)
	p.AddNode("sink", ParallelPerInputNode{
		InputPorts: []string{"in"},
		Handle: func(port string, ev Event) []Output {
			sink <- ev
			return nil
		},
	})
	p.AddLink(Link{FromID: "src", FromOut: "out", ToID: "sink", ToIn: "in"})

	// reach into the materialized src process to feed it directly, since
	// pipeline-external ingestion isn't part of this package's public
	// surface (callers own their entry-node channels).
	srcProc := p.nodes["src"].process
	srcProc.Inputs["in"] <- 21

	select {
	case got := <-sink:
		if got.(int) != 42 {
			t.Fatalf("got %v, want 42", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for doubled value")
	}

	p.Shutdown()
}

func TestParallelPerInputPreservesPortOrder(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := New(ctx)
	out := make(chan int, 10)
	p.AddNode("n", ParallelPerInputNode{
		InputPorts: []string{"a"},
		Handle: func(port string, ev Event) []Output {
			out <- ev.(int)
			return nil
		},
	})
	proc := (p.nodes["n"]).materialize(ctx)
	for i := 0; i < 5; i++ {
		proc.Inputs["a"] <- i
	}

	for i := 0; i < 5; i++ {
		select {
		case got := <-out:
			if got != i {
				t.Fatalf("order broken: got %d, want %d", got, i)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out")
		}
	}
	p.Shutdown()
}

func TestRemoveNodeShutsDownProcess(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := New(ctx)
	p.AddNode("n", ParallelPerInputNode{InputPorts: []string{"a"}, Handle: func(string, Event) []Output { return nil }})
	proc := (p.nodes["n"]).materialize(ctx)
	p.RemoveNode("n")

	if _, ok := p.nodes["n"]; ok {
		t.Error("node should be gone from registry after RemoveNode")
	}
	select {
	case _, open := <-proc.Inputs["a"]:
		if open {
			t.Error("process input should be closed after RemoveNode")
		}
	case <-time.After(time.Second):
		t.Error("process input still open after RemoveNode")
	}
}
