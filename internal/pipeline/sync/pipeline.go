// Package sync implements a synchronous event-flow pipeline: a
// node registry, a link registry, and a pending-output buffer, all held
// in one immutable snapshot swapped via atomic.Pointer compare-and-set so
// readers never block writers and writers never corrupt a concurrent
// drain.
//
// Registries take the same slots/tokenMap shape common to RWMutex-guarded
// component registries, but traded for a lock-free CAS loop so pipeline
// registries stay protected by atomic compare-and-set instead of a lock.
package sync

import (
	"sync/atomic"
)

// Event is an opaque payload carried between nodes. The pipeline does not
// interpret it.
type Event any

// Output is one (port, event) pair a Node emits from Process.
type Output struct {
	Port  string
	Event Event
}

// Node processes one input event into zero or more outputs.
type Node interface {
	Process(inputPort string, event Event) []Output
}

// Link connects one node's output port to another node's input port.
type Link struct {
	FromID  string
	FromOut string
	ToID    string
	ToIn    string
}

type pendingItem struct {
	fromID  string
	fromOut string
	event   Event
}

type state struct {
	nodes   map[string]Node
	links   []Link
	pending []pendingItem
}

func (s *state) clone() *state {
	ns := &state{
		nodes:   make(map[string]Node, len(s.nodes)),
		links:   append([]Link(nil), s.links...),
		pending: append([]pendingItem(nil), s.pending...),
	}
	for k, v := range s.nodes {
		ns.nodes[k] = v
	}
	return ns
}

// Pipeline is the synchronous dataflow graph.
type Pipeline struct {
	st atomic.Pointer[state]
}

// New builds an empty pipeline.
func New() *Pipeline {
	p := &Pipeline{}
	p.st.Store(&state{nodes: make(map[string]Node)})
	return p
}

func (p *Pipeline) cas(mutate func(*state)) {
	for {
		old := p.st.Load()
		next := old.clone()
		mutate(next)
		if p.st.CompareAndSwap(old, next) {
			return
		}
	}
}

// AddNode registers a node under id. Adding a duplicate id is a
// programmer error and panics rather than returning an error.
func (p *Pipeline) AddNode(id string, n Node) {
	old := p.st.Load()
	if _, exists := old.nodes[id]; exists {
		panic("sync: duplicate node id " + id)
	}
	p.cas(func(s *state) { s.nodes[id] = n })
}

// RemoveNode deletes the node, every link touching it, and every pending
// output it produced — without the pending purge, a pending item from a
// removed node could still be delivered through a link later added to a
// different node reusing the same id.
func (p *Pipeline) RemoveNode(id string) {
	p.cas(func(s *state) {
		delete(s.nodes, id)

		filteredLinks := s.links[:0]
		for _, l := range s.links {
			if l.FromID != id && l.ToID != id {
				filteredLinks = append(filteredLinks, l)
			}
		}
		s.links = filteredLinks

		filteredPending := s.pending[:0]
		for _, item := range s.pending {
			if item.fromID != id {
				filteredPending = append(filteredPending, item)
			}
		}
		s.pending = filteredPending
	})
}

// AddLink registers a link. Linking a nonexistent node is a programmer
// error and panics.
func (p *Pipeline) AddLink(l Link) {
	old := p.st.Load()
	if _, ok := old.nodes[l.FromID]; !ok {
		panic("sync: link references nonexistent node " + l.FromID)
	}
	if _, ok := old.nodes[l.ToID]; !ok {
		panic("sync: link references nonexistent node " + l.ToID)
	}
	p.cas(func(s *state) { s.links = append(s.links, l) })
}

// RemoveLink deletes a matching link, if present.
func (p *Pipeline) RemoveLink(l Link) {
	p.cas(func(s *state) {
		filtered := s.links[:0]
		for _, existing := range s.links {
			if existing != l {
				filtered = append(filtered, existing)
			}
		}
		s.links = filtered
	})
}

// Ingest invokes node id's Process on an input event, buffering its
// outputs for the next Flush. If the node was concurrently removed,
// delivery here is best-effort: the event is silently dropped.
func (p *Pipeline) Ingest(id, inputPort string, event Event) error {
	snap := p.st.Load()
	node, ok := snap.nodes[id]
	if !ok {
		return nil
	}
	outputs := node.Process(inputPort, event)
	if len(outputs) == 0 {
		return nil
	}
	p.cas(func(s *state) {
		if _, stillExists := s.nodes[id]; !stillExists {
			return
		}
		for _, o := range outputs {
			s.pending = append(s.pending, pendingItem{fromID: id, fromOut: o.Port, event: o.Event})
		}
	})
	return nil
}

// Flush atomically drains the pending buffer and delivers each item to
// the links present at drain time. It does not recurse: outputs produced
// by nodes reached during this flush land in the pending buffer for the
// *next* Flush/Drain call, preserving single-generation semantics.
func (p *Pipeline) Flush() error {
	var drained []pendingItem
	var links []Link
	for {
		old := p.st.Load()
		if len(old.pending) == 0 {
			return nil
		}
		next := old.clone()
		drained = next.pending
		links = next.links
		next.pending = nil
		if p.st.CompareAndSwap(old, next) {
			break
		}
	}

	for _, item := range drained {
		for _, l := range links {
			if l.FromID != item.fromID || l.FromOut != item.fromOut {
				continue
			}
			if err := p.Ingest(l.ToID, l.ToIn, item.event); err != nil {
				return err
			}
		}
	}
	return nil
}

// Drain repeatedly flushes until the pending buffer is empty.
func (p *Pipeline) Drain() error {
	for {
		before := p.st.Load()
		if len(before.pending) == 0 {
			return nil
		}
		if err := p.Flush(); err != nil {
			return err
		}
	}
}

// NodeCount is a read-only diagnostic, useful for tests and dashboards.
func (p *Pipeline) NodeCount() int {
	return len(p.st.Load().nodes)
}
