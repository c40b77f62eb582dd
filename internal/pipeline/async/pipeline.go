// Package async implements an asynchronous event-flow pipeline:
// nodes that materialize into channel-based Processes, links as fan-out
// multiplexers, and two reusable Process shapes — "alts" (one task
// selecting across all inputs) and "parallel-per-input" (one task per
// input channel, preserving per-port FIFO).
//
// Link goroutines and per-node goroutine lifecycles are built on
// github.com/sourcegraph/conc's panic-safe WaitGroup.
package async

import (
	"context"
	"reflect"
	"sync"

	"github.com/sourcegraph/conc"
)

// Event is an opaque payload. The pipeline does not interpret it.
type Event any

// Output is one (port, event) pair emitted by a running Process.
type Output struct {
	Port  string
	Event Event
}

// Process is a running node instance: its input/output channel maps and
// a shutdown function that stops its goroutines and closes its outputs.
type Process struct {
	Inputs   map[string]chan Event
	Outputs  map[string]chan Event
	shutdown func()
}

// Shutdown stops the process: closing all inputs first lets in-flight
// work drain before outputs are closed.
func (p *Process) Shutdown() {
	for _, ch := range p.Inputs {
		close(ch)
	}
	if p.shutdown != nil {
		p.shutdown()
	}
}

// Node materializes into a running Process. Initialize is called at most
// once per pipeline lifetime (lazily, when AddLink first references it).
type Node interface {
	Initialize(ctx context.Context) *Process
}

// Handler is the user logic a Process shape wraps: given the input port
// an event arrived on, produce zero or more outputs.
type Handler func(port string, event Event) []Output

const inputBuffer = 16

// AltsNode builds a Node where a single task selects across every input
// channel (cross-port delivery order is indeterminate, as specified).
type AltsNode struct {
	InputPorts  []string
	OutputPorts []string
	Handle      Handler
}

func (n AltsNode) Initialize(ctx context.Context) *Process {
	proc := newProcess(n.InputPorts, n.OutputPorts)
	wg := conc.NewWaitGroup()

	wg.Go(func() {
		cases := make([]reflect.SelectCase, 0, len(n.InputPorts))
		ports := make([]string, 0, len(n.InputPorts))
		for _, port := range n.InputPorts {
			cases = append(cases, reflect.SelectCase{
				Dir:  reflect.SelectRecv,
				Chan: reflect.ValueOf(proc.Inputs[port]),
			})
			ports = append(ports, port)
		}
		remaining := len(cases)
		for remaining > 0 {
			idx, value, ok := reflect.Select(cases)
			if !ok {
				cases[idx].Chan = reflect.ValueOf((chan Event)(nil))
				remaining--
				continue
			}
			dispatch(n.Handle, ports[idx], value.Interface().(Event), proc)
		}
	})

	proc.shutdown = func() {
		wg.Wait()
		closeOutputs(proc)
	}
	return proc
}

// ParallelPerInputNode builds a Node with one task per input channel,
// so each port's delivery order is FIFO but ports run concurrently.
type ParallelPerInputNode struct {
	InputPorts  []string
	OutputPorts []string
	Handle      Handler
}

func (n ParallelPerInputNode) Initialize(ctx context.Context) *Process {
	proc := newProcess(n.InputPorts, n.OutputPorts)
	wg := conc.NewWaitGroup()

	for _, port := range n.InputPorts {
		port := port
		wg.Go(func() {
			for ev := range proc.Inputs[port] {
				dispatch(n.Handle, port, ev, proc)
			}
		})
	}

	proc.shutdown = func() {
		wg.Wait()
		closeOutputs(proc)
	}
	return proc
}

func newProcess(inputPorts, outputPorts []string) *Process {
	p := &Process{
		Inputs:  make(map[string]chan Event, len(inputPorts)),
		Outputs: make(map[string]chan Event, len(outputPorts)),
	}
	for _, port := range inputPorts {
		p.Inputs[port] = make(chan Event, inputBuffer)
	}
	for _, port := range outputPorts {
		p.Outputs[port] = make(chan Event, inputBuffer)
	}
	return p
}

func closeOutputs(p *Process) {
	for _, ch := range p.Outputs {
		close(ch)
	}
}

func dispatch(handle Handler, port string, ev Event, proc *Process) {
	for _, out := range handle(port, ev) {
		if ch, ok := proc.Outputs[out.Port]; ok {
			ch <- out.Event
		}
	}
}

// Link describes a fan-out edge from one node's output port to another's
// input port.
type Link struct {
	FromID  string
	FromOut string
	ToID    string
	ToIn    string
}

type nodeHandle struct {
	node    Node
	once    sync.Once
	process *Process
}

func (h *nodeHandle) materialize(ctx context.Context) *Process {
	h.once.Do(func() { h.process = h.node.Initialize(ctx) })
	return h.process
}

// Pipeline is the asynchronous dataflow graph. Nodes materialize lazily;
// links are fan-out multiplexer goroutines run through a conc pool so a
// panicking multiplexer surfaces instead of silently killing the
// pipeline.
type Pipeline struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	nodes  map[string]*nodeHandle
	taps   *conc.WaitGroup
	closed map[string]chan struct{} // per-link stop signal
}

// New builds an empty asynchronous pipeline bound to ctx; cancelling ctx
// (or calling Shutdown) stops every multiplexer and materialized node.
func New(ctx context.Context) *Pipeline {
	cctx, cancel := context.WithCancel(ctx)
	return &Pipeline{
		ctx:    cctx,
		cancel: cancel,
		nodes:  make(map[string]*nodeHandle),
		taps:   conc.NewWaitGroup(),
		closed: make(map[string]chan struct{}),
	}
}

// AddNode registers a node under id without materializing it.
func (p *Pipeline) AddNode(id string, n Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.nodes[id]; exists {
		panic("async: duplicate node id " + id)
	}
	p.nodes[id] = &nodeHandle{node: n}
}

// RemoveNode shuts down the node (if materialized) and drops it from the
// registry. Link goroutines attached to the node are not stopped; this
// package has no RemoveLink.
func (p *Pipeline) RemoveNode(id string) {
	p.mu.Lock()
	h, ok := p.nodes[id]
	delete(p.nodes, id)
	p.mu.Unlock()
	if !ok {
		return
	}
	if h.process != nil {
		h.process.Shutdown()
	}
}

// AddLink materializes both endpoints (if not already running) and
// starts a fan-out multiplexer goroutine forwarding FromID.FromOut to
// ToID.ToIn.
func (p *Pipeline) AddLink(l Link) {
	p.mu.Lock()
	from, ok := p.nodes[l.FromID]
	if !ok {
		p.mu.Unlock()
		panic("async: link references nonexistent node " + l.FromID)
	}
	to, ok := p.nodes[l.ToID]
	if !ok {
		p.mu.Unlock()
		panic("async: link references nonexistent node " + l.ToID)
	}
	p.mu.Unlock()

	fromProc := from.materialize(p.ctx)
	toProc := to.materialize(p.ctx)

	outCh, ok := fromProc.Outputs[l.FromOut]
	if !ok {
		panic("async: unknown output port " + l.FromOut + " on node " + l.FromID)
	}
	inCh, ok := toProc.Inputs[l.ToIn]
	if !ok {
		panic("async: unknown input port " + l.ToIn + " on node " + l.ToID)
	}

	p.taps.Go(func() {
		for {
			select {
			case <-p.ctx.Done():
				return
			case ev, open := <-outCh:
				if !open {
					return
				}
				select {
				case inCh <- ev:
				case <-p.ctx.Done():
					return
				}
			}
		}
	})
}

// Shutdown cancels the pipeline context, stopping every multiplexer, then
// shuts down every materialized node.
func (p *Pipeline) Shutdown() {
	p.cancel()
	p.taps.Wait()

	p.mu.Lock()
	handles := make([]*nodeHandle, 0, len(p.nodes))
	for _, h := range p.nodes {
		handles = append(handles, h)
	}
	p.mu.Unlock()

	for _, h := range handles {
		if h.process != nil {
			h.process.Shutdown()
		}
	}
}
