// Package context implements the execution context (spec.md §4.H): the
// object a host holds across successive compile-and-run calls against
// the same script session. It layers compile-time scope persistence
// (internal/precompiler's Precompiler, reused call over call) and
// runtime state (a vm.Machine) behind synchronous and asynchronous
// entry points.
package context

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"datex/internal/boundary"
	"datex/internal/compiler"
	"datex/internal/parser"
	"datex/internal/precompiler"
	"datex/internal/value"
	"datex/internal/vm"
)

// ExecutionOptions toggles per-context behavior (spec.md §4.H).
type ExecutionOptions struct {
	// Verbose enables instruction tracing via vm.Machine.Trace.
	Verbose bool
	// Trace receives one line per scope-stack push/pop when Verbose is
	// set; defaults to a no-op if left nil.
	Trace func(msg string)
}

// ExecutionContext is a reusable local execution session: one
// Precompiler (so variable/type bindings declared in an earlier script
// are visible to a later one) driving one vm.Machine (so slots and
// references also persist across calls).
type ExecutionContext struct {
	mu      sync.Mutex
	id      uuid.UUID
	pre     *precompiler.Precompiler
	machine *vm.Machine
	opts    ExecutionOptions

	addrCounter uint64
}

// New builds a fresh context with an empty scope and a single root
// frame (spec.md §4.H). oracle may be nil for scripts that never touch
// a pointer, non-local apply, or remote execution.
func New(oracle boundary.Oracle, opts ExecutionOptions) *ExecutionContext {
	c := &ExecutionContext{
		id:      uuid.New(),
		pre:     precompiler.New(),
		machine: vm.New(oracle),
		opts:    opts,
	}
	if opts.Verbose {
		trace := opts.Trace
		if trace == nil {
			trace = func(string) {}
		}
		c.machine.Trace = trace
	}
	c.machine.AddressAllocator = c.nextLocalAddress
	return c
}

// ID identifies this context's session, seeding its derived local
// pointer addresses.
func (c *ExecutionContext) ID() uuid.UUID { return c.id }

func (c *ExecutionContext) nextLocalAddress() *value.PointerAddress {
	c.mu.Lock()
	n := c.addrCounter
	c.addrCounter++
	c.mu.Unlock()
	addr, err := value.DeriveAddress(value.LocalAddress, c.id[:], n)
	if err != nil {
		return nil
	}
	return &addr
}

// compile parses, resolves and byte-compiles src against this context's
// persistent scope, returning the decoded instruction tree eval.go
// walks (spec.md §4.E/§4.H: compile is synchronous and shares state with
// a prior call in the same context).
func (c *ExecutionContext) compile(src string) (*compiler.Instruction, error) {
	result := parser.Parse(src)
	if !result.Valid {
		return nil, result.Errors[0]
	}
	ast := c.pre.Run(result.AST)
	if len(c.pre.Errors) > 0 {
		return nil, c.pre.Errors[len(c.pre.Errors)-1]
	}
	body, err := compiler.Compile(ast)
	if err != nil {
		return nil, err
	}
	instr, _, err := compiler.Decode(body.Bytes)
	return instr, err
}

// ExecuteSync compiles and runs src against this context's persistent
// state, blocking until the program's final result (spec.md §4.H
// `execute_sync`).
func (c *ExecutionContext) ExecuteSync(src string) (value.Container, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	instr, err := c.compile(src)
	if err != nil {
		return nil, err
	}
	return c.machine.Execute(instr)
}

// ExecuteAsync runs ExecuteSync on its own goroutine via an errgroup, so
// a caller can cancel or run several scripts concurrently against
// independent contexts without blocking the caller's own goroutine
// (spec.md §4.H's asynchronous entry point; §4.F notes the oracle itself
// may already be asynchronous — this is the piece Go's stack-based
// eval.go can't give for free, see internal/vm/machine.go).
func (c *ExecutionContext) ExecuteAsync(ctx context.Context, src string) <-chan AsyncResult {
	out := make(chan AsyncResult, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		default:
		}
		result, err := c.ExecuteSync(src)
		out <- AsyncResult{Value: result, Err: err}
		return err
	})
	go func() {
		_ = g.Wait()
		close(out)
	}()
	return out
}

// AsyncResult is ExecuteAsync's delivered outcome.
type AsyncResult struct {
	Value value.Container
	Err   error
}

// RemoteContext is the "remote" context variant spec.md §4.H describes:
// it carries a receiver endpoint instead of local execution state,
// compiles scripts the same way, and hands execution off to the oracle
// entirely rather than running a local vm.Machine.
type RemoteContext struct {
	pre      *precompiler.Precompiler
	oracle   boundary.Oracle
	receiver value.Endpoint
}

// NewRemote builds a context that dispatches every script to receiver
// via oracle instead of executing locally.
func NewRemote(oracle boundary.Oracle, receiver value.Endpoint) *RemoteContext {
	return &RemoteContext{pre: precompiler.New(), oracle: oracle, receiver: receiver}
}

// ExecuteSync compiles src for dispatch and delegates execution to the
// oracle's RemoteExecute (spec.md §4.H: "execution is delegated to the
// oracle").
func (r *RemoteContext) ExecuteSync(src string) (value.Container, error) {
	result := parser.Parse(src)
	if !result.Valid {
		return nil, result.Errors[0]
	}
	ast := r.pre.Run(result.AST)
	if len(r.pre.Errors) > 0 {
		return nil, r.pre.Errors[len(r.pre.Errors)-1]
	}
	body, err := compiler.Compile(ast)
	if err != nil {
		return nil, err
	}
	return r.oracle.RemoteExecute(value.ValueOf(r.receiver), body.Bytes)
}

