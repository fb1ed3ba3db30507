// Package operation implements a small dependency-ordered task pipeline.
//
// An Operation finishes exactly once through DidFinish. A Queue runs each
// operation only after all of its dependencies have finished, and finishes
// dependents of a failed or cancelled operation with a *DependencyError
// without running them.
package operation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrCancelled is reported by operations cancelled before they could succeed
	ErrCancelled = errors.New("operation cancelled")

	// ErrAlreadyStarted is reported when Run is called on a single-shot operation twice
	ErrAlreadyStarted = errors.New("operation already started")
)

// DependencyError is the failure of an operation that never ran because a dependency failed
type DependencyError struct {
	Operation  string
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("operation %s skipped: dependency %s failed: %v", e.Operation, e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// Operation is a unit of work in a Queue. Implementations embed Base and
// report their terminal state through Base.DidFinish.
type Operation interface {
	Name() string
	Run(ctx context.Context)

	Done() <-chan struct{}
	Err() error
	IsFinished() bool

	AddDependency(dep Operation)
	Dependencies() []Operation

	Cancel()
	IsCancelled() bool

	OnFinish(fn func(err error))

	base() *Base
}

// Base carries the completion, cancellation and dependency state of an operation
type Base struct {
	name string

	mu        sync.Mutex
	done      chan struct{}
	err       error
	finished  bool
	deps      []Operation
	callbacks []func(error)
	cancelCtx context.CancelFunc

	finishOnce sync.Once
	started    atomic.Bool
	cancelled  atomic.Bool
}

// NewBase returns a Base with the given name
func NewBase(name string) Base {
	return Base{name: name}
}

func (b *Base) base() *Base {
	return b
}

// Name returns the operation name used in logs and errors
func (b *Base) Name() string {
	if b.name == "" {
		return "operation"
	}
	return b.name
}

// SetName changes the name reported by Name
func (b *Base) SetName(name string) {
	b.name = name
}

func (b *Base) doneChan() chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done == nil {
		b.done = make(chan struct{})
	}
	return b.done
}

// Done is closed once the operation has finished
func (b *Base) Done() <-chan struct{} {
	return b.doneChan()
}

// Err returns the terminal error; nil while running or after success
func (b *Base) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// IsFinished reports whether DidFinish has fired
func (b *Base) IsFinished() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finished
}

// AddDependency makes this operation wait for dep
func (b *Base) AddDependency(dep Operation) {
	if dep == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deps = append(b.deps, dep)
}

// Dependencies returns a copy of the declared dependencies
func (b *Base) Dependencies() []Operation {
	b.mu.Lock()
	defer b.mu.Unlock()
	deps := make([]Operation, len(b.deps))
	copy(deps, b.deps)
	return deps
}

// Cancel marks the operation cancelled and cancels its running context, if any
func (b *Base) Cancel() {
	b.cancelled.Store(true)
	b.mu.Lock()
	cancel := b.cancelCtx
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IsCancelled reports whether Cancel was called
func (b *Base) IsCancelled() bool {
	return b.cancelled.Load()
}

// OnFinish registers fn to be called once with the terminal error.
// If the operation already finished, fn runs immediately.
func (b *Base) OnFinish(fn func(err error)) {
	b.mu.Lock()
	if !b.finished {
		b.callbacks = append(b.callbacks, fn)
		b.mu.Unlock()
		return
	}
	err := b.err
	b.mu.Unlock()
	fn(err)
}

// MarkStarted flips the operation into the started state.
// It returns false when the operation had already been started.
func (b *Base) MarkStarted() bool {
	return b.started.CompareAndSwap(false, true)
}

// DidFinish records the terminal state. Only the first call has any effect,
// and it returns whether this call was that first one. A cancelled operation
// never finishes successfully.
func (b *Base) DidFinish(err error) bool {
	fired := false
	b.finishOnce.Do(func() {
		if err == nil && b.IsCancelled() {
			err = ErrCancelled
		}

		done := b.doneChan()

		b.mu.Lock()
		b.err = err
		b.finished = true
		callbacks := b.callbacks
		b.callbacks = nil
		cancel := b.cancelCtx
		b.cancelCtx = nil
		b.mu.Unlock()

		close(done)
		if cancel != nil {
			cancel()
		}
		for _, fn := range callbacks {
			fn(err)
		}
		fired = true
	})
	return fired
}

// bindContext derives the context an operation runs with, so Cancel reaches it
func (b *Base) bindContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	b.mu.Lock()
	b.cancelCtx = cancel
	b.mu.Unlock()
	if b.IsCancelled() {
		cancel()
	}
	return ctx
}

// Start runs op outside a Queue: dependencies are awaited and checked first,
// then Run is called and Start blocks until op finishes or ctx ends.
func Start(ctx context.Context, op Operation) error {
	b := op.base()

	if err := awaitDependencies(ctx, op); err != nil {
		b.DidFinish(err)
		return op.Err()
	}
	if op.IsCancelled() {
		b.DidFinish(ErrCancelled)
		return op.Err()
	}

	runCtx := b.bindContext(ctx)
	op.Run(runCtx)

	select {
	case <-op.Done():
	case <-ctx.Done():
		op.Cancel()
		b.DidFinish(ctx.Err())
	}
	return op.Err()
}

// awaitDependencies blocks until every dependency is done and returns the
// error that should finish op if one of them failed
func awaitDependencies(ctx context.Context, op Operation) error {
	for _, dep := range op.Dependencies() {
		select {
		case <-dep.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := dep.Err(); err != nil {
			return &DependencyError{Operation: op.Name(), Dependency: dep.Name(), Err: err}
		}
	}
	return nil
}
