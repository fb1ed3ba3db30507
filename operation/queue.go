package operation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"feedly-sync/utils"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrDependencyCycle is returned by Add when the new operations would form a cycle
var ErrDependencyCycle = errors.New("operation dependency cycle")

// Queue runs operations as an explicit dependency graph
type Queue struct {
	name   string
	logger *slog.Logger

	ctx   context.Context
	group *errgroup.Group
	sem   *semaphore.Weighted

	mu  sync.Mutex
	ops []Operation
	set map[Operation]struct{}
}

// NewQueue creates a queue whose operations run under ctx, at most
// maxConcurrent at a time (unbounded when maxConcurrent <= 0)
func NewQueue(ctx context.Context, name string, maxConcurrent int, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	group, gctx := errgroup.WithContext(ctx)

	var sem *semaphore.Weighted
	if maxConcurrent > 0 {
		sem = semaphore.NewWeighted(int64(maxConcurrent))
	}

	return &Queue{
		name:   name,
		logger: logger,
		ctx:    gctx,
		group:  group,
		sem:    sem,
		set:    make(map[Operation]struct{}),
	}
}

// Add schedules operations. A dependency must already be queued, be part of
// the same call, or have finished already.
func (q *Queue) Add(ops ...Operation) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := make(map[Operation]struct{}, len(ops))
	for _, op := range ops {
		if _, dup := q.set[op]; dup {
			return fmt.Errorf("operation %s already queued", op.Name())
		}
		batch[op] = struct{}{}
	}

	for _, op := range ops {
		for _, dep := range op.Dependencies() {
			_, queued := q.set[dep]
			_, inBatch := batch[dep]
			if !queued && !inBatch && !dep.IsFinished() {
				return fmt.Errorf("operation %s depends on %s which is not queued", op.Name(), dep.Name())
			}
		}
	}

	if err := checkCycles(ops); err != nil {
		return err
	}

	for _, op := range ops {
		q.set[op] = struct{}{}
		q.ops = append(q.ops, op)
		op := op
		q.group.Go(func() error {
			q.execute(op)
			return nil
		})
	}
	return nil
}

// execute waits for dependencies, then runs op under the concurrency limit
func (q *Queue) execute(op Operation) {
	b := op.base()
	start := time.Now()

	defer func() {
		status := "success"
		switch err := op.Err(); {
		case err == nil:
		case errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled):
			status = "cancelled"
		default:
			var depErr *DependencyError
			if errors.As(err, &depErr) {
				status = "skipped"
			} else {
				status = "failure"
			}
		}
		utils.RecordOperation(q.name, status, time.Since(start).Seconds())
	}()

	if err := awaitDependencies(q.ctx, op); err != nil {
		q.logger.Debug("Operation skipped after dependency failure",
			"queue", q.name,
			"operation", op.Name(),
			"error", err)
		b.DidFinish(err)
		return
	}

	if q.sem != nil {
		if err := q.sem.Acquire(q.ctx, 1); err != nil {
			b.DidFinish(err)
			return
		}
		defer q.sem.Release(1)
	}

	if op.IsCancelled() {
		b.DidFinish(ErrCancelled)
		return
	}

	q.logger.Debug("Running operation", "queue", q.name, "operation", op.Name())

	ctx := b.bindContext(q.ctx)
	op.Run(ctx)

	select {
	case <-op.Done():
	case <-q.ctx.Done():
		op.Cancel()
		b.DidFinish(q.ctx.Err())
	}
}

// Wait blocks until every queued operation has finished and returns the
// joined errors of operations that failed on their own (dependency skips
// are not repeated)
func (q *Queue) Wait() error {
	_ = q.group.Wait()

	q.mu.Lock()
	ops := make([]Operation, len(q.ops))
	copy(ops, q.ops)
	q.mu.Unlock()

	var errs []error
	for _, op := range ops {
		err := op.Err()
		if err == nil {
			continue
		}
		var depErr *DependencyError
		if errors.As(err, &depErr) {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", op.Name(), err))
	}
	return errors.Join(errs...)
}

// CancelAll cancels every queued operation
func (q *Queue) CancelAll() {
	q.mu.Lock()
	ops := make([]Operation, len(q.ops))
	copy(ops, q.ops)
	q.mu.Unlock()

	for _, op := range ops {
		op.Cancel()
	}
}

// Operations returns the queued operations in insertion order
func (q *Queue) Operations() []Operation {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := make([]Operation, len(q.ops))
	copy(ops, q.ops)
	return ops
}

// checkCycles walks the dependency graph reachable from ops
func checkCycles(ops []Operation) error {
	const (
		visiting = 1
		visited  = 2
	)
	state := make(map[Operation]int)

	var visit func(op Operation) error
	visit = func(op Operation) error {
		switch state[op] {
		case visiting:
			return fmt.Errorf("%w at %s", ErrDependencyCycle, op.Name())
		case visited:
			return nil
		}
		state[op] = visiting
		for _, dep := range op.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[op] = visited
		return nil
	}

	for _, op := range ops {
		if err := visit(op); err != nil {
			return err
		}
	}
	return nil
}
