// Package concurrency implements a channel based worker pool for data-parallel
// operations over independent RNS channels.
package concurrency

import (
	"fmt"
	"sync"
)

// Pool is a struct storing a channel of reusable resources (e.g. scratch
// buffers or worker indices). The number of resources bounds the number of
// tasks running at once across all the callers of the pool.
// A Pool is safe for concurrent use: the bookkeeping of each batch of tasks
// is held by its own [Group].
type Pool[T any] struct {
	resources chan T
}

// NewPool instantiates a new [Pool] over the given resources.
func NewPool[T any](resources []T) *Pool[T] {

	if len(resources) == 0 {
		panic("cannot NewPool: resources is empty")
	}

	ch := make(chan T, len(resources))
	for i := range resources {
		ch <- resources[i]
	}

	return &Pool[T]{resources: ch}
}

// Task is a function taking as input a resource of any kind
// and that can be run concurrently.
type Task[T any] func(resource T) (err error)

// Group is a batch of [Task] submitted to a [Pool] and awaited together.
// A Group must not be reused after [Group.Wait] has returned.
type Group[T any] struct {
	pool *Pool[T]
	wg   sync.WaitGroup
	mu   sync.Mutex
	err  error
}

// NewGroup returns a new empty [Group] running its tasks on the receiver.
func (p *Pool[T]) NewGroup() *Group[T] {
	return &Group[T]{pool: p}
}

func (g *Group[T]) failed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err != nil
}

func (g *Group[T]) record(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err == nil {
		g.err = err
	}
}

// Run runs a [Task] concurrently, borrowing one resource of the pool for
// its duration. Tasks are skipped once an error has been recorded, and a
// panicking task is recorded as an error.
func (g *Group[T]) Run(f Task[T]) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		if g.failed() {
			return
		}

		resource := <-g.pool.resources
		defer func() { g.pool.resources <- resource }()

		defer func() {
			if r := recover(); r != nil {
				g.record(fmt.Errorf("task panicked: %v", r))
			}
		}()

		if err := f(resource); err != nil {
			g.record(err)
		}
	}()
}

// Wait waits until all the [Task] of the group have finished and returns
// the first recorded error, if any.
func (g *Group[T]) Wait() (err error) {
	g.wg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// ForEach runs f(i, resource) for i in [0, n) on the pool and waits for
// completion. Concurrent calls to ForEach share the resources of the pool
// but not their errors.
func (p *Pool[T]) ForEach(n int, f func(i int, resource T) error) error {
	g := p.NewGroup()
	for i := 0; i < n; i++ {
		g.Run(func(r T) error {
			return f(i, r)
		})
	}
	return g.Wait()
}
