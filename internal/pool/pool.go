// Package pool implements the bounded concurrent container of ready
// Workers described by the batch driver's dispatch engine: a
// fixed-capacity MPMC queue where capacity equals the number of workers
// created, so every Take is eventually matched by a Return and
// starvation is impossible.
package pool

import (
	"github.com/dginev/latexrun/internal/telemetry"
	"github.com/dginev/latexrun/internal/worker"
)

// Pool is a fixed-capacity queue of ready workers, implemented as a
// buffered channel — the same MPMC shape the teacher stabilizer uses
// for its own worker channel.
type Pool struct {
	workers chan *worker.Worker
}

// New creates a Pool whose capacity equals len(workers) and pushes every
// supplied worker into it.
func New(workers []*worker.Worker) *Pool {
	p := &Pool{workers: make(chan *worker.Worker, len(workers))}
	for _, w := range workers {
		p.workers <- w
	}
	telemetry.PoolAvailable.Set(float64(len(workers)))
	return p
}

// Take blocks until a worker is available, then removes it from the
// pool. The caller owns the worker exclusively until it calls Return.
func (p *Pool) Take() *worker.Worker {
	w := <-p.workers
	telemetry.PoolAvailable.Dec()
	return w
}

// Return pushes a worker back into the pool. It never blocks: capacity
// equals the population, so the channel always has room.
func (p *Pool) Return(w *worker.Worker) {
	p.workers <- w
	telemetry.PoolAvailable.Inc()
}

// Len reports the number of workers currently queued (not in flight).
func (p *Pool) Len() int {
	return len(p.workers)
}

// Close drains the pool and closes every worker it held. It must only
// be called once nothing else is concurrently taking from the pool.
func (p *Pool) Close() {
	for {
		select {
		case w := <-p.workers:
			w.Close()
		default:
			return
		}
	}
}
