package dispatch

import (
	"context"
	"runtime"
)

// job is a unit of handler work submitted to a shard.
type job func(ctx context.Context)

// WorkerPool is a fixed set of single-goroutine shards. Submitting a job
// keyed by clientId always lands on the same shard, giving per-client
// ordering without a lock: handlers mutating one Character never run
// concurrently with each other, while different clients' handlers run in
// parallel across shards. Sized to runtime.GOMAXPROCS(0).
type WorkerPool struct {
	shards []chan job
}

// NewWorkerPool builds and starts a pool with runtime.GOMAXPROCS(0) shards
// (at least 1), each backed by its own goroutine and job channel.
func NewWorkerPool(ctx context.Context) *WorkerPool {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	p := &WorkerPool{shards: make([]chan job, n)}
	for i := range p.shards {
		ch := make(chan job, 64)
		p.shards[i] = ch
		go p.runShard(ctx, ch)
	}
	return p
}

func (p *WorkerPool) runShard(ctx context.Context, ch chan job) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-ch:
			j(ctx)
		}
	}
}

// Submit routes a job to the shard owning shardKey (typically clientId).
func (p *WorkerPool) Submit(shardKey int64, j job) {
	idx := shardKey % int64(len(p.shards))
	if idx < 0 {
		idx += int64(len(p.shards))
	}
	p.shards[idx] <- j
}
