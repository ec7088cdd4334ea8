package heat

import (
	"runtime"
	"sync"
)

// parallelMinRows is the minimum row count to dispatch to the pool.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelMinRows = 32

// rowJob is a row range plus the pass to run over it.
type rowJob struct {
	y0, y1 int
	fn     func(y0, y1 int)
}

// RowPool runs whole-grid passes over disjoint row ranges using persistent
// workers. Decay and resolve touch every cell independently, so a row split
// produces bit-identical results to the serial pass regardless of worker
// count or scheduling. Splatting must not go through the pool: influence
// regions of different samples overlap.
type RowPool struct {
	workers int

	workChan chan rowJob
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewRowPool creates a pool with the given worker count.
// workers <= 0 uses GOMAXPROCS.
func NewRowPool(workers int) *RowPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &RowPool{workers: workers}
}

// startWorkers launches persistent worker goroutines.
func (p *RowPool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan rowJob, p.workers)
	p.doneChan = make(chan struct{}, p.workers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop signals all workers to exit and waits for them. Safe on a nil pool.
func (p *RowPool) Stop() {
	if p == nil || !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker processes row jobs until stopped.
func (p *RowPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case job, ok := <-p.workChan:
			if !ok {
				return
			}
			job.fn(job.y0, job.y1)
			p.doneChan <- struct{}{}
		}
	}
}

// Run executes fn over [0,rows) split into per-worker row chunks, blocking
// until every chunk completes. A nil pool or a small grid runs inline.
func (p *RowPool) Run(rows int, fn func(y0, y1 int)) {
	if p == nil || rows < parallelMinRows {
		fn(0, rows)
		return
	}

	if !p.running {
		p.startWorkers()
	}

	chunkSize := (rows + p.workers - 1) / p.workers

	dispatched := 0
	for w := 0; w < p.workers; w++ {
		y0 := w * chunkSize
		y1 := y0 + chunkSize
		if y1 > rows {
			y1 = rows
		}
		if y0 >= y1 {
			continue
		}

		p.workChan <- rowJob{y0: y0, y1: y1, fn: fn}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
