// Package batch runs independent whole-file jobs — encrypt/decrypt/erase
// over every file in a directory tree — across a bounded pool of
// goroutines. It never parallelizes work within a single file: the
// streaming engine's chunk nonces and end-of-stream marker depend on
// strictly sequential processing within one stream.
package batch

import (
	"fmt"
	"runtime"
	"sync"
)

// Job is one unit of cross-file work: typically a closure over a single
// file path bound to an encrypt/decrypt/erase call.
type Job func() error

// Result pairs a Job's index with whatever it returned, including a
// recovered panic converted into an error so one bad file never crashes
// a whole batch run.
type Result struct {
	Index int
	Err   error
}

// Pool bounds how many Jobs run concurrently.
type Pool struct {
	workers int
}

// New returns a Pool with workers concurrent slots. workers <= 0 uses
// runtime.GOMAXPROCS(0).
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Run executes every job in jobs, at most p.workers at a time, and
// returns one Result per job in the same order jobs were given
// (Results are not necessarily produced in that order, but the slice is
// reassembled into index order before returning). A job's panic is
// recovered and reported as an error for that job alone; it does not
// stop the other jobs in the batch.
func (p *Pool) Run(jobs []Job) []Result {
	results := make([]Result, len(jobs))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, job Job) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = Result{Index: i, Err: runJob(job)}
		}(i, job)
	}

	wg.Wait()
	return results
}

// runJob invokes job, converting a panic into an error so Run's caller
// sees a normal failed Result instead of a crashed goroutine.
func runJob(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch: job panicked: %v", r)
		}
	}()
	return job()
}
