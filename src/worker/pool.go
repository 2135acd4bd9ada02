package worker

import (
	"context"
	"errors"
	"image"
	"log"
	"runtime"
	"sync"
	"time"

	"screen-capture-tool/src/export"
)

var errNoClipboard = errors.New("no clipboard configured")

// Job is one export request for a finished capture.
type Job struct {
	Image   image.Image
	SaveDir string
	Prefix  string
	// Save writes a PNG named after Prefix and Now into SaveDir.
	Save bool
	// Copy places the image on Clipboard.
	Copy      bool
	Clipboard export.ImageWriter
	Now       time.Time
}

// Result reports what an export job did. Save and copy are attempted
// independently so one failure does not lose the other.
type Result struct {
	Path    string
	SaveErr error
	CopyErr error
}

// Err returns the first failure, or nil.
func (r Result) Err() error {
	if r.SaveErr != nil {
		return r.SaveErr
	}
	return r.CopyErr
}

// ResultCallback is invoked on export completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(Result)

// Pool is a fixed-size export worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs      chan task
	wg        sync.WaitGroup
	run       func(Job) Result
	closeOnce sync.Once
}

type task struct {
	ctx context.Context
	job Job
	cb  ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	return newPool(size, Run)
}

func newPool(size int, run func(Job) Result) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan task, 1), run: run}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for t := range p.jobs {
				b := t.job.Image.Bounds()
				log.Printf("Worker: Starting export of %dx%d (save=%v copy=%v)", b.Dx(), b.Dy(), t.job.Save, t.job.Copy)
				res := p.runWithContext(t.ctx, t.job)
				log.Printf("Worker: Export completed, path=%q err=%v", res.Path, res.Err())
				t.cb(res)
			}
		}()
	}
}

// Submit enqueues an export job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, job Job, cb ResultCallback) bool {
	select {
	case p.jobs <- task{ctx: ctx, job: job, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work. It may be called more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.jobs) })
	p.wg.Wait()
}

// runWithContext runs the job, giving up on it once ctx is done.
func (p *Pool) runWithContext(ctx context.Context, job Job) Result {
	if _, ok := ctx.Deadline(); !ok {
		return p.run(job)
	}
	resCh := make(chan Result, 1)
	go func() { resCh <- p.run(job) }()
	select {
	case r := <-resCh:
		return r
	case <-ctx.Done():
		// The write may still finish in the background.
		err := ctx.Err()
		r := Result{}
		if job.Save {
			r.SaveErr = err
		}
		if job.Copy {
			r.CopyErr = err
		}
		return r
	}
}

// Run performs job synchronously.
func Run(job Job) Result {
	var res Result
	now := job.Now
	if now.IsZero() {
		now = time.Now()
	}
	if job.Save {
		res.Path, res.SaveErr = export.SaveDefault(job.Image, job.SaveDir, job.Prefix, now)
	}
	if job.Copy {
		if job.Clipboard == nil {
			res.CopyErr = errNoClipboard
		} else {
			res.CopyErr = export.Copy(job.Clipboard, job.Image)
		}
	}
	return res
}
