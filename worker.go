package models

import "sync"

// workerQueueDepth bounds how many downloads may wait behind the running one.
const workerQueueDepth = 16

// downloadWorker executes queued download tasks one at a time on a single
// dedicated goroutine. The submitting caller never blocks.
type downloadWorker struct {
	// tasks carries pending downloads to the worker goroutine.
	tasks chan func()

	// done is closed when the worker goroutine exits.
	done chan struct{}

	// mu protects closed.
	mu sync.Mutex

	// closed reports whether the queue has been shut down.
	closed bool
}

// newDownloadWorker starts the worker goroutine.
func newDownloadWorker() *downloadWorker {
	w := &downloadWorker{
		tasks: make(chan func(), workerQueueDepth),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// run drains the task queue until it is closed.
func (w *downloadWorker) run() {
	defer close(w.done)
	for task := range w.tasks {
		task()
	}
}

// submit enqueues a task without blocking.
// Returns false if the queue is full or already shut down.
func (w *downloadWorker) submit(task func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}
	select {
	case w.tasks <- task:
		return true
	default:
		return false
	}
}

// close shuts down the queue and waits for the running task to finish.
// Safe to call multiple times.
func (w *downloadWorker) close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.tasks)
	}
	w.mu.Unlock()
	<-w.done
}
