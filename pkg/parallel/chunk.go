package parallel

import "sync"

// Range splits [0, n) into contiguous chunks, runs fn on each chunk in the
// pool and waits for all of them. Chunks never overlap, so fn may write to
// per-index slots without locking. If the pool is closed the remaining
// chunks run on the calling goroutine.
func (wp *WorkerPool) Range(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}

	chunks := wp.workers
	if chunks > n {
		chunks = n
	}
	size := (n + chunks - 1) / chunks

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		wg.Add(1)
		task := func() {
			defer wg.Done()
			fn(lo, hi)
		}
		if !wp.Submit(task) {
			task()
		}
	}
	wg.Wait()
}
