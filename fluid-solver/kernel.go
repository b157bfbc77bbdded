package fluid

import (
	"runtime"
	"sync"
)

// Cell identifies one grid cell handed to a kernel.
type Cell struct {
	I, J int
	Pos  Vec2 // normalized texel center
}

// Kernel computes the next value of one cell from the current buffer.
type Kernel[T Sample[T]] func(c Cell, r Reader[T]) T

// Executor runs kernels over every cell of a field, splitting rows between
// goroutines. Apply returns only after all cells have been written.
type Executor struct {
	workers int
}

// NewExecutor returns an executor using the given number of goroutines.
// A value <= 0 uses runtime.GOMAXPROCS(0).
func NewExecutor(workers int) *Executor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{workers: workers}
}

// Workers reports the number of goroutines used per Apply.
func (e *Executor) Workers() int { return e.workers }

// Apply evaluates fn for each cell of f and stores the results in f's next
// buffer. The current buffer is never written, so cells may run in any order.
func Apply[T Sample[T]](e *Executor, f *Field[T], fn Kernel[T]) {
	r := f.Reader()
	w, h := f.width, f.height
	invW, invH := 1/float32(w), 1/float32(h)
	next := f.next

	e.parallelRange(0, h, func(j int) {
		y := (float32(j) + 0.5) * invH
		row := j * w
		for i := 0; i < w; i++ {
			c := Cell{I: i, J: j, Pos: Vec2{(float32(i) + 0.5) * invW, y}}
			next[row+i] = fn(c, r)
		}
	})
}

// parallelRange executes fn for each i in [start,end). The range is split
// among the executor's workers.
func (e *Executor) parallelRange(start, end int, fn func(i int)) {
	total := end - start
	if total <= 0 {
		return
	}
	workers := min(e.workers, total)
	if workers == 1 {
		for i := start; i < end; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunk := (total + workers - 1) / workers
	for w := 0; w < workers; w++ {
		s := start + w*chunk
		if s >= end {
			break
		}
		stop := min(s+chunk, end)
		wg.Add(1)
		go func(ss, ee int) {
			defer wg.Done()
			for i := ss; i < ee; i++ {
				fn(i)
			}
		}(s, stop)
	}
	wg.Wait()
}
