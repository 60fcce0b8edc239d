package timing

import (
	"slices"
	"time"
)

// window is a fixed-capacity ring of the most recent samples.
type window struct {
	samples []time.Duration
	next    int
	size    int
}

func newWindow(size int) *window {
	return &window{samples: make([]time.Duration, 0, size), size: size}
}

func (w *window) add(d time.Duration) {
	if len(w.samples) < w.size {
		w.samples = append(w.samples, d)
		return
	}
	w.samples[w.next] = d
	w.next = (w.next + 1) % w.size
}

func (w *window) len() int {
	return len(w.samples)
}

// percentile returns the sample at 1-based rank ceil(pct*n/100) of the sorted window.
func (w *window) percentile(pct int) (time.Duration, bool) {
	n := len(w.samples)
	if n == 0 {
		return 0, false
	}
	sorted := slices.Clone(w.samples)
	slices.Sort(sorted)

	rank := (pct*n + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1], true
}
