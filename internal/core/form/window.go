package form

// Window is a bounded FIFO of the most recent values. Pushing beyond
// capacity drops the oldest entry.
type Window struct {
	buf  []float64
	head int // index of the oldest entry once full
	n    int
}

func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]float64, capacity)}
}

func (w *Window) Push(v float64) {
	if w.n < len(w.buf) {
		w.buf[(w.head+w.n)%len(w.buf)] = v
		w.n++
		return
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

func (w *Window) Len() int { return w.n }
func (w *Window) Cap() int { return len(w.buf) }

func (w *Window) Sum() float64 {
	var s float64
	for i := 0; i < w.n; i++ {
		s += w.buf[(w.head+i)%len(w.buf)]
	}
	return s
}

// Mean returns the average of the held values, or def when empty.
func (w *Window) Mean(def float64) float64 {
	if w.n == 0 {
		return def
	}
	return w.Sum() / float64(w.n)
}

// SumOr returns the sum of the held values, or def when empty.
func (w *Window) SumOr(def float64) float64 {
	if w.n == 0 {
		return def
	}
	return w.Sum()
}

// Values returns the held values oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, w.n)
	for i := range out {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}
