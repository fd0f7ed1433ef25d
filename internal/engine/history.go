package engine

import "sync"

const (
	historyLimit       = 15
	historyMinSamples  = 5
	deviationTolerance = 0.4
)

// history keeps a bounded per-topic window of recent values and decides
// whether a new value deviates from the window average by more than the
// tolerance fraction. Not anomalous until the window holds enough samples.
type history struct {
	mu     sync.Mutex
	values map[string][]float64
}

func newHistory() *history {
	return &history{values: make(map[string][]float64)}
}

// observe records the value and reports whether it is anomalous against the
// average of the values seen before it.
func (h *history) observe(topic string, value float64) (anomalous bool, avg float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	window := h.values[topic]
	if len(window) >= historyMinSamples {
		var sum float64
		for _, v := range window {
			sum += v
		}
		avg = sum / float64(len(window))
		delta := value - avg
		if delta < 0 {
			delta = -delta
		}
		anomalous = delta > deviationTolerance*avg
	}

	window = append(window, value)
	if len(window) > historyLimit {
		window = window[len(window)-historyLimit:]
	}
	h.values[topic] = window
	return anomalous, avg
}
