package ports

// Observability receives the core's metrics. Implementations look up metrics
// by name and ignore names they do not know.
type Observability interface {
	IncCounter(name string, v float64)
	SetGauge(name string, v float64)
}

// NopObservability discards all metrics; handy in tests.
type NopObservability struct{}

func (NopObservability) IncCounter(string, float64) {}
func (NopObservability) SetGauge(string, float64)   {}
