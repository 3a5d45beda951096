package observability

import "sync"

// Metrics provides basic in-memory counters for interaction handling and
// persistence outcomes, surfaced on the status API.
type Metrics struct {
	mu           sync.Mutex
	interactions map[string]int64
	errors       map[string]int64
	saveFailures int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		interactions: make(map[string]int64),
		errors:       make(map[string]int64),
	}
}

// RecordInteraction increments the counter for an interaction kind.
func (m *Metrics) RecordInteraction(kind string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions[kind]++
}

// RecordError increments the counter for an interaction kind / error code pair.
func (m *Metrics) RecordError(kind, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind+"|"+code]++
}

// RecordSaveFailure counts persistence write failures.
func (m *Metrics) RecordSaveFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveFailures++
}

// Snapshot returns copies of the counters.
func (m *Metrics) Snapshot() (interactions, errors map[string]int64, saveFailures int64) {
	if m == nil {
		return nil, nil, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	interactions = make(map[string]int64, len(m.interactions))
	for k, v := range m.interactions {
		interactions[k] = v
	}
	errors = make(map[string]int64, len(m.errors))
	for k, v := range m.errors {
		errors[k] = v
	}
	return interactions, errors, m.saveFailures
}
