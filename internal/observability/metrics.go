package observability

import (
	"sync"
	"time"
)

type routeKey struct {
	method string
	path   string
	status int
}

type errorKey struct {
	method string
	path   string
	code   string
}

// Metrics keeps in-process counters for the HTTP surface: request totals
// per route and status, error totals per error code, and cumulative
// handler time. The portal has no metrics backend; counters are read back
// through the accessors.
type Metrics struct {
	mu       sync.Mutex
	requests map[routeKey]int64
	errors   map[errorKey]int64
	elapsed  time.Duration
}

// NewMetrics initializes empty counters.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[routeKey]int64),
		errors:   make(map[errorKey]int64),
	}
}

// RecordRequest counts a completed request and accumulates its duration.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[routeKey{method: method, path: path, status: status}]++
	m.elapsed += duration
}

// RecordError counts a request that resolved to a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorKey{method: method, path: path, code: code}]++
}

// RequestCount returns how many times a route completed with a status.
func (m *Metrics) RequestCount(method, path string, status int) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[routeKey{method: method, path: path, status: status}]
}

// ErrorCount returns how many times a route resolved to an error code.
func (m *Metrics) ErrorCount(method, path, code string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[errorKey{method: method, path: path, code: code}]
}
