package checker

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestingResult holds the counters of one method category. Counters only
// ever grow; failed never exceeds total.
type TestingResult struct {
	TotalTests  uint64
	FailedTests uint64
}

// TestingResults maps method name to its counters. Entries appear lazily on
// the first observation of a method. The lock is held only for the O(1)
// increment, never across I/O.
type TestingResults struct {
	mu      sync.Mutex
	results map[string]*TestingResult
}

func NewTestingResults() *TestingResults {
	return &TestingResults{
		results: make(map[string]*TestingResult),
	}
}

func (t *TestingResults) IncTotalTests(method string) {
	t.modify(method, func(r *TestingResult) { r.TotalTests++ })
}

func (t *TestingResults) IncFailedTests(method string) {
	t.modify(method, func(r *TestingResult) { r.FailedTests++ })
}

func (t *TestingResults) modify(method string, f func(*TestingResult)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.results[method]
	if !ok {
		entry = &TestingResult{}
		t.results[method] = entry
	}
	f(entry)
}

// Snapshot copies the current counters. Read-out happens once, after all
// category tasks have joined.
func (t *TestingResults) Snapshot() map[string]TestingResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]TestingResult, len(t.results))
	for method, result := range t.results {
		out[method] = *result
	}
	return out
}

// ShowResults emits one report line per observed method category.
func (t *TestingResults) ShowResults(logger *zerolog.Logger) {
	for method, result := range t.Snapshot() {
		logger.Info().
			Str("method", method).
			Uint64("total", result.TotalTests).
			Uint64("failed", result.FailedTests).
			Msg("method test results")
	}
}
