package errors

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Failure is one recorded action failure, kept for the end-of-session report
// printed when watch mode exits.
type Failure struct {
	Rule      string
	Path      string
	Err       error
	Timestamp time.Time
}

// String returns a single-line description of the failure.
func (f Failure) String() string {
	return fmt.Sprintf("%s %s (%s): %v", f.Timestamp.Format("15:04:05"), f.Path, f.Rule, f.Err)
}

// Collector collects failures from concurrent goroutines.
type Collector struct {
	failures []Failure
	mutex    sync.RWMutex
}

// NewCollector creates a new failure collector.
func NewCollector() *Collector {
	return &Collector{failures: make([]Failure, 0)}
}

// Add records a failure. Nil errors are ignored.
func (c *Collector) Add(rule, path string, err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.failures = append(c.failures, Failure{
		Rule:      rule,
		Path:      path,
		Err:       err,
		Timestamp: time.Now(),
	})
}

// Failures returns a copy of the recorded failures.
func (c *Collector) Failures() []Failure {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := make([]Failure, len(c.failures))
	copy(out, c.failures)

	return out
}

// HasFailures reports whether anything was recorded.
func (c *Collector) HasFailures() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.failures) > 0
}

// Summary renders the recorded failures, one per line.
func (c *Collector) Summary() string {
	failures := c.Failures()
	if len(failures) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d action(s) failed:\n", len(failures))
	for _, f := range failures {
		b.WriteString("  ")
		b.WriteString(f.String())
		b.WriteByte('\n')
	}

	return b.String()
}
