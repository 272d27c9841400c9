package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector keeps process-local request and domain event counters.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu     sync.Mutex
	events map[string]*uint64
}

func New() *Collector {
	return &Collector{events: map[string]*uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// Inc counts one domain event such as "bonus.calculation.run".
func (c *Collector) Inc(event string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	counter, ok := c.events[event]
	if !ok {
		counter = new(uint64)
		c.events[event] = counter
	}
	c.mu.Unlock()
	atomic.AddUint64(counter, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	names := make([]string, 0, len(c.events))
	for name := range c.events {
		names = append(names, name)
	}
	c.mu.Unlock()
	sort.Strings(names)
	events := make(map[string]uint64, len(names))
	for _, name := range names {
		c.mu.Lock()
		counter := c.events[name]
		c.mu.Unlock()
		events[name] = atomic.LoadUint64(counter)
	}

	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"events":           events,
	}
}
