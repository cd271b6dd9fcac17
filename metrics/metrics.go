package metrics

import (
	"sync"

	"bybitflow/logger"
	"bybitflow/models"
)

// TypeCounters holds the per-data-type counters for one run.
type TypeCounters struct {
	Requests        int64
	Records         int64
	APIErrors       int64
	TransportErrors int64
}

// Counters tracks request and error counts per collected data type. All
// methods are safe for concurrent use by the collector goroutines.
type Counters struct {
	mu      sync.Mutex
	perType map[models.DataType]*TypeCounters
}

func NewCounters() *Counters {
	return &Counters{perType: make(map[models.DataType]*TypeCounters)}
}

func (c *Counters) get(dt models.DataType) *TypeCounters {
	tc, ok := c.perType[dt]
	if !ok {
		tc = &TypeCounters{}
		c.perType[dt] = tc
	}
	return tc
}

// Request records one issued API request.
func (c *Counters) Request(dt models.DataType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.get(dt).Requests++
}

// Record records one line written to a capture file.
func (c *Counters) Record(dt models.DataType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.get(dt).Records++
}

// APIError records a non-zero ret_code response.
func (c *Counters) APIError(dt models.DataType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.get(dt).APIErrors++
}

// TransportError records a network or decode failure.
func (c *Counters) TransportError(dt models.DataType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.get(dt).TransportErrors++
}

// Snapshot returns a copy of all counters.
func (c *Counters) Snapshot() map[models.DataType]TypeCounters {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[models.DataType]TypeCounters, len(c.perType))
	for dt, tc := range c.perType {
		out[dt] = *tc
	}
	return out
}

// Report logs the final counters per data type and emits them as metrics.
func (c *Counters) Report(log *logger.Log, pair string) {
	for dt, tc := range c.Snapshot() {
		fields := logger.Fields{
			"pair":             pair,
			"data_type":        string(dt),
			"requests":         tc.Requests,
			"records":          tc.Records,
			"api_errors":       tc.APIErrors,
			"transport_errors": tc.TransportErrors,
		}
		log.WithComponent("collector").WithFields(fields).Info("collection totals")

		log.LogMetric("collector", "requests", tc.Requests, "counter",
			logger.Fields{"pair": pair, "data_type": string(dt)})
		if tc.APIErrors > 0 {
			log.LogMetric("collector", "api_errors", tc.APIErrors, "counter",
				logger.Fields{"pair": pair, "data_type": string(dt)})
		}
		if tc.TransportErrors > 0 {
			log.LogMetric("collector", "transport_errors", tc.TransportErrors, "counter",
				logger.Fields{"pair": pair, "data_type": string(dt)})
		}
	}
}
