package collector

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"bybitflow/logger"
	"bybitflow/metrics"
	"bybitflow/models"
	"bybitflow/writer"
)

// FetchFunc performs one API request for the collector's data type.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// Outcome is a collector's terminal state, reported by the driver after
// all collectors have joined.
type Outcome struct {
	DataType  models.DataType
	RunID     string
	Records   int
	APIErrors int
	Elapsed   time.Duration
	Err       error
}

// Collector polls one data type for a fixed duration, appending one record
// per response to its capture file. The loop has no inter-iteration delay;
// it is paced only by the latency of the previous request.
type Collector struct {
	dataType models.DataType
	fetch    FetchFunc
	duration time.Duration
	out      *writer.JSONL
	counters *metrics.Counters
	runID    string
	log      *logger.Log
}

// New creates a collector for one data type.
func New(dataType models.DataType, fetch FetchFunc, duration time.Duration, out *writer.JSONL, counters *metrics.Counters) *Collector {
	return &Collector{
		dataType: dataType,
		fetch:    fetch,
		duration: duration,
		out:      out,
		counters: counters,
		runID:    uuid.New().String(),
		log:      logger.GetLogger(),
	}
}

// RunID identifies this collector invocation in logs and archive keys.
func (c *Collector) RunID() string {
	return c.runID
}

// Run polls until the duration elapses or the context is cancelled. The
// last iteration may overshoot the deadline by up to one request's latency,
// but the loop never under-runs it.
//
// A non-zero ret_code response is written into the stream as its ret_msg
// string, shaped exactly like a successful record. Transport and decode
// failures end the run with an error outcome instead.
func (c *Collector) Run(ctx context.Context) Outcome {
	log := c.log.WithComponent("collector").WithFields(logger.Fields{
		"data_type": string(c.dataType),
		"run_id":    c.runID,
	})
	log.Info("starting collection")

	outcome := Outcome{DataType: c.dataType, RunID: c.runID}
	start := time.Now()

	for time.Since(start) < c.duration {
		if err := ctx.Err(); err != nil {
			outcome.Err = err
			log.Info("collection cancelled")
			break
		}

		c.counters.Request(c.dataType)
		fetchStart := time.Now()
		payload, err := c.fetch(ctx)
		logger.LogPerformanceEntry(log, "collector", "api_request", time.Since(fetchStart), nil)

		var response interface{}
		if err != nil {
			var apiErr *models.APIError
			if !errors.As(err, &apiErr) {
				if errors.Is(err, context.Canceled) {
					outcome.Err = context.Canceled
					log.Info("collection cancelled")
					break
				}
				c.counters.TransportError(c.dataType)
				outcome.Err = err
				log.WithError(err).Error("request failed, ending collection")
				break
			}
			// Application-level rejections go into the stream like payloads.
			c.counters.APIError(c.dataType)
			outcome.APIErrors++
			response = apiErr.Msg
		} else {
			response = payload
		}

		rec := models.Record{
			Ts:       float64(time.Now().UnixNano()) / 1e9,
			Response: response,
		}
		if err := c.out.Write(rec); err != nil {
			outcome.Err = err
			log.WithError(err).Error("write failed, ending collection")
			break
		}
		c.counters.Record(c.dataType)
		outcome.Records++
	}

	outcome.Elapsed = time.Since(start)

	log.WithFields(logger.Fields{
		"records":    outcome.Records,
		"api_errors": outcome.APIErrors,
		"elapsed":    outcome.Elapsed.String(),
	}).Info("finished collection")

	return outcome
}
