// Package dispatch implements the parallel, order-preserving streaming
// pipeline that routes a stream of TeX jobs through a worker Pool: batch
// read, W-wide fan-out with per-job retry-then-sentinel, reorder by
// input position, and per-batch flush to the result/log sinks.
package dispatch

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dginev/latexrun/internal/pool"
	"github.com/dginev/latexrun/internal/recordio"
	"github.com/dginev/latexrun/internal/telemetry"
	"github.com/dginev/latexrun/pkg/protocol"
)

// ResultSink receives one conversion result per Write call, flushed at
// batch boundaries.
type ResultSink interface {
	Write(result string) error
	Flush() error
}

// LogSink receives one decimal status code per Write call, flushed at
// batch boundaries in lockstep with ResultSink.
type LogSink interface {
	Write(statusCode string) error
	Flush() error
}

// Dispatcher drives a record stream through a Pool in bounded batches.
type Dispatcher struct {
	Pool      *pool.Pool
	Workers   int
	BatchSize int
}

// New returns a Dispatcher sized for the given worker count, with the
// batch size fixed at 100*workers (spec §3: "tuned so that 100 jobs per
// worker amortize scheduling cost while bounding peak memory").
func New(p *pool.Pool, workers int) *Dispatcher {
	return &Dispatcher{Pool: p, Workers: workers, BatchSize: 100 * workers}
}

type tagged struct {
	position int
	job      string
}

type taggedResult struct {
	position int
	response protocol.Response
}

// Run reads jobs from r in batches, converts them through the Pool
// using exactly d.Workers concurrent tasks, and writes one result and
// one log record per job, in input order, flushing both sinks at every
// batch boundary. It returns the first sink-write error encountered, if
// any; a scheduling invariant violation (batch/result length mismatch)
// panics, since it indicates corruption unreachable under a correct
// implementation.
func (d *Dispatcher) Run(r recordio.Reader, results ResultSink, logs LogSink) error {
	batchNum := 0
	for {
		batch, readErr := d.readBatch(r)
		if len(batch) > 0 {
			batchNum++
			log := telemetry.WithBatch(batchNum)
			log.Info().Int("size", len(batch)).Msg("dispatching batch")
			telemetry.BatchSize.Set(float64(len(batch)))

			responses := d.processBatch(batch)
			if len(responses) != len(batch) {
				panic(fmt.Sprintf("scheduling invariant violated: got %d results for %d inputs", len(responses), len(batch)))
			}
			if err := writeBatch(responses, results, logs); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func (d *Dispatcher) readBatch(r recordio.Reader) ([]string, error) {
	batch := make([]string, 0, d.BatchSize)
	for len(batch) < d.BatchSize {
		job, err := r.Next()
		if err == io.EOF {
			return batch, io.EOF
		}
		if err != nil {
			return batch, err
		}
		batch = append(batch, job)
	}
	return batch, nil
}

// processBatch converts every job in batch using exactly d.Workers
// concurrent tasks, and returns responses in input order. Each task
// retries a failing conversion twice more on the same worker (three
// attempts total) before substituting the sentinel response, so a
// transient failure never aborts the batch or desynchronizes sinks.
func (d *Dispatcher) processBatch(batch []string) []protocol.Response {
	work := make(chan tagged, len(batch))
	for i, job := range batch {
		work <- tagged{position: i, job: job}
	}
	close(work)

	out := make(chan taggedResult, len(batch))
	var wg sync.WaitGroup
	for i := 0; i < d.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range work {
				out <- taggedResult{position: t.position, response: d.convertWithRetry(t.job)}
			}
		}()
	}
	wg.Wait()
	close(out)

	results := make([]taggedResult, 0, len(batch))
	for r := range out {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].position < results[j].position })

	responses := make([]protocol.Response, len(results))
	for i, r := range results {
		responses[i] = r.response
	}
	return responses
}

// convertWithRetry takes a worker from the Pool, attempts the
// conversion up to three times total on that same worker, and returns
// the sentinel response if all three fail. The worker is always
// returned to the Pool, regardless of outcome.
func (d *Dispatcher) convertWithRetry(job string) protocol.Response {
	w := d.Pool.Take()
	defer d.Pool.Return(w)

	start := time.Now()
	var resp protocol.Response
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err = w.Convert(job)
		if err == nil {
			break
		}
	}
	if err != nil {
		resp = protocol.SentinelResponse()
	}

	statusCode := fmt.Sprint(resp.StatusCode)
	telemetry.ConversionsTotal.WithLabelValues(statusCode).Inc()
	telemetry.ConversionDuration.WithLabelValues(statusCode).Observe(time.Since(start).Seconds())
	return resp
}

func writeBatch(responses []protocol.Response, results ResultSink, logs LogSink) error {
	for _, resp := range responses {
		if err := results.Write(resp.Result); err != nil {
			return fmt.Errorf("write result sink: %w", err)
		}
		if err := logs.Write(fmt.Sprint(resp.StatusCode)); err != nil {
			return fmt.Errorf("write log sink: %w", err)
		}
	}
	if err := results.Flush(); err != nil {
		return fmt.Errorf("flush result sink: %w", err)
	}
	if err := logs.Flush(); err != nil {
		return fmt.Errorf("flush log sink: %w", err)
	}
	return nil
}
