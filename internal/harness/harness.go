// Package harness is the facade the CLI drives: it discovers the daemon
// executable, boots a fixed-size worker Pool at a contiguous port range,
// and exposes file/directory/single-shot conversion entry points on top
// of the Dispatcher.
package harness

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dginev/latexrun/internal/config"
	"github.com/dginev/latexrun/internal/dispatch"
	"github.com/dginev/latexrun/internal/pool"
	"github.com/dginev/latexrun/internal/recordio"
	"github.com/dginev/latexrun/internal/telemetry"
	"github.com/dginev/latexrun/internal/worker"
)

// Options configures a Harness at construction time.
type Options struct {
	// ExecName is the daemon executable name, resolved via exec.LookPath.
	ExecName string
	// FromPort is the first port in the contiguous [FromPort, FromPort+Workers)
	// range assigned one-per-worker.
	FromPort int
	// Workers is the pool size W.
	Workers int
	// Autoflush is the per-worker call-count recycle threshold; 0 disables it.
	Autoflush int
	// BootOptions are the canonicalized daemon boot options shared by every worker.
	BootOptions []worker.BootOption
}

// Harness owns the Pool and Dispatcher built from Options, and is the
// single entry point the CLI calls into.
type Harness struct {
	pool       *pool.Pool
	dispatcher *dispatch.Dispatcher
}

// New resolves the daemon executable, boots W workers in parallel at
// consecutive ports, and assembles the Pool + Dispatcher. Any worker
// boot failure aborts the whole construction and tears down whatever
// already booted.
func New(opts Options) (*Harness, error) {
	execPath, err := exec.LookPath(opts.ExecName)
	if err != nil {
		return nil, fmt.Errorf("daemon executable %q not found on PATH: %w", opts.ExecName, err)
	}

	telemetry.Logger.Info().
		Str("exec", execPath).
		Int("workers", opts.Workers).
		Int("from_port", opts.FromPort).
		Msg("harness starting")

	workers := make([]*worker.Worker, opts.Workers)
	errs := make([]error, opts.Workers)
	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := worker.Boot(execPath, opts.FromPort+i, opts.Autoflush, config.CacheKey(), opts.BootOptions)
			if err != nil {
				errs[i] = err
				return
			}
			workers[i] = w
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			for _, w := range workers {
				if w != nil {
					w.Close()
				}
			}
			return nil, fmt.Errorf("boot worker pool: %w", err)
		}
	}

	p := pool.New(workers)
	d := dispatch.New(p, opts.Workers)

	return &Harness{pool: p, dispatcher: d}, nil
}

// Close drains the Pool and closes every Worker. It does not kill
// daemons by process name: only the workers this Harness itself booted
// are touched, leaving co-tenant runs of the same executable untouched.
func (h *Harness) Close() {
	h.pool.Close()
}

// ConvertFile streams jobs from inputPath through the Dispatcher,
// writing one result per line to resultPath and one status code per
// line to logPath.
func (h *Harness) ConvertFile(inputPath, resultPath, logPath string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input %s: %w", inputPath, err)
	}
	defer in.Close()

	resultFile, err := os.Create(resultPath)
	if err != nil {
		return fmt.Errorf("create result file %s: %w", resultPath, err)
	}
	defer resultFile.Close()

	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("create log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	reader := recordio.NewReader(inputPath, in)
	results := recordio.NewResultWriter(resultFile)
	logs := recordio.NewLogWriter(logFile)

	return h.dispatcher.Run(reader, results, logs)
}

// ConvertDir enumerates every ".csv" file directly inside inputDir and
// converts each through ConvertFile, writing
// "<outputDir>/result_<name>" and "<logDir>/<name>.log".
func (h *Harness) ConvertDir(inputDir, outputDir, logDir string) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fmt.Errorf("read input dir %s: %w", inputDir, err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", outputDir, err)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log dir %s: %w", logDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		name := entry.Name()
		inputPath := filepath.Join(inputDir, name)
		resultPath := filepath.Join(outputDir, "result_"+name)
		logPath := filepath.Join(logDir, name+".log")

		telemetry.Logger.Info().Str("file", name).Msg("converting directory entry")
		if err := h.ConvertFile(inputPath, resultPath, logPath); err != nil {
			return fmt.Errorf("convert %s: %w", name, err)
		}
	}
	return nil
}

// ConvertOne performs a single-shot conversion with no retry wrapper:
// take a worker, convert, return the worker, surface the result or the
// transport error as-is.
func (h *Harness) ConvertOne(job string) (string, error) {
	w := h.pool.Take()
	defer h.pool.Return(w)

	resp, err := w.Convert(job)
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

// Len reports how many workers currently sit idle in the Pool;
// primarily useful from tests and diagnostics.
func (h *Harness) Len() int {
	return h.pool.Len()
}
