// Package worker implements the single-owner bundle of (daemon child
// process, TCP connection, port pair, option set) that is the unit of
// parallelism in the batch driver: boot, probe, rotate, and reap of one
// LaTeXML daemon, and the connection/retry protocol used to convert one
// job against it.
package worker

import (
	"fmt"
	"math/rand"
	"net"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/phayes/freeport"

	"github.com/dginev/latexrun/internal/telemetry"
	"github.com/dginev/latexrun/pkg/protocol"
)

// BootOption is one key/value pair registered with the daemon at boot
// time (an option without a value contributes just its key).
type BootOption struct {
	Key   string
	Value string
}

const (
	backupPortOffset  = 200
	connectRetryDelay = 50 * time.Millisecond
	bootFirstDelay    = 500 * time.Millisecond
	bootRetryDelay    = 1 * time.Second
)

// Worker owns one daemon process and one persistent TCP connection. It
// is not safe for concurrent use — the Pool enforces single ownership.
type Worker struct {
	execPath    string
	cacheKey    string
	bootOptions []BootOption
	autoflush   int

	port       int
	backupPort int
	callCount  int

	cmd         *exec.Cmd
	childDone   chan struct{}
	childExited atomic.Bool
	conn        net.Conn
}

// Boot constructs a Worker and brings its daemon to a READY state. It
// fails if either the initial liveness probe or the init call fails.
func Boot(execPath string, port int, autoflush int, cacheKey string, bootOptions []BootOption) (*Worker, error) {
	w := &Worker{
		execPath:    execPath,
		cacheKey:    cacheKey,
		bootOptions: bootOptions,
		autoflush:   autoflush,
		port:        port,
		backupPort:  port + backupPortOffset,
	}
	if err := w.ensureLive(); err != nil {
		return nil, fmt.Errorf("boot worker on port %d: %w", port, err)
	}
	return w, nil
}

// Port reports the worker's current primary port.
func (w *Worker) Port() int { return w.port }

// Convert ensures the daemon is live, then issues one conversion
// request. On any transport-level error the connection is shut and the
// error is returned to the caller; retry policy belongs to the
// Dispatcher, not the Worker.
func (w *Worker) Convert(job string) (protocol.Response, error) {
	if err := w.ensureLive(); err != nil {
		return protocol.Response{}, err
	}
	resp, err := w.call(convertBody(w.cacheKey, job), true)
	if err != nil {
		w.closeConn()
		return protocol.Response{}, err
	}
	w.callCount++
	if resp.Suspect() {
		w.closeConn()
	}
	return resp, nil
}

// Rotate swaps port and backup port, zeroes the call counter, and kills
// the current child + stream. It does not immediately reboot; the next
// ensureLive call will.
func (w *Worker) Rotate() {
	telemetry.WithWorker(w.port).Warn().Msg("rotating worker to backup port")
	w.port, w.backupPort = w.backupPort, w.port
	w.callCount = 0
	w.killChild()
	w.closeConn()
	telemetry.WorkerRestarts.Inc()
}

// Resample picks a new port pair and reboots, a stronger recovery
// action than Rotate. An empty [low, high) range is an error. Otherwise
// freeport is consulted first for a genuinely free OS-assigned port, and
// used if it falls inside [low, high); if it does not, a uniform pick in
// [low, high) is used instead.
func (w *Worker) Resample(low, high int) error {
	telemetry.WithWorker(w.port).Warn().Msg("resampling worker to a new port pair")
	newPort, err := pickPort(low, high)
	if err != nil {
		return err
	}
	w.port = newPort
	w.backupPort = newPort + backupPortOffset
	w.killChild()
	w.closeConn()
	telemetry.WorkerRestarts.Inc()
	return w.ensureLive()
}

func pickPort(low, high int) (int, error) {
	if high <= low {
		return 0, fmt.Errorf("resample range is empty: [%d, %d)", low, high)
	}
	if p, err := freeport.GetFreePort(); err == nil && p >= low && p < high {
		return p, nil
	}
	return low + rand.Intn(high-low), nil
}

// Close shuts the connection and kills the child if still alive,
// waiting for it to exit. Calling Close after the child has already
// been reaped is a no-op.
func (w *Worker) Close() {
	w.closeConn()
	w.killChild()
}

func (w *Worker) closeConn() {
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
}

// killChild kills the child if it hasn't already exited and blocks until
// the single background goroutine that owns its Wait() call observes the
// exit. Calling killChild when the child has already been reaped (or was
// never spawned) is a no-op.
func (w *Worker) killChild() {
	if w.cmd == nil {
		return
	}
	if !w.childExited.Load() {
		_ = w.cmd.Process.Kill()
	}
	if w.childDone != nil {
		<-w.childDone
	}
	w.cmd = nil
	w.childDone = nil
}

// reaped reports whether the OS has observed the child exit already. The
// daemon shape-shifts PIDs across restarts, so this is a cheap first
// check only — the authoritative liveness signal is initCall, not this.
func (w *Worker) reaped() bool {
	return w.cmd == nil || w.childExited.Load()
}

// ensureLive reaps a dead child, rotates if the autoflush threshold was
// exceeded, and (re)spawns + probes the daemon if there is no live
// child. The only authoritative liveness signal is a successful
// initCall — the daemon reshuffles PIDs across restarts, so observing
// the child handle alone is not sufficient.
func (w *Worker) ensureLive() error {
	if w.cmd != nil && w.reaped() {
		w.cmd = nil
		w.childDone = nil
		w.closeConn()
	}
	if w.autoflush > 0 && w.callCount > w.autoflush {
		w.Rotate()
	}
	if w.cmd != nil {
		return nil
	}
	return w.spawnAndProbe()
}

func (w *Worker) spawnAndProbe() error {
	cmd := exec.Command(w.execPath,
		"--port", fmt.Sprint(w.port),
		"--address", "127.0.0.1",
		"--autoflush", "0",
		"--timeout", "120",
		"--expire", "4",
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn daemon: %w", err)
	}
	w.cmd = cmd
	w.childExited.Store(false)
	done := make(chan struct{})
	w.childDone = done
	go func() {
		_ = cmd.Wait()
		w.childExited.Store(true)
		close(done)
	}()

	time.Sleep(bootFirstDelay)
	if err := w.initCall(); err == nil {
		return nil
	}
	time.Sleep(bootRetryDelay)
	if err := w.initCall(); err != nil {
		return fmt.Errorf("init call failed twice: %w", err)
	}
	return nil
}

func (w *Worker) initCall() error {
	_, err := w.call(initCallBody(w.cacheKey, w.bootOptions), true)
	return err
}

// call sends body over the worker's persistent connection (reconnecting
// if needed), parses the response, and retains the connection only when
// the response is not itself suspect.
//
// A connect or write failure is a hard transport error, surfaced to the
// caller. An empty, separator-less, or JSON-malformed response is not:
// it is retried once (allowRetry) on a fresh round-trip, and if it is
// still malformed, the sentinel failure record is returned instead of
// an error — this is what lets the Worker distinguish "the socket is
// broken" (caller's problem) from "the daemon answered garbage" (our
// problem, papered over with a fixed-shape record).
func (w *Worker) call(body string, allowRetry bool) (protocol.Response, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", w.port)

	resp, malformed, err := w.attempt(addr, body)
	if err != nil {
		return protocol.Response{}, err
	}
	if malformed && allowRetry {
		w.closeConn()
		resp, malformed, err = w.attempt(addr, body)
		if err != nil {
			return protocol.Response{}, err
		}
	}
	if malformed {
		return protocol.SentinelResponse(), nil
	}
	return resp, nil
}

func (w *Worker) attempt(addr, body string) (protocol.Response, bool, error) {
	conn, err := w.connection(addr)
	if err != nil {
		return protocol.Response{}, false, err
	}
	w.conn = conn

	if _, err := conn.Write(buildRequest(addr, body)); err != nil {
		w.closeConn()
		return protocol.Response{}, false, err
	}
	return readResponse(conn)
}

// connection returns the worker's retained connection, or dials a new
// one. Connect failures are retried once after a short fixed delay via
// a constant backoff, matching the original's single reconnect attempt.
func (w *Worker) connection(addr string) (net.Conn, error) {
	if w.conn != nil {
		c := w.conn
		w.conn = nil
		return c, nil
	}

	var conn net.Conn
	dial := func() error {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(connectRetryDelay), 1)
	if err := backoff.Retry(dial, b); err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return conn, nil
}
