package worker

import (
	"os"
	"testing"
	"time"

	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dginev/latexrun/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.MainWithFakeDaemon(m)
}

func init() {
	// Children spawned by the Worker under test are re-execs of this
	// same test binary, dispatched into testutil.Run by TestMain.
	testutil.EnableFakeDaemon()
}

func freePort(t *testing.T) int {
	t.Helper()
	p, err := freeport.GetFreePort()
	require.NoError(t, err)
	return p
}

func bootTestWorker(t *testing.T, autoflush int) *Worker {
	t.Helper()
	port := freePort(t)
	w, err := Boot(os.Args[0], port, autoflush, "test:cache", nil)
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w
}

func TestBootAndConvertSucceeds(t *testing.T) {
	w := bootTestWorker(t, 0)
	resp, err := w.Convert("hello")
	require.NoError(t, err)
	assert.Equal(t, uint8(0), resp.StatusCode)
	assert.Equal(t, "converted:hello", resp.Result)
}

func TestConvertRetriesMalformedJSONThenSentinel(t *testing.T) {
	w := bootTestWorker(t, 0)
	resp, err := w.Convert("FAIL_JSON")
	require.NoError(t, err)
	assert.True(t, resp.Suspect())
	assert.Equal(t, uint8(3), resp.StatusCode)
}

func TestConvertRetriesEmptyResponseThenSentinel(t *testing.T) {
	w := bootTestWorker(t, 0)
	resp, err := w.Convert("FAIL_EMPTY")
	require.NoError(t, err)
	assert.True(t, resp.Suspect())
}

func TestSuspectResponseDropsConnection(t *testing.T) {
	w := bootTestWorker(t, 0)
	_, err := w.Convert("FAIL_JSON")
	require.NoError(t, err)
	assert.Nil(t, w.conn)
}

func TestSuccessfulCallRetainsConnection(t *testing.T) {
	w := bootTestWorker(t, 0)
	_, err := w.Convert("hello")
	require.NoError(t, err)
	assert.NotNil(t, w.conn)
}

func TestRotateSwapsPortsAndResetsCallCount(t *testing.T) {
	w := bootTestWorker(t, 0)
	primary, backup := w.port, w.backupPort
	w.callCount = 7
	w.Rotate()
	assert.Equal(t, backup, w.port)
	assert.Equal(t, primary, w.backupPort)
	assert.Equal(t, 0, w.callCount)
	assert.Nil(t, w.cmd)
}

func TestAutoflushRotatesBeforeNextCall(t *testing.T) {
	w := bootTestWorker(t, 2)
	for i := 0; i < 2; i++ {
		_, err := w.Convert("hello")
		require.NoError(t, err)
	}
	originalPort := w.port
	// callCount is now 2; the third call begins with 2 > 2 == false (no
	// rotate), bringing callCount to 3. The fourth call begins with
	// 3 > 2 == true and must rotate before proceeding.
	_, err := w.Convert("hello")
	require.NoError(t, err)
	_, err = w.Convert("hello")
	require.NoError(t, err)
	assert.NotEqual(t, originalPort, w.port)
}

func TestResamplePicksNewPortPair(t *testing.T) {
	w := bootTestWorker(t, 0)
	oldPort := w.port
	low, high := 20000, 21000
	err := w.Resample(low, high)
	require.NoError(t, err)
	assert.NotEqual(t, oldPort, w.port)
	assert.GreaterOrEqual(t, w.port, low)
	assert.Less(t, w.port, high)
	assert.Equal(t, w.port+backupPortOffset, w.backupPort)
}

func TestWorkerDeathIsDetectedAndRebooted(t *testing.T) {
	w := bootTestWorker(t, 0)
	_, err := w.Convert("DIE")
	// DIE exits the daemon process without writing a response: the
	// Worker observes an empty response (malformed, not a transport
	// error) and surfaces the sentinel record, not a Go error.
	require.NoError(t, err)

	// Give the OS a moment to reap the exited child, then the next
	// ensureLive should detect death via reaped() and respawn.
	time.Sleep(200 * time.Millisecond)
	resp, err := w.Convert("hello again")
	require.NoError(t, err)
	assert.Equal(t, "converted:hello again", resp.Result)
}

func TestCloseIsIdempotent(t *testing.T) {
	w := bootTestWorker(t, 0)
	w.Close()
	assert.NotPanics(t, func() { w.Close() })
}
