package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dginev/latexrun/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.MainWithFakeDaemon(m)
}

func init() {
	testutil.EnableFakeDaemon()
}

// fakeDaemonOnPath symlinks the current test binary (which re-execs into
// the fake daemon when LATEXRUN_FAKE_DAEMON is set) under a name a
// Harness can resolve with exec.LookPath, and prepends its directory to
// PATH for the duration of the test.
func fakeDaemonOnPath(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	link := filepath.Join(dir, name)
	require.NoError(t, os.Symlink(os.Args[0], link))

	oldPath := os.Getenv("PATH")
	require.NoError(t, os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath))
	t.Cleanup(func() { os.Setenv("PATH", oldPath) })

	return name
}

func freeBasePort(t *testing.T) int {
	t.Helper()
	base, err := freeport.GetFreePort()
	require.NoError(t, err)
	return base
}

func TestNewBootsWorkerPoolAndConvertOneWorks(t *testing.T) {
	execName := fakeDaemonOnPath(t, "fake-latexmls")
	from := freeBasePort(t)

	h, err := New(Options{ExecName: execName, FromPort: from, Workers: 2})
	require.NoError(t, err)
	t.Cleanup(h.Close)

	assert.Equal(t, 2, h.Len())
	result, err := h.ConvertOne("hello")
	require.NoError(t, err)
	assert.Equal(t, "converted:hello", result)
}

func TestNewFailsWhenExecutableMissing(t *testing.T) {
	_, err := New(Options{ExecName: "no-such-latexmls-binary", FromPort: 20000, Workers: 1})
	assert.Error(t, err)
}

func TestConvertFileWritesAlignedResultsAndLogs(t *testing.T) {
	execName := fakeDaemonOnPath(t, "fake-latexmls2")
	from := freeBasePort(t)

	h, err := New(Options{ExecName: execName, FromPort: from, Workers: 2})
	require.NoError(t, err)
	t.Cleanup(h.Close)

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "jobs.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte("a\nb\nc\n"), 0o644))

	resultPath := filepath.Join(dir, "result.csv")
	logPath := filepath.Join(dir, "jobs.log")

	require.NoError(t, h.ConvertFile(inputPath, resultPath, logPath))

	resultBytes, err := os.ReadFile(resultPath)
	require.NoError(t, err)
	results := strings.Split(strings.TrimRight(string(resultBytes), "\n"), "\n")
	assert.Equal(t, []string{"converted:a", "converted:b", "converted:c"}, results)

	logBytes, err := os.ReadFile(logPath)
	require.NoError(t, err)
	logs := strings.Split(strings.TrimRight(string(logBytes), "\n"), "\n")
	assert.Equal(t, []string{"0", "0", "0"}, logs)
}

func TestConvertDirProcessesOnlyCSVFiles(t *testing.T) {
	execName := fakeDaemonOnPath(t, "fake-latexmls3")
	from := freeBasePort(t)

	h, err := New(Options{ExecName: execName, FromPort: from, Workers: 1})
	require.NoError(t, err)
	t.Cleanup(h.Close)

	inputDir := t.TempDir()
	outputDir := t.TempDir()
	logDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "one.csv"), []byte("x\ny\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "ignored.txt.bak"), []byte("z\n"), 0o644))

	require.NoError(t, h.ConvertDir(inputDir, outputDir, logDir))

	resultBytes, err := os.ReadFile(filepath.Join(outputDir, "result_one.csv"))
	require.NoError(t, err)
	results := strings.Split(strings.TrimRight(string(resultBytes), "\n"), "\n")
	assert.Equal(t, []string{"converted:x", "converted:y"}, results)

	_, err = os.Stat(filepath.Join(logDir, "one.csv.log"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outputDir, "result_ignored.txt.bak"))
	assert.True(t, os.IsNotExist(err))
}

func TestCloseIsIdempotent(t *testing.T) {
	execName := fakeDaemonOnPath(t, "fake-latexmls4")
	from := freeBasePort(t)

	h, err := New(Options{ExecName: execName, FromPort: from, Workers: 1})
	require.NoError(t, err)

	h.Close()
	assert.NotPanics(t, h.Close)
}
