package recordio

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, r Reader) []string {
	t.Helper()
	var out []string
	for {
		job, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, job)
	}
}

func TestLineReaderOneJobPerLine(t *testing.T) {
	r := NewLineReader(strings.NewReader("\\sqrt{2}\n\\sqrt{3}\n\\sqrt{x+1}\n"))
	assert.Equal(t, []string{"\\sqrt{2}", "\\sqrt{3}", "\\sqrt{x+1}"}, drain(t, r))
}

func TestDelimitedReaderPermissiveTreatsLineAsWholeRecord(t *testing.T) {
	r := NewDelimitedReader(strings.NewReader("\\frac{1}{2}\n1+1, with a comma\n"), true)
	assert.Equal(t, []string{"\\frac{1}{2}", "1+1, with a comma"}, drain(t, r))
}

func TestDelimitedReaderDropsMalformedRecords(t *testing.T) {
	// A bare quote inside an unquoted field (as opposed to an
	// unterminated quoted field) is rejected for that single physical
	// line only — encoding/csv does not treat it as the start of a
	// multi-line quoted continuation, so the malformed first record is
	// dropped and the second, well-formed record is still read.
	r := NewDelimitedReader(strings.NewReader("a\"b\nok\n"), false)
	got := drain(t, r)
	assert.Equal(t, []string{"ok"}, got)
}

func TestNewReaderDispatchesOnExtension(t *testing.T) {
	txt := NewReader("jobs.txt", strings.NewReader("a\nb\n"))
	assert.IsType(t, &LineReader{}, txt)

	other := NewReader("jobs.csv", strings.NewReader("a\nb\n"))
	assert.IsType(t, &DelimitedReader{}, other)
}

func TestResultAndLogWritersOneFieldPerLine(t *testing.T) {
	var resBuf, logBuf bytes.Buffer
	rw := NewResultWriter(&resBuf)
	lw := NewLogWriter(&logBuf)

	require.NoError(t, rw.Write("<math/>"))
	require.NoError(t, lw.Write("0"))
	require.NoError(t, rw.Flush())
	require.NoError(t, lw.Flush())

	assert.Equal(t, "<math/>\n", resBuf.String())
	assert.Equal(t, "0\n", logBuf.String())
}
