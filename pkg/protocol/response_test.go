package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEmptyResponse(t *testing.T) {
	r := NewEmptyResponse()
	assert.Equal(t, Response{}, r)
	assert.False(t, r.Suspect())
}

func TestSentinelResponse(t *testing.T) {
	r := SentinelResponse()
	assert.Equal(t, StatusSuspectConnection, r.StatusCode)
	assert.Equal(t, sentinelMessage, r.Status)
	assert.Equal(t, sentinelMessage, r.Log)
	assert.Equal(t, "", r.Result)
	assert.True(t, r.Suspect())
}

func TestResponseDecodesFromDaemonJSON(t *testing.T) {
	body := []byte(`{"status_code":0,"status":"","result":"<math/>","log":""}`)
	var r Response
	assert.NoError(t, json.Unmarshal(body, &r))
	assert.Equal(t, uint8(0), r.StatusCode)
	assert.Equal(t, "<math/>", r.Result)
	assert.False(t, r.Suspect())
}

func TestSuspectOnlyOnStatusThree(t *testing.T) {
	for code := uint8(0); code < 5; code++ {
		r := Response{StatusCode: code}
		assert.Equal(t, code == StatusSuspectConnection, r.Suspect())
	}
}
