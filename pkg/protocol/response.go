// Package protocol defines the wire-level result envelope exchanged
// between a worker and a LaTeXML daemon, and the two fixed-shape
// constructors callers rely on to preserve input/output alignment.
package protocol

// Response is the typed result of one conversion. It decodes directly
// from the JSON body a daemon returns after a POST.
type Response struct {
	StatusCode uint8  `json:"status_code"`
	Status     string `json:"status"`
	Result     string `json:"result"`
	Log        string `json:"log"`
}

// StatusSuspectConnection is the status_code value meaning "the
// worker's own TCP connection is now suspect; do not reuse it."
const StatusSuspectConnection uint8 = 3

const sentinelMessage = "Default latexml_runner fatal"

// NewEmptyResponse returns the zero-form Response used on successful
// empty probes: {0, "", "", ""}.
func NewEmptyResponse() Response {
	return Response{}
}

// SentinelResponse returns the fixed sentinel-failure Response emitted
// when all retries of a conversion are exhausted. Its StatusCode is
// StatusSuspectConnection, signalling that the connection that produced
// it must not be reused.
func SentinelResponse() Response {
	return Response{
		StatusCode: StatusSuspectConnection,
		Status:     sentinelMessage,
		Result:     "",
		Log:        sentinelMessage,
	}
}

// Suspect reports whether the response's status code means the
// connection that produced it must be dropped rather than reused.
func (r Response) Suspect() bool {
	return r.StatusCode == StatusSuspectConnection
}
