package worker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/dginev/latexrun/pkg/protocol"
)

// buildRequest renders the exact HTTP/1.0 dialect the daemon accepts:
// a POST whose request-target is the literal "host:port" string (not a
// path), "\n"-terminated header lines, and a url-encoded form body.
func buildRequest(addr, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "POST %s HTTP/1.0\n", addr)
	fmt.Fprintf(&b, "Host: %s\n", addr)
	fmt.Fprintf(&b, "User-Agent: latexmlc\n")
	fmt.Fprintf(&b, "Content-Type: application/x-www-form-urlencoded\n")
	fmt.Fprintf(&b, "Content-Length: %d\n", len(body))
	fmt.Fprintf(&b, "\n")
	b.WriteString(body)
	return b.Bytes()
}

// initCallBody renders the boot-time registration body:
// cache_key=<cache_key>&source=literal:1&<boot_options>.
func initCallBody(cacheKey string, opts []BootOption) string {
	var b strings.Builder
	b.WriteString("cache_key=")
	b.WriteString(url.QueryEscape(cacheKey))
	b.WriteString("&source=literal:1")
	for _, opt := range opts {
		b.WriteByte('&')
		b.WriteString(url.QueryEscape(opt.Key))
		if opt.Value != "" {
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(opt.Value))
		}
	}
	return b.String()
}

// convertBody renders a conversion request body:
// cache_key=<cache_key>&source=literal:<urlencoded(job)>.
func convertBody(cacheKey, job string) string {
	return "cache_key=" + url.QueryEscape(cacheKey) + "&source=literal:" + url.QueryEscape(job)
}

var headerBodySeparator = []byte("\r\n\r\n")

// readResponse reads conn to EOF, locates the first "\r\n\r\n" separator,
// and decodes the remaining bytes as a JSON Response.
//
// Three conditions are "malformed" rather than a hard transport error:
// an empty response, a missing separator, and a JSON decode error. The
// caller (Worker.call) is responsible for retrying once on malformed
// and otherwise substituting the sentinel record — only a genuine I/O
// failure on the socket itself is returned as err here.
func readResponse(conn net.Conn) (resp protocol.Response, malformed bool, err error) {
	raw, err := io.ReadAll(conn)
	if err != nil {
		return protocol.Response{}, false, err
	}
	if len(raw) == 0 {
		return protocol.Response{}, true, nil
	}
	idx := bytes.Index(raw, headerBodySeparator)
	if idx == -1 {
		return protocol.Response{}, true, nil
	}
	payload := raw[idx+len(headerBodySeparator):]
	if err := json.Unmarshal(payload, &resp); err != nil {
		return protocol.Response{}, true, nil
	}
	return resp, false, nil
}
