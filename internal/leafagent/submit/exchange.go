package submit

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptrace"
	"slices"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
)

// readChunk is the size of one body read, and so the largest data fragment.
const readChunk = 64

const maxRedirects = 10

// exchange performs req and reports its lifecycle to emit: Connected and
// HeaderSent from the transport, HeaderReceived per response header, Data per
// body chunk, then Finish and Disconnected. A transport failure is reported as
// Error then Disconnected and returned wrapping core.ErrTransport.
func exchange(client *http.Client, req *http.Request, emit func(*core.HTTPEvent)) (int, error) {
	trace := &httptrace.ClientTrace{
		GotConn: func(httptrace.GotConnInfo) {
			emit(&core.HTTPEvent{Kind: core.HTTPConnected})
		},
		WroteHeaders: func() {
			emit(&core.HTTPEvent{Kind: core.HTTPHeaderSent})
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	c := *client
	c.CheckRedirect = func(r *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		emit(&core.HTTPEvent{Kind: core.HTTPRedirect, HeaderKey: "Location", HeaderValue: r.URL.String()})
		return nil
	}

	fail := func(status int, err error) (int, error) {
		emit(&core.HTTPEvent{Kind: core.HTTPError, StatusCode: status, Err: err})
		emit(&core.HTTPEvent{Kind: core.HTTPDisconnected, StatusCode: status})
		return status, fmt.Errorf("%w: %w", core.ErrTransport, err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	for _, key := range slices.Sorted(maps.Keys(resp.Header)) {
		for _, value := range resp.Header[key] {
			emit(&core.HTTPEvent{Kind: core.HTTPHeaderReceived, HeaderKey: key, HeaderValue: value, StatusCode: status})
		}
	}

	chunk := make([]byte, readChunk)
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			emit(&core.HTTPEvent{Kind: core.HTTPData, Data: chunk[:n], StatusCode: status})
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(status, fmt.Errorf("read body: %w", err))
		}
	}

	emit(&core.HTTPEvent{Kind: core.HTTPFinish, StatusCode: status})
	if err := resp.Body.Close(); err != nil {
		return fail(status, fmt.Errorf("close body: %w", err))
	}
	emit(&core.HTTPEvent{Kind: core.HTTPDisconnected, StatusCode: status})
	return status, nil
}
