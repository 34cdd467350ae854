package stream

import (
	"io"
	"net/http"

	"golang.org/x/net/http2"
)

// ConfigureHTTP2 enables HTTP/2 on srv. The streaming state machine itself
// has no HTTP dependency — Push/PopSegment work over any byte source — but
// a sample ingestion front-end that wants to deliver committed segments to
// a client with the lowest possible latency prefers HTTP/2 framing over
// HTTP/1.1 chunked transfer encoding, the same way the teacher's SSE
// streaming benefited from a framed transport. This is a thin helper, not a
// bundled server: callers own their own *http.Server and *http.ServeMux.
func ConfigureHTTP2(srv *http.Server) error {
	return http2.ConfigureServer(srv, &http2.Server{})
}

// Handler adapts a streaming Engine into an http.Handler: it reads the
// request body in chunks, pushes each chunk into a fresh Engine built by
// New, and flushes every committed segment to the response body as soon as
// PopSegment yields one, rather than buffering the whole redacted document.
// New is called once per request so concurrent requests never share a
// streaming Engine's buffer (§5: "Document context: not shared across
// detectors").
type Handler struct {
	New func() *Engine
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	eng := h.New()
	flusher, canFlush := w.(http.Flusher)

	buf := make([]byte, 4096)
	for {
		n, err := r.Body.Read(buf)
		if n > 0 {
			eng.Push(string(buf[:n]))
			h.flushReady(w, eng, flusher, canFlush)
		}
		if err != nil {
			if err != io.EOF {
				http.Error(w, "read request body: "+err.Error(), http.StatusBadRequest)
				return
			}
			break
		}
	}

	for {
		seg, ok := eng.PopSegment(true)
		if !ok {
			break
		}
		_, _ = io.WriteString(w, seg)
	}
	if canFlush {
		flusher.Flush()
	}
}

func (h Handler) flushReady(w http.ResponseWriter, eng *Engine, flusher http.Flusher, canFlush bool) {
	for {
		seg, ok := eng.PopSegment(false)
		if !ok {
			return
		}
		_, _ = io.WriteString(w, seg)
		if canFlush {
			flusher.Flush()
		}
	}
}
