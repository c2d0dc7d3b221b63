package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/nielssp/plet/internal/config"
)

type reload struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newReload() *reload {
	return &reload{
		subs: map[chan struct{}]struct{}{},
	}
}

func (h *reload) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *reload) unsubscribe(ch chan struct{}) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *reload) notify() {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *reload) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *Server) serveReloadSSE(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	ch := s.reload.subscribe()
	defer s.reload.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-req.Context().Done():
			return
		case <-ch:
			fmt.Fprintf(w, "event: %s\ndata: 1\n\n", config.ReloadEvent)
			flusher.Flush()
		}
	}
}

const reloadScript = "<script>new EventSource('" + config.ReloadEndpoint + "')" +
	".addEventListener('" + config.ReloadEvent + "', function () { location.reload(); });</script>"

func appendReloadScript(html string) string {
	if strings.Contains(html, config.ReloadEndpoint) {
		return html
	}
	if i := strings.LastIndex(html, "</body>"); i >= 0 {
		return html[:i] + reloadScript + html[i:]
	}
	return html + reloadScript
}
