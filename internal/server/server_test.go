package server

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/nielssp/plet/internal/build"
	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T, files map[string]string) (*Server, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		writeFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
	}
	project, err := config.LoadProject(root)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return New(build.NewSite(project, diagnostics.NewReporter(&out))), &out
}

func get(t *testing.T, s *Server, method, target string) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec.Result()
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

var site = map[string]string{
	"index.plet": `add_static('static')
add_page('index.html', 'templates/home.plet', {title: 'Home'})
SITE_MAP = push(SITE_MAP, {path: 'bad.plet', dest: 'bad.html'})
SITE_MAP = push(SITE_MAP, {path: 'feed.plet', dest: 'feed.xml'})
`,
	"templates/layout.plet": "<html><body><h1>{title}</h1>{CONTENT}</body></html>",
	"templates/home.plet":   "{LAYOUT = 'layout.plet'}<p>Home</p>",
	"bad.plet":              "{1 / 0}",
	"feed.plet":             "<feed></feed>",
	"static/style.css":      "body {}",
}

func TestServePage(t *testing.T) {
	s, _ := newTestServer(t, site)

	resp := get(t, s, http.MethodGet, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	html := body(t, resp)
	if !strings.Contains(html, config.ReloadEndpoint) || !strings.HasSuffix(html, "</script></body></html>") {
		t.Errorf("reload script not injected: %s", html)
	}
	snaps.MatchSnapshot(t, html)

	resp = get(t, s, http.MethodGet, "/index.html")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /index.html = %d", resp.StatusCode)
	}

	resp = get(t, s, http.MethodGet, "/feed.xml")
	if got := body(t, resp); got != "<feed></feed>" {
		t.Errorf("GET /feed.xml = %q", got)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/xml" {
		t.Errorf("feed Content-Type = %q", ct)
	}
}

func TestServeStatic(t *testing.T) {
	s, _ := newTestServer(t, site)

	resp := get(t, s, http.MethodGet, "/static/style.css")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /static/style.css = %d", resp.StatusCode)
	}
	if got := body(t, resp); got != "body {}" {
		t.Errorf("body = %q", got)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/css" {
		t.Errorf("Content-Type = %q", ct)
	}

	writeFile(t, filepath.Join(s.Site.Project.DistDir(), "extra", "index.html"), "built")
	resp = get(t, s, http.MethodGet, "/extra/")
	if got := body(t, resp); resp.StatusCode != http.StatusOK || got != "built" {
		t.Errorf("GET /extra/ = %d %q", resp.StatusCode, got)
	}

	if resp := get(t, s, http.MethodGet, "/missing.html"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /missing.html = %d", resp.StatusCode)
	}
	if resp := get(t, s, http.MethodGet, "/../index.plet"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("paths outside dist must not be served, got %d", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, site)
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		resp := get(t, s, method, "/")
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("%s / = %d", method, resp.StatusCode)
		}
		if allow := resp.Header.Get("Allow"); allow != "GET" {
			t.Errorf("Allow = %q", allow)
		}
	}
}

func TestServeErrors(t *testing.T) {
	s, out := newTestServer(t, site)
	resp := get(t, s, http.MethodGet, "/bad.html")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("GET /bad.html = %d", resp.StatusCode)
	}
	if !strings.Contains(out.String(), "division by zero") {
		t.Errorf("render error not reported:\n%s", out)
	}

	broken, _ := newTestServer(t, map[string]string{"index.plet": "undefined_function()"})
	if resp := get(t, broken, http.MethodGet, "/"); resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("broken index: GET / = %d", resp.StatusCode)
	}
}

func TestRefresh(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{
		"index.plet": "SITE_MAP = [{path: 'p.plet', dest: 'p.html'}]",
		"p.plet":     "one",
	})
	page := filepath.Join(s.Site.Project.Root, "p.plet")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(page, past, past); err != nil {
		t.Fatal(err)
	}

	if got := body(t, get(t, s, http.MethodGet, "/p.html")); !strings.HasPrefix(got, "one") {
		t.Fatalf("first render = %q", got)
	}
	if s.Refresh(false) {
		t.Error("no changes expected")
	}

	writeFile(t, page, "two")
	if !s.Refresh(false) {
		t.Fatal("expected change to be detected")
	}
	if got := body(t, get(t, s, http.MethodGet, "/p.html")); !strings.HasPrefix(got, "two") {
		t.Errorf("render after change = %q", got)
	}
	if !s.Refresh(true) {
		t.Error("structural changes always refresh")
	}
}

func TestReloadEvents(t *testing.T) {
	s, _ := newTestServer(t, site)
	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := http.Get(ts.URL + config.ReloadEndpoint)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if s.reload.subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", s.reload.subscribers())
	}

	s.reload.notify()
	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()
	select {
	case line := <-lines:
		if line != "event: "+config.ReloadEvent {
			t.Errorf("unexpected line %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestAppendReloadScript(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"body", "<body>x</body>", "<body>x" + reloadScript + "</body>"},
		{"no body", "x", "x" + reloadScript},
		{"last body", "<p></body></p><body></body>", "<p></body></p><body>" + reloadScript + "</body>"},
		{"already injected", "x" + reloadScript, "x" + reloadScript},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := appendReloadScript(tt.in); got != tt.want {
				t.Errorf("appendReloadScript(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a/index.html": "text/html; charset=utf-8",
		"style.CSS":    "text/css",
		"app.js":       "application/javascript",
		"pic.jpeg":     "image/jpeg",
		"pic.webp":     "image/webp",
		"favicon.ico":  "image/x-icon",
		"feed.rss":     "application/rss+xml",
		"feed.atom":    "application/atom+xml",
		"logo.svg":     "image/svg+xml",
		"data.json":    "application/json",
		"README":       "text/plain",
	}
	for path, want := range tests {
		if got := ContentType(path); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", path, got, want)
		}
	}
}
