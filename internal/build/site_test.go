package build

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/google/go-cmp/cmp"

	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/evaluator"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readOutput(t *testing.T, project *config.Project, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(project.DistDir(), filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("reading output %s: %v", name, err)
	}
	return string(data)
}

func newTestSite(t *testing.T, files map[string]string) (*Site, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)
	project, err := config.LoadProject(root)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return NewSite(project, diagnostics.NewReporter(&out)), &out
}

func TestBuildSiteMapShortForm(t *testing.T) {
	site, _ := newTestSite(t, map[string]string{
		"index.plet": "SITE_MAP = [{path: 'p.plet', dest: 'p.html'}]",
		"p.plet":     "hi",
	})
	failed, err := site.Build(context.Background())
	if err != nil || failed != 0 {
		t.Fatalf("Build() = %d, %v", failed, err)
	}
	if got := readOutput(t, site.Project, "p.html"); got != "hi" {
		t.Errorf("p.html = %q, want %q", got, "hi")
	}
}

var fixture = map[string]string{
	"index.plet": `add_static('static')
add_page('index.html', 'templates/home.plet', {title: 'Home'})
posts = list_content('posts', {suffix: '.md'}) | map((c) => read_content(c.path))
paginate(posts, 1, 'blog%page%/index.html', 'templates/list.plet', {title: 'Blog'})
SITE_MAP = push(SITE_MAP, {path: 'p.plet', dest: 'p.html'})
`,
	"templates/layout.plet": "<html><body><h1>{title}</h1>{CONTENT}</body></html>",
	"templates/home.plet":   "{LAYOUT = 'layout.plet'}<p>Welcome to {link()}</p>",
	"templates/list.plet":   "{LAYOUT = 'layout.plet'}{for post in PAGE.items}<article>{post.title}: {post.content}</article>{end for}",
	"posts/a.md":            "{title: 'First'}\nHello *world*",
	"posts/b.md":            "---\ntitle: Second\n---\nBye",
	"static/style.css":      "body {}",
	"p.plet":                "hi",
}

func TestBuildFixture(t *testing.T) {
	site, out := newTestSite(t, fixture)
	failed, err := site.Build(context.Background())
	if err != nil || failed != 0 {
		t.Fatalf("Build() = %d, %v\n%s", failed, err, out)
	}

	var webPaths []string
	for _, page := range site.Pages() {
		webPaths = append(webPaths, page.WebPath)
	}
	want := []string{"", "index.html", "blog/index.html", "blog/page2/index.html", "p.html"}
	if diff := cmp.Diff(want, webPaths); diff != "" {
		t.Errorf("site map mismatch (-want +got):\n%s", diff)
	}

	home := readOutput(t, site.Project, "index.html")
	if home != "<html><body><h1>Home</h1><p>Welcome to /</p></body></html>" {
		t.Errorf("index.html = %q", home)
	}
	blog := readOutput(t, site.Project, "blog/index.html")
	if blog != "<html><body><h1>Blog</h1><article>First: <p>Hello <em>world</em></p>\n</article></body></html>" {
		t.Errorf("blog/index.html = %q", blog)
	}
	if got := readOutput(t, site.Project, "static/style.css"); got != "body {}" {
		t.Errorf("static/style.css = %q", got)
	}
	if !strings.Contains(out.String(), "[5/5] Processing p.html") {
		t.Errorf("missing progress output:\n%s", out)
	}

	snaps.MatchSnapshot(t, home, blog, readOutput(t, site.Project, "blog/page2/index.html"))
}

func TestBuildSkipsFailingPages(t *testing.T) {
	site, out := newTestSite(t, map[string]string{
		"index.plet": "SITE_MAP = [{path: 'bad.plet', dest: 'bad.html'}, {path: 'missing.plet', dest: 'missing.html'}, {path: 'good.plet', dest: 'good.html'}]",
		"bad.plet":   "{1 / 0}",
		"good.plet":  "ok",
	})
	failed, err := site.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if failed != 2 {
		t.Errorf("expected 2 failed pages, got %d", failed)
	}
	if got := readOutput(t, site.Project, "good.html"); got != "ok" {
		t.Errorf("good.html = %q", got)
	}
	if _, err := os.Stat(filepath.Join(site.Project.DistDir(), "bad.html")); !os.IsNotExist(err) {
		t.Error("failing page must not be written")
	}
	if !strings.Contains(out.String(), "division by zero") {
		t.Errorf("expected runtime error in output:\n%s", out)
	}
}

func TestBuildIndexErrors(t *testing.T) {
	tests := map[string]string{
		"runtime": "undefined_function()",
		"syntax":  "x = (",
		"sitemap": "SITE_MAP = 5",
	}
	for name, index := range tests {
		t.Run(name, func(t *testing.T) {
			site, _ := newTestSite(t, map[string]string{"index.plet": index})
			if _, err := site.Build(context.Background()); err != ErrIndex {
				t.Errorf("expected ErrIndex, got %v", err)
			}
		})
	}
}

func TestOutputObservers(t *testing.T) {
	site, _ := newTestSite(t, map[string]string{
		"index.plet": "SITE_MAP = [{path: 'p.plet', dest: 'p.html'}]\nOUTPUT_OBSERVERS = push(OUTPUT_OBSERVERS, (path) => add_reverse(path, 'seen'))",
		"p.plet":     "hi",
	})
	if _, err := site.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	v, _ := site.index.Get(config.ReversePathsName)
	reverse := v.(*evaluator.Object)
	dest := filepath.Join(site.Project.DistDir(), "p.html")
	if _, ok := reverse.Get(&evaluator.String{Value: dest}); !ok {
		t.Errorf("observer was not called with %s: %s", dest, reverse.Inspect())
	}
}

func TestLookupAndRender(t *testing.T) {
	site, _ := newTestSite(t, fixture)
	if err := site.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	page := site.Lookup("/blog/page2/")
	if page == nil {
		t.Fatal("page not found")
	}
	got, err := site.Render(page)
	if err != nil {
		t.Fatal(err)
	}
	if want := "<html><body><h1>Blog</h1><article>Second: <p>Bye</p>\n</article></body></html>"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if site.Lookup("static/style.css") == nil {
		t.Error("copied files must be found by destination")
	}
	if site.Lookup("nope.html") != nil {
		t.Error("unexpected page")
	}
}

func TestPagesRenderInFreshScope(t *testing.T) {
	site, out := newTestSite(t, map[string]string{
		"index.plet": "counter = 0\nlist = [1]\nexport site_name = 'Blog'\nSITE_MAP = [{path: 'p.plet', dest: 'a.html'}, {path: 'p.plet', dest: 'b.html'}, {path: 'c.plet', dest: 'c.html'}]",
		"p.plet":     "{list = [1, 2, 3]}{counter = 1}{site_name}:{counter}/{length(list)}{site_name = 'x'}",
		"c.plet":     "{counter}",
	})
	failed, err := site.Build(context.Background())
	if err != nil || failed != 1 {
		t.Fatalf("Build() = %d, %v\n%s", failed, err, out)
	}
	for _, name := range []string{"a.html", "b.html"} {
		if got := readOutput(t, site.Project, name); got != "Blog:1/3" {
			t.Errorf("%s = %q, want %q", name, got, "Blog:1/3")
		}
	}
	if v, _ := site.index.Get("list"); v.(*evaluator.Array).Len() != 1 {
		t.Errorf("index list changed: %s", v.Inspect())
	}
	if name, _ := site.index.GetString("site_name"); name != "Blog" {
		t.Errorf("index site_name = %q", name)
	}
}
