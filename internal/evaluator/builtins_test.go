package evaluator

import (
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/pipeline"
)

func dirOf(t *testing.T, env *Environment) string {
	t.Helper()
	dir, ok := env.GetString(config.DirName)
	if !ok {
		t.Fatal("DIR not set")
	}
	return dir
}

// newSiteEnv returns a template scope with SRC_ROOT at DIR and DIST_ROOT in
// a separate temporary directory.
func newSiteEnv(t *testing.T) (*Environment, string, string) {
	t.Helper()
	env := newTestEnv(t)
	src := dirOf(t, env)
	dist := t.TempDir()
	env.Set(config.SrcRootName, str(src))
	env.Set(config.DistRootName, str(dist))
	env.Set(config.RootPathName, str("/"))
	return env, src, dist
}

func renderCases(t *testing.T, setup func(t *testing.T) *Environment, tests []struct{ input, want string }) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := render(t, setup(t), tt.input); got != tt.want {
				t.Errorf("render(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStringsBuiltins(t *testing.T) {
	renderCases(t, newTestEnv, []struct{ input, want string }{
		{"{lower('AbC')}", "abc"},
		{"{upper('abc')}", "ABC"},
		{"{title('hello world')}", "Hello World"},
		{"{starts_with('foobar', 'foo')}", "true"},
		{"{ends_with('foobar', 'foo')}", ""},
		{"{replace('a-b-c', '-', '+')}", "a+b+c"},
		{"{split('a,b,c', ',') | join('|')}", "a|b|c"},
		{"{split('', ',') | length}", "0"},
		{"{trim('  x  ')}|", "x|"},
		{"{trim('--x--', '-')}", "x"},
		{"{contains('haystack', 'st')}", "true"},
		{"{contains([1, 2], 3)}", ""},
		{"{contains({a: 1}, symbol('a'))}", "true"},
		{"{format_number(1234567)}", "1,234,567"},
		{"{json({b: [1, 'x'], a: nil})}", `{"b":[1,"x"],"a":null}`},
		{"{yaml({b: 1, a: 'x'})}", "b: 1\na: x\n"},
		{"{uuid('plet') == uuid('plet')}", "true"},
		{"{uuid() | length}", "36"},
	})
}

func TestCollectionsBuiltins(t *testing.T) {
	renderCases(t, newTestEnv, []struct{ input, want string }{
		{"{length('abc')}", "3"},
		{"{keys({a: 1, b: 2}) | join(',')}", "a,b"},
		{"{values({a: 1, b: 2}) | join(',')}", "1,2"},
		{"{[1, 2, 3] | map((x) => x * 2) | join(',')}", "2,4,6"},
		{"{['a', 'b'] | map((x, i) => i + x) | join(',')}", "0a,1b"},
		{"{string(map({a: 1}, (v) => v + 1))}", "{a: 2}"},
		{"{[1, 2, 3, 4] | filter((x) => x % 2 == 0) | join(',')}", "2,4"},
		{"{[1, 2, 3, 4] | exclude((x) => x % 2 == 0) | join(',')}", "1,3"},
		{"{[{n: 2}, {n: 1}] | sort((x) => x.n) | map((x) => x.n) | join(',')}", "1,2"},
		{"{[3, 'b', 1, 'a'] | sort | join(',')}", "1,3,a,b"},
		{"{[1, 2, 3] | reverse | join(',')}", "3,2,1"},
		{"{[1, 2, 3] | take(2) | join(',')}", "1,2"},
		{"{[1, 2, 3] | drop(2) | join(',')}", "3"},
		{"{[1] | take(5) | join(',')}", "1"},
		{"{a = [1]}{push(a, 2) | join(',')}", "1,2"},
		{"{a = [1, 2]}{pop(a)}{length(a)}", "21"},
		{"{pop([]) == nil}", "true"},
	})
}

func TestDatetimeBuiltins(t *testing.T) {
	prev := timeNow
	timeNow = func() time.Time { return time.Date(2020, 1, 2, 12, 0, 0, 0, time.Local) }
	defer func() { timeNow = prev }()

	renderCases(t, newTestEnv, []struct{ input, want string }{
		{"{date(now(), '%Y-%m-%d')}", "2020-01-02"},
		{"{date(time('2021-03-15T12:00:00'), '%Y-%m-%d %H:%M')}", "2021-03-15 12:00"},
		{"{date('2021-03-15T12:00:00', '%B', 'de')}", "März"},
	})

	_, err := evalSource(t, newTestEnv(t), pipeline.ModeScript, "date(now(), '%B', 'xx')")
	if err == nil {
		t.Error("expected error for unknown locale")
	}
}

func TestParseISO8601(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2021-03-15", time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2021-03-15T12:00:00Z", time.Date(2021, 3, 15, 12, 0, 0, 0, time.UTC)},
		{"2021-03-15T12:00:00+02:00", time.Date(2021, 3, 15, 10, 0, 0, 0, time.UTC)},
		{"2021-03-15T12:00:00.123-0130", time.Date(2021, 3, 15, 13, 30, 0, 0, time.UTC)},
		{"2021-03-15 12:30", time.Date(2021, 3, 15, 12, 30, 0, 0, time.Local)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseISO8601(tt.input); !got.Equal(tt.want) {
				t.Errorf("ParseISO8601(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestHtmlBuiltins(t *testing.T) {
	renderCases(t, newTestEnv, []struct{ input, want string }{
		{`{h('<a href="x">')}`, "&lt;a href=&quot;x&quot;&gt;"},
		{`{'<p class="a">x<br>y</p>' | parse_html | html}`, `<p class="a">x<br>y</p>`},
		{`{'<script>a < b</script>' | parse_html | html}`, `<script>a < b</script>`},
		{`{'<h1>T</h1><p>b</p>' | no_title}`, "<p>b</p>"},
		{`{'<p>b</p>' | no_title}`, "<p>b</p>"},
	})
}

func TestLinks(t *testing.T) {
	env, src, dist := newSiteEnv(t)
	env.Set(config.RootPathName, str("/sub/"))
	env.Set(config.RootURLName, str("https://example.com"))
	reverse := env.Arena().NewObject()
	reverse.Put(str("posts/a.md"), str("blog/a/index.html"))
	env.Set(config.ReversePathsName, reverse)
	writeFile(t, filepath.Join(src, "style.css"), "body {}")

	var notified []string
	observer := &Builtin{Name: "observer", Fn: func(e *Evaluator, env *Environment, args []Value) (Value, error) {
		notified = append(notified, Display(args[0]))
		return NIL, nil
	}}
	env.Set(config.OutputObserversName, env.Arena().ArrayOf(observer))

	got := render(t, env, `{'<a href="pletlink:posts/a.md">a</a><link href="pletasset:style.css">' | links}`)
	want := `<a href="/sub/blog/a">a</a><link href="/sub/assets/style.css">`
	if got != want {
		t.Errorf("links = %q, want %q", got, want)
	}
	got = render(t, env, `{'<a href="pletlink:about.html">about</a>' | urls}`)
	if want := `<a href="https://example.com/about.html">about</a>`; got != want {
		t.Errorf("urls = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(dist, "assets", "style.css")); err != nil {
		t.Errorf("asset not copied: %v", err)
	}
	wantNotified := []string{filepath.Join(dist, "assets", "style.css")}
	if diff := cmp.Diff(wantNotified, notified); diff != "" {
		t.Errorf("notified paths mismatch (-want +got):\n%s", diff)
	}
	render(t, env, `{'<link href="pletasset:style.css">' | links}`)
	if len(notified) != 1 {
		t.Errorf("unchanged asset must not notify again, got %v", notified)
	}
}

func TestTemplateBuiltins(t *testing.T) {
	setup := func(t *testing.T) *Environment {
		env, _, _ := newSiteEnv(t)
		env.Set(config.RootPathName, str("/sub/"))
		env.Set(config.PathName, str("blog/index.html"))
		return env
	}
	renderCases(t, setup, []struct{ input, want string }{
		{"{link('about.html')}", "/sub/about.html"},
		{"{link()}", "/sub/blog"},
		{"{link('index.html')}", "/sub/"},
		{"{is_current('/blog/')}", "true"},
		{"{is_current('about.html')}", ""},
		{"<a{href('blog/index.html')}>", `<a href="/sub/blog" class="current">`},
		{"<a{href('about.html', 'nav')}>", `<a href="/sub/about.html" class="nav">`},
		{"{page_link(1, 'blog%page%.html')}", "/sub/blog.html"},
		{"{page_link(3, 'blog%page%.html')}", "/sub/blog/page3.html"},
		{"{page_list(1, 1, 3) | join(',')}", "1,2,3"},
	})
}

func TestEmbedAndRead(t *testing.T) {
	env := newTestEnv(t)
	dir := dirOf(t, env)
	writeFile(t, filepath.Join(dir, "part.plet"), "[{name}]")
	writeFile(t, filepath.Join(dir, "data.txt"), "raw")
	got := render(t, env, "{embed('part.plet', {name: 'x'})}{read('data.txt')}")
	if got != "[x]raw" {
		t.Errorf("got %q", got)
	}
}

func TestAssetLink(t *testing.T) {
	env, src, dist := newSiteEnv(t)
	writeFile(t, filepath.Join(src, "css", "main.css"), "body {}")
	got := render(t, env, "{asset_link('css/main.css')}")
	if got != "/css/main.css" {
		t.Errorf("asset_link = %q", got)
	}
	data, err := os.ReadFile(filepath.Join(dist, "css", "main.css"))
	if err != nil || string(data) != "body {}" {
		t.Errorf("asset not copied: %q, %v", data, err)
	}
}

func siteMapPages(t *testing.T, env *Environment) []*Page {
	t.Helper()
	v, _ := env.Get(config.SiteMapName)
	arr, ok := v.(*Array)
	if !ok {
		t.Fatalf("SITE_MAP is %s", TypeName(v))
	}
	pages := make([]*Page, 0, arr.Len())
	for _, elem := range arr.Elements {
		page, err := DecodePage(env, elem)
		if err != nil {
			t.Fatal(err)
		}
		pages = append(pages, page)
	}
	return pages
}

func TestAddPage(t *testing.T) {
	env, src, dist := newSiteEnv(t)
	ImportSystem("sitemap", env)
	writeFile(t, filepath.Join(src, "about.plet"), "about")
	script(t, env, "add_page('/about/index.html', 'about.plet', {title: 'About'})")
	pages := siteMapPages(t, env)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	p := pages[0]
	if p.Kind != PageTemplate || p.WebPath != "about/index.html" {
		t.Errorf("unexpected page %+v", p)
	}
	if p.Src != filepath.Join(src, "about.plet") || p.Dest != filepath.Join(dist, "about", "index.html") {
		t.Errorf("unexpected paths %s -> %s", p.Src, p.Dest)
	}
	if title, _ := stringField(env, p.Data, "title"); title != "About" {
		t.Errorf("title = %q", title)
	}

	_, err := evalSource(t, env, pipeline.ModeScript, "add_page('x.html', 'missing.plet')")
	if err == nil {
		t.Error("expected error for missing template")
	}
	_, err = evalSource(t, env, pipeline.ModeScript, "add_page('../x.html', 'about.plet')")
	if err == nil {
		t.Error("expected error for destination outside DIST_ROOT")
	}
}

func TestPaginate(t *testing.T) {
	env, src, _ := newSiteEnv(t)
	ImportSystem("sitemap", env)
	writeFile(t, filepath.Join(src, "list.plet"), "{PAGE.page}")
	script(t, env, "paginate([1, 2, 3, 4, 5], 2, 'blog%page%/index.html', 'list.plet', {title: 'Blog'})")
	pages := siteMapPages(t, env)
	var paths []string
	for _, p := range pages {
		paths = append(paths, p.WebPath)
	}
	want := []string{"blog/index.html", "blog/page2/index.html", "blog/page3/index.html"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	last := pages[2]
	if title, _ := stringField(env, last.Data, "title"); title != "Blog" {
		t.Errorf("title = %q", title)
	}
	v, _ := field(env, last.Data, config.PageName)
	page := v.(*Object)
	items, _ := field(env, page, "items")
	if got := items.Inspect(); got != "[5]" {
		t.Errorf("items = %s", got)
	}
	for name, want := range map[string]int64{"page": 3, "pages": 3, "total": 5, "offset": 4} {
		n, _ := field(env, page, name)
		if n, ok := n.(*Integer); !ok || n.Value != want {
			t.Errorf("PAGE.%s = %v, want %d", name, n, want)
		}
	}
}

func TestPaginateEmpty(t *testing.T) {
	env, src, _ := newSiteEnv(t)
	ImportSystem("sitemap", env)
	writeFile(t, filepath.Join(src, "list.plet"), "")
	script(t, env, "paginate([], 10, 'list%page%.html', 'list.plet')")
	if pages := siteMapPages(t, env); len(pages) != 1 || pages[0].WebPath != "list.html" {
		t.Errorf("expected a single empty page, got %+v", pages)
	}
}

func TestAddStatic(t *testing.T) {
	env, src, dist := newSiteEnv(t)
	ImportSystem("sitemap", env)
	writeFile(t, filepath.Join(src, "static", "a.css"), "a")
	writeFile(t, filepath.Join(src, "static", ".hidden"), "h")
	writeFile(t, filepath.Join(src, "static", "sub", "b.js"), "b")
	script(t, env, "add_static('static')")
	var got [][2]string
	for _, p := range siteMapPages(t, env) {
		if p.Kind != PageCopy {
			t.Errorf("expected copy page, got %+v", p)
		}
		got = append(got, [2]string{p.Src, p.Dest})
	}
	want := [][2]string{
		{filepath.Join(src, "static", "a.css"), filepath.Join(dist, "static", "a.css")},
		{filepath.Join(src, "static", "sub", "b.js"), filepath.Join(dist, "static", "sub", "b.js")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("static pages mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePageShortForm(t *testing.T) {
	env, src, dist := newSiteEnv(t)
	v := script(t, env, "{path: 'p.plet', dest: '/p.html', extra: 1}")
	page, err := DecodePage(env, v)
	if err != nil {
		t.Fatal(err)
	}
	if page.Kind != PageTemplate || page.WebPath != "p.html" {
		t.Errorf("unexpected page %+v", page)
	}
	if page.Src != filepath.Join(src, "p.plet") || page.Dest != filepath.Join(dist, "p.html") {
		t.Errorf("unexpected paths %s -> %s", page.Src, page.Dest)
	}
	if _, ok := field(env, page.Data, "extra"); !ok {
		t.Error("short form object must seed the page data")
	}
	if _, err := DecodePage(env, str("x")); err == nil {
		t.Error("expected error for non-object page")
	}
	outside := script(t, env, "{path: 'p.plet', dest: '../x.html'}")
	if _, err := DecodePage(env, outside); err == nil {
		t.Error("expected error for destination outside the output directory")
	}
}

func TestContentmap(t *testing.T) {
	env := newTestEnv(t)
	dir := dirOf(t, env)
	writeFile(t, filepath.Join(dir, "posts", "b.md"), "{title: 'Hello'}\n# Hi\n")
	writeFile(t, filepath.Join(dir, "posts", "a.txt"), "---\ntitle: Plain\ntags: [x, y]\n---\nbody")
	writeFile(t, filepath.Join(dir, "posts", ".draft.md"), "draft")
	writeFile(t, filepath.Join(dir, "posts", "old", "c.md"), "c")

	got := render(t, env, "{list_content('posts', {suffix: '.md'}) | map((c) => c.name) | join(',')}")
	if got != "c.md,b.md" && got != "b.md,c.md" {
		t.Errorf("list_content = %q", got)
	}
	got = render(t, env, "{list_content('posts', {recursive: false}) | map((c) => c.name) | join(',')}")
	if got != "a.txt,b.md" {
		t.Errorf("non-recursive list_content = %q", got)
	}

	got = render(t, env, "{p = read_content('posts/b.md')}{p.title}|{p.content}")
	if got != "Hello|<h1>Hi</h1>\n" {
		t.Errorf("markdown content = %q", got)
	}
	got = render(t, env, "{p = read_content('posts/a.txt')}{p.title}|{p.tags | join(',')}|{p.content}")
	if got != "Plain|x,y|body" {
		t.Errorf("yaml front matter content = %q", got)
	}
}

func TestMarkdown(t *testing.T) {
	got := render(t, newTestEnv(t), "{markdown('*a* and ~~b~~')}")
	if got != "<p><em>a</em> and <del>b</del></p>\n" {
		t.Errorf("markdown = %q", got)
	}
}

func TestShellEscape(t *testing.T) {
	tests := []struct {
		input Value
		want  string
	}{
		{str("plain"), "'plain'"},
		{str("it's"), `'it'\''s'`},
		{str("a\x00b"), "'ab'"},
		{integer(5), "'5'"},
	}
	for _, tt := range tests {
		if got := ShellEscape(tt.input); got != tt.want {
			t.Errorf("ShellEscape(%s) = %s, want %s", tt.input.Inspect(), got, tt.want)
		}
	}
}

func TestExec(t *testing.T) {
	env := newTestEnv(t)
	writeFile(t, filepath.Join(dirOf(t, env), "here.txt"), "x")
	if got := render(t, env, "{exec('echo', 'a  b', \"it's\")}"); got != "a  b it's\n" {
		t.Errorf("exec = %q", got)
	}
	if got := render(t, env, "{exec('ls')}"); !strings.Contains(got, "here.txt") {
		t.Errorf("exec must run in DIR, got %q", got)
	}
}

func TestSqlQuery(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(dirOf(t, env), "site.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		"CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT, score REAL)",
		"INSERT INTO posts (title, score) VALUES ('first', 1.5), ('second', NULL), ('third', 3)",
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	got := render(t, env, "{for row in sql_query('site.db', 'SELECT id, title FROM posts WHERE id > ? ORDER BY id', 1)}{row.id}:{row.title};{end for}")
	if got != "2:second;3:third;" {
		t.Errorf("sql_query = %q", got)
	}
	got = render(t, env, "{sql_query('site.db', 'SELECT score FROM posts WHERE id = 2')[0].score == nil}")
	if got != "true" {
		t.Errorf("NULL must map to nil, got %q", got)
	}
	_, rerr := evalSource(t, env, pipeline.ModeScript, "sql_query('site.db', 'SELECT * FROM missing')")
	if rerr == nil {
		t.Error("expected error for invalid query")
	}
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestImageInfo(t *testing.T) {
	env := newTestEnv(t)
	writePNG(t, filepath.Join(dirOf(t, env), "pic.png"), 100, 50)
	writeFile(t, filepath.Join(dirOf(t, env), "notes.txt"), "text")
	got := render(t, env, "{i = image_info('pic.png')}{i.width}x{i.height} {i.type}")
	if got != "100x50 png" {
		t.Errorf("image_info = %q", got)
	}
	if got := render(t, env, "{image_info('notes.txt') == nil}"); got != "true" {
		t.Errorf("image_info of text file = %q", got)
	}
}

func TestImages(t *testing.T) {
	env, src, dist := newSiteEnv(t)
	writePNG(t, filepath.Join(src, "pic.png"), 100, 50)
	writePNG(t, filepath.Join(src, "small.png"), 10, 10)

	got := render(t, env, `{'<img src="pletasset:pic.png">' | images(40, 40) | links}`)
	want := `<a href="/assets/pic.png"><img src="/assets/pic.40x20q100.png" width="40" height="20"></a>`
	if got != want {
		t.Errorf("images = %q, want %q", got, want)
	}
	f, err := os.Open(filepath.Join(dist, "assets", "pic.40x20q100.png"))
	if err != nil {
		t.Fatalf("scaled image missing: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil || cfg.Width != 40 || cfg.Height != 20 {
		t.Errorf("scaled image is %dx%d, %v", cfg.Width, cfg.Height, err)
	}
	if _, err := os.Stat(filepath.Join(dist, "assets", "pic.png")); err != nil {
		t.Errorf("full size copy missing: %v", err)
	}

	got = render(t, env, `{'<img src="pletasset:small.png">' | images | links}`)
	if want := `<img src="/assets/small.png" width="10" height="10">`; got != want {
		t.Errorf("small image = %q, want %q", got, want)
	}

	env.Set(config.PreserveLosslessName, FALSE)
	got = render(t, env, `{'<img src="pletasset:pic.png">' | images(40, 40, 80, false)}`)
	if want := `<img src="pletlink:assets/pic.40x20q80.jpg" width="40" height="20">`; got != want {
		t.Errorf("lossy image = %q, want %q", got, want)
	}
}
