// Package lipsum generates placeholder Markdown content files.
package lipsum

import (
	"bytes"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

var words = []string{
	"a", "ac", "accumsan", "ad", "adipiscing", "aenean", "aliquam", "aliquet", "amet", "ante",
	"aptent", "arcu", "at", "auctor", "augue", "bibendum", "blandit", "class", "commodo", "condimentum",
	"congue", "consectetur", "consequat", "conubia", "convallis", "cras", "cubilia", "curabitur", "curae",
	"cursus", "dapibus", "diam", "dictum", "dictumst", "dolor", "donec", "dui", "duis", "egestas", "eget",
	"eleifend", "elementum", "elit", "enim", "erat", "eros", "est", "et", "etiam", "eu", "euismod",
	"facilisis", "fames", "faucibus", "felis", "fermentum", "feugiat", "fringilla", "fusce", "gravida",
	"habitant", "habitasse", "hac", "hendrerit", "himenaeos", "iaculis", "id", "imperdiet", "in",
	"inceptos", "integer", "interdum", "ipsum", "justo", "lacinia", "lacus", "laoreet", "lectus", "leo",
	"libero", "ligula", "litora", "lobortis", "lorem", "luctus", "maecenas", "magna", "malesuada",
	"massa", "mattis", "mauris", "metus", "mi", "molestie", "mollis", "morbi", "nam", "nec", "neque",
	"netus", "nibh", "nisi", "nisl", "non", "nostra", "nulla", "nullam", "nunc", "odio", "orci", "ornare",
	"pellentesque", "per", "pharetra", "phasellus", "placerat", "platea", "porta", "porttitor", "posuere",
	"potenti", "praesent", "pretium", "primis", "proin", "pulvinar", "purus", "quam", "quis", "quisque",
	"rhoncus", "risus", "rutrum", "sagittis", "sapien", "scelerisque", "sed", "sem", "semper", "senectus",
	"sit", "sociosqu", "sodales", "sollicitudin", "suscipit", "suspendisse", "taciti", "tellus", "tempor",
	"tempus", "tincidunt", "torquent", "tortor", "tristique", "turpis", "ullamcorper", "ultrices",
	"ultricies", "urna", "ut", "varius", "vehicula", "vel", "velit", "venenatis", "vestibulum", "vitae",
	"vivamus", "viverra", "volutpat", "vulputate",
}

// publishedRange bounds how far back the generated publication date goes.
const publishedRange = 5 * 365 * 24 * time.Hour

// Generator produces random posts. The zero value is not usable; create
// one with New.
type Generator struct {
	rand *rand.Rand
	now  func() time.Time
}

func New() *Generator {
	return &Generator{
		rand: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		now:  time.Now,
	}
}

// NewSeeded returns a deterministic generator.
func NewSeeded(seed uint64, now time.Time) *Generator {
	return &Generator{
		rand: rand.New(rand.NewPCG(seed, seed)),
		now:  func() time.Time { return now },
	}
}

func (g *Generator) words(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			if g.rand.IntN(100) < 10 {
				sb.WriteByte(',')
			}
			sb.WriteByte(' ')
		}
		sb.WriteString(words[g.rand.IntN(len(words))])
	}
	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (g *Generator) paragraph(sentences int) string {
	parts := make([]string, sentences)
	for i := range parts {
		parts[i] = capitalize(g.words(g.rand.IntN(30)+5)) + "."
	}
	return strings.Join(parts, " ")
}

// Post writes a post with object notation front matter to w and returns
// its title.
func (g *Generator) Post(w io.Writer) (string, error) {
	published := g.now().Add(-time.Duration(g.rand.Int64N(int64(publishedRange))))
	tags := make([]string, g.rand.IntN(5))
	for i := range tags {
		tags[i] = "'" + g.words(1) + "'"
	}
	title := capitalize(g.words(g.rand.IntN(6) + 1))

	var buf bytes.Buffer
	buf.WriteString("{\n")
	fmt.Fprintf(&buf, "  published: '%s',\n", strftime.Format("%Y-%m-%d %H:%M", published))
	fmt.Fprintf(&buf, "  tags: [%s],\n", strings.Join(tags, ", "))
	buf.WriteString("}\n\n")
	fmt.Fprintf(&buf, "# %s\n", title)
	for i, n := 0, g.rand.IntN(3)+1; i < n; i++ {
		fmt.Fprintf(&buf, "\n%s\n", g.paragraph(g.rand.IntN(6)+1))
	}
	_, err := w.Write(buf.Bytes())
	return title, err
}

// Slug turns a title into a file name.
func Slug(title string) string {
	title = strings.ToLower(strings.ReplaceAll(title, ",", ""))
	return strings.Join(strings.Fields(title), "-")
}

// WriteFile writes a post into dir, named after its title, and returns the
// path of the new file.
func (g *Generator) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	title, err := g.Post(&buf)
	if err != nil {
		return "", err
	}
	base := Slug(title)
	path := filepath.Join(dir, base+".md")
	for i := 2; ; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			path = filepath.Join(dir, fmt.Sprintf("%s-%d.md", base, i))
			continue
		}
		if err != nil {
			return "", err
		}
		_, err = f.Write(buf.Bytes())
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return path, err
	}
}
