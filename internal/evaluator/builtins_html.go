package evaluator

import (
	"path/filepath"
	"strings"

	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/utils"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HtmlBuiltins returns the functions of the html module
func HtmlBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"h":          {Name: "h", Fn: builtinH},
		"href":       {Name: "href", Fn: builtinHref},
		"html":       {Name: "html", Fn: builtinHtml},
		"no_title":   {Name: "no_title", Fn: builtinNoTitle},
		"links":      {Name: "links", Fn: linksBuiltin(false)},
		"urls":       {Name: "urls", Fn: linksBuiltin(true)},
		"parse_html": {Name: "parse_html", Fn: builtinParseHtml},
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#39;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML encodes the five HTML special characters.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// h(v) escapes a string for HTML. Other values use their display text.
func builtinH(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	return str(EscapeHTML(Display(args[0]))), nil
}

// href(path?, class?) produces an href attribute, and a class attribute
// marking the link to the current page with "current".
func builtinHref(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 0, 2); err != nil {
		return nil, err
	}
	path, err := currentPath(env, args)
	if err != nil {
		return nil, err
	}
	class, err := optString(args, 1, "")
	if err != nil {
		return nil, err
	}
	path = utils.TrimIndex(path)
	if IsCurrentPath(env, path) {
		if class != "" {
			class += " current"
		} else {
			class = "current"
		}
	}
	if root, ok := env.GetString(config.RootPathName); ok {
		path = utils.CombinePaths(root, path)
	}
	var sb strings.Builder
	sb.WriteString(` href="`)
	sb.WriteString(EscapeHTML(path))
	sb.WriteByte('"')
	if class != "" {
		sb.WriteString(` class="`)
		sb.WriteString(EscapeHTML(class))
		sb.WriteByte('"')
	}
	return str(sb.String()), nil
}

func builtinHtml(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	var sb strings.Builder
	writeHTML(&sb, env, args[0], false)
	return str(sb.String()), nil
}

// RenderHTML serializes an HTML node value.
func RenderHTML(env *Environment, node Value) string {
	var sb strings.Builder
	writeHTML(&sb, env, node, false)
	return sb.String()
}

func writeHTML(sb *strings.Builder, env *Environment, node Value, raw bool) {
	switch n := node.(type) {
	case *String:
		if raw {
			sb.WriteString(n.Value)
		} else {
			sb.WriteString(EscapeHTML(n.Value))
		}
	case *Object:
		tagValue, _ := field(env, n, "tag")
		tag, isTag := tagValue.(*Symbol)
		if isTag {
			sb.WriteByte('<')
			sb.WriteString(tag.Name)
			if attrs, ok := field(env, n, "attributes"); ok {
				if attrs, ok := attrs.(*Object); ok {
					for _, entry := range attrs.Entries {
						key, kok := entry.Key.(*Symbol)
						value, vok := entry.Value.(*String)
						if !kok || !vok {
							continue
						}
						sb.WriteByte(' ')
						sb.WriteString(key.Name)
						if value.Value != "" {
							sb.WriteString(`="`)
							sb.WriteString(EscapeHTML(value.Value))
							sb.WriteByte('"')
						}
					}
				}
			}
			sb.WriteByte('>')
		}
		childRaw := isTag && (tag.Name == "script" || tag.Name == "style")
		if children, ok := field(env, n, "children"); ok {
			if children, ok := children.(*Array); ok {
				for _, child := range children.Elements {
					writeHTML(sb, env, child, childRaw)
				}
			}
		}
		selfClosing, _ := field(env, n, "self_closing")
		if isTag && !IsTruthy(selfClosing) {
			sb.WriteString("</")
			sb.WriteString(tag.Name)
			sb.WriteByte('>')
		}
	}
}

// ParseHTML parses an HTML fragment in the context of a div element. The
// result is a fragment node whose children are element objects and text
// strings.
func ParseHTML(env *Environment, source string) (*Object, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(source), context)
	if err != nil {
		return nil, err
	}
	root := env.Arena().NewObject()
	putField(env, root, "type", env.Intern("fragment"))
	putField(env, root, "tag", NIL)
	children := env.Arena().NewArray(len(nodes))
	for _, n := range nodes {
		if child := convertHTMLNode(env, n); child != nil {
			children.Push(child)
		}
	}
	putField(env, root, "children", children)
	return root, nil
}

func convertHTMLNode(env *Environment, n *html.Node) Value {
	switch n.Type {
	case html.TextNode:
		return str(n.Data)
	case html.ElementNode:
		obj := env.Arena().NewObject()
		putField(env, obj, "type", env.Intern("element"))
		putField(env, obj, "tag", env.Intern(n.Data))
		attrs := env.Arena().NewObject()
		for _, attr := range n.Attr {
			name := attr.Key
			if attr.Namespace != "" {
				name = attr.Namespace + ":" + name
			}
			attrs.Put(env.Intern(name), str(attr.Val))
		}
		putField(env, obj, "attributes", attrs)
		children := env.Arena().NewArray(0)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convertHTMLNode(env, c); child != nil {
				children.Push(child)
			}
		}
		putField(env, obj, "children", children)
		putField(env, obj, "self_closing", nativeBoolToBoolean(voidElements[n.Data]))
		return obj
	case html.DocumentNode:
		obj := env.Arena().NewObject()
		putField(env, obj, "type", env.Intern("document"))
		children := env.Arena().NewArray(0)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convertHTMLNode(env, c); child != nil {
				children.Push(child)
			}
		}
		putField(env, obj, "children", children)
		return obj
	}
	return nil
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

func builtinParseHtml(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	source, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	node, perr := ParseHTML(env, source)
	if perr != nil {
		return nil, perr
	}
	return node, nil
}

// htmlInput accepts a node or a string of HTML. asString reports whether
// the result must be serialized again.
func htmlInput(env *Environment, v Value) (node Value, asString bool, err error) {
	if s, ok := v.(*String); ok {
		parsed, err := ParseHTML(env, s.Value)
		if err != nil {
			return nil, false, err
		}
		return parsed, true, nil
	}
	return v, false, nil
}

func htmlOutput(env *Environment, node Value, asString bool) Value {
	if asString {
		return str(RenderHTML(env, node))
	}
	return node
}

func findTag(env *Environment, node Value, tag string) *Object {
	obj, ok := node.(*Object)
	if !ok {
		return nil
	}
	if t, ok := field(env, obj, "tag"); ok {
		if sym, ok := t.(*Symbol); ok && sym.Name == tag {
			return obj
		}
	}
	if children, ok := field(env, obj, "children"); ok {
		if children, ok := children.(*Array); ok {
			for _, child := range children.Elements {
				if found := findTag(env, child, tag); found != nil {
					return found
				}
			}
		}
	}
	return nil
}

func removeNode(env *Environment, needle *Object, haystack Value) bool {
	obj, ok := haystack.(*Object)
	if !ok {
		return false
	}
	if obj == needle {
		return true
	}
	children, ok := field(env, obj, "children")
	if !ok {
		return false
	}
	arr, ok := children.(*Array)
	if !ok {
		return false
	}
	for i, child := range arr.Elements {
		if removeNode(env, needle, child) {
			arr.Elements = append(arr.Elements[:i], arr.Elements[i+1:]...)
			return false
		}
	}
	return false
}

// no_title(html) removes the first h1 from a copy of html.
func builtinNoTitle(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	node, asString, err := htmlInput(env, args[0])
	if err != nil {
		return nil, err
	}
	if findTag(env, node, "h1") == nil {
		return args[0], nil
	}
	if !asString {
		node = CopyValue(node, env.Arena())
	}
	if title := findTag(env, node, "h1"); title != nil {
		removeNode(env, title, node)
	}
	return htmlOutput(env, node, asString), nil
}

// walkHTML calls fn for every element object below node, parents first.
func walkHTML(env *Environment, node Value, fn func(*Object) error) error {
	obj, ok := node.(*Object)
	if !ok {
		return nil
	}
	if err := fn(obj); err != nil {
		return err
	}
	children, ok := field(env, obj, "children")
	if !ok {
		return nil
	}
	if arr, ok := children.(*Array); ok {
		for _, child := range arr.Elements {
			if err := walkHTML(env, child, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func attribute(env *Environment, node *Object, name string) (string, bool) {
	attrs, ok := field(env, node, "attributes")
	if !ok {
		return "", false
	}
	obj, ok := attrs.(*Object)
	if !ok {
		return "", false
	}
	return stringField(env, obj, name)
}

func setAttribute(env *Environment, node *Object, name, value string) {
	attrs, ok := field(env, node, "attributes")
	if !ok {
		return
	}
	if obj, ok := attrs.(*Object); ok {
		putField(env, obj, name, str(value))
	}
}

// linkRewriter resolves pletasset: and pletlink: URIs.
type linkRewriter struct {
	e        *Evaluator
	env      *Environment
	absolute bool
	srcRoot  string
	distRoot string
	reverse  *Object
}

func newLinkRewriter(e *Evaluator, env *Environment, absolute bool) (*linkRewriter, error) {
	srcRoot, ok := env.GetString(config.SrcRootName)
	if !ok {
		return nil, newError(diagnostics.ErrR001, "%s missing or not a string", config.SrcRootName)
	}
	distRoot, ok := env.GetString(config.DistRootName)
	if !ok {
		return nil, newError(diagnostics.ErrR001, "%s missing or not a string", config.DistRootName)
	}
	r := &linkRewriter{e: e, env: env, absolute: absolute, srcRoot: srcRoot, distRoot: distRoot}
	if v, ok := env.Get(config.ReversePathsName); ok {
		r.reverse, _ = v.(*Object)
	}
	return r, nil
}

// rewrite returns the replacement for uri, or false when uri is left
// alone.
func (r *linkRewriter) rewrite(uri string) (string, bool, error) {
	switch {
	case strings.HasPrefix(uri, config.AssetURIPrefix):
		asset := strings.TrimPrefix(uri, config.AssetURIPrefix)
		webPath := filepath.Join(config.AssetDir, filepath.FromSlash(asset))
		src := filepath.Join(r.srcRoot, filepath.FromSlash(asset))
		if err := r.e.copyOutput(r.env, src, filepath.Join(r.distRoot, webPath)); err != nil {
			return "", false, err
		}
		return siteLink(r.env, webPath, r.absolute), true, nil
	case strings.HasPrefix(uri, config.LinkURIPrefix):
		link := strings.TrimPrefix(uri, config.LinkURIPrefix)
		if r.reverse != nil {
			if target, ok := r.reverse.Get(str(link)); ok {
				if s, ok := target.(*String); ok {
					link = s.Value
				}
			}
		}
		return siteLink(r.env, link, r.absolute), true, nil
	}
	return "", false, nil
}

// linksBuiltin creates links(html) and urls(html), which rewrite src and
// href attributes using pletasset: and pletlink: URIs into site links.
// Assets are copied to the assets directory of the output.
func linksBuiltin(absolute bool) NativeFunction {
	return func(e *Evaluator, env *Environment, args []Value) (Value, error) {
		if err := checkArgs(args, 1, 1); err != nil {
			return nil, err
		}
		node, asString, err := htmlInput(env, args[0])
		if err != nil {
			return nil, err
		}
		r, err := newLinkRewriter(e, env, absolute)
		if err != nil {
			return nil, err
		}
		err = walkHTML(env, node, func(obj *Object) error {
			for _, name := range []string{"src", "href"} {
				uri, ok := attribute(env, obj, name)
				if !ok {
					continue
				}
				replacement, changed, err := r.rewrite(uri)
				if err != nil {
					return err
				}
				if changed {
					setAttribute(env, obj, name, replacement)
				}
				break
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return htmlOutput(env, node, asString), nil
	}
}
