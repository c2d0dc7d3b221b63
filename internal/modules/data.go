package modules

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/token"
)

// Data files other than object notation are decoded into the same literal
// AST that ParseObjectNotation produces. Mapping keys become name keys.

func literalSpan(path string, line, column int) ast.Span {
	return ast.Span{Token: token.Token{File: path, Line: line, Column: column}}
}

// DecodeYAML converts the first document of data.
func DecodeYAML(data []byte, path string) (ast.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return &ast.NilLiteral{Span: literalSpan(path, 1, 1)}, nil
	}
	return yamlNodeToAST(doc.Content[0], path, 0)
}

func yamlNodeToAST(n *yaml.Node, path string, depth int) (ast.Node, error) {
	if depth > 100 {
		return nil, fmt.Errorf("yaml: nesting too deep at line %d", n.Line)
	}
	span := literalSpan(path, n.Line, n.Column)
	switch n.Kind {
	case yaml.AliasNode:
		return yamlNodeToAST(n.Alias, path, depth+1)
	case yaml.SequenceNode:
		list := &ast.ListLiteral{Span: span, Elements: make([]ast.Node, 0, len(n.Content))}
		for _, child := range n.Content {
			elem, err := yamlNodeToAST(child, path, depth+1)
			if err != nil {
				return nil, err
			}
			list.Elements = append(list.Elements, elem)
		}
		return list, nil
	case yaml.MappingNode:
		obj := &ast.ObjectLiteral{Span: span}
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			value, err := yamlNodeToAST(valueNode, path, depth+1)
			if err != nil {
				return nil, err
			}
			if keyNode.Tag == "!!merge" {
				if merged, ok := value.(*ast.ObjectLiteral); ok {
					obj.Properties = append(obj.Properties, merged.Properties...)
					continue
				}
			}
			key := &ast.Identifier{Span: literalSpan(path, keyNode.Line, keyNode.Column), Value: keyNode.Value}
			obj.Properties = append(obj.Properties, &ast.Property{Key: key, Value: value})
		}
		return obj, nil
	case yaml.ScalarNode:
		return yamlScalarToAST(n, span)
	}
	return nil, fmt.Errorf("yaml: unsupported node at line %d", n.Line)
}

func yamlScalarToAST(n *yaml.Node, span ast.Span) (ast.Node, error) {
	switch n.ShortTag() {
	case "!!null":
		return &ast.NilLiteral{Span: span}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return &ast.BooleanLiteral{Span: span, Value: b}, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, err
		}
		return &ast.IntegerLiteral{Span: span, Value: i}, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return &ast.FloatLiteral{Span: span, Value: f}, nil
	}
	return &ast.StringLiteral{Span: span, Value: n.Value}, nil
}

// DecodeTOML converts a TOML document. Tables keep the order in which
// their keys appear in the source.
func DecodeTOML(source, path string) (ast.Node, error) {
	var data map[string]interface{}
	meta, err := toml.Decode(source, &data)
	if err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	order := make(map[string]int)
	for i, key := range meta.Keys() {
		name := key.String()
		if _, ok := order[name]; !ok {
			order[name] = i
		}
	}
	return tomlValueToAST(data, nil, order, path)
}

func tomlValueToAST(v interface{}, prefix []string, order map[string]int, path string) (ast.Node, error) {
	span := literalSpan(path, 0, 0)
	switch v := v.(type) {
	case nil:
		return &ast.NilLiteral{Span: span}, nil
	case bool:
		return &ast.BooleanLiteral{Span: span, Value: v}, nil
	case int64:
		return &ast.IntegerLiteral{Span: span, Value: v}, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("toml: %v is not representable", v)
		}
		return &ast.FloatLiteral{Span: span, Value: v}, nil
	case string:
		return &ast.StringLiteral{Span: span, Value: v}, nil
	case time.Time:
		return &ast.StringLiteral{Span: span, Value: v.Format(time.RFC3339)}, nil
	case []map[string]interface{}:
		list := &ast.ListLiteral{Span: span, Elements: make([]ast.Node, 0, len(v))}
		for _, item := range v {
			elem, err := tomlValueToAST(item, prefix, order, path)
			if err != nil {
				return nil, err
			}
			list.Elements = append(list.Elements, elem)
		}
		return list, nil
	case []interface{}:
		list := &ast.ListLiteral{Span: span, Elements: make([]ast.Node, 0, len(v))}
		for _, item := range v {
			elem, err := tomlValueToAST(item, prefix, order, path)
			if err != nil {
				return nil, err
			}
			list.Elements = append(list.Elements, elem)
		}
		return list, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		rank := func(k string) int {
			full := toml.Key(append(append([]string{}, prefix...), k)).String()
			if i, ok := order[full]; ok {
				return i
			}
			return math.MaxInt
		}
		sort.SliceStable(keys, func(i, j int) bool {
			ri, rj := rank(keys[i]), rank(keys[j])
			if ri != rj {
				return ri < rj
			}
			return strings.Compare(keys[i], keys[j]) < 0
		})
		obj := &ast.ObjectLiteral{Span: span}
		for _, k := range keys {
			value, err := tomlValueToAST(v[k], append(append([]string{}, prefix...), k), order, path)
			if err != nil {
				return nil, err
			}
			obj.Properties = append(obj.Properties, &ast.Property{
				Key:   &ast.Identifier{Span: span, Value: k},
				Value: value,
			})
		}
		return obj, nil
	}
	return nil, fmt.Errorf("toml: unsupported value of type %T", v)
}
