package evaluator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gopkg.in/yaml.v3"
)

// StringsBuiltins returns the functions of the strings module
func StringsBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"lower":         {Name: "lower", Fn: caseMapper(cases.Lower(language.Und))},
		"upper":         {Name: "upper", Fn: caseMapper(cases.Upper(language.Und))},
		"title":         {Name: "title", Fn: caseMapper(cases.Title(language.Und))},
		"starts_with":   {Name: "starts_with", Fn: builtinStartsWith},
		"ends_with":     {Name: "ends_with", Fn: builtinEndsWith},
		"replace":       {Name: "replace", Fn: builtinReplace},
		"symbol":        {Name: "symbol", Fn: builtinSymbol},
		"json":          {Name: "json", Fn: builtinJson},
		"split":         {Name: "split", Fn: builtinSplit},
		"join":          {Name: "join", Fn: builtinJoin},
		"trim":          {Name: "trim", Fn: builtinTrim},
		"contains":      {Name: "contains", Fn: builtinContains},
		"uuid":          {Name: "uuid", Fn: builtinUuid},
		"format_number": {Name: "format_number", Fn: builtinFormatNumber},
		"yaml":          {Name: "yaml", Fn: builtinYaml},
	}
}

func caseMapper(c cases.Caser) NativeFunction {
	return func(e *Evaluator, env *Environment, args []Value) (Value, error) {
		if err := checkArgs(args, 1, 1); err != nil {
			return nil, err
		}
		s, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return str(c.String(s)), nil
	}
}

func twoStrings(args []Value) (string, string, error) {
	if err := checkArgs(args, 2, 2); err != nil {
		return "", "", err
	}
	a, err := stringArg(args, 0)
	if err != nil {
		return "", "", err
	}
	b, err := stringArg(args, 1)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

func builtinStartsWith(e *Evaluator, env *Environment, args []Value) (Value, error) {
	s, prefix, err := twoStrings(args)
	if err != nil {
		return nil, err
	}
	return nativeBoolToBoolean(strings.HasPrefix(s, prefix)), nil
}

func builtinEndsWith(e *Evaluator, env *Environment, args []Value) (Value, error) {
	s, suffix, err := twoStrings(args)
	if err != nil {
		return nil, err
	}
	return nativeBoolToBoolean(strings.HasSuffix(s, suffix)), nil
}

// replace(haystack, needle, replacement)
func builtinReplace(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 3, 3); err != nil {
		return nil, err
	}
	haystack, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	needle, err := stringArg(args, 1)
	if err != nil {
		return nil, err
	}
	replacement, err := stringArg(args, 2)
	if err != nil {
		return nil, err
	}
	if needle == "" {
		return str(haystack), nil
	}
	return str(strings.ReplaceAll(haystack, needle, replacement)), nil
}

func builtinSymbol(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	return env.Intern(name), nil
}

func builtinSplit(e *Evaluator, env *Environment, args []Value) (Value, error) {
	s, sep, err := twoStrings(args)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return env.Arena().NewArray(0), nil
	}
	parts := strings.Split(s, sep)
	arr := env.Arena().NewArray(len(parts))
	for _, p := range parts {
		arr.Push(str(p))
	}
	return arr, nil
}

// join(array, separator?)
func builtinJoin(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 2); err != nil {
		return nil, err
	}
	arr, err := arrayArg(args, 0)
	if err != nil {
		return nil, err
	}
	sep, err := optString(args, 1, "")
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(arr.Elements))
	for i, v := range arr.Elements {
		parts[i] = Display(v)
	}
	return str(strings.Join(parts, sep)), nil
}

// trim(s, chars?) removes leading and trailing bytes in chars, whitespace
// by default.
func builtinTrim(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 2); err != nil {
		return nil, err
	}
	s, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	chars, err := optString(args, 1, " \t\r\n\v\f")
	if err != nil {
		return nil, err
	}
	return str(strings.Trim(s, chars)), nil
}

// contains(haystack, needle) checks for a substring, an array element or
// an object key.
func builtinContains(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 2, 2); err != nil {
		return nil, err
	}
	switch h := args[0].(type) {
	case *String:
		needle, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		return nativeBoolToBoolean(strings.Contains(h.Value, needle)), nil
	case *Array:
		for _, v := range h.Elements {
			if Equals(v, args[1]) {
				return TRUE, nil
			}
		}
		return FALSE, nil
	case *Object:
		_, ok := h.Get(args[1])
		return nativeBoolToBoolean(ok), nil
	}
	return nil, ArgError(0, "expected string, array or object, got %s", TypeName(args[0]))
}

// uuid(name?) returns a random UUID, or a name based one in the URL
// namespace.
func builtinUuid(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 0, 1); err != nil {
		return nil, err
	}
	name, err := optString(args, 0, "")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return str(uuid.NewString()), nil
	}
	return str(uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()), nil
}

// format_number(n, decimals?, locale?)
func builtinFormatNumber(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 3); err != nil {
		return nil, err
	}
	n, ok := toFloat(args[0])
	if !ok {
		return nil, ArgError(0, "expected number, got %s", TypeName(args[0]))
	}
	decimals, err := optInt(args, 1, 0)
	if err != nil {
		return nil, err
	}
	locale, err := optString(args, 2, "en")
	if err != nil {
		return nil, err
	}
	tag, perr := language.Parse(locale)
	if perr != nil {
		return nil, ArgError(2, "invalid locale: %s", locale)
	}
	p := message.NewPrinter(tag)
	return str(p.Sprint(number.Decimal(n, number.Scale(int(decimals))))), nil
}

func builtinJson(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	var sb strings.Builder
	writeJSON(&sb, args[0])
	return str(sb.String()), nil
}

func jsonString(sb *strings.Builder, s string) {
	b, _ := json.Marshal(s)
	sb.Write(b)
}

// writeJSON encodes v keeping object key order.
func writeJSON(sb *strings.Builder, v Value) {
	switch v := v.(type) {
	case *Boolean:
		sb.WriteString(strconv.FormatBool(v.Value))
	case *Integer:
		sb.WriteString(strconv.FormatInt(v.Value, 10))
	case *Float:
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			sb.WriteString("null")
		} else {
			sb.WriteString(strconv.FormatFloat(v.Value, 'g', -1, 64))
		}
	case *String:
		jsonString(sb, v.Value)
	case *Symbol:
		jsonString(sb, v.Name)
	case *Time:
		jsonString(sb, v.Time().UTC().Format("2006-01-02T15:04:05Z"))
	case *Array:
		sb.WriteByte('[')
		for i, elem := range v.Elements {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeJSON(sb, elem)
		}
		sb.WriteByte(']')
	case *Object:
		sb.WriteByte('{')
		for i, entry := range v.Entries {
			if i > 0 {
				sb.WriteByte(',')
			}
			switch k := entry.Key.(type) {
			case *String, *Symbol:
				jsonString(sb, Display(k))
			default:
				jsonString(sb, ToString(k))
			}
			sb.WriteByte(':')
			writeJSON(sb, entry.Value)
		}
		sb.WriteByte('}')
	case *Builtin, *Closure:
		sb.WriteString(`"(function)"`)
	default:
		sb.WriteString("null")
	}
}

func builtinYaml(e *Evaluator, env *Environment, args []Value) (Value, error) {
	if err := checkArgs(args, 1, 1); err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(yamlNode(args[0]))
	if err != nil {
		return nil, fmt.Errorf("YAML encoding error: %v", err)
	}
	return str(string(out)), nil
}

func yamlScalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// yamlNode converts v to a YAML document node keeping object key order.
func yamlNode(v Value) *yaml.Node {
	switch v := v.(type) {
	case *Boolean:
		return yamlScalar("!!bool", strconv.FormatBool(v.Value))
	case *Integer:
		return yamlScalar("!!int", strconv.FormatInt(v.Value, 10))
	case *Float:
		return yamlScalar("!!float", formatFloat(v.Value))
	case *String:
		return yamlScalar("!!str", v.Value)
	case *Symbol:
		return yamlScalar("!!str", v.Name)
	case *Time:
		return yamlScalar("!!timestamp", v.Time().UTC().Format("2006-01-02T15:04:05Z"))
	case *Array:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, elem := range v.Elements {
			node.Content = append(node.Content, yamlNode(elem))
		}
		return node
	case *Object:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, entry := range v.Entries {
			key := Display(entry.Key)
			if _, ok := entry.Key.(*Symbol); !ok {
				if _, ok := entry.Key.(*String); !ok {
					key = ToString(entry.Key)
				}
			}
			node.Content = append(node.Content, yamlScalar("!!str", key), yamlNode(entry.Value))
		}
		return node
	}
	return yamlScalar("!!null", "null")
}
